package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/todo-api/internal/apperr"
	"github.com/yourusername/todo-api/internal/model"
)

// RequireLogin は Authorization: Bearer ヘッダーのトークンを検証するミドルウェアを返します。
// ユーザーが解決できた場合のみ後続へ進みます。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			m.recorder.TokenCheck("missing")
			apperr.Respond(c, apperr.Auth(apperr.CodeMissingToken, msgMissingToken))
			return
		}

		user, err := m.tokens.Verify(c.Request.Context(), token)
		if err != nil {
			m.recorder.TokenCheck(tokenCheckResult(err))
			apperr.Respond(c, err)
			return
		}

		m.recorder.TokenCheck("ok")
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireAdmin は管理者以外を拒否します。RequireLogin の後に置きます。
func (m *Manager) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			apperr.Respond(c, apperr.Auth(apperr.CodeMissingToken, msgMissingToken))
			return
		}
		if !user.IsAdmin {
			apperr.Respond(c, apperr.Forbidden("not authorized as an admin"))
			return
		}
		c.Next()
	}
}

// CurrentUser は RequireLogin が設定したユーザーを返します。
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func tokenCheckResult(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeInvalidToken:
		return "invalid"
	case apperr.CodeUserNotFound:
		return "user_missing"
	default:
		return "error"
	}
}
