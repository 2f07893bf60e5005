package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/todo-api/internal/apperr"
	"github.com/yourusername/todo-api/internal/store"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register は POST /users のハンドラーです。
func (m *Manager) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		m.recorder.Registration("invalid")
		apperr.Respond(c, apperr.Validation("name, email and password must be sent as JSON"))
		return
	}

	session, err := m.credentials.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		m.recorder.Registration(outcomeOf(err))
		apperr.Respond(c, err)
		return
	}

	m.recorder.Registration("success")
	m.logger.WithField("user_id", session.User.ID).Info("user registered")
	body := session.User.Public()
	body.Token = session.Token
	c.JSON(http.StatusCreated, body)
}

// Login は POST /users/login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		m.recorder.Login("invalid")
		apperr.Respond(c, apperr.Validation("email and password must be sent as JSON"))
		return
	}

	session, err := m.credentials.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		m.recorder.Login(outcomeOf(err))
		apperr.Respond(c, err)
		return
	}

	m.recorder.Login("success")
	body := session.User.Public()
	body.Token = session.Token
	c.JSON(http.StatusOK, body)
}

// Logout は POST /users/logout のハンドラーです。
// 発行済みトークンはサーバー側で失効させず、クッキーの削除だけを行います。
func (m *Manager) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "User signed out successfully"})
}

// Me は GET /users/me のハンドラーです。
func (m *Manager) Me(c *gin.Context) {
	current, ok := CurrentUser(c)
	if !ok {
		apperr.Respond(c, apperr.Auth(apperr.CodeMissingToken, msgMissingToken))
		return
	}
	user, err := m.users.GetUser(c.Request.Context(), current.ID)
	if err != nil {
		apperr.Respond(c, userLookupError(err))
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// GetUser は GET /users/:id（管理者のみ）のハンドラーです。
func (m *Manager) GetUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	user, err := m.users.GetUser(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, userLookupError(err))
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// DeleteUser は DELETE /users/:id（管理者のみ）のハンドラーです。
func (m *Manager) DeleteUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if current, ok := CurrentUser(c); ok && current.ID == id {
		apperr.Respond(c, apperr.Validation("admins cannot delete their own account"))
		return
	}

	ctx := c.Request.Context()
	if err := m.users.DeleteUser(ctx, id); err != nil {
		apperr.Respond(c, userLookupError(err))
		return
	}

	log := m.logger.WithField("user_id", id)
	if m.purger != nil {
		if err := m.purger.PurgeTodos(ctx, id); err != nil {
			// ユーザーは削除済みなので応答は成功とし、残った To-Do はログに残す
			log.WithError(err).Error("failed to purge todos of deleted user")
		}
	}
	log.Info("user removed")
	c.JSON(http.StatusOK, gin.H{"message": "User removed"})
}

func userLookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(apperr.CodeUserNotFound, "User not found")
	}
	return apperr.Persistence("lookup user", err)
}

func outcomeOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "invalid"
	case apperr.KindConflict:
		return "conflict"
	case apperr.KindAuth:
		return "rejected"
	default:
		return "error"
	}
}
