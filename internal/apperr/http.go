package apperr

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status はエラーに対応する HTTP ステータスを返します。
func Status(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		if errors.Is(err, context.Canceled) {
			return http.StatusRequestTimeout
		}
		return http.StatusInternalServerError
	}

	switch appErr.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth:
		// ログイン失敗はルート表に合わせて 400 を返す
		if appErr.Code == CodeInvalidCredentials {
			return http.StatusBadRequest
		}
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Respond はエラーを {"code","message"} 形式で返し、後続のハンドラーを中断します。
func Respond(c *gin.Context, err error) {
	status := Status(err)
	_ = c.Error(err)

	var appErr *Error
	switch {
	case errors.As(err, &appErr) && status < http.StatusInternalServerError:
		c.AbortWithStatusJSON(status, gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatusJSON(status, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "request canceled",
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    CodeInternal,
			"message": "internal server error",
		})
	}
}
