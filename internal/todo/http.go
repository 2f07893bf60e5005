package todo

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/todo-api/internal/apperr"
	"github.com/yourusername/todo-api/internal/auth"
	"github.com/yourusername/todo-api/internal/model"
)

// ItemService は To-Do ハンドラーが利用するサービスです。
type ItemService interface {
	List(ctx context.Context, user *model.User) ([]model.Todo, error)
	Create(ctx context.Context, user *model.User, title string) (*model.Todo, error)
	Update(ctx context.Context, user *model.User, id, title string) (*model.Todo, error)
	Toggle(ctx context.Context, user *model.User, id, title string) (*model.Todo, error)
	Delete(ctx context.Context, user *model.User, id string) (*model.Todo, error)
}

type titleRequest struct {
	Title string `json:"title"`
}

// ListHandler は GET /todos のハンドラーを返します。
func ListHandler(svc ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		todos, err := svc.List(c.Request.Context(), user)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, todos)
	}
}

// CreateHandler は POST /todos のハンドラーを返します。
func CreateHandler(svc ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		req, ok := bindTitle(c, true)
		if !ok {
			return
		}
		todo, err := svc.Create(c.Request.Context(), user, req.Title)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, todo)
	}
}

// UpdateHandler は PUT /todos/:id のハンドラーを返します。
func UpdateHandler(svc ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		req, ok := bindTitle(c, true)
		if !ok {
			return
		}
		todo, err := svc.Update(c.Request.Context(), user, c.Param("id"), req.Title)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, todo)
	}
}

// ToggleHandler は PATCH /todos/:id のハンドラーを返します。本文は省略できます。
func ToggleHandler(svc ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		req, ok := bindTitle(c, false)
		if !ok {
			return
		}
		todo, err := svc.Toggle(c.Request.Context(), user, c.Param("id"), req.Title)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, todo)
	}
}

// DeleteHandler は DELETE /todos/:id のハンドラーを返します。
func DeleteHandler(svc ItemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		todo, err := svc.Delete(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, todo)
	}
}

// RegisterRoutes は /todos 配下のルートを登録します。group には RequireLogin を適用しておきます。
func RegisterRoutes(group *gin.RouterGroup, svc ItemService) {
	group.GET("", ListHandler(svc))
	group.POST("", CreateHandler(svc))
	group.PUT("/:id", UpdateHandler(svc))
	group.PATCH("/:id", ToggleHandler(svc))
	group.DELETE("/:id", DeleteHandler(svc))
}

func requireUser(c *gin.Context) (*model.User, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		apperr.Respond(c, apperr.Auth(apperr.CodeMissingToken, "missing token"))
		return nil, false
	}
	return user, true
}

func bindTitle(c *gin.Context, required bool) (titleRequest, bool) {
	var req titleRequest
	if c.Request.ContentLength == 0 && !required {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		if !required && errors.Is(err, io.EOF) {
			return req, true
		}
		apperr.Respond(c, apperr.Validation("request body must be JSON"))
		return req, false
	}
	return req, true
}
