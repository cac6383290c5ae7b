package handler

import (
	"net/http"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/middleware"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
	pagination  Pagination
}

func NewUserHandler(userService *service.UserService, pagination Pagination) *UserHandler {
	return &UserHandler{
		userService: userService,
		pagination:  pagination,
	}
}

// List GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, total, err := h.userService.List(c.Request.Context(), middleware.ViewerFrom(c), pageFrom(c, h.pagination))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newListResponse[models.User](users, total))
}

// Get GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id", apperr.ErrUserNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.userService.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.UserInput
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.userService.Create(c.Request.Context(), middleware.ViewerFrom(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Update PUT|PATCH /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id", apperr.ErrUserNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.UserInput
	if err := bindJSON(c, &req); err != nil {
		if denied := h.userService.CheckUpdate(c.Request.Context(), middleware.ViewerFrom(c), id, isPartial(c)); denied != nil {
			err = denied
		}
		_ = c.Error(err)
		return
	}
	user, err := h.userService.Update(c.Request.Context(), middleware.ViewerFrom(c), id, req, isPartial(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "id", apperr.ErrUserNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.userService.Delete(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
