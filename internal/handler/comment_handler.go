package handler

import (
	"net/http"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/middleware"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/service"
	"github.com/gin-gonic/gin"
)

// CommentHandler serves the flat comment collection. Comments are created
// through the post they belong to, see PostHandler.CreateComment.
type CommentHandler struct {
	commentService *service.CommentService
	pagination     Pagination
}

func NewCommentHandler(commentService *service.CommentService, pagination Pagination) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		pagination:     pagination,
	}
}

// List GET /api/comments
func (h *CommentHandler) List(c *gin.Context) {
	comments, total, err := h.commentService.List(c.Request.Context(), middleware.ViewerFrom(c), nil, pageFrom(c, h.pagination))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newListResponse[models.Comment](comments, total))
}

// Get GET /api/comments/:id
func (h *CommentHandler) Get(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrCommentNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	comment, err := h.commentService.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Update PUT|PATCH /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrCommentNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.CommentInput
	if err := bindJSON(c, &req); err != nil {
		if denied := h.commentService.CheckUpdate(c.Request.Context(), middleware.ViewerFrom(c), id, isPartial(c)); denied != nil {
			err = denied
		}
		_ = c.Error(err)
		return
	}
	comment, err := h.commentService.Update(c.Request.Context(), middleware.ViewerFrom(c), id, req, isPartial(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrCommentNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.commentService.Delete(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
