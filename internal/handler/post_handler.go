package handler

import (
	"net/http"
	"strings"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/middleware"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/repository"
	"github.com/Baaaki/blog-platform/internal/service"
	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postService    *service.PostService
	commentService *service.CommentService
	pagination     Pagination
}

func NewPostHandler(postService *service.PostService, commentService *service.CommentService, pagination Pagination) *PostHandler {
	return &PostHandler{
		postService:    postService,
		commentService: commentService,
		pagination:     pagination,
	}
}

// List GET /api/posts?search=&ordering=
func (h *PostHandler) List(c *gin.Context) {
	q := repository.PostQuery{
		Search: c.Query("search"),
		Page:   pageFrom(c, h.pagination),
	}
	if ordering := c.Query("ordering"); ordering != "" {
		q.Ordering = strings.Split(ordering, ",")
	}

	posts, total, err := h.postService.List(c.Request.Context(), middleware.ViewerFrom(c), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newListResponse[models.BlogPost](posts, total))
}

// Get GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrPostNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	post, err := h.postService.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Create POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	viewer := middleware.ViewerFrom(c)

	var req service.PostInput
	if err := bindJSON(c, &req); err != nil {
		// A caller that may not post at all gets 403 whatever the payload.
		if denied := h.postService.CanCreate(viewer); denied != nil {
			err = denied
		}
		_ = c.Error(err)
		return
	}
	post, err := h.postService.Create(c.Request.Context(), viewer, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Update PUT|PATCH /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrPostNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.PostInput
	if err := bindJSON(c, &req); err != nil {
		// The record and the caller's rights to it are settled before the body.
		if denied := h.postService.CheckUpdate(c.Request.Context(), middleware.ViewerFrom(c), id, isPartial(c)); denied != nil {
			err = denied
		}
		_ = c.Error(err)
		return
	}
	post, err := h.postService.Update(c.Request.Context(), middleware.ViewerFrom(c), id, req, isPartial(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrPostNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.postService.Delete(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListComments GET /api/posts/:id/comments
func (h *PostHandler) ListComments(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrPostNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	comments, total, err := h.commentService.List(c.Request.Context(), middleware.ViewerFrom(c), &id, pageFrom(c, h.pagination))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newListResponse[models.Comment](comments, total))
}

// CreateComment POST /api/posts/:id/comments
func (h *PostHandler) CreateComment(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrPostNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.CommentInput
	if bindErr := bindJSON(c, &req); bindErr != nil {
		// The body is only looked at once the post is known to exist.
		if err := h.commentService.CheckParent(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
			_ = c.Error(err)
			return
		}
		_ = c.Error(bindErr)
		return
	}
	comment, err := h.commentService.Create(c.Request.Context(), middleware.ViewerFrom(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
