package handler

import (
	"net/http"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/middleware"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/service"
	"github.com/gin-gonic/gin"
)

// TaxonomyHandler serves /api/categories and /api/tags.
type TaxonomyHandler struct {
	taxonomyService *service.TaxonomyService
	pagination      Pagination
}

func NewTaxonomyHandler(taxonomyService *service.TaxonomyService, pagination Pagination) *TaxonomyHandler {
	return &TaxonomyHandler{
		taxonomyService: taxonomyService,
		pagination:      pagination,
	}
}

func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	categories, total, err := h.taxonomyService.ListCategories(c.Request.Context(), middleware.ViewerFrom(c), pageFrom(c, h.pagination))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newListResponse[models.Category](categories, total))
}

func (h *TaxonomyHandler) GetCategory(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrCategoryNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	category, err := h.taxonomyService.GetCategory(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryInput
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	category, err := h.taxonomyService.CreateCategory(c.Request.Context(), middleware.ViewerFrom(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *TaxonomyHandler) UpdateCategory(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrCategoryNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.CategoryInput
	if err := bindJSON(c, &req); err != nil {
		if denied := h.taxonomyService.CheckCategoryUpdate(c.Request.Context(), middleware.ViewerFrom(c), id, isPartial(c)); denied != nil {
			err = denied
		}
		_ = c.Error(err)
		return
	}
	category, err := h.taxonomyService.UpdateCategory(c.Request.Context(), middleware.ViewerFrom(c), id, req, isPartial(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrCategoryNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.taxonomyService.DeleteCategory(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaxonomyHandler) ListTags(c *gin.Context) {
	tags, total, err := h.taxonomyService.ListTags(c.Request.Context(), middleware.ViewerFrom(c), pageFrom(c, h.pagination))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newListResponse[models.Tag](tags, total))
}

func (h *TaxonomyHandler) GetTag(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrTagNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	tag, err := h.taxonomyService.GetTag(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *TaxonomyHandler) CreateTag(c *gin.Context) {
	var req service.TagInput
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	tag, err := h.taxonomyService.CreateTag(c.Request.Context(), middleware.ViewerFrom(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *TaxonomyHandler) UpdateTag(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrTagNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req service.TagInput
	if err := bindJSON(c, &req); err != nil {
		if denied := h.taxonomyService.CheckTagUpdate(c.Request.Context(), middleware.ViewerFrom(c), id, isPartial(c)); denied != nil {
			err = denied
		}
		_ = c.Error(err)
		return
	}
	tag, err := h.taxonomyService.UpdateTag(c.Request.Context(), middleware.ViewerFrom(c), id, req, isPartial(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *TaxonomyHandler) DeleteTag(c *gin.Context) {
	id, err := uintParam(c, "id", apperr.ErrTagNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.taxonomyService.DeleteTag(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
