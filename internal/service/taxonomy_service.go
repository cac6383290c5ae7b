package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/policy"
	"github.com/Baaaki/blog-platform/internal/repository"
	"github.com/Baaaki/blog-platform/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgCategoryTaken = "category with this name already exists."
	msgTagTaken      = "tag with this name already exists."
)

type CategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type TagInput struct {
	Name *string `json:"name"`
}

// TaxonomyService manages categories and tags. Reads are public, writes are
// admin only.
type TaxonomyService struct {
	repo *repository.TaxonomyRepository
}

func NewTaxonomyService(repo *repository.TaxonomyRepository) *TaxonomyService {
	return &TaxonomyService{repo: repo}
}

func (s *TaxonomyService) ListCategories(ctx context.Context, v policy.Viewer, page repository.Page) ([]models.Category, int64, error) {
	if err := policy.Authorize(v, policy.ResourceCategory, policy.ActionList); err != nil {
		return nil, 0, err
	}
	return s.repo.ListCategories(ctx, page)
}

func (s *TaxonomyService) GetCategory(ctx context.Context, v policy.Viewer, id uint) (*models.Category, error) {
	if err := policy.Authorize(v, policy.ResourceCategory, policy.ActionRetrieve); err != nil {
		return nil, err
	}
	return s.category(ctx, id)
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, v policy.Viewer, in CategoryInput) (*models.Category, error) {
	if err := policy.Authorize(v, policy.ResourceCategory, policy.ActionCreate); err != nil {
		return nil, err
	}
	category := &models.Category{}
	if err := s.saveCategory(ctx, category, in, false); err != nil {
		return nil, err
	}
	logger.Log.Info("Category created",
		zap.Uint("category_id", category.ID),
		zap.String("name", category.Name),
	)
	return category, nil
}

// CheckCategoryUpdate is UpdateCategory without the body: the admin rule,
// then the category must exist.
func (s *TaxonomyService) CheckCategoryUpdate(ctx context.Context, v policy.Viewer, id uint, partial bool) error {
	if err := policy.Authorize(v, policy.ResourceCategory, updateAction(partial)); err != nil {
		return err
	}
	_, err := s.category(ctx, id)
	return err
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, v policy.Viewer, id uint, in CategoryInput, partial bool) (*models.Category, error) {
	action := updateAction(partial)
	if err := policy.Authorize(v, policy.ResourceCategory, action); err != nil {
		return nil, err
	}
	category, err := s.category(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.saveCategory(ctx, category, in, partial); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *TaxonomyService) DeleteCategory(ctx context.Context, v policy.Viewer, id uint) error {
	if err := policy.Authorize(v, policy.ResourceCategory, policy.ActionDestroy); err != nil {
		return err
	}
	category, err := s.category(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, category); err != nil {
		logger.Log.Error("Failed to delete category",
			zap.Uint("category_id", id),
			zap.Error(err),
		)
		return err
	}
	logger.Log.Info("Category deleted", zap.Uint("category_id", id))
	return nil
}

func (s *TaxonomyService) ListTags(ctx context.Context, v policy.Viewer, page repository.Page) ([]models.Tag, int64, error) {
	if err := policy.Authorize(v, policy.ResourceTag, policy.ActionList); err != nil {
		return nil, 0, err
	}
	return s.repo.ListTags(ctx, page)
}

func (s *TaxonomyService) GetTag(ctx context.Context, v policy.Viewer, id uint) (*models.Tag, error) {
	if err := policy.Authorize(v, policy.ResourceTag, policy.ActionRetrieve); err != nil {
		return nil, err
	}
	return s.tag(ctx, id)
}

func (s *TaxonomyService) CreateTag(ctx context.Context, v policy.Viewer, in TagInput) (*models.Tag, error) {
	if err := policy.Authorize(v, policy.ResourceTag, policy.ActionCreate); err != nil {
		return nil, err
	}
	tag := &models.Tag{}
	if err := s.saveTag(ctx, tag, in, false); err != nil {
		return nil, err
	}
	logger.Log.Info("Tag created",
		zap.Uint("tag_id", tag.ID),
		zap.String("name", tag.Name),
	)
	return tag, nil
}

func (s *TaxonomyService) CheckTagUpdate(ctx context.Context, v policy.Viewer, id uint, partial bool) error {
	if err := policy.Authorize(v, policy.ResourceTag, updateAction(partial)); err != nil {
		return err
	}
	_, err := s.tag(ctx, id)
	return err
}

func (s *TaxonomyService) UpdateTag(ctx context.Context, v policy.Viewer, id uint, in TagInput, partial bool) (*models.Tag, error) {
	action := updateAction(partial)
	if err := policy.Authorize(v, policy.ResourceTag, action); err != nil {
		return nil, err
	}
	tag, err := s.tag(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.saveTag(ctx, tag, in, partial); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *TaxonomyService) DeleteTag(ctx context.Context, v policy.Viewer, id uint) error {
	if err := policy.Authorize(v, policy.ResourceTag, policy.ActionDestroy); err != nil {
		return err
	}
	tag, err := s.tag(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTag(ctx, tag); err != nil {
		logger.Log.Error("Failed to delete tag",
			zap.Uint("tag_id", id),
			zap.Error(err),
		)
		return err
	}
	logger.Log.Info("Tag deleted", zap.Uint("tag_id", id))
	return nil
}

func (s *TaxonomyService) saveCategory(ctx context.Context, category *models.Category, in CategoryInput, partial bool) error {
	fields := apperr.FieldErrors{}
	checkText(fields, "name", in.Name, !partial, 100)
	if in.Name != nil && !fields.Has("name") {
		taken, err := s.repo.CategoryNameTaken(ctx, strings.TrimSpace(*in.Name), category.ID)
		if err != nil {
			return err
		}
		if taken {
			fields.Add("name", msgCategoryTaken)
		}
	}
	if !fields.Empty() {
		return apperr.InvalidData(fields)
	}

	if in.Name != nil {
		category.Name = strings.TrimSpace(*in.Name)
	}
	applyString(&category.Description, in.Description, partial)

	if err := s.repo.SaveCategory(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.InvalidField("name", msgCategoryTaken)
		}
		logger.Log.Error("Failed to save category", zap.Error(err))
		return err
	}
	return nil
}

func (s *TaxonomyService) saveTag(ctx context.Context, tag *models.Tag, in TagInput, partial bool) error {
	fields := apperr.FieldErrors{}
	checkText(fields, "name", in.Name, !partial, 50)
	if in.Name != nil && !fields.Has("name") {
		taken, err := s.repo.TagNameTaken(ctx, strings.TrimSpace(*in.Name), tag.ID)
		if err != nil {
			return err
		}
		if taken {
			fields.Add("name", msgTagTaken)
		}
	}
	if !fields.Empty() {
		return apperr.InvalidData(fields)
	}

	if in.Name != nil {
		tag.Name = strings.TrimSpace(*in.Name)
	}

	if err := s.repo.SaveTag(ctx, tag); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.InvalidField("name", msgTagTaken)
		}
		logger.Log.Error("Failed to save tag", zap.Error(err))
		return err
	}
	return nil
}

func (s *TaxonomyService) category(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperr.ErrCategoryNotFound
	}
	return category, nil
}

func (s *TaxonomyService) tag(ctx context.Context, id uint) (*models.Tag, error) {
	tag, err := s.repo.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, apperr.ErrTagNotFound
	}
	return tag, nil
}
