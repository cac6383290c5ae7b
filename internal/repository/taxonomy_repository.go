package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/blog-platform/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaxonomyRepository stores categories and tags. Neither has an owner or a
// hidden flag, so there are no viewer scopes here.
type TaxonomyRepository struct {
	db *gorm.DB
}

func NewTaxonomyRepository(db *gorm.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

func (r *TaxonomyRepository) ListCategories(ctx context.Context, page Page) ([]models.Category, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Scopes(paginate(page)).
		Find(&categories).Error
	return categories, total, err
}

func (r *TaxonomyRepository) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *TaxonomyRepository) CategoryNameTaken(ctx context.Context, name string, except uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("name = ? AND id <> ?", name, except).
		Count(&count).Error
	return count > 0, err
}

func (r *TaxonomyRepository) SaveCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(category).Error
}

// DeleteCategory removes the category and its post links; posts stay.
func (r *TaxonomyRepository) DeleteCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Select("Posts").Delete(category).Error
}

func (r *TaxonomyRepository) ListTags(ctx context.Context, page Page) ([]models.Tag, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Tag{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Scopes(paginate(page)).
		Find(&tags).Error
	return tags, total, err
}

func (r *TaxonomyRepository) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

func (r *TaxonomyRepository) TagNameTaken(ctx context.Context, name string, except uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("name = ? AND id <> ?", name, except).
		Count(&count).Error
	return count > 0, err
}

func (r *TaxonomyRepository) SaveTag(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(tag).Error
}

func (r *TaxonomyRepository) DeleteTag(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Select("Posts").Delete(tag).Error
}
