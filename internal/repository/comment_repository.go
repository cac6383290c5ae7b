package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/policy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListComments returns one page of the comments visible to v, optionally
// limited to one post.
func (r *CommentRepository) ListComments(ctx context.Context, v policy.Viewer, postID *uint, page Page) ([]models.Comment, int64, error) {
	base := func() *gorm.DB {
		db := r.db.WithContext(ctx).
			Model(&models.Comment{}).
			Scopes(Visible(v, policy.ResourceComment))
		if postID != nil {
			db = db.Where("comments.post_id = ?", *postID)
		}
		return db
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := base().
		Preload("Author", withDeletedAuthors).
		Order("comments.created_at ASC").
		Order("comments.id ASC").
		Scopes(paginate(page)).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// FindVisible resolves a comment through the visibility scope.
func (r *CommentRepository) FindVisible(ctx context.Context, v policy.Viewer, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Scopes(Visible(v, policy.ResourceComment)).
		Preload("Author", withDeletedAuthors).
		Where("comments.id = ?", id).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *CommentRepository) SaveComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(comment).Error
}

func (r *CommentRepository) DeleteComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Delete(comment).Error
}
