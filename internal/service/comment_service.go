package service

import (
	"context"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/policy"
	"github.com/Baaaki/blog-platform/internal/repository"
	"github.com/Baaaki/blog-platform/pkg/logger"
	"go.uber.org/zap"
)

const maxCommentLength = 5000

// CommentInput is the writable part of a comment. The parent post comes from
// the route and the author from the token.
type CommentInput struct {
	Content  *string `json:"content"`
	IsHidden *bool   `json:"is_hidden"`
}

type CommentService struct {
	commentRepo *repository.CommentRepository
	postRepo    *repository.PostRepository
}

func NewCommentService(commentRepo *repository.CommentRepository, postRepo *repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// List returns visible comments, all of them or those of one post. A post
// the viewer cannot see is reported as missing.
func (s *CommentService) List(ctx context.Context, v policy.Viewer, postID *uint, page repository.Page) ([]models.Comment, int64, error) {
	if err := policy.Authorize(v, policy.ResourceComment, policy.ActionList); err != nil {
		return nil, 0, err
	}
	if postID != nil {
		if err := s.requirePost(ctx, v, *postID); err != nil {
			return nil, 0, err
		}
	}

	comments, total, err := s.commentRepo.ListComments(ctx, v, postID, page)
	if err != nil {
		logger.Log.Error("Failed to list comments", zap.Error(err))
		return nil, 0, err
	}
	return comments, total, nil
}

func (s *CommentService) Get(ctx context.Context, v policy.Viewer, id uint) (*models.Comment, error) {
	if err := policy.Authorize(v, policy.ResourceComment, policy.ActionRetrieve); err != nil {
		return nil, err
	}
	return s.resolve(ctx, v, id)
}

// CheckParent runs the checks Create performs before it looks at the body:
// the parent post must be visible, then the viewer must be allowed to comment.
func (s *CommentService) CheckParent(ctx context.Context, v policy.Viewer, postID uint) error {
	if err := s.requirePost(ctx, v, postID); err != nil {
		return err
	}
	return policy.Authorize(v, policy.ResourceComment, policy.ActionCreate)
}

// Create adds a comment under postID. The parent is resolved first, so a
// missing post is a 404 whatever the viewer or the body.
func (s *CommentService) Create(ctx context.Context, v policy.Viewer, postID uint, in CommentInput) (*models.Comment, error) {
	if err := s.CheckParent(ctx, v, postID); err != nil {
		return nil, err
	}

	fields := apperr.FieldErrors{}
	checkText(fields, "content", in.Content, true, maxCommentLength)
	if !fields.Empty() {
		return nil, apperr.InvalidData(fields)
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: v.UserID,
		Content:  *in.Content,
	}
	if v.IsAdmin() && in.IsHidden != nil {
		comment.IsHidden = *in.IsHidden
	}

	if err := s.commentRepo.CreateComment(ctx, comment); err != nil {
		logger.Log.Error("Failed to create comment",
			zap.Uint("post_id", postID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("post_id", postID),
		zap.String("author_id", v.UserID.String()),
	)
	return s.resolve(ctx, v, comment.ID)
}

// CheckUpdate is Update up to and including the object rule.
func (s *CommentService) CheckUpdate(ctx context.Context, v policy.Viewer, id uint, partial bool) error {
	action := updateAction(partial)
	if err := policy.Authorize(v, policy.ResourceComment, action); err != nil {
		return err
	}
	comment, err := s.resolve(ctx, v, id)
	if err != nil {
		return err
	}
	return policy.AuthorizeObject(v, policy.ResourceComment, action, comment)
}

func (s *CommentService) Update(ctx context.Context, v policy.Viewer, id uint, in CommentInput, partial bool) (*models.Comment, error) {
	action := updateAction(partial)
	if err := policy.Authorize(v, policy.ResourceComment, action); err != nil {
		return nil, err
	}

	comment, err := s.resolve(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeObject(v, policy.ResourceComment, action, comment); err != nil {
		return nil, err
	}

	fields := apperr.FieldErrors{}
	checkText(fields, "content", in.Content, !partial, maxCommentLength)
	if !fields.Empty() {
		return nil, apperr.InvalidData(fields)
	}

	if in.Content != nil {
		comment.Content = *in.Content
	}
	if v.IsAdmin() && in.IsHidden != nil {
		comment.IsHidden = *in.IsHidden
	}

	if err := s.commentRepo.SaveComment(ctx, comment); err != nil {
		logger.Log.Error("Failed to update comment",
			zap.Uint("comment_id", comment.ID),
			zap.Error(err),
		)
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, v policy.Viewer, id uint) error {
	if err := policy.Authorize(v, policy.ResourceComment, policy.ActionDestroy); err != nil {
		return err
	}
	comment, err := s.resolve(ctx, v, id)
	if err != nil {
		return err
	}
	if err := policy.AuthorizeObject(v, policy.ResourceComment, policy.ActionDestroy, comment); err != nil {
		return err
	}

	if err := s.commentRepo.DeleteComment(ctx, comment); err != nil {
		logger.Log.Error("Failed to delete comment",
			zap.Uint("comment_id", comment.ID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Comment deleted",
		zap.Uint("comment_id", comment.ID),
		zap.String("by", v.UserID.String()),
	)
	return nil
}

func (s *CommentService) requirePost(ctx context.Context, v policy.Viewer, postID uint) error {
	ok, err := s.postRepo.ExistsVisible(ctx, v, postID)
	if err != nil {
		logger.Log.Error("Failed to resolve parent post",
			zap.Uint("post_id", postID),
			zap.Error(err),
		)
		return err
	}
	if !ok {
		return apperr.ErrPostNotFound
	}
	return nil
}

func (s *CommentService) resolve(ctx context.Context, v policy.Viewer, id uint) (*models.Comment, error) {
	comment, err := s.commentRepo.FindVisible(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, apperr.ErrCommentNotFound
	}
	return comment, nil
}
