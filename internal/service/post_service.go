package service

import (
	"context"
	"time"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/policy"
	"github.com/Baaaki/blog-platform/internal/repository"
	"github.com/Baaaki/blog-platform/pkg/logger"
	"go.uber.org/zap"
)

// PostInput is the writable part of a blog post. Author and comments are
// never taken from the client.
type PostInput struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Categories *[]uint `json:"categories"`
	Tags       *[]uint `json:"tags"`
	IsHidden   *bool   `json:"is_hidden"`
}

func validatePostInput(fields apperr.FieldErrors, in PostInput, partial bool) {
	checkText(fields, "title", in.Title, !partial, 200)
	checkText(fields, "content", in.Content, !partial, 0)
}

type PostService struct {
	postRepo *repository.PostRepository
}

func NewPostService(postRepo *repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func (s *PostService) List(ctx context.Context, v policy.Viewer, q repository.PostQuery) ([]models.BlogPost, int64, error) {
	if err := policy.Authorize(v, policy.ResourcePost, policy.ActionList); err != nil {
		return nil, 0, err
	}
	posts, total, err := s.postRepo.ListPosts(ctx, v, q)
	if err != nil {
		logger.Log.Error("Failed to list posts",
			zap.String("search", q.Search),
			zap.Error(err),
		)
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *PostService) Get(ctx context.Context, v policy.Viewer, id uint) (*models.BlogPost, error) {
	if err := policy.Authorize(v, policy.ResourcePost, policy.ActionRetrieve); err != nil {
		return nil, err
	}
	return s.resolve(ctx, s.postRepo, v, id)
}

// CanCreate is the action-level check of Create on its own.
func (s *PostService) CanCreate(v policy.Viewer) error {
	return policy.Authorize(v, policy.ResourcePost, policy.ActionCreate)
}

// CheckUpdate runs the checks Update performs before it looks at the body:
// the action rule, resolution in the viewer's scope and the object rule.
func (s *PostService) CheckUpdate(ctx context.Context, v policy.Viewer, id uint, partial bool) error {
	action := updateAction(partial)
	if err := policy.Authorize(v, policy.ResourcePost, action); err != nil {
		return err
	}
	post, err := s.resolve(ctx, s.postRepo, v, id)
	if err != nil {
		return err
	}
	return policy.AuthorizeObject(v, policy.ResourcePost, action, post)
}

// Create stores a post authored by v together with its category and tag
// links. Either everything is committed or nothing is.
func (s *PostService) Create(ctx context.Context, v policy.Viewer, in PostInput) (*models.BlogPost, error) {
	start := time.Now()

	if err := s.CanCreate(v); err != nil {
		logger.Log.Warn("Post creation denied", zap.String("user_id", v.UserID.String()))
		return nil, err
	}

	fields := apperr.FieldErrors{}
	validatePostInput(fields, in, false)

	var id uint
	err := s.postRepo.Transaction(ctx, func(tx *repository.PostRepository) error {
		post := &models.BlogPost{
			AuthorID: v.UserID,
			Title:    deref(in.Title),
			Content:  deref(in.Content),
		}
		if v.IsAdmin() && in.IsHidden != nil {
			post.IsHidden = *in.IsHidden
		}
		if err := s.write(ctx, tx, post, in, fields, true); err != nil {
			return err
		}
		id = post.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	post, err := s.resolve(ctx, s.postRepo, v, id)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Post created",
		zap.Uint("post_id", post.ID),
		zap.String("author_id", v.UserID.String()),
		zap.Int("categories", len(post.Categories)),
		zap.Int("tags", len(post.Tags)),
		zap.Duration("total_duration", time.Since(start)),
	)
	return post, nil
}

func (s *PostService) Update(ctx context.Context, v policy.Viewer, id uint, in PostInput, partial bool) (*models.BlogPost, error) {
	action := updateAction(partial)
	if err := policy.Authorize(v, policy.ResourcePost, action); err != nil {
		return nil, err
	}

	err := s.postRepo.Transaction(ctx, func(tx *repository.PostRepository) error {
		post, err := s.resolve(ctx, tx, v, id)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeObject(v, policy.ResourcePost, action, post); err != nil {
			logger.Log.Warn("Post update denied",
				zap.Uint("post_id", post.ID),
				zap.String("user_id", v.UserID.String()),
			)
			return err
		}

		fields := apperr.FieldErrors{}
		validatePostInput(fields, in, partial)

		if in.Title != nil {
			post.Title = *in.Title
		}
		if in.Content != nil {
			post.Content = *in.Content
		}
		if v.IsAdmin() && in.IsHidden != nil {
			post.IsHidden = *in.IsHidden
		}
		return s.write(ctx, tx, post, in, fields, false)
	})
	if err != nil {
		return nil, err
	}

	post, err := s.resolve(ctx, s.postRepo, v, id)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Post updated",
		zap.Uint("post_id", post.ID),
		zap.String("by", v.UserID.String()),
	)
	return post, nil
}

// Delete removes the post, its category and tag links and its comments in
// one transaction.
func (s *PostService) Delete(ctx context.Context, v policy.Viewer, id uint) error {
	if err := policy.Authorize(v, policy.ResourcePost, policy.ActionDestroy); err != nil {
		return err
	}

	err := s.postRepo.Transaction(ctx, func(tx *repository.PostRepository) error {
		post, err := s.resolve(ctx, tx, v, id)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeObject(v, policy.ResourcePost, policy.ActionDestroy, post); err != nil {
			return err
		}
		return tx.DeletePost(ctx, post)
	})
	if err != nil {
		return err
	}

	logger.Log.Info("Post deleted",
		zap.Uint("post_id", id),
		zap.String("by", v.UserID.String()),
	)
	return nil
}

// write finishes validation against the database and persists the post and
// its links. It runs inside the caller's transaction; any returned error
// rolls back the post row as well.
func (s *PostService) write(ctx context.Context, tx *repository.PostRepository, post *models.BlogPost, in PostInput, fields apperr.FieldErrors, create bool) error {
	var categories []models.Category
	if in.Categories != nil {
		found, missing, err := tx.FindCategories(ctx, *in.Categories)
		if err != nil {
			return err
		}
		for _, id := range missing {
			fields.Add("categories", invalidPK(id))
		}
		categories = found
	}

	var tags []models.Tag
	if in.Tags != nil {
		found, missing, err := tx.FindTags(ctx, *in.Tags)
		if err != nil {
			return err
		}
		for _, id := range missing {
			fields.Add("tags", invalidPK(id))
		}
		tags = found
	}

	if !fields.Empty() {
		logger.Log.Warn("Post validation failed", zap.Strings("fields", fields.Fields()))
		return apperr.InvalidData(fields)
	}

	if create {
		if err := tx.CreatePost(ctx, post); err != nil {
			logger.Log.Error("Failed to create post", zap.Error(err))
			return err
		}
	} else {
		if err := tx.SavePost(ctx, post); err != nil {
			logger.Log.Error("Failed to save post",
				zap.Uint("post_id", post.ID),
				zap.Error(err),
			)
			return err
		}
	}

	if in.Categories != nil {
		if err := tx.ReplaceCategories(ctx, post, categories); err != nil {
			return err
		}
	}
	if in.Tags != nil {
		if err := tx.ReplaceTags(ctx, post, tags); err != nil {
			return err
		}
	}
	return nil
}

func updateAction(partial bool) policy.Action {
	if partial {
		return policy.ActionPartialUpdate
	}
	return policy.ActionUpdate
}

func (s *PostService) resolve(ctx context.Context, repo *repository.PostRepository, v policy.Viewer, id uint) (*models.BlogPost, error) {
	post, err := repo.FindVisible(ctx, v, id)
	if err != nil {
		logger.Log.Error("Failed to load post",
			zap.Uint("post_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	if post == nil {
		return nil, apperr.ErrPostNotFound
	}
	return post, nil
}
