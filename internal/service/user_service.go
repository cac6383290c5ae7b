package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/policy"
	"github.com/Baaaki/blog-platform/internal/repository"
	"github.com/Baaaki/blog-platform/internal/security"
	"github.com/Baaaki/blog-platform/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgUsernameTaken = "A user with that username already exists."

// UserInput is the payload of the users collection. Password is write-only.
// IsAdmin and IsBlogger are only honoured for admin viewers.
type UserInput struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	IsAdmin   *bool   `json:"is_admin"`
	IsBlogger *bool   `json:"is_blogger"`
}

func validateUserInput(fields apperr.FieldErrors, in UserInput, partial bool) {
	checkUsername(fields, in.Username, !partial)
	checkPassword(fields, in.Password, !partial)
	checkOptional(fields, "email", in.Email, 254, emailRegex, "Enter a valid email address.")
	checkOptional(fields, "first_name", in.FirstName, 150, nil, "")
	checkOptional(fields, "last_name", in.LastName, 150, nil, "")
	checkOptional(fields, "phone", in.Phone, 20, phoneRegex, "Enter a valid phone number.")
}

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List returns every user to admins and only the caller's own row to
// everybody else.
func (s *UserService) List(ctx context.Context, v policy.Viewer, page repository.Page) ([]models.User, int64, error) {
	if err := policy.Authorize(v, policy.ResourceUser, policy.ActionList); err != nil {
		return nil, 0, err
	}
	users, total, err := s.userRepo.ListUsers(ctx, v, page)
	if err != nil {
		logger.Log.Error("Failed to list users", zap.Error(err))
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, v policy.Viewer, id uuid.UUID) (*models.User, error) {
	if err := policy.Authorize(v, policy.ResourceUser, policy.ActionRetrieve); err != nil {
		return nil, err
	}
	return s.resolve(ctx, v, id)
}

// Create is the admin path for adding accounts, role flags included.
func (s *UserService) Create(ctx context.Context, v policy.Viewer, in UserInput) (*models.User, error) {
	if err := policy.Authorize(v, policy.ResourceUser, policy.ActionCreate); err != nil {
		return nil, err
	}
	user, err := createAccount(ctx, s.userRepo, in, true)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("User created by admin",
		zap.String("admin_id", v.UserID.String()),
		zap.String("user_id", user.ID.String()),
		zap.Bool("is_admin", user.IsAdmin),
		zap.Bool("is_blogger", user.IsBlogger),
	)
	return user, nil
}

// CheckUpdate is Update up to and including the object rule.
func (s *UserService) CheckUpdate(ctx context.Context, v policy.Viewer, id uuid.UUID, partial bool) error {
	action := updateAction(partial)
	if err := policy.Authorize(v, policy.ResourceUser, action); err != nil {
		return err
	}
	user, err := s.resolve(ctx, v, id)
	if err != nil {
		return err
	}
	return policy.AuthorizeObject(v, policy.ResourceUser, action, user)
}

func (s *UserService) Update(ctx context.Context, v policy.Viewer, id uuid.UUID, in UserInput, partial bool) (*models.User, error) {
	action := updateAction(partial)
	if err := policy.Authorize(v, policy.ResourceUser, action); err != nil {
		return nil, err
	}

	user, err := s.resolve(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeObject(v, policy.ResourceUser, action, user); err != nil {
		return nil, err
	}

	fields := apperr.FieldErrors{}
	// A full update without a password keeps the current one.
	validateUserInput(fields, in, partial)
	if in.Password == nil {
		delete(fields, "password")
	}
	if in.Username != nil && !fields.Has("username") {
		taken, err := s.userRepo.UsernameTaken(ctx, strings.TrimSpace(*in.Username), user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			fields.Add("username", msgUsernameTaken)
		}
	}
	if !fields.Empty() {
		return nil, apperr.InvalidData(fields)
	}

	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
	}
	applyString(&user.Email, in.Email, partial)
	applyString(&user.FirstName, in.FirstName, partial)
	applyString(&user.LastName, in.LastName, partial)
	applyString(&user.Phone, in.Phone, partial)
	if in.Password != nil {
		hash, err := security.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	// Role changes are an admin privilege; other viewers' flags are ignored.
	if v.IsAdmin() {
		if in.IsAdmin != nil {
			user.IsAdmin = *in.IsAdmin
		}
		if in.IsBlogger != nil {
			user.IsBlogger = *in.IsBlogger
		}
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.InvalidField("username", msgUsernameTaken)
		}
		logger.Log.Error("Failed to update user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User updated",
		zap.String("user_id", user.ID.String()),
		zap.String("by", v.UserID.String()),
	)
	return user, nil
}

// Delete soft-deletes the account. Rows stay in storage.
func (s *UserService) Delete(ctx context.Context, v policy.Viewer, id uuid.UUID) error {
	if err := policy.Authorize(v, policy.ResourceUser, policy.ActionDestroy); err != nil {
		return err
	}
	user, err := s.resolve(ctx, v, id)
	if err != nil {
		return err
	}
	if err := policy.AuthorizeObject(v, policy.ResourceUser, policy.ActionDestroy, user); err != nil {
		return err
	}

	if err := s.userRepo.SoftDeleteUser(ctx, user.ID); err != nil {
		logger.Log.Error("Failed to delete user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("User deleted",
		zap.String("user_id", user.ID.String()),
		zap.String("by", v.UserID.String()),
	)
	return nil
}

func (s *UserService) resolve(ctx context.Context, v policy.Viewer, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.FindVisible(ctx, v, id)
	if err != nil {
		logger.Log.Error("Failed to load user",
			zap.String("user_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}
	return user, nil
}

// applyString copies an optional field. A full update clears absent fields.
func applyString(dst *string, src *string, partial bool) {
	switch {
	case src != nil:
		*dst = *src
	case !partial:
		*dst = ""
	}
}
