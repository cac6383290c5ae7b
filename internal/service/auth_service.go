package service

import (
	"context"
	"errors"
	"strings"
	"time"

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

// RegisterInput is the public sign-up payload. Role flags cannot be
// requested here; only an admin can grant them.
type RegisterInput struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *security.TokenIssuer
}

func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenIssuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	start := time.Now()

	logger.Log.Debug("Processing user registration",
		zap.String("username", deref(in.Username)),
	)

	user, err := createAccount(ctx, s.userRepo, UserInput{
		Username:  in.Username,
		Password:  in.Password,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
	}, false)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Duration("total_duration", time.Since(start)),
	)
	return user, nil
}

// Login checks credentials and issues an access/refresh pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*security.TokenPair, error) {
	start := time.Now()

	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		logger.Log.Error("Failed to get user by username",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found",
			zap.String("username", username),
		)
		return nil, apperr.ErrNoActiveAccount
	}

	verifyStart := time.Now()
	valid, err := security.CheckPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("user_id", user.ID.String()),
		)
		return nil, apperr.ErrNoActiveAccount
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		logger.Log.Error("Failed to issue token pair",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token. The account must
// still be active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		logger.Log.Warn("Refresh rejected", zap.Error(err))
		return "", apperr.ErrTokenNotValid
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperr.ErrTokenNotValid
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return "", err
	}
	return access, nil
}

// Authenticate resolves a bearer access token to the viewer it identifies.
// Role flags are read from the stored account, not from the token.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (policy.Viewer, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return policy.Anonymous(), apperr.ErrTokenNotValid
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return policy.Anonymous(), err
	}
	if user == nil {
		return policy.Anonymous(), apperr.ErrTokenNotValid
	}

	return policy.NewViewer(user.ID, user.IsAdmin, user.IsBlogger), nil
}

// createAccount validates and stores a new user. withRoles controls whether
// the role flags in the input are honoured.
func createAccount(ctx context.Context, repo *repository.UserRepository, in UserInput, withRoles bool) (*models.User, error) {
	fields := apperr.FieldErrors{}
	validateUserInput(fields, in, false)

	if in.Username != nil && !fields.Has("username") {
		taken, err := repo.UsernameTaken(ctx, strings.TrimSpace(*in.Username), uuid.Nil)
		if err != nil {
			return nil, err
		}
		if taken {
			fields.Add("username", msgUsernameTaken)
		}
	}
	if !fields.Empty() {
		logger.Log.Warn("User validation failed", zap.Strings("fields", fields.Fields()))
		return nil, apperr.InvalidData(fields)
	}

	hashStart := time.Now()
	hash, err := security.HashPassword(*in.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}
	logger.Log.Debug("Password hashed successfully",
		zap.Duration("hash_duration", time.Since(hashStart)),
	)

	user := &models.User{
		Username:     strings.TrimSpace(*in.Username),
		Email:        deref(in.Email),
		FirstName:    deref(in.FirstName),
		LastName:     deref(in.LastName),
		Phone:        deref(in.Phone),
		PasswordHash: hash,
	}
	if withRoles {
		user.IsAdmin = in.IsAdmin != nil && *in.IsAdmin
		user.IsBlogger = in.IsBlogger != nil && *in.IsBlogger
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.InvalidField("username", msgUsernameTaken)
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("username", user.Username),
			zap.Error(err),
		)
		return nil, err
	}
	return user, nil
}
