package testutil

import (
	"testing"

	"github.com/Baaaki/blog-platform/internal/config"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/security"
	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every fixture account.
const DefaultPassword = "Test123456"

// cheapParams keeps fixture hashing fast; the format is the production one.
var cheapParams = security.PasswordParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Fixtures writes test records straight into the database and issues
// tokens for them with the same secrets the router uses.
type Fixtures struct {
	DB     *gorm.DB
	Tokens *security.TokenIssuer
	faker  *gofakeit.Faker
}

func NewFixtures(db *gorm.DB, cfg *config.Config) *Fixtures {
	return &Fixtures{
		DB:     db,
		Tokens: security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		faker:  gofakeit.New(0),
	}
}

// UserOption tweaks a fixture user before it is stored.
type UserOption func(*models.User)

func Admin() UserOption   { return func(u *models.User) { u.IsAdmin = true } }
func Blogger() UserOption { return func(u *models.User) { u.IsBlogger = true } }

func WithUsername(name string) UserOption {
	return func(u *models.User) { u.Username = name }
}

// CreateUser stores a user with DefaultPassword.
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()

	hash, err := security.HashPasswordWith(DefaultPassword, cheapParams)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     f.faker.Username() + f.faker.DigitN(4),
		Email:        f.faker.Email(),
		FirstName:    f.faker.FirstName(),
		LastName:     f.faker.LastName(),
		PasswordHash: hash,
	}
	for _, opt := range opts {
		opt(user)
	}

	if err := f.DB.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// Token returns a valid access token for user.
func (f *Fixtures) Token(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := f.Tokens.IssueAccess(user.ID)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

func (f *Fixtures) CreateCategory(t *testing.T, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, Description: f.faker.Sentence(6)}
	if err := f.DB.Create(category).Error; err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	return category
}

func (f *Fixtures) CreateTag(t *testing.T, name string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: name}
	if err := f.DB.Create(tag).Error; err != nil {
		t.Fatalf("Failed to create tag: %v", err)
	}
	return tag
}

// PostOption tweaks a fixture post before it is stored.
type PostOption func(*models.BlogPost)

func Hidden() PostOption { return func(p *models.BlogPost) { p.IsHidden = true } }

func WithTitle(title string) PostOption {
	return func(p *models.BlogPost) { p.Title = title }
}

func WithContent(content string) PostOption {
	return func(p *models.BlogPost) { p.Content = content }
}

func WithCategories(categories ...models.Category) PostOption {
	return func(p *models.BlogPost) { p.Categories = categories }
}

func WithTags(tags ...models.Tag) PostOption {
	return func(p *models.BlogPost) { p.Tags = tags }
}

func (f *Fixtures) CreatePost(t *testing.T, author *models.User, opts ...PostOption) *models.BlogPost {
	t.Helper()

	post := &models.BlogPost{
		Title:    f.faker.Sentence(5),
		Content:  f.faker.Paragraph(2, 3, 10, "\n"),
		AuthorID: author.ID,
	}
	for _, opt := range opts {
		opt(post)
	}

	// Link existing categories and tags without touching their rows.
	err := f.DB.Omit("Author", "Comments", "Categories.*", "Tags.*").Create(post).Error
	if err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}
	return post
}

func (f *Fixtures) CreateComment(t *testing.T, post *models.BlogPost, author *models.User, hidden bool) *models.Comment {
	t.Helper()

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Content:  f.faker.Sentence(8),
		IsHidden: hidden,
	}
	if err := f.DB.Omit(clause.Associations).Create(comment).Error; err != nil {
		t.Fatalf("Failed to create comment: %v", err)
	}
	return comment
}
