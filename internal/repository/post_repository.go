package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/policy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostQuery holds the list parameters of the posts collection.
type PostQuery struct {
	Search   string
	Ordering []string
	Page     Page
}

var postOrderings = map[string]string{
	"created_at":  "blog_posts.created_at ASC",
	"-created_at": "blog_posts.created_at DESC",
	"title":       "blog_posts.title ASC",
	"-title":      "blog_posts.title DESC",
}

const postSearchClause = `(LOWER(blog_posts.title) LIKE @q ESCAPE '\'
	OR LOWER(blog_posts.content) LIKE @q ESCAPE '\'
	OR EXISTS (SELECT 1 FROM blog_post_categories bpc
		JOIN categories c ON c.id = bpc.category_id
		WHERE bpc.blog_post_id = blog_posts.id AND LOWER(c.name) LIKE @q ESCAPE '\')
	OR EXISTS (SELECT 1 FROM blog_post_tags bpt
		JOIN tags t ON t.id = bpt.tag_id
		WHERE bpt.blog_post_id = blog_posts.id AND LOWER(t.name) LIKE @q ESCAPE '\'))`

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Transaction runs fn with a repository bound to one database transaction.
// Any error returned by fn rolls the whole unit back.
func (r *PostRepository) Transaction(ctx context.Context, fn func(tx *PostRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostRepository{db: tx})
	})
}

// likeEscaper makes the search term match literally inside LIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func searchPosts(term string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		return db.Where(postSearchClause, sql.Named("q", pattern))
	}
}

func orderPosts(fields []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		applied := false
		for _, f := range fields {
			if expr, ok := postOrderings[strings.TrimSpace(f)]; ok {
				db = db.Order(expr)
				applied = true
			}
		}
		if !applied {
			db = db.Order(postOrderings["-created_at"])
		}
		return db.Order("blog_posts.id DESC")
	}
}

// withPostDetails preloads everything a post representation shows. Embedded
// comments go through the same visibility scope as the comment collection.
func withPostDetails(v policy.Viewer) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Preload("Author", withDeletedAuthors).
			Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name ASC") }).
			Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
			Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Scopes(Visible(v, policy.ResourceComment)).Order("comments.created_at ASC").Order("comments.id ASC")
			}).
			Preload("Comments.Author", withDeletedAuthors)
	}
}

// ListPosts returns one page of the posts visible to v. The visibility and
// search predicates are part of the SQL, so total never counts hidden rows.
func (r *PostRepository) ListPosts(ctx context.Context, v policy.Viewer, q PostQuery) ([]models.BlogPost, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.BlogPost{}).
			Scopes(Visible(v, policy.ResourcePost), searchPosts(q.Search))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.BlogPost
	err := base().
		Scopes(orderPosts(q.Ordering), paginate(q.Page), withPostDetails(v)).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// FindVisible resolves a post through the visibility scope. A hidden post is
// reported as missing to viewers that cannot see it.
func (r *PostRepository) FindVisible(ctx context.Context, v policy.Viewer, id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.WithContext(ctx).
		Scopes(Visible(v, policy.ResourcePost), withPostDetails(v)).
		Where("blog_posts.id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// ExistsVisible is FindVisible without loading the row.
func (r *PostRepository) ExistsVisible(ctx context.Context, v policy.Viewer, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BlogPost{}).
		Scopes(Visible(v, policy.ResourcePost)).
		Where("blog_posts.id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// CreatePost inserts the post row only; associations are written with
// ReplaceCategories and ReplaceTags.
func (r *PostRepository) CreatePost(ctx context.Context, post *models.BlogPost) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *PostRepository) SavePost(ctx context.Context, post *models.BlogPost) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error
}

// FindCategories loads the categories with the given ids and reports the ids
// that do not exist.
func (r *PostRepository) FindCategories(ctx context.Context, ids []uint) ([]models.Category, []uint, error) {
	var found []models.Category
	if len(ids) == 0 {
		return found, nil, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, nil, err
	}
	seen := make(map[uint]bool, len(found))
	for _, c := range found {
		seen[c.ID] = true
	}
	return found, missingIDs(ids, seen), nil
}

// FindTags is FindCategories for tags.
func (r *PostRepository) FindTags(ctx context.Context, ids []uint) ([]models.Tag, []uint, error) {
	var found []models.Tag
	if len(ids) == 0 {
		return found, nil, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, nil, err
	}
	seen := make(map[uint]bool, len(found))
	for _, t := range found {
		seen[t.ID] = true
	}
	return found, missingIDs(ids, seen), nil
}

func missingIDs(ids []uint, seen map[uint]bool) []uint {
	var missing []uint
	for _, id := range ids {
		if !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	return missing
}

func (r *PostRepository) ReplaceCategories(ctx context.Context, post *models.BlogPost, categories []models.Category) error {
	assoc := r.db.WithContext(ctx).Model(post).Association("Categories")
	if len(categories) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(categories)
}

func (r *PostRepository) ReplaceTags(ctx context.Context, post *models.BlogPost, tags []models.Tag) error {
	assoc := r.db.WithContext(ctx).Model(post).Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}

// DeletePost removes the post with its join rows and comments.
func (r *PostRepository) DeletePost(ctx context.Context, post *models.BlogPost) error {
	return r.db.WithContext(ctx).Select("Categories", "Tags", "Comments").Delete(post).Error
}
