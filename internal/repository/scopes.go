package repository

import (
	"github.com/Baaaki/blog-platform/internal/policy"
	"gorm.io/gorm"
)

// Page selects one page of a collection. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

func paginate(p Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.Size <= 0 {
			return db
		}
		return db.Offset(p.Offset()).Limit(p.Size)
	}
}

// withDeletedAuthors keeps soft-deleted users loadable as authors of the
// content they left behind.
func withDeletedAuthors(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// Visible narrows a post or comment query to the rows v may see. Admins see
// hidden rows, everybody else only rows with is_hidden = false.
func Visible(v policy.Viewer, res policy.Resource) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if policy.SeesHidden(v, res) {
			return db
		}
		return db.Where("is_hidden = ?", false)
	}
}

// UserScope narrows the user collection to the viewer's own row for
// non-admins.
func UserScope(v policy.Viewer) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !policy.SelfOnly(v) {
			return db
		}
		return db.Where("users.id = ?", v.UserID)
	}
}
