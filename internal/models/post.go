package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Posts []BlogPost `gorm:"many2many:blog_post_categories;" json:"-"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts []BlogPost `gorm:"many2many:blog_post_tags;" json:"-"`
}

// BlogPost is authored by exactly one user. AuthorID is written once, at
// creation, from the authenticated identity.
type BlogPost struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Title      string     `gorm:"type:varchar(200);not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	AuthorID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	Author     User       `gorm:"foreignKey:AuthorID" json:"author"`
	Categories []Category `gorm:"many2many:blog_post_categories;" json:"categories"`
	Tags       []Tag      `gorm:"many2many:blog_post_tags;" json:"tags"`
	Comments   []Comment  `gorm:"foreignKey:PostID" json:"comments"`
	IsHidden   bool       `gorm:"not null;default:false;index" json:"is_hidden"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (p *BlogPost) OwnerID() uuid.UUID {
	return p.AuthorID
}
