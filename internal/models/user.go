package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account. IsAdmin and IsBlogger are independent capabilities:
// an account can hold both, either or neither.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	FirstName    string         `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(150)" json:"last_name"`
	Email        string         `gorm:"type:varchar(254)" json:"email"`
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`
	IsAdmin      bool           `gorm:"not null;default:false" json:"is_admin"`
	IsBlogger    bool           `gorm:"not null;default:false" json:"is_blogger"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the primary key in Go so the same model works on
// PostgreSQL and SQLite.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// OwnerID makes a user the owner of its own record.
func (u *User) OwnerID() uuid.UUID {
	return u.ID
}
