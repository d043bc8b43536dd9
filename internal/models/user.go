package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the directory entry for an account. Account creation and
// authentication live in the identity service; this backend only reads
// these rows to list chat recipients and resolve display attributes.
type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index;column:deletedAt" json:"-"`

	Name     string `json:"name"`
	Username string `gorm:"uniqueIndex" json:"username"`
	Email    string `gorm:"uniqueIndex" json:"email"`
	Image    string `json:"image"`
}
