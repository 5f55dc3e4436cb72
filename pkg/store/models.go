package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Email         string `gorm:"uniqueIndex;not null"`
	PasswordHash  string `gorm:"not null"`
	Birthday      datatypes.Date
	AccountType   int       `gorm:"not null"`
	EmailVerified bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

type DiaryEntryModel struct {
	ID           string    `gorm:"primaryKey"`
	Title        string    `gorm:"not null"`
	Content      string    `gorm:"type:text;not null"`
	Emotion      string    `gorm:"not null"`
	AuthorID     string    `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"not null;index"`
	LastModified time.Time `gorm:"not null"`
	Depression   int       `gorm:"not null"`
	Isolation    int       `gorm:"not null"`
	Frustration  int       `gorm:"not null"`
}

// LinkModel's composite primary key enforces at most one row per
// (linker, emoter) pair.
type LinkModel struct {
	LinkerID  string    `gorm:"primaryKey"`
	EmoterID  string    `gorm:"primaryKey;index"`
	Status    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
