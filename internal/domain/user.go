package domain

import "time"

// User is the identity record. PasswordHash is nil for OAuth-only accounts,
// Username is nil until the user picks one. Email is stored lower-cased so
// the plain unique index behaves case-insensitively on every driver.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255" json:"name"`
	Username     *string    `gorm:"size:64;uniqueIndex" json:"username"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash *string    `gorm:"size:128" json:"-"`
	CreatedOn    time.Time  `gorm:"autoCreateTime" json:"created_on"`
	LastLogin    *time.Time `json:"last_login"`
}
