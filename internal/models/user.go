package models

import "time"

// User is a local identity. Synthetic AI users are created by contact provisioning.
type User struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       *string   `db:"email" json:"email,omitempty"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsAI        bool      `db:"is_ai" json:"is_ai"`
	Theme       string    `db:"theme" json:"theme"`
	Language    string    `db:"language" json:"language"`
	FontSize    int       `db:"font_size" json:"font_size"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// NewUser carries the caller-supplied fields of a user.
type NewUser struct {
	Name        string  `json:"name" binding:"required"`
	Email       *string `json:"email"`
	AvatarURL   *string `json:"avatar_url"`
	Description *string `json:"description"`
}

// UserDetails is the compact user projection embedded in chat and message listings.
type UserDetails struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	IsAI        bool    `db:"is_ai" json:"is_ai"`
}
