package projects

import (
	"time"

	"github.com/google/uuid"
)

// Profile mirrors the auth user's GitHub identity. ID is the auth user id.
type Profile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GitHubUsername string    `gorm:"column:github_username;not null;default:''" json:"github_username"`
	AvatarURL      *string   `gorm:"column:avatar_url" json:"avatar_url"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Profile) TableName() string { return "profiles" }
