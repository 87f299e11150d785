package agent

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommitSummary is written once per (project, commit) and served from storage afterwards.
type CommitSummary struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_commit_summaries_project_commit" json:"project_id"`
	CommitSHA string    `gorm:"column:commit_sha;not null;uniqueIndex:idx_commit_summaries_project_commit" json:"commit_sha"`
	Summary   string    `gorm:"column:summary;not null" json:"summary"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CommitSummary) TableName() string { return "commit_summaries" }

func (s *CommitSummary) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
