package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project binds a GitHub repository to its artifact bucket and MLflow experiment.
type Project struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID              uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name                 string    `gorm:"column:name;not null" json:"name"`
	GitHubRepoFullName   string    `gorm:"column:github_repo_full_name;not null;index" json:"github_repo_full_name"`
	GitHubInstallationID int64     `gorm:"column:github_installation_id;not null" json:"github_installation_id"`
	S3Bucket             string    `gorm:"column:s3_bucket;not null;default:''" json:"s3_bucket"`
	S3Prefix             string    `gorm:"column:s3_prefix;not null;default:''" json:"s3_prefix"`
	MLflowExperimentName *string   `gorm:"column:mlflow_experiment_name" json:"mlflow_experiment_name"`
	CreatedAt            time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// RepoParts splits "owner/repo".
func (p *Project) RepoParts() (owner, repo string, ok bool) {
	return SplitRepoFullName(p.GitHubRepoFullName)
}
