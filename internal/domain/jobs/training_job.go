package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal statuses are never left by webhook-driven transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TrainingJob is one push to a models branch and the CI/training run it triggered.
type TrainingJob struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	CommitSHA           string     `gorm:"column:commit_sha;not null;index" json:"commit_sha"`
	Branch              string     `gorm:"column:branch;not null" json:"branch"`
	GitHubWorkflowRunID *int64     `gorm:"column:github_workflow_run_id" json:"github_workflow_run_id"`
	SageMakerJobName    *string    `gorm:"column:sagemaker_job_name" json:"sagemaker_job_name"`
	Status              Status     `gorm:"column:status;not null;index" json:"status"`
	MLflowRunID         *string    `gorm:"column:mlflow_run_id" json:"mlflow_run_id"`
	StartedAt           *time.Time `gorm:"column:started_at" json:"started_at"`
	CompletedAt         *time.Time `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt           time.Time  `gorm:"not null;index" json:"created_at"`
}

func (TrainingJob) TableName() string { return "training_jobs" }

func (j *TrainingJob) BeforeCreate(*gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = StatusPending
	}
	return nil
}
