package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rsamf/gamma/internal/data/repos"
	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/platform/sagemaker"
)

type CreateJobInput struct {
	ProjectID        uuid.UUID       `json:"project_id"`
	CommitSHA        string          `json:"commit_sha"`
	Branch           string          `json:"branch"`
	Status           types.JobStatus `json:"status"`
	SageMakerJobName *string         `json:"sagemaker_job_name"`
	MLflowRunID      *string         `json:"mlflow_run_id"`
}

type JobPatch struct {
	Status           *types.JobStatus `json:"status"`
	SageMakerJobName *string          `json:"sagemaker_job_name"`
	MLflowRunID      *string          `json:"mlflow_run_id"`
	StartedAt        *time.Time       `json:"started_at"`
	CompletedAt      *time.Time       `json:"completed_at"`
}

func (p JobPatch) updates() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, apierr.Invalid("invalid_status", fmt.Errorf("unknown status %q", *p.Status))
		}
		out["status"] = *p.Status
	}
	if p.SageMakerJobName != nil {
		out["sagemaker_job_name"] = *p.SageMakerJobName
	}
	if p.MLflowRunID != nil {
		out["mlflow_run_id"] = *p.MLflowRunID
	}
	if p.StartedAt != nil {
		out["started_at"] = *p.StartedAt
	}
	if p.CompletedAt != nil {
		out["completed_at"] = *p.CompletedAt
	}
	return out, nil
}

type JobService interface {
	List(ctx context.Context, projectID *uuid.UUID) ([]*types.TrainingJob, error)
	Get(ctx context.Context, id uuid.UUID) (*types.TrainingJob, error)
	Create(ctx context.Context, in CreateJobInput) (*types.TrainingJob, error)
	Update(ctx context.Context, id uuid.UUID, patch JobPatch) (*types.TrainingJob, error)
	SageMakerStatus(ctx context.Context, id uuid.UUID) (*sagemaker.TrainingJobStatus, error)
	ListSageMakerJobs(ctx context.Context, nameContains string, maxResults int) ([]sagemaker.TrainingJobSummary, error)
}

type jobService struct {
	log      *logger.Logger
	jobs     repos.TrainingJobRepo
	projects repos.ProjectRepo
	training TrainingBackend
}

func NewJobService(log *logger.Logger, jobs repos.TrainingJobRepo, projects repos.ProjectRepo, training TrainingBackend) JobService {
	return &jobService{
		log:      log.With("service", "JobService"),
		jobs:     jobs,
		projects: projects,
		training: training,
	}
}

func (s *jobService) List(ctx context.Context, projectID *uuid.UUID) ([]*types.TrainingJob, error) {
	return s.jobs.List(dbctx.New(ctx), projectID)
}

func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*types.TrainingJob, error) {
	job, err := s.jobs.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apierr.NotFound("Training job")
	}
	return job, nil
}

func (s *jobService) Create(ctx context.Context, in CreateJobInput) (*types.TrainingJob, error) {
	dbc := dbctx.New(ctx)
	if in.ProjectID == uuid.Nil || in.CommitSHA == "" || in.Branch == "" {
		return nil, apierr.Invalid("invalid_job", errors.New("project_id, commit_sha and branch are required"))
	}
	if in.Status == "" {
		in.Status = types.JobPending
	}
	if !in.Status.Valid() {
		return nil, apierr.Invalid("invalid_status", fmt.Errorf("unknown status %q", in.Status))
	}
	project, err := s.projects.GetByID(dbc, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apierr.NotFound("Project")
	}
	return s.jobs.Create(dbc, &types.TrainingJob{
		ProjectID:        in.ProjectID,
		CommitSHA:        in.CommitSHA,
		Branch:           in.Branch,
		Status:           in.Status,
		SageMakerJobName: in.SageMakerJobName,
		MLflowRunID:      in.MLflowRunID,
	})
}

func (s *jobService) Update(ctx context.Context, id uuid.UUID, patch JobPatch) (*types.TrainingJob, error) {
	updates, err := patch.updates()
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, apierr.Invalid("no_fields", errors.New("No fields to update"))
	}
	job, err := s.jobs.UpdateFields(dbctx.New(ctx), id, updates)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apierr.NotFound("Training job")
	}
	return job, nil
}

func (s *jobService) SageMakerStatus(ctx context.Context, id uuid.UUID) (*sagemaker.TrainingJobStatus, error) {
	job, err := s.jobs.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if job == nil || job.SageMakerJobName == nil || *job.SageMakerJobName == "" {
		return nil, apierr.NotFound("Job or SageMaker job name")
	}
	return s.training.DescribeTrainingJob(ctx, *job.SageMakerJobName)
}

func (s *jobService) ListSageMakerJobs(ctx context.Context, nameContains string, maxResults int) ([]sagemaker.TrainingJobSummary, error) {
	return s.training.ListTrainingJobs(ctx, nameContains, maxResults)
}
