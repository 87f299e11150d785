package jobs

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type TrainingJobRepo interface {
	Create(dbc dbctx.Context, job *types.TrainingJob) (*types.TrainingJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TrainingJob, error)
	GetLatestByCommit(dbc dbctx.Context, commitSHA string) (*types.TrainingJob, error)
	List(dbc dbctx.Context, projectID *uuid.UUID) ([]*types.TrainingJob, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.TrainingJob, error)
}

type trainingJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrainingJobRepo(db *gorm.DB, baseLog *logger.Logger) TrainingJobRepo {
	return &trainingJobRepo{
		db:  db,
		log: baseLog.With("repo", "TrainingJobRepo"),
	}
}

func (r *trainingJobRepo) Create(dbc dbctx.Context, job *types.TrainingJob) (*types.TrainingJob, error) {
	if err := dbc.Use(r.db).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *trainingJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TrainingJob, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.TrainingJob
	if err := dbc.Use(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// GetLatestByCommit returns the most recently created job for the commit.
// Pushes are not de-duplicated, so several jobs may share a SHA.
func (r *trainingJobRepo) GetLatestByCommit(dbc dbctx.Context, commitSHA string) (*types.TrainingJob, error) {
	if commitSHA == "" {
		return nil, nil
	}
	var out []*types.TrainingJob
	if err := dbc.Use(r.db).
		Where("commit_sha = ?", commitSHA).
		Order("created_at DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *trainingJobRepo) List(dbc dbctx.Context, projectID *uuid.UUID) ([]*types.TrainingJob, error) {
	q := dbc.Use(r.db).Order("created_at DESC")
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	out := []*types.TrainingJob{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *trainingJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.TrainingJob, error) {
	if len(updates) > 0 {
		res := dbc.Use(r.db).Model(&types.TrainingJob{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, nil
		}
	}
	return r.GetByID(dbc, id)
}
