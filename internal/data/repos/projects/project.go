package projects

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, p *types.Project) (*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	GetByRepoFullName(dbc dbctx.Context, fullName string) (*types.Project, error)
	List(dbc dbctx.Context, ownerID *uuid.UUID) ([]*types.Project, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.Project, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{
		db:  db,
		log: baseLog.With("repo", "ProjectRepo"),
	}
}

func (r *projectRepo) Create(dbc dbctx.Context, p *types.Project) (*types.Project, error) {
	if err := dbc.Use(r.db).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Project
	if err := dbc.Use(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// GetByRepoFullName returns the oldest project connected to the repository.
func (r *projectRepo) GetByRepoFullName(dbc dbctx.Context, fullName string) (*types.Project, error) {
	if fullName == "" {
		return nil, nil
	}
	var out []*types.Project
	if err := dbc.Use(r.db).
		Where("github_repo_full_name = ?", fullName).
		Order("created_at ASC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *projectRepo) List(dbc dbctx.Context, ownerID *uuid.UUID) ([]*types.Project, error) {
	q := dbc.Use(r.db).Order("created_at DESC")
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	out := []*types.Project{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFields applies a partial update and returns the stored row, or nil when
// no project has the id.
func (r *projectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.Project, error) {
	if len(updates) > 0 {
		res := dbc.Use(r.db).Model(&types.Project{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, nil
		}
	}
	return r.GetByID(dbc, id)
}

func (r *projectRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Use(r.db).Where("id = ?", id).Delete(&types.Project{}).Error
}
