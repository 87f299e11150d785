package agent

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type CommitSummaryRepo interface {
	Get(dbc dbctx.Context, projectID uuid.UUID, commitSHA string) (*types.CommitSummary, error)
	// InsertIfAbsent stores s unless a summary for the same project and commit
	// already exists, and returns whichever row is stored.
	InsertIfAbsent(dbc dbctx.Context, s *types.CommitSummary) (*types.CommitSummary, error)
}

type commitSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommitSummaryRepo(db *gorm.DB, baseLog *logger.Logger) CommitSummaryRepo {
	return &commitSummaryRepo{db: db, log: baseLog.With("repo", "CommitSummaryRepo")}
}

func (r *commitSummaryRepo) Get(dbc dbctx.Context, projectID uuid.UUID, commitSHA string) (*types.CommitSummary, error) {
	var out []*types.CommitSummary
	if err := dbc.Use(r.db).
		Where("project_id = ? AND commit_sha = ?", projectID, commitSHA).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *commitSummaryRepo) InsertIfAbsent(dbc dbctx.Context, s *types.CommitSummary) (*types.CommitSummary, error) {
	res := dbc.Use(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "commit_sha"}},
		DoNothing: true,
	}).Create(s)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return s, nil
	}
	r.log.Debug("commit summary already stored", "project_id", s.ProjectID, "commit_sha", s.CommitSHA)
	return r.Get(dbc, s.ProjectID, s.CommitSHA)
}
