package projects

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type ProfileRepo interface {
	Upsert(dbc dbctx.Context, p *types.Profile) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) Upsert(dbc dbctx.Context, p *types.Profile) error {
	return dbc.Use(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"github_username", "avatar_url"}),
	}).Create(p).Error
}
