package agent

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type ConversationRepo interface {
	Create(dbc dbctx.Context, c *types.AgentConversation) (*types.AgentConversation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AgentConversation, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.AgentConversation, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(dbc dbctx.Context, c *types.AgentConversation) (*types.AgentConversation, error) {
	if err := dbc.Use(r.db).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *conversationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AgentConversation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.AgentConversation
	if err := dbc.Use(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *conversationRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.AgentConversation, error) {
	out := []*types.AgentConversation{}
	if err := dbc.Use(r.db).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
