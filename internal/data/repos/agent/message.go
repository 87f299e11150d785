package agent

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, m *types.AgentMessage) (*types.AgentMessage, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.AgentMessage, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, m *types.AgentMessage) (*types.AgentMessage, error) {
	if err := dbc.Use(r.db).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListByConversation returns messages oldest first.
func (r *messageRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.AgentMessage, error) {
	out := []*types.AgentMessage{}
	if err := dbc.Use(r.db).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
