package agent

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation groups chat messages for a project, optionally scoped to one training job.
type Conversation struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	TrainingJobID *uuid.UUID `gorm:"type:uuid;index" json:"training_job_id"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
}

func (Conversation) TableName() string { return "agent_conversations" }

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Message is append-only; creation order is the replay order.
type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Role           Role           `gorm:"column:role;not null" json:"role"`
	Content        string         `gorm:"column:content;not null" json:"content"`
	Metadata       datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Message) TableName() string { return "agent_messages" }

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if len(m.Metadata) == 0 {
		m.Metadata = datatypes.JSON([]byte("{}"))
	}
	return nil
}
