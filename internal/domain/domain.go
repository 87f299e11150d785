package domain

import (
	"github.com/rsamf/gamma/internal/domain/agent"
	"github.com/rsamf/gamma/internal/domain/jobs"
	"github.com/rsamf/gamma/internal/domain/projects"
)

type (
	Project = projects.Project
	Profile = projects.Profile

	TrainingJob = jobs.TrainingJob
	JobStatus   = jobs.Status

	AgentConversation = agent.Conversation
	AgentMessage      = agent.Message
	MessageRole       = agent.Role
	CommitSummary     = agent.CommitSummary
)

const (
	JobPending   = jobs.StatusPending
	JobRunning   = jobs.StatusRunning
	JobCompleted = jobs.StatusCompleted
	JobFailed    = jobs.StatusFailed

	RoleUser      = agent.RoleUser
	RoleAssistant = agent.RoleAssistant
)

// Models lists every table the service migrates, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&Profile{},
		&Project{},
		&TrainingJob{},
		&AgentConversation{},
		&AgentMessage{},
		&CommitSummary{},
	}
}

var SplitRepoFullName = projects.SplitRepoFullName
