package repos

import (
	"gorm.io/gorm"

	"github.com/rsamf/gamma/internal/data/repos/agent"
	"github.com/rsamf/gamma/internal/data/repos/jobs"
	"github.com/rsamf/gamma/internal/data/repos/projects"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type ProjectRepo = projects.ProjectRepo
type ProfileRepo = projects.ProfileRepo
type UserDirectory = projects.UserDirectory
type UserIdentity = projects.UserIdentity

type TrainingJobRepo = jobs.TrainingJobRepo

type ConversationRepo = agent.ConversationRepo
type MessageRepo = agent.MessageRepo
type CommitSummaryRepo = agent.CommitSummaryRepo

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return projects.NewProjectRepo(db, baseLog)
}
func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return projects.NewProfileRepo(db, baseLog)
}
func NewUserDirectory(adminDB *gorm.DB, table string, baseLog *logger.Logger) UserDirectory {
	return projects.NewUserDirectory(adminDB, table, baseLog)
}

func NewTrainingJobRepo(db *gorm.DB, baseLog *logger.Logger) TrainingJobRepo {
	return jobs.NewTrainingJobRepo(db, baseLog)
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return agent.NewConversationRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return agent.NewMessageRepo(db, baseLog)
}
func NewCommitSummaryRepo(db *gorm.DB, baseLog *logger.Logger) CommitSummaryRepo {
	return agent.NewCommitSummaryRepo(db, baseLog)
}
