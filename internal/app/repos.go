package app

import (
	"github.com/rsamf/gamma/internal/data/repos"
	"github.com/rsamf/gamma/internal/db"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type Repos struct {
	Project       repos.ProjectRepo
	Profile       repos.ProfileRepo
	Users         repos.UserDirectory
	TrainingJob   repos.TrainingJobRepo
	Conversation  repos.ConversationRepo
	Message       repos.MessageRepo
	CommitSummary repos.CommitSummaryRepo
}

// wireRepos binds table CRUD to the restricted tier. Only the auth user
// directory reads through the admin tier.
func wireRepos(gw *db.Gateway, authUsersTable string, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	rdb := gw.Restricted()
	return Repos{
		Project:       repos.NewProjectRepo(rdb, log),
		Profile:       repos.NewProfileRepo(rdb, log),
		Users:         repos.NewUserDirectory(gw.Admin(), authUsersTable, log),
		TrainingJob:   repos.NewTrainingJobRepo(rdb, log),
		Conversation:  repos.NewConversationRepo(rdb, log),
		Message:       repos.NewMessageRepo(rdb, log),
		CommitSummary: repos.NewCommitSummaryRepo(rdb, log),
	}
}
