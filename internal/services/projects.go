package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rsamf/gamma/internal/data/repos"
	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/githubapp"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type CreateProjectInput struct {
	GitHubRepoFullName string `json:"github_repo_full_name"`
}

// ProjectPatch holds the mutable project fields; nil means unchanged.
type ProjectPatch struct {
	Name                 *string `json:"name"`
	S3Bucket             *string `json:"s3_bucket"`
	S3Prefix             *string `json:"s3_prefix"`
	MLflowExperimentName *string `json:"mlflow_experiment_name"`
}

func (p ProjectPatch) updates() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.S3Bucket != nil {
		out["s3_bucket"] = *p.S3Bucket
	}
	if p.S3Prefix != nil {
		out["s3_prefix"] = *p.S3Prefix
	}
	if p.MLflowExperimentName != nil {
		out["mlflow_experiment_name"] = *p.MLflowExperimentName
	}
	return out
}

type CommitFilesInput struct {
	Branch  string            `json:"branch"`
	Message string            `json:"message"`
	Files   map[string]string `json:"files"`
}

type ProjectService interface {
	List(ctx context.Context, ownerID *uuid.UUID) ([]*types.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Project, error)
	Create(ctx context.Context, ownerID uuid.UUID, in CreateProjectInput) (*types.Project, error)
	Update(ctx context.Context, id uuid.UUID, patch ProjectPatch) (*types.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FileContent(ctx context.Context, id uuid.UUID, path, ref string) (string, error)
	CommitFiles(ctx context.Context, id uuid.UUID, in CommitFilesInput) (string, error)
	ListGitHubRepos(ctx context.Context, ownerID uuid.UUID) ([]githubapp.Repo, error)
}

type projectService struct {
	log           *logger.Logger
	projects      repos.ProjectRepo
	profiles      repos.ProfileRepo
	users         repos.UserDirectory
	github        RepoHost
	defaultBucket string
}

func NewProjectService(
	log *logger.Logger,
	projects repos.ProjectRepo,
	profiles repos.ProfileRepo,
	users repos.UserDirectory,
	github RepoHost,
	defaultBucket string,
) ProjectService {
	return &projectService{
		log:           log.With("service", "ProjectService"),
		projects:      projects,
		profiles:      profiles,
		users:         users,
		github:        github,
		defaultBucket: defaultBucket,
	}
}

func (s *projectService) List(ctx context.Context, ownerID *uuid.UUID) ([]*types.Project, error) {
	return s.projects.List(dbctx.New(ctx), ownerID)
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	p, err := s.projects.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("Project")
	}
	return p, nil
}

// Create connects a repository: the app installation is resolved first, so a
// repository the app cannot see fails before anything is written.
func (s *projectService) Create(ctx context.Context, ownerID uuid.UUID, in CreateProjectInput) (*types.Project, error) {
	dbc := dbctx.New(ctx)
	owner, repo, ok := types.SplitRepoFullName(in.GitHubRepoFullName)
	if !ok {
		return nil, apierr.Invalid("invalid_repo", fmt.Errorf("github_repo_full_name must be owner/repo, got %q", in.GitHubRepoFullName))
	}
	installationID, err := s.github.RepoInstallationID(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	if s.users != nil {
		if ident, err := s.users.Lookup(dbc, ownerID); err != nil {
			s.log.Warn("auth user lookup failed", "owner_id", ownerID, "error", err)
		} else if ident != nil {
			profile := &types.Profile{ID: ownerID, GitHubUsername: ident.Login}
			if ident.AvatarURL != "" {
				avatar := ident.AvatarURL
				profile.AvatarURL = &avatar
			}
			if err := s.profiles.Upsert(dbc, profile); err != nil {
				return nil, fmt.Errorf("upsert profile: %w", err)
			}
		}
	}

	p, err := s.projects.Create(dbc, &types.Project{
		OwnerID:              ownerID,
		Name:                 repo,
		GitHubRepoFullName:   owner + "/" + repo,
		GitHubInstallationID: installationID,
		S3Bucket:             s.defaultBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.log.Info("project created", "project_id", p.ID, "repo", p.GitHubRepoFullName, "installation_id", installationID)
	return p, nil
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, patch ProjectPatch) (*types.Project, error) {
	updates := patch.updates()
	if len(updates) == 0 {
		return nil, apierr.Invalid("no_fields", errors.New("No fields to update"))
	}
	p, err := s.projects.UpdateFields(dbctx.New(ctx), id, updates)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("Project")
	}
	return p, nil
}

// Delete is idempotent.
func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.projects.Delete(dbctx.New(ctx), id)
}

func (s *projectService) repoOf(ctx context.Context, id uuid.UUID) (*types.Project, string, string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	owner, repo, ok := p.RepoParts()
	if !ok {
		return nil, "", "", fmt.Errorf("project %s has malformed repository name %q", p.ID, p.GitHubRepoFullName)
	}
	return p, owner, repo, nil
}

func (s *projectService) FileContent(ctx context.Context, id uuid.UUID, path, ref string) (string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "", apierr.Invalid("missing_path", errors.New("path is required"))
	}
	p, owner, repo, err := s.repoOf(ctx, id)
	if err != nil {
		return "", err
	}
	return s.github.FileContent(ctx, p.GitHubInstallationID, owner, repo, path, ref)
}

func (s *projectService) CommitFiles(ctx context.Context, id uuid.UUID, in CommitFilesInput) (string, error) {
	branch := strings.TrimPrefix(strings.TrimSpace(in.Branch), "refs/heads/")
	switch {
	case branch == "":
		return "", apierr.Invalid("missing_branch", errors.New("branch is required"))
	case strings.TrimSpace(in.Message) == "":
		return "", apierr.Invalid("missing_message", errors.New("message is required"))
	case len(in.Files) == 0:
		return "", apierr.Invalid("no_files", errors.New("at least one file is required"))
	}
	p, owner, repo, err := s.repoOf(ctx, id)
	if err != nil {
		return "", err
	}
	return s.github.CreateCommit(ctx, p.GitHubInstallationID, owner, repo, branch, in.Message, in.Files)
}

// ListGitHubRepos lists repositories the app can see for the user's GitHub login.
func (s *projectService) ListGitHubRepos(ctx context.Context, ownerID uuid.UUID) ([]githubapp.Repo, error) {
	if s.users == nil {
		return nil, apierr.NotFound("User")
	}
	ident, err := s.users.Lookup(dbctx.New(ctx), ownerID)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, apierr.NotFound("User")
	}
	if ident.Login == "" {
		return nil, apierr.Invalid("no_github_login", errors.New("No GitHub username found for user"))
	}
	return s.github.ListReposForLogin(ctx, ident.Login)
}
