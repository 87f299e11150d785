package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	gh "github.com/google/go-github/v68/github"

	"github.com/rsamf/gamma/internal/clients/redis"
	"github.com/rsamf/gamma/internal/data/repos"
	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/ctxutil"
	"github.com/rsamf/gamma/internal/platform/githubapp"
	"github.com/rsamf/gamma/internal/platform/logger"
)

var modelsRefPattern = regexp.MustCompile(`^refs/heads/models(/.*)?$`)

const (
	WebhookCreated = "created"
	WebhookUpdated = "updated"
	WebhookIgnored = "ignored"

	ReasonNotModelsBranch = "not a models branch"
	ReasonBranchDeleted   = "branch deleted"
	ReasonRepoNotLinked   = "repo not connected to a project"
	ReasonNoMatchingJob   = "no matching job for commit"
	ReasonDuplicate       = "duplicate delivery"
)

// WebhookDelivery is one raw GitHub webhook request.
type WebhookDelivery struct {
	Event      string
	Signature  string
	DeliveryID string
	Body       []byte
}

// WebhookResult is the acknowledgement returned to GitHub. Ignored deliveries
// are successful outcomes, not errors.
type WebhookResult struct {
	Status string     `json:"status"`
	Reason string     `json:"reason,omitempty"`
	Event  string     `json:"event,omitempty"`
	JobID  *uuid.UUID `json:"job_id,omitempty"`
	Action string     `json:"action,omitempty"`
}

func ignored(reason string) *WebhookResult {
	return &WebhookResult{Status: WebhookIgnored, Reason: reason}
}

// IsModelsRef reports whether ref is refs/heads/models or refs/heads/models/<anything>.
func IsModelsRef(ref string) bool {
	return modelsRefPattern.MatchString(ref)
}

type LifecycleService interface {
	HandleWebhook(ctx context.Context, d WebhookDelivery) (*WebhookResult, error)
}

type lifecycleService struct {
	log      *logger.Logger
	verifier WebhookVerifier
	guard    redis.DeliveryGuard
	projects repos.ProjectRepo
	jobs     repos.TrainingJobRepo
	now      func() time.Time
}

func NewLifecycleService(
	log *logger.Logger,
	verifier WebhookVerifier,
	guard redis.DeliveryGuard,
	projects repos.ProjectRepo,
	jobs repos.TrainingJobRepo,
) LifecycleService {
	if guard == nil {
		guard = redis.NoopGuard()
	}
	return &lifecycleService{
		log:      log.With("service", "LifecycleService"),
		verifier: verifier,
		guard:    guard,
		projects: projects,
		jobs:     jobs,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *lifecycleService) HandleWebhook(ctx context.Context, d WebhookDelivery) (*WebhookResult, error) {
	if err := s.verifier.VerifySignature(d.Signature, d.Body); err != nil {
		s.log.Warn("webhook signature mismatch", append(ctxutil.LogFields(ctx), "event", d.Event, "delivery_id", d.DeliveryID)...)
		return nil, err
	}

	switch d.Event {
	case "push", "workflow_run":
	default:
		return &WebhookResult{Status: WebhookIgnored, Event: d.Event}, nil
	}

	claimed := false
	first, err := s.guard.FirstSeen(ctx, d.DeliveryID)
	if err != nil {
		// Best effort: a guard failure lets the delivery through.
		s.log.Warn("delivery guard unavailable", "delivery_id", d.DeliveryID, "error", err)
	} else if !first {
		return ignored(ReasonDuplicate), nil
	} else {
		claimed = d.DeliveryID != ""
	}

	res, err := s.dispatch(ctx, d)
	if err != nil && claimed {
		// A failed delivery must stay retryable.
		if ferr := s.guard.Forget(context.WithoutCancel(ctx), d.DeliveryID); ferr != nil {
			s.log.Warn("release delivery id failed", "delivery_id", d.DeliveryID, "error", ferr)
		}
	}
	return res, err
}

func (s *lifecycleService) dispatch(ctx context.Context, d WebhookDelivery) (*WebhookResult, error) {
	ev, err := githubapp.ParseEvent(d.Event, d.Body)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	switch e := ev.(type) {
	case *gh.PushEvent:
		return s.handlePush(dbc, e)
	case *gh.WorkflowRunEvent:
		return s.handleWorkflowRun(dbc, e)
	default:
		return &WebhookResult{Status: WebhookIgnored, Event: d.Event}, nil
	}
}

func (s *lifecycleService) handlePush(dbc dbctx.Context, e *gh.PushEvent) (*WebhookResult, error) {
	ref := e.GetRef()
	if !IsModelsRef(ref) {
		return ignored(ReasonNotModelsBranch), nil
	}
	if e.GetDeleted() {
		return ignored(ReasonBranchDeleted), nil
	}
	repoName := e.GetRepo().GetFullName()
	commit := e.GetAfter()
	if repoName == "" || commit == "" {
		return nil, apierr.Invalid("invalid_payload", errors.New("push payload is missing repository or commit"))
	}

	project, err := s.projects.GetByRepoFullName(dbc, repoName)
	if err != nil {
		return nil, fmt.Errorf("lookup project for %s: %w", repoName, err)
	}
	if project == nil {
		return ignored(ReasonRepoNotLinked), nil
	}

	job, err := s.jobs.Create(dbc, &types.TrainingJob{
		ProjectID: project.ID,
		CommitSHA: commit,
		Branch:    strings.TrimPrefix(ref, "refs/heads/"),
		Status:    types.JobPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create training job: %w", err)
	}
	s.log.Info("training job created", "job_id", job.ID, "project_id", project.ID, "commit_sha", commit, "branch", job.Branch)
	return &WebhookResult{Status: WebhookCreated, JobID: &job.ID}, nil
}

func (s *lifecycleService) handleWorkflowRun(dbc dbctx.Context, e *gh.WorkflowRunEvent) (*WebhookResult, error) {
	run := e.GetWorkflowRun()
	sha := run.GetHeadSHA()
	if sha == "" {
		return nil, apierr.Invalid("invalid_payload", errors.New("workflow_run payload is missing head_sha"))
	}

	job, err := s.jobs.GetLatestByCommit(dbc, sha)
	if err != nil {
		return nil, fmt.Errorf("lookup job for %s: %w", sha, err)
	}
	if job == nil {
		return ignored(ReasonNoMatchingJob), nil
	}

	action := e.GetAction()
	updates := foldWorkflowRun(job, action, run.GetID(), run.GetConclusion(), s.now())
	if _, err := s.jobs.UpdateFields(dbc, job.ID, updates); err != nil {
		return nil, fmt.Errorf("update training job: %w", err)
	}
	s.log.Info("training job updated", "job_id", job.ID, "action", action, "status", updates["status"], "workflow_run_id", run.GetID())
	return &WebhookResult{Status: WebhookUpdated, JobID: &job.ID, Action: action}, nil
}

// foldWorkflowRun computes the column updates a workflow_run event applies to
// job. The run id is always recorded. A job that already reached a terminal
// status is never moved back to running.
func foldWorkflowRun(job *types.TrainingJob, action string, runID int64, conclusion string, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{"github_workflow_run_id": runID}
	switch action {
	case "in_progress":
		if job.Status.Terminal() {
			break
		}
		updates["status"] = types.JobRunning
		if job.StartedAt == nil {
			updates["started_at"] = now
		}
	case "completed":
		if conclusion == "success" {
			updates["status"] = types.JobCompleted
		} else {
			updates["status"] = types.JobFailed
		}
		updates["completed_at"] = now
		if job.StartedAt == nil {
			updates["started_at"] = now
		}
	}
	return updates
}
