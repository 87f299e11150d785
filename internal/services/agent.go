package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/rsamf/gamma/internal/data/repos"
	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/llm"
	"github.com/rsamf/gamma/internal/platform/logger"
)

const (
	chatSystemPrompt = "You are Gamma Agent, an AI assistant embedded in an ML development " +
		"platform. You help ML engineers understand their code changes, experiment " +
		"results, and training metrics. Be concise and technical."

	summaryInstruction = "You are an ML engineering assistant. Summarize the following " +
		"git commit diff concisely, focusing on what changed in the ML " +
		"training code, model architecture, hyperparameters, or data " +
		"processing. Keep it to 2-4 sentences."
)

type AgentConfig struct {
	MaxDiffBytes     int
	SummaryMaxTokens int
	ChatMaxTokens    int
	// StreamTimeout bounds a single model stream; zero means no bound.
	StreamTimeout time.Duration
	// PersistPartialReplies stores the text streamed so far when a chat turn
	// is cut short by cancellation or a model error.
	PersistPartialReplies bool
}

func (c AgentConfig) withDefaults() AgentConfig {
	if c.MaxDiffBytes <= 0 {
		c.MaxDiffBytes = defaultMaxDiffBytes
	}
	if c.SummaryMaxTokens <= 0 {
		c.SummaryMaxTokens = 1024
	}
	if c.ChatMaxTokens <= 0 {
		c.ChatMaxTokens = 2048
	}
	return c
}

type ChatRequest struct {
	Message        string     `json:"message"`
	ConversationID *uuid.UUID `json:"conversation_id"`
	TrainingJobID  *uuid.UUID `json:"training_job_id"`
}

type AgentService interface {
	BuildContext(ctx context.Context, project *types.Project, commitSHA, runID string) string
	// StartChat validates and persists the user's message, then opens the model
	// stream. Errors returned here happen before any byte is streamed.
	StartChat(ctx context.Context, projectID uuid.UUID, req ChatRequest) (*ChatSession, error)
	CommitSummary(ctx context.Context, projectID uuid.UUID, commitSHA string) (*types.CommitSummary, error)
	CommitDiff(ctx context.Context, projectID uuid.UUID, commitSHA string) (string, error)
	ListConversations(ctx context.Context, projectID uuid.UUID) ([]*types.AgentConversation, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*types.AgentMessage, error)
}

type agentService struct {
	log           *logger.Logger
	cfg           AgentConfig
	projects      repos.ProjectRepo
	jobs          repos.TrainingJobRepo
	conversations repos.ConversationRepo
	messages      repos.MessageRepo
	summaries     repos.CommitSummaryRepo
	github        RepoHost
	tracker       ExperimentTracker
	model         llm.Client
	inflight      singleflight.Group
}

func NewAgentService(
	log *logger.Logger,
	cfg AgentConfig,
	projects repos.ProjectRepo,
	jobs repos.TrainingJobRepo,
	conversations repos.ConversationRepo,
	messages repos.MessageRepo,
	summaries repos.CommitSummaryRepo,
	github RepoHost,
	tracker ExperimentTracker,
	model llm.Client,
) AgentService {
	return &agentService{
		log:           log.With("service", "AgentService"),
		cfg:           cfg.withDefaults(),
		projects:      projects,
		jobs:          jobs,
		conversations: conversations,
		messages:      messages,
		summaries:     summaries,
		github:        github,
		tracker:       tracker,
		model:         model,
	}
}

func (s *agentService) requireProject(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	p, err := s.projects.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("Project")
	}
	return p, nil
}

func (s *agentService) StartChat(ctx context.Context, projectID uuid.UUID, req ChatRequest) (*ChatSession, error) {
	dbc := dbctx.New(ctx)
	if strings.TrimSpace(req.Message) == "" {
		return nil, apierr.Invalid("empty_message", errors.New("message is required"))
	}
	project, err := s.requireProject(dbc, projectID)
	if err != nil {
		return nil, err
	}

	var conv *types.AgentConversation
	if req.ConversationID != nil {
		conv, err = s.conversations.GetByID(dbc, *req.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv == nil || conv.ProjectID != project.ID {
			return nil, apierr.NotFound("Conversation")
		}
	} else {
		conv, err = s.conversations.Create(dbc, &types.AgentConversation{
			ProjectID:     project.ID,
			TrainingJobID: req.TrainingJobID,
		})
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
	}

	if _, err := s.messages.Create(dbc, &types.AgentMessage{
		ConversationID: conv.ID,
		Role:           types.RoleUser,
		Content:        req.Message,
	}); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	history, err := s.messages.ListByConversation(dbc, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	msgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}

	jobID := req.TrainingJobID
	if jobID == nil {
		jobID = conv.TrainingJobID
	}
	var commitSHA, runID string
	if jobID != nil {
		job, err := s.jobs.GetByID(dbc, *jobID)
		if err != nil {
			return nil, err
		}
		if job != nil {
			commitSHA = job.CommitSHA
			if job.MLflowRunID != nil {
				runID = *job.MLflowRunID
			}
		}
	}

	system := chatSystemPrompt
	if extra := s.BuildContext(ctx, project, commitSHA, runID); extra != "" {
		system += "\n\nContext:\n" + extra
	}

	streamCtx, cancel := context.WithCancel(ctx)
	if s.cfg.StreamTimeout > 0 {
		streamCtx, cancel = context.WithTimeout(ctx, s.cfg.StreamTimeout)
	}
	stream, err := s.model.Stream(streamCtx, system, msgs, s.cfg.ChatMaxTokens)
	if err != nil {
		cancel()
		return nil, err
	}
	s.log.Info("chat turn started", "project_id", project.ID, "conversation_id", conv.ID, "history", len(history))
	return &ChatSession{
		ConversationID: conv.ID,
		svc:            s,
		stream:         stream,
		cancel:         cancel,
	}, nil
}

// ChatSession is one in-flight assistant reply.
type ChatSession struct {
	ConversationID uuid.UUID

	svc      *agentService
	stream   llm.Stream
	cancel   context.CancelFunc
	reply    strings.Builder
	finished bool
	closed   bool
}

// Next returns the next fragment, or io.EOF once the reply is complete.
func (cs *ChatSession) Next() (string, error) {
	frag, err := cs.stream.Recv()
	if err != nil {
		return "", err
	}
	cs.reply.WriteString(frag)
	return frag, nil
}

// Reply is the text received so far.
func (cs *ChatSession) Reply() string { return cs.reply.String() }

// Complete persists the full assistant reply.
func (cs *ChatSession) Complete(ctx context.Context) (*types.AgentMessage, error) {
	if cs.finished {
		return nil, errors.New("chat session already finished")
	}
	cs.finished = true
	msg, err := cs.svc.messages.Create(dbctx.New(ctx), &types.AgentMessage{
		ConversationID: cs.ConversationID,
		Role:           types.RoleAssistant,
		Content:        cs.reply.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}
	return msg, nil
}

// Abort ends a reply that did not complete. The partial text is stored only
// when the service is configured to keep partial replies.
func (cs *ChatSession) Abort(ctx context.Context, reason string) {
	if cs.finished {
		return
	}
	cs.finished = true
	cs.Close()
	log := cs.svc.log.With("conversation_id", cs.ConversationID, "reason", reason)
	if !cs.svc.cfg.PersistPartialReplies || cs.reply.Len() == 0 {
		log.Info("chat turn aborted", "partial_bytes", cs.reply.Len())
		return
	}
	meta, _ := json.Marshal(map[string]interface{}{"partial": true, "reason": reason})
	if _, err := cs.svc.messages.Create(dbctx.New(context.WithoutCancel(ctx)), &types.AgentMessage{
		ConversationID: cs.ConversationID,
		Role:           types.RoleAssistant,
		Content:        cs.reply.String(),
		Metadata:       datatypes.JSON(meta),
	}); err != nil {
		log.Error("store partial reply failed", "error", err)
		return
	}
	log.Info("partial reply stored", "partial_bytes", cs.reply.Len())
}

// Close releases the model stream. It is safe to call more than once.
func (cs *ChatSession) Close() {
	if cs.closed {
		return
	}
	cs.closed = true
	cs.stream.Close()
	cs.cancel()
}

// IsEndOfStream reports whether err marks the natural end of a reply.
func IsEndOfStream(err error) bool { return errors.Is(err, io.EOF) }

// CommitSummary returns the stored summary for (project, commit), generating
// and storing it on first request. Concurrent in-process requests for the same
// key share one generation; across processes the unique index keeps the first
// writer.
func (s *agentService) CommitSummary(ctx context.Context, projectID uuid.UUID, commitSHA string) (*types.CommitSummary, error) {
	dbc := dbctx.New(ctx)
	if existing, err := s.summaries.Get(dbc, projectID, commitSHA); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	key := projectID.String() + ":" + commitSHA
	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		// Shared work runs detached from the caller that started it.
		work := context.WithoutCancel(ctx)
		if s.cfg.StreamTimeout > 0 {
			var cancel context.CancelFunc
			work, cancel = context.WithTimeout(work, s.cfg.StreamTimeout)
			defer cancel()
		}
		return s.generateSummary(work, projectID, commitSHA)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*types.CommitSummary), nil
	}
}

func (s *agentService) generateSummary(ctx context.Context, projectID uuid.UUID, commitSHA string) (*types.CommitSummary, error) {
	dbc := dbctx.New(ctx)
	if existing, err := s.summaries.Get(dbc, projectID, commitSHA); err != nil || existing != nil {
		return existing, err
	}
	project, err := s.requireProject(dbc, projectID)
	if err != nil {
		return nil, err
	}
	diff, err := s.fetchDiff(ctx, project, commitSHA)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("%s\n\nCommit: %s\n\n```diff\n%s\n```", summaryInstruction, commitSHA, truncateDiff(diff, s.cfg.MaxDiffBytes))
	text, err := s.model.Generate(ctx, "", []llm.Message{{Role: llm.RoleUser, Content: prompt}}, s.cfg.SummaryMaxTokens)
	if err != nil {
		return nil, err
	}
	stored, err := s.summaries.InsertIfAbsent(dbc, &types.CommitSummary{
		ProjectID: projectID,
		CommitSHA: commitSHA,
		Summary:   text,
	})
	if err != nil {
		return nil, fmt.Errorf("store commit summary: %w", err)
	}
	s.log.Info("commit summary generated", "project_id", projectID, "commit_sha", commitSHA)
	return stored, nil
}

func (s *agentService) CommitDiff(ctx context.Context, projectID uuid.UUID, commitSHA string) (string, error) {
	project, err := s.requireProject(dbctx.New(ctx), projectID)
	if err != nil {
		return "", err
	}
	return s.fetchDiff(ctx, project, commitSHA)
}

func (s *agentService) ListConversations(ctx context.Context, projectID uuid.UUID) ([]*types.AgentConversation, error) {
	return s.conversations.ListByProject(dbctx.New(ctx), projectID)
}

func (s *agentService) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*types.AgentMessage, error) {
	return s.messages.ListByConversation(dbctx.New(ctx), conversationID)
}
