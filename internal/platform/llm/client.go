package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
)

const (
	serviceName  = "llm"
	DefaultModel = "claude-sonnet-4-20250514"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Stream yields text fragments in order. Recv returns io.EOF after the last
// fragment. Close releases the underlying connection and is safe to call twice.
type Stream interface {
	Recv() (string, error)
	Close()
}

type Client interface {
	Generate(ctx context.Context, system string, msgs []Message, maxTokens int) (string, error)
	Stream(ctx context.Context, system string, msgs []Message, maxTokens int) (Stream, error)
}

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

type client struct {
	model model.BaseChatModel
	log   *logger.Logger
}

// NewClaude builds a Client backed by Anthropic's Messages API.
func NewClaude(ctx context.Context, cfg Config, log *logger.Logger) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	ccfg := &claude.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		ccfg.BaseURL = &base
	}
	cm, err := claude.NewChatModel(ctx, ccfg)
	if err != nil {
		return nil, fmt.Errorf("init claude chat model: %w", err)
	}
	return NewFromChatModel(cm, log.With("model", cfg.Model)), nil
}

// NewFromChatModel adapts any eino chat model.
func NewFromChatModel(cm model.BaseChatModel, log *logger.Logger) Client {
	return &client{model: cm, log: log.With("client", "LLM")}
}

func toSchema(system string, msgs []Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs)+1)
	if system != "" {
		out = append(out, schema.SystemMessage(system))
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

func (c *client) Generate(ctx context.Context, system string, msgs []Message, maxTokens int) (string, error) {
	var opts []model.Option
	if maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(maxTokens))
	}
	out, err := c.model.Generate(ctx, toSchema(system, msgs), opts...)
	if err != nil {
		return "", apierr.Upstream(serviceName, 0, err)
	}
	if out == nil {
		return "", apierr.Upstream(serviceName, 0, errors.New("empty response"))
	}
	return out.Content, nil
}

func (c *client) Stream(ctx context.Context, system string, msgs []Message, maxTokens int) (Stream, error) {
	var opts []model.Option
	if maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(maxTokens))
	}
	sr, err := c.model.Stream(ctx, toSchema(system, msgs), opts...)
	if err != nil {
		return nil, apierr.Upstream(serviceName, 0, err)
	}
	if sr == nil {
		return nil, apierr.Upstream(serviceName, 0, errors.New("nil stream"))
	}
	return &textStream{sr: sr}, nil
}

type textStream struct {
	sr     *schema.StreamReader[*schema.Message]
	closed bool
}

func (s *textStream) Recv() (string, error) {
	for {
		msg, err := s.sr.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", apierr.Upstream(serviceName, 0, err)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		return msg.Content, nil
	}
}

func (s *textStream) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.sr.Close()
}

type unconfigured struct{}

// Unconfigured returns a Client whose calls fail with 503 llm_not_configured.
func Unconfigured() Client { return unconfigured{} }

func (unconfigured) Generate(context.Context, string, []Message, int) (string, error) {
	return "", errNotConfigured()
}

func (unconfigured) Stream(context.Context, string, []Message, int) (Stream, error) {
	return nil, errNotConfigured()
}

func errNotConfigured() error {
	return apierr.New(http.StatusServiceUnavailable, "llm_not_configured", errors.New("ANTHROPIC_API_KEY is not set"))
}
