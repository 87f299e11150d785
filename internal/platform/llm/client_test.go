package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
)

type fakeChatModel struct {
	seen      []*schema.Message
	maxTokens *int
	chunks    []string
	failAfter int
	err       error
}

func (f *fakeChatModel) capture(input []*schema.Message, opts []model.Option) {
	f.seen = input
	f.maxTokens = model.GetCommonOptions(&model.Options{}, opts...).MaxTokens
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.capture(input, opts)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage("summary text", nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.capture(input, opts)
	sr, sw := schema.Pipe[*schema.Message](len(f.chunks) + 1)
	go func() {
		defer sw.Close()
		for i, c := range f.chunks {
			if f.failAfter > 0 && i == f.failAfter {
				sw.Send(nil, errors.New("overloaded"))
				return
			}
			sw.Send(&schema.Message{Role: schema.Assistant, Content: c}, nil)
		}
	}()
	return sr, nil
}

func TestGenerateBuildsMessages(t *testing.T) {
	fm := &fakeChatModel{}
	c := NewFromChatModel(fm, logger.Nop())

	out, err := c.Generate(t.Context(), "be brief", []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "summarize"},
	}, 1024)
	require.NoError(t, err)
	assert.Equal(t, "summary text", out)

	require.Len(t, fm.seen, 4)
	assert.Equal(t, schema.System, fm.seen[0].Role)
	assert.Equal(t, "be brief", fm.seen[0].Content)
	assert.Equal(t, schema.User, fm.seen[1].Role)
	assert.Equal(t, schema.Assistant, fm.seen[2].Role)
	require.NotNil(t, fm.maxTokens)
	assert.Equal(t, 1024, *fm.maxTokens)
}

func TestStreamYieldsFragmentsInOrder(t *testing.T) {
	fm := &fakeChatModel{chunks: []string{"Hel", "", "lo", " world"}}
	c := NewFromChatModel(fm, logger.Nop())

	st, err := c.Stream(t.Context(), "", []Message{{Role: RoleUser, Content: "hi"}}, 0)
	require.NoError(t, err)
	defer st.Close()

	var got []string
	for {
		frag, err := st.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, frag)
	}
	assert.Equal(t, []string{"Hel", "lo", " world"}, got)
	assert.Nil(t, fm.maxTokens)
	st.Close()
}

func TestStreamErrorIsUpstream(t *testing.T) {
	fm := &fakeChatModel{chunks: []string{"a", "b"}, failAfter: 1}
	c := NewFromChatModel(fm, logger.Nop())

	st, err := c.Stream(t.Context(), "", nil, 0)
	require.NoError(t, err)
	defer st.Close()

	frag, err := st.Recv()
	require.NoError(t, err)
	assert.Equal(t, "a", frag)
	_, err = st.Recv()
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apierr.StatusOf(err))
}

func TestGenerateErrorIsUpstream(t *testing.T) {
	c := NewFromChatModel(&fakeChatModel{err: errors.New("401")}, logger.Nop())
	_, err := c.Generate(t.Context(), "", nil, 0)
	assert.Equal(t, http.StatusBadGateway, apierr.StatusOf(err))
}

func TestNewClaudeRequiresKey(t *testing.T) {
	_, err := NewClaude(t.Context(), Config{}, logger.Nop())
	assert.Error(t, err)
}

func TestUnconfiguredClientIsServiceUnavailable(t *testing.T) {
	_, err := Unconfigured().Generate(t.Context(), "", nil, 10)
	assert.Equal(t, http.StatusServiceUnavailable, apierr.StatusOf(err))
	_, err = Unconfigured().Stream(t.Context(), "", nil, 10)
	assert.Equal(t, http.StatusServiceUnavailable, apierr.StatusOf(err))
}
