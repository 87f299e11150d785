package agent

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsamf/gamma/internal/data/repos/testutil"
	types "github.com/rsamf/gamma/internal/domain"
)

func TestConversationAndMessageOrdering(t *testing.T) {
	db := testutil.DB(t)
	convs := NewConversationRepo(db, testutil.Logger(t))
	msgs := NewMessageRepo(db, testutil.Logger(t))
	dbc := testutil.DBC()

	projectID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	c1, err := convs.Create(dbc, &types.AgentConversation{ProjectID: projectID, CreatedAt: base})
	require.NoError(t, err)
	c2, err := convs.Create(dbc, &types.AgentConversation{ProjectID: projectID, CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	_, err = convs.Create(dbc, &types.AgentConversation{ProjectID: uuid.New(), CreatedAt: base})
	require.NoError(t, err)

	list, err := convs.ListByProject(dbc, projectID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, c2.ID, list[0].ID)
	assert.Equal(t, c1.ID, list[1].ID)

	_, err = msgs.Create(dbc, &types.AgentMessage{ConversationID: c1.ID, Role: types.RoleAssistant, Content: "second", CreatedAt: base.Add(2 * time.Second)})
	require.NoError(t, err)
	_, err = msgs.Create(dbc, &types.AgentMessage{ConversationID: c1.ID, Role: types.RoleUser, Content: "first", CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)

	history, err := msgs.ListByConversation(dbc, c1.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)
	assert.JSONEq(t, `{}`, string(history[0].Metadata))
}

func TestCommitSummaryInsertIfAbsentKeepsFirstWriter(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCommitSummaryRepo(db, testutil.Logger(t))
	dbc := testutil.DBC()

	projectID := uuid.New()
	first, err := repo.InsertIfAbsent(dbc, &types.CommitSummary{ProjectID: projectID, CommitSHA: "abc", Summary: "one"})
	require.NoError(t, err)
	assert.Equal(t, "one", first.Summary)

	second, err := repo.InsertIfAbsent(dbc, &types.CommitSummary{ProjectID: projectID, CommitSHA: "abc", Summary: "two"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "one", second.Summary)

	var count int64
	require.NoError(t, db.Model(&types.CommitSummary{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	none, err := repo.Get(dbc, projectID, "zzz")
	require.NoError(t, err)
	assert.Nil(t, none)
}
