package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/profile"
	"github.com/spigell/career-assistant/internal/session"
	"github.com/spigell/career-assistant/internal/tools"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history", "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTripPreservesOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var want []session.Turn
	for i := 0; i < 12; i++ {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAssistant
		}
		turn := session.Turn{Role: role, Text: fmt.Sprintf("turn %d", i), At: base.Add(time.Duration(i) * time.Second)}
		want = append(want, turn)
		require.NoError(t, store.AppendTurn(ctx, "thread-a", turn))
	}
	require.NoError(t, store.AppendTurn(ctx, "thread-b", session.Turn{Role: session.RoleUser, Text: "other", At: base}))

	got, err := store.LoadTurns(ctx, "thread-a")
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Role, got[i].Role)
		assert.Equal(t, want[i].Text, got[i].Text)
		assert.True(t, want[i].At.Equal(got[i].At), "turn %d time %s != %s", i, got[i].At, want[i].At)
	}
}

func TestStoreActions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	score := 45.5

	require.NoError(t, store.AppendAction(ctx, "thread-a", session.Action{
		Tool:    tools.UpdateProfile,
		Args:    tools.Args{"section": "skills", "updates": map[string]any{"topSkills": []any{"Go"}}},
		Summary: "updated skills",
		Success: true,
	}))
	require.NoError(t, store.AppendAction(ctx, "thread-a", session.Action{
		Tool:    tools.GetMatches,
		Summary: "3 matches",
		Success: true,
		Score:   &score,
	}))

	actions, err := store.LoadActions(ctx, "thread-a")
	require.NoError(t, err)
	require.Len(t, actions, 2)

	assert.Equal(t, tools.UpdateProfile, actions[0].Tool)
	assert.Equal(t, "skills", actions[0].Args["section"])
	assert.Nil(t, actions[0].Score)
	assert.True(t, actions[0].Success)

	assert.Equal(t, tools.GetMatches, actions[1].Tool)
	require.NotNil(t, actions[1].Score)
	assert.InDelta(t, 45.5, *actions[1].Score, 0.001)
	assert.Nil(t, actions[1].Args)
}

func TestStoreThreads(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "old", session.Turn{Role: session.RoleUser, Text: "hi"}))
	require.NoError(t, store.AppendTurn(ctx, "new", session.Turn{Role: session.RoleUser, Text: "hi"}))
	require.NoError(t, store.AppendTurn(ctx, "new", session.Turn{Role: session.RoleAssistant, Text: "hello"}))

	threads, err := store.Threads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "new", threads[0].ID)
	assert.Equal(t, 2, threads[0].Turns)
	assert.Equal(t, "old", threads[1].ID)
}

func TestSessionReloadsFromStore(t *testing.T) {
	store := openStore(t)
	writer := NewWriter(store, zap.NewNop())

	manager := session.NewManager(session.ManagerOptions{
		Profile:  profile.Sample,
		Loader:   store,
		Recorder: writer,
	}, zap.NewNop())

	c, resumed, err := manager.Open(context.Background(), "thread-x")
	require.NoError(t, err)
	assert.False(t, resumed)

	for i := 0; i < 5; i++ {
		c.AppendTurn(session.RoleUser, fmt.Sprintf("question %d", i))
		c.AppendTurn(session.RoleAssistant, fmt.Sprintf("answer %d", i))
	}
	want := c.History()

	writer.Close()
	manager.Close("thread-x")

	reopened, resumed, err := manager.Open(context.Background(), "thread-x")
	require.NoError(t, err)
	assert.True(t, resumed)

	got := reopened.History()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Role, got[i].Role)
		assert.Equal(t, want[i].Text, got[i].Text)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}
