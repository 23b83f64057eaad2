package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/piichat/internal/core"
)

func newTestRepo(t *testing.T) *Turns {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "data", "piichat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTurns(db)
}

func TestTurns_AddAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []core.Turn{
		{Role: core.RoleUser, Content: "SSN is <US_SSN>"},
		{Role: core.RoleAssistant, Content: "Noted."},
	}
	second := []core.Turn{
		{Role: core.RoleUser, Content: "Thanks"},
		{Role: core.RoleAssistant, Content: "You're welcome."},
	}
	require.NoError(t, repo.AddTurns(ctx, "s1", first...))
	require.NoError(t, repo.AddTurns(ctx, "s2", core.Turn{Role: core.RoleUser, Content: "other"}))
	require.NoError(t, repo.AddTurns(ctx, "s1", second...))

	got, err := repo.GetTurns(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), got)

	empty, err := repo.GetTurns(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTurns_AddIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.AddTurns(ctx, "s1",
		core.Turn{Role: core.RoleUser, Content: "ok"},
		core.Turn{Role: "system", Content: "bad"},
	)
	require.Error(t, err)

	got, err := repo.GetTurns(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTurns_DeleteSession(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.AddTurns(ctx, "s1", core.Turn{Role: core.RoleUser, Content: "a"}))
	require.NoError(t, repo.AddTurns(ctx, "s2", core.Turn{Role: core.RoleUser, Content: "b"}))

	require.NoError(t, repo.DeleteSession(ctx, "s1"))
	require.NoError(t, repo.DeleteSession(ctx, "s1"))

	s1, err := repo.GetTurns(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, s1)

	s2, err := repo.GetTurns(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, s2, 1)
}

func TestNewDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piichat.db")
	ctx := context.Background()

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	require.NoError(t, NewTurns(db).AddTurns(ctx, "s", core.Turn{Role: core.RoleUser, Content: "kept"}))
	require.NoError(t, db.Close())

	db, err = NewDB(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	got, err := NewTurns(db).GetTurns(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []core.Turn{{Role: core.RoleUser, Content: "kept"}}, got)
}
