package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "sim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpen_Failures(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	notDir := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o600))
	d, err := Open(filepath.Join(notDir, "sim.db"))
	require.Error(t, err)
	require.Nil(t, d)

	garbage := filepath.Join(dir, "garbage.db")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not an sqlite database, just some bytes padding it out"), 0o600))
	d, err = Open(garbage)
	require.Error(t, err)
	require.Nil(t, d)
	require.Contains(t, err.Error(), garbage)
}

func TestTrees(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d := openTemp(t)

	trees, err := d.ListTrees(ctx)
	require.NoError(t, err)
	require.Empty(t, trees)

	created, err := d.UpsertTree(ctx, "patrol", `"success"`)
	require.NoError(t, err)
	require.Equal(t, "patrol", created.Name)
	require.NotZero(t, created.ID)

	updated, err := d.UpsertTree(ctx, "patrol", `"failure"`)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, `"failure"`, updated.Description)

	_, err = d.UpsertTree(ctx, "guard", `{"sequence":[]}`)
	require.NoError(t, err)

	trees, err = d.ListTrees(ctx)
	require.NoError(t, err)
	require.Len(t, trees, 2)
	require.Equal(t, "guard", trees[0].Name)
	require.Equal(t, "patrol", trees[1].Name)

	require.NoError(t, d.DeleteTree(ctx, "guard"))
	require.ErrorIs(t, d.DeleteTree(ctx, "guard"), ErrNotFound)
	_, err = d.GetTree(ctx, "guard")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = d.UpsertTree(ctx, "  ", "x")
	require.Error(t, err)
}

func TestDecisions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d := openTemp(t)

	for i := int64(1); i <= 5; i++ {
		actor := "a"
		if i%2 == 0 {
			actor = "b"
		}
		require.NoError(t, d.RecordDecision(ctx, Decision{ActorID: actor, Tree: "t", Tick: i, State: "RUNNING"}))
	}

	all, err := d.ListDecisions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.EqualValues(t, 5, all[0].Tick)

	onlyA, err := d.ListDecisions(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	require.EqualValues(t, 5, onlyA[0].Tick)
	require.EqualValues(t, 3, onlyA[1].Tick)

	n, err := d.PruneDecisions(ctx, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	all, err = d.ListDecisions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
