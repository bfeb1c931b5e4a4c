package moderation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/orderbot/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(store.Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, st.EnsureInitialized())

	list := NewList(filepath.Join(dir, "banned.yml"))
	return NewService(list, st), st
}

func TestListMissingFileReadsEmpty(t *testing.T) {
	list := NewList(filepath.Join(t.TempDir(), "banned.yml"))
	ids, err := list.IDs()
	require.NoError(t, err)
	require.Empty(t, ids)
	require.False(t, list.IsBanned(1))
}

func TestListAddRemoveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned.yml")
	list := NewList(path)

	added, err := list.Add(100)
	require.NoError(t, err)
	require.True(t, added)

	// Idempotent: second add reports no change.
	added, err = list.Add(100)
	require.NoError(t, err)
	require.False(t, added)

	// A fresh List over the same file sees the persisted entry.
	require.True(t, NewList(path).IsBanned(100))

	removed, err := list.Remove(100)
	require.NoError(t, err)
	require.True(t, removed)
	require.False(t, list.IsBanned(100))

	removed, err = list.Remove(100)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestListFileIsHandEditable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned.yml")
	require.NoError(t, os.WriteFile(path, []byte("banned:\n  - 7\n  - 8\n"), 0o644))

	list := NewList(path)
	require.True(t, list.IsBanned(7))
	require.True(t, list.IsBanned(8))
	require.False(t, list.IsBanned(9))
}

func TestServiceBanWritesAudit(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	banned, err := svc.Ban(ctx, 555, 1)
	require.NoError(t, err)
	require.True(t, banned)
	require.True(t, svc.IsBanned(555))

	log := st.Read().BannedLog
	require.Len(t, log, 1)
	require.Equal(t, int64(555), log[0].UserID)
	require.Equal(t, int64(1), log[0].AdminID)
	require.Equal(t, store.BanActionBan, log[0].Action)
	require.False(t, log[0].Timestamp.IsZero())
}

func TestServiceRepeatBanLeavesSingleAuditRow(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ban(ctx, 555, 1)
	require.NoError(t, err)
	banned, err := svc.Ban(ctx, 555, 1)
	require.NoError(t, err)
	require.False(t, banned)

	require.Len(t, st.Read().BannedLog, 1)
}

func TestServiceUnbanWritesAudit(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ban(ctx, 555, 1)
	require.NoError(t, err)
	removed, err := svc.Unban(ctx, 555, 2)
	require.NoError(t, err)
	require.True(t, removed)
	require.False(t, svc.IsBanned(555))

	log := st.Read().BannedLog
	require.Len(t, log, 2)
	require.Equal(t, store.BanActionUnban, log[1].Action)
	require.Equal(t, int64(2), log[1].AdminID)
}

func TestIsAdminCommand(t *testing.T) {
	require.True(t, isAdminCommand("/ban 123"))
	require.True(t, isAdminCommand("/unban"))
	require.True(t, isAdminCommand("/bc@orderbot hello all"))
	require.False(t, isAdminCommand("/start"))
	require.False(t, isAdminCommand("ban 123"))
	require.False(t, isAdminCommand(""))
	require.False(t, isAdminCommand("/banhammer"))
}
