package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestEnsureInitializedCreatesEmptyState(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureInitialized())

	st := s.Read()
	require.NotNil(t, st.Users)
	require.Empty(t, st.Users)

	// Second call must not clobber existing data.
	require.NoError(t, s.Update(func(st *State) error {
		st.Users = append(st.Users, &User{ID: 1, Name: "A"})
		return nil
	}))
	require.NoError(t, s.EnsureInitialized())
	require.Len(t, s.Read().Users, 1)
}

func TestWriteKeepsPreviousSnapshotAsBackup(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Write(&State{Users: []*User{{ID: 7, Name: "old"}}}))

	oldPrimary, err := os.ReadFile(s.path)
	require.NoError(t, err)

	require.NoError(t, s.Write(&State{Users: []*User{{ID: 7, Name: "new"}}}))

	// The backup must be the snapshot that was on disk before this write,
	// not a copy of the new state.
	backup, err := os.ReadFile(s.backupPath)
	require.NoError(t, err)
	require.Equal(t, oldPrimary, backup)
	require.Contains(t, string(backup), `"old"`)
	require.NotContains(t, string(backup), `"new"`)

	primary, err := os.ReadFile(s.path)
	require.NoError(t, err)
	require.Contains(t, string(primary), `"new"`)
}

func TestReadFallsBackToBackupAndRepairsPrimary(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Write(&State{Users: []*User{{ID: 42, Name: "kept"}}}))
	// Second write rolls the first snapshot into the backup.
	require.NoError(t, s.Update(func(st *State) error {
		st.Users = append(st.Users, &User{ID: 43})
		return nil
	}))

	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))

	st := s.Read()
	require.Len(t, st.Users, 1)
	require.Equal(t, int64(42), st.Users[0].ID)

	// The primary must have been rewritten from the backup.
	repaired, err := os.ReadFile(s.path)
	require.NoError(t, err)
	require.Contains(t, string(repaired), `"kept"`)

	// The repair must not have clobbered the backup with the broken bytes.
	backup, err := os.ReadFile(s.backupPath)
	require.NoError(t, err)
	require.Contains(t, string(backup), `"kept"`)
}

func TestReadReturnsEmptyWhenBothFilesBroken(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(s.backupPath, []byte("also garbage"), 0o644))

	st := s.Read()
	require.NotNil(t, st)
	require.Empty(t, st.Users)
}

func TestUpdateErrorLeavesFilesUntouched(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Write(&State{Users: []*User{{ID: 1, Balance: 500}}}))

	before, err := os.ReadFile(s.path)
	require.NoError(t, err)

	wantErr := os.ErrInvalid
	err = s.Update(func(st *State) error {
		st.Users[0].Balance = 0
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	after, err := os.ReadFile(s.path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestOpenCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	_, err := Open(Config{Dir: dir})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestUserStateValidation(t *testing.T) {
	require.True(t, StateIdle.Valid())
	for _, st := range AllStates {
		require.True(t, st.Valid(), "state %q", st)
		require.True(t, st.Active())
	}
	require.False(t, UserState("AWAITING_SOMETHING_ELSE").Valid())
	require.False(t, StateIdle.Active())
}

func TestClearFlowDropsStateAndDraft(t *testing.T) {
	u := &User{State: StateAwaitingTarget, OrderDraft: &OrderDraft{ServiceID: 9}}
	u.ClearFlow()
	require.Equal(t, StateIdle, u.State)
	require.Nil(t, u.OrderDraft)
}
