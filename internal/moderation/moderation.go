// Package moderation manages the banned-user list and its audit trail. The
// list lives in its own YAML file next to the bot configuration, separate
// from user records, so an operator can inspect or edit it by hand; the
// audit trail is appended to the persistent state.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/internal/store"
)

const defaultListPath = "data/banned.yml"

type listFile struct {
	Banned []int64 `yaml:"banned"`
}

// List is the file-backed set of banned user ids. Mutations rewrite the
// whole file under a mutex.
type List struct {
	mu   sync.Mutex
	path string
}

// NewList returns a List at the given path; empty selects the default
// data/banned.yml. A missing file reads as an empty list.
func NewList(path string) *List {
	if path == "" {
		path = defaultListPath
	}
	return &List{path: path}
}

// IDs returns the banned user ids.
func (l *List) IDs() ([]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := l.load()
	if err != nil {
		return nil, err
	}
	return f.Banned, nil
}

// IsBanned reports whether the user id is on the list. Read failures count
// as not banned so a broken file cannot lock everyone out.
func (l *List) IsBanned(userID int64) bool {
	ids, err := l.IDs()
	if err != nil {
		logger.Warn(context.Background(), "service.moderation", "list_read_failed",
			slog.String("error", err.Error()),
		)
		return false
	}
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}

// Add puts the user id on the list. Returns false if it was already there.
func (l *List) Add(userID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.load()
	if err != nil {
		return false, err
	}
	for _, id := range f.Banned {
		if id == userID {
			return false, nil
		}
	}
	f.Banned = append(f.Banned, userID)
	return true, l.save(f)
}

// Remove takes the user id off the list. Returns false if it was not there.
func (l *List) Remove(userID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.load()
	if err != nil {
		return false, err
	}
	kept := f.Banned[:0]
	removed := false
	for _, id := range f.Banned {
		if id == userID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	if !removed {
		return false, nil
	}
	f.Banned = kept
	return true, l.save(f)
}

func (l *List) load() (*listFile, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return &listFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("moderation: read %s: %w", l.path, err)
	}
	var f listFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("moderation: decode %s: %w", l.path, err)
	}
	return &f, nil
}

func (l *List) save(f *listFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("moderation: encode ban list: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("moderation: write %s: %w", l.path, err)
	}
	return nil
}

// Service couples list mutations with the audit trail so every effective ban
// or unban leaves a record of who did it and when.
type Service struct {
	list  *List
	store *store.Store
}

// NewService builds a moderation Service.
func NewService(list *List, st *store.Store) *Service {
	return &Service{list: list, store: st}
}

// IsBanned reports whether the user is currently banned.
func (s *Service) IsBanned(userID int64) bool {
	return s.list.IsBanned(userID)
}

// Ban adds the user to the list and records the action. Banning an already
// banned user is a no-op and leaves no audit entry.
func (s *Service) Ban(ctx context.Context, userID, adminID int64) (bool, error) {
	added, err := s.list.Add(userID)
	if err != nil || !added {
		return added, err
	}
	s.audit(ctx, userID, adminID, store.BanActionBan)
	return true, nil
}

// Unban removes the user from the list and records the action.
func (s *Service) Unban(ctx context.Context, userID, adminID int64) (bool, error) {
	removed, err := s.list.Remove(userID)
	if err != nil || !removed {
		return removed, err
	}
	s.audit(ctx, userID, adminID, store.BanActionUnban)
	return true, nil
}

func (s *Service) audit(ctx context.Context, userID, adminID int64, action store.BanAction) {
	err := s.store.Update(func(st *store.State) error {
		st.BannedLog = append(st.BannedLog, store.BanLogEntry{
			UserID:    userID,
			Action:    action,
			AdminID:   adminID,
			Timestamp: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		// The list change already took effect; losing the audit row is
		// logged but does not undo the ban.
		logger.Error(ctx, "service.moderation", "audit_write_failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Info(ctx, "service.moderation", string(action),
		slog.Int64("user_id", userID),
		slog.Int64("admin_id", adminID),
	)
}
