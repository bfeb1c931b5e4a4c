// Package store persists the whole bot state as a single JSON document with
// a sibling backup copy. Every write preserves the previous primary as the
// backup before replacing it, so the backup always holds the last-known-good
// snapshot; a read that fails on the primary falls back to the backup and
// repairs the primary from it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
)

const (
	defaultDir        = "data"
	defaultFile       = "users.json"
	defaultBackupFile = "users_backup.json"
)

// Config locates the data files. Zero values select the defaults
// data/users.json and data/users_backup.json.
type Config struct {
	Dir        string `yaml:"dir" envconfig:"STORE_DIR"`
	File       string `yaml:"file" envconfig:"STORE_FILE"`
	BackupFile string `yaml:"backup_file" envconfig:"STORE_BACKUP_FILE"`
}

// Store owns the state files. All mutations go through Update, which holds an
// internal mutex so concurrent handlers observe one-event-at-a-time
// semantics.
type Store struct {
	mu         sync.Mutex
	path       string
	backupPath string
}

// Open prepares the data directory and returns a Store. No file is created
// until EnsureInitialized or the first Write.
func Open(cfg Config) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = defaultDir
	}
	file := cfg.File
	if file == "" {
		file = defaultFile
	}
	backup := cfg.BackupFile
	if backup == "" {
		backup = defaultBackupFile
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	s := &Store{
		path:       filepath.Join(dir, file),
		backupPath: filepath.Join(dir, backup),
	}

	logger.Info(context.Background(), "store", "open",
		slog.String("path", s.path),
	)
	return s, nil
}

// EnsureInitialized writes an empty state if the primary file is missing so
// later reads never have to guess whether absence means corruption.
func (s *Store) EnsureInitialized() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: stat %s: %w", s.path, err)
	}

	logger.Info(context.Background(), "store", "init_empty")
	return s.write(&State{Users: []*User{}})
}

// Read loads the current state. It never fails: a broken primary falls back
// to the backup (repairing the primary), and if both are unreadable an empty
// state is returned so the bot keeps serving.
func (s *Store) Read() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Write persists the given state, keeping the previous snapshot as the
// backup.
func (s *Store) Write(st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(st)
}

// Update runs fn against the current state and persists the result if fn
// returns nil. The whole read-modify-write cycle happens under the store
// mutex, so callers compose multi-field mutations atomically.
func (s *Store) Update(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.read()
	if err := fn(st); err != nil {
		return err
	}
	return s.write(st)
}

func (s *Store) read() *State {
	st, err := loadState(s.path)
	if err == nil {
		return st
	}
	logger.Warn(context.Background(), "store", "primary_read_failed",
		slog.String("error", err.Error()),
	)

	st, berr := loadState(s.backupPath)
	if berr != nil {
		logger.Error(context.Background(), "store", "backup_read_failed",
			slog.String("error", berr.Error()),
		)
		return &State{Users: []*User{}}
	}

	// Repair the primary by copying the backup bytes over it directly; going
	// through write would clobber the good backup with the broken primary.
	if data, rerr := os.ReadFile(s.backupPath); rerr == nil {
		if werr := os.WriteFile(s.path, data, 0o644); werr != nil {
			logger.Error(context.Background(), "store", "primary_repair_failed",
				slog.String("error", werr.Error()),
			)
		} else {
			logger.Info(context.Background(), "store", "restored_from_backup")
		}
	}
	return st
}

func (s *Store) write(st *State) error {
	st.LastBackup = time.Now().UTC()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal state: %w", err)
	}

	// Preserve the current primary as the backup before overwriting it, so a
	// bad write (or a bad mutation) always leaves a prior snapshot to fall
	// back to. On the very first write there is nothing to preserve yet.
	if prev, rerr := os.ReadFile(s.path); rerr == nil {
		if err := os.WriteFile(s.backupPath, prev, 0o644); err != nil {
			return fmt.Errorf("store: write backup %s: %w", s.backupPath, err)
		}
	} else if !errors.Is(rerr, os.ErrNotExist) {
		return fmt.Errorf("store: read previous %s: %w", s.path, rerr)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}

func loadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	}
	if st.Users == nil {
		st.Users = []*User{}
	}
	return &st, nil
}
