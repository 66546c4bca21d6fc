// Package state persists the quota record as a single JSON file.
//
// The file is replaced atomically on save, but there is no cross-process
// locking: concurrent processes race on read-modify-write and the last
// writer wins. That limitation is accepted for a per-user guard.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokenops/quotaguard/internal/domain/quota"
	"github.com/tokenops/quotaguard/internal/domain/registry"
)

const stateFileName = "quota.json"

// DirEnv overrides the state directory when set. Useful for test
// harnesses and throwaway environments.
const DirEnv = "QUOTAGUARD_STATE_DIR"

// ResolveDir picks the state directory: the DirEnv override when set,
// then the configured directory, then a quotaguard directory under the
// OS config dir.
func ResolveDir(configured string) (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	if configured != "" {
		return configured, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "quotaguard"), nil
}

// stateFile is the on-disk layout of the quota record.
type stateFile struct {
	Date           string           `json:"date"`
	Buckets        map[string]int64 `json:"buckets"`
	PlanTokensLeft int64            `json:"plan_tokens_left"`
}

// Store reads and writes the quota state file.
type Store struct {
	dir    string
	path   string
	logger *zap.Logger
}

// New creates a store rooted at the given directory. The directory is
// created lazily on first save.
func New(dir string, logger *zap.Logger) *Store {
	return &Store{
		dir:    dir,
		path:   filepath.Join(dir, stateFileName),
		logger: logger,
	}
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Load reads the quota record and applies the daily rollover. It never
// fails: a missing file yields today's defaults (OriginFresh), an
// unreadable or malformed file yields defaults too (OriginRecovered,
// logged), and anything else is the reconciled persisted record
// (OriginLoaded).
func (s *Store) Load(_ context.Context) (quota.Record, quota.Origin) {
	today := quota.Day(time.Now())

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return quota.NewDefault(today), quota.OriginFresh
		}
		s.logger.Warn("State file unreadable, starting from defaults",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return quota.NewDefault(today), quota.OriginRecovered
	}

	var f stateFile
	if err := json.Unmarshal(data, &f); err != nil {
		s.logger.Warn("State file corrupt, starting from defaults",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return quota.NewDefault(today), quota.OriginRecovered
	}

	buckets := make(map[registry.Bucket]int64, len(f.Buckets))
	for id, remaining := range f.Buckets {
		buckets[registry.Bucket(id)] = remaining
	}
	rec := quota.Reconstruct(f.Date, buckets, f.PlanTokensLeft)
	return rec.Reconcile(today), quota.OriginLoaded
}

// Save stamps the record with today's date and replaces the state file
// atomically (temp file + rename). The only fatal failure class of the
// engine: callers must treat an error as the decision not having been
// persisted.
func (s *Store) Save(_ context.Context, rec quota.Record) error {
	stamped := rec.WithDate(quota.Day(time.Now()))

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", s.dir, err)
	}

	buckets := make(map[string]int64)
	for id, remaining := range stamped.Buckets() {
		buckets[string(id)] = remaining
	}
	data, err := json.MarshalIndent(stateFile{
		Date:           stamped.Date(),
		Buckets:        buckets,
		PlanTokensLeft: stamped.PlanTokensLeft(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := filepath.Join(s.dir, fmt.Sprintf(".tmp-%s.json", uuid.New().String()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace state file %s: %w", s.path, err)
	}
	return nil
}

// Ping verifies the state directory exists and is writable.
func (s *Store) Ping(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", s.dir, err)
	}
	probe, err := os.CreateTemp(s.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("state dir %s not writable: %w", s.dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("remove probe file: %w", err)
	}
	return nil
}
