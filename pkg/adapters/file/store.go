// Package file persists sessions and history as JSON files on the local disk.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
)

// DefaultDir is the data directory used when none is configured.
var DefaultDir = filepath.Join(".ironlog", "sessions")

// Store implements ports.SessionStore with one JSON file per user.
type Store struct {
	BasePath string
}

var _ ports.SessionStore = (*Store)(nil)

// New creates a Store rooted at basePath, or DefaultDir when empty.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

func checkID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return errors.Newf("id %q is not a valid file name", id)
	}
	return nil
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.BasePath, userID+".json")
}

// Save writes the snapshot atomically.
func (s *Store) Save(ctx context.Context, userID string, session *domain.ActiveSession) error {
	if err := checkID(userID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}
	return writeAtomic(s.BasePath, s.path(userID), data)
}

// Load reads the user's snapshot.
func (s *Store) Load(ctx context.Context, userID string) (*domain.ActiveSession, error) {
	if err := checkID(userID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(domain.ErrSessionNotFound, "user %s", userID)
		}
		return nil, errors.Wrap(err, "failed to read session file")
	}

	var session domain.ActiveSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}
	return &session, nil
}

// Delete removes the user's snapshot.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := checkID(userID); err != nil {
		return err
	}
	if err := os.Remove(s.path(userID)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete session file")
	}
	return nil
}

// List returns the users with a snapshot on disk.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Wrap(err, "failed to list sessions")
	}

	users := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		users = append(users, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(users)
	return users, nil
}

// writeAtomic writes data to a temp file in dir, syncs it and renames it over dest.
func writeAtomic(dir, dest string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to ensure data directory")
	}

	// Same directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(dir, "tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "failed to fsync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}

	// Windows cannot rename over an existing file.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return errors.Wrap(err, "failed to replace existing file")
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return errors.Wrap(err, "failed to move temp file into place")
	}
	return nil
}
