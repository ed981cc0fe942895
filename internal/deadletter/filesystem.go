package deadletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FileSystemRepository implements Repository on the local file system.
// Layout: root/{queue}/{id}.yaml, one entry per file.
type FileSystemRepository struct {
	rootDir string
}

// NewFileSystemRepository creates the queue directories under rootDir.
func NewFileSystemRepository(rootDir string) (*FileSystemRepository, error) {
	for _, q := range []Queue{QueueDeadLetter, QueueQuarantine} {
		if err := os.MkdirAll(filepath.Join(rootDir, string(q)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create dead-letter directory: %w", err)
		}
	}
	return &FileSystemRepository{rootDir: rootDir}, nil
}

func (r *FileSystemRepository) path(q Queue, id uuid.UUID) string {
	return filepath.Join(r.rootDir, string(q), id.String()+".yaml")
}

// Put writes the entry to a temp file and renames it into place so readers
// never see a partial entry.
func (r *FileSystemRepository) Put(ctx context.Context, e *Entry) error {
	prepare(e)
	if !e.Queue.Valid() {
		return fmt.Errorf("unknown dead-letter queue %q", e.Queue)
	}

	content, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode dead-letter entry: %w", err)
	}

	final := r.path(e.Queue, e.ID)
	tmp, err := os.CreateTemp(filepath.Dir(final), ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to create dead-letter file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write dead-letter file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close dead-letter file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to commit dead-letter file: %w", err)
	}
	return nil
}

// Get looks the id up in every queue.
func (r *FileSystemRepository) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	for _, q := range []Queue{QueueDeadLetter, QueueQuarantine} {
		e, err := r.read(r.path(q, id))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return e, err
	}
	return nil, ErrNotFound
}

func (r *FileSystemRepository) read(path string) (*Entry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := yaml.Unmarshal(content, &e); err != nil {
		return nil, fmt.Errorf("failed to decode dead-letter entry %s: %w", filepath.Base(path), err)
	}
	return &e, nil
}

// List scans the queue directories. Unreadable files are skipped with a warning.
func (r *FileSystemRepository) List(ctx context.Context, f Filter) ([]*Entry, error) {
	queues := []Queue{QueueDeadLetter, QueueQuarantine}
	if f.Queue != "" {
		queues = []Queue{f.Queue}
	}

	result := []*Entry{}
	for _, q := range queues {
		dir := filepath.Join(r.rootDir, string(q))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		for _, de := range entries {
			if de.IsDir() || !strings.HasSuffix(de.Name(), ".yaml") {
				continue
			}
			e, err := r.read(filepath.Join(dir, de.Name()))
			if err != nil {
				slog.Warn("[DeadLetter] Skipping unreadable entry", "file", de.Name(), "error", err)
				continue
			}
			if f.match(e) {
				result = append(result, e)
			}
		}
	}
	sortEntries(result)
	return result, nil
}

func (r *FileSystemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for _, q := range []Queue{QueueDeadLetter, QueueQuarantine} {
		err := os.Remove(r.path(q, id))
		if err == nil {
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete dead-letter entry: %w", err)
		}
	}
	return ErrNotFound
}
