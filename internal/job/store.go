// This file implements persistent storage for finalized job records.
// Records are stored as JSON files under ~/.transmute/jobs/<record-id>/
// with atomic writes for data integrity.
package job

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/ctxutil"
	"github.com/mrz1836/transmute/internal/domain"
	transmuteerrors "github.com/mrz1836/transmute/internal/errors"
)

// File and directory permissions for persisted records.
const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Store persists finalized job records for history queries.
type Store interface {
	// Save persists one finalized job record under recordID.
	Save(ctx context.Context, recordID string, record domain.Job) error

	// Get retrieves a persisted record. Returns ErrJobNotFound when absent.
	Get(ctx context.Context, recordID string) (*domain.Job, error)

	// List returns all persisted records, newest first.
	List(ctx context.Context) ([]*domain.Job, error)
}

// FileStore implements Store using the local filesystem.
type FileStore struct {
	transmuteHome string // Usually ~/.transmute
}

// NewFileStore creates a FileStore rooted at transmuteHome.
// If transmuteHome is empty, uses the default ~/.transmute directory.
func NewFileStore(transmuteHome string) (*FileStore, error) {
	if transmuteHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		transmuteHome = filepath.Join(home, constants.TransmuteHome)
	}
	return &FileStore{transmuteHome: transmuteHome}, nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)

// Save persists one finalized job record under recordID.
func (s *FileStore) Save(ctx context.Context, recordID string, record domain.Job) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if recordID == "" {
		return fmt.Errorf("failed to save job record: record id is empty")
	}

	recordDir := s.recordDir(recordID)
	if err := os.MkdirAll(recordDir, dirPerm); err != nil {
		return fmt.Errorf("failed to create job record directory: %w", err)
	}

	record.SchemaVersion = constants.JobSchemaVersion

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to save job record '%s': %w", recordID, err)
	}
	if err = atomicWrite(s.recordFilePath(recordID), data); err != nil {
		return fmt.Errorf("failed to save job record '%s': %w", recordID, err)
	}
	return nil
}

// Get retrieves a persisted record. Returns ErrJobNotFound when absent.
func (s *FileStore) Get(ctx context.Context, recordID string) (*domain.Job, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.recordFilePath(recordID)) //nolint:gosec // path constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job record '%s': %w", recordID, transmuteerrors.ErrJobNotFound)
		}
		return nil, fmt.Errorf("failed to read job record '%s': %w", recordID, err)
	}

	var record domain.Job
	if err = json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse job record '%s': %w", recordID, err)
	}
	return &record, nil
}

// List returns all persisted records, newest first by start time.
func (s *FileStore) List(ctx context.Context) ([]*domain.Job, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.jobsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list job records: %w", err)
	}

	records := make([]*domain.Job, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		record, err := s.Get(ctx, entry.Name())
		if err != nil {
			// Skip unreadable records rather than failing the whole listing
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}

func (s *FileStore) jobsDir() string {
	return filepath.Join(s.transmuteHome, constants.JobsDir)
}

func (s *FileStore) recordDir(recordID string) string {
	return filepath.Join(s.jobsDir(), recordID)
}

func (s *FileStore) recordFilePath(recordID string) string {
	return filepath.Join(s.recordDir(recordID), constants.JobFileName)
}

// atomicWrite writes data to a file atomically using write-then-rename.
// This prevents partial writes from corrupting records on crash.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //nolint:gosec // path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Ensure data is persisted before rename
	if err = f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// GenerateRecordID generates a history record ID with format
// tjob-YYYYMMDD-HHMMSS-<short-uuid>. The timestamp keeps directory listings
// chronological; the uuid suffix keeps same-second starts unique.
func GenerateRecordID(now time.Time) string {
	short := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("tjob-%s-%s", now.UTC().Format("20060102-150405"), short)
}
