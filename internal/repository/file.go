package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hray3182/pengingat/internal/models"
)

// FileSnapshotter keeps the store as one JSON array. Each save writes a
// temporary file and renames it over the previous snapshot.
type FileSnapshotter struct {
	path string
}

func NewFileSnapshotter(path string) (*FileSnapshotter, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store path is required for file driver")
	}
	return &FileSnapshotter{path: path}, nil
}

func (s *FileSnapshotter) Load(ctx context.Context) ([]*models.Reminder, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return fromRecords(recs)
}

func (s *FileSnapshotter) Save(ctx context.Context, reminders []*models.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(toRecords(reminders), "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
