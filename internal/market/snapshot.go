package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Snapshot persists one whole batch of records as a JSON array.
type Snapshot struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
}

// NewSnapshot returns a file snapshot. maxAge 0 means it never goes stale.
func NewSnapshot(path string, maxAge time.Duration) *Snapshot {
	return &Snapshot{path: path, maxAge: maxAge, now: time.Now}
}

func (s *Snapshot) Path() string { return s.path }

// Load returns the stored batch. ok is false when there is no file or it
// is older than maxAge.
func (s *Snapshot) Load() (records []Record, ok bool, err error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if s.maxAge > 0 && s.now().Sub(info.ModTime()) > s.maxAge {
		return nil, false, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return records, true, nil
}

// Save replaces the snapshot atomically.
func (s *Snapshot) Save(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
