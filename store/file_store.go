// Package store persists each record collection as a JSON file in the data directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/giygas/cabinet/entities"
	"github.com/giygas/cabinet/interfaces"
	"github.com/giygas/cabinet/logging"
)

var (
	ErrSlotAbsent    = errors.New("slot absent")
	ErrSlotMalformed = errors.New("slot malformed")
)

// backupLayout names backup directories; lexical order is chronological order.
const backupLayout = "20060102-150405"

// FileStore keeps one <slot>.json file per collection
type FileStore struct {
	dir string
}

var _ interfaces.Store = (*FileStore)(nil)

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(slot entities.Slot) string {
	return filepath.Join(s.dir, string(slot)+".json")
}

// Load decodes the slot into v.
func (s *FileStore) Load(slot entities.Slot, v any) error {
	data, err := os.ReadFile(s.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrSlotAbsent
	}
	if err != nil {
		return fmt.Errorf("failed to read slot %s: %w", slot, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSlotMalformed, slot, err)
	}
	return nil
}

// Save replaces the slot with the serialization of v. The previous content stays intact
// if anything fails before the rename.
func (s *FileStore) Save(slot entities.Slot, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode slot %s: %w", slot, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+string(slot)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for slot %s: %w", slot, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync slot %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close slot %s: %w", slot, err)
	}

	if err := os.Rename(tmpName, s.path(slot)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace slot %s: %w", slot, err)
	}
	return nil
}

// LoadCollection reads a slot at startup. An absent or malformed slot yields an empty
// collection; the cause is logged and never returned.
func LoadCollection[T any](s interfaces.Store, slot entities.Slot) []T {
	var records []T
	err := s.Load(slot, &records)
	switch {
	case err == nil:
		if records == nil {
			records = []T{}
		}
		logging.Info("Slot loaded", "slot", slot, "records", len(records))
		return records
	case errors.Is(err, ErrSlotAbsent):
		logging.Info("Slot absent, starting empty", "slot", slot)
	case errors.Is(err, ErrSlotMalformed):
		logging.Warn("Slot malformed, starting empty", "slot", slot, "error", err)
	default:
		logging.Error("Slot unreadable, starting empty", "slot", slot, "error", err)
	}
	return []T{}
}

// Backup copies every present slot into dst/<YYYYMMDD-HHMMSS>/ and returns that directory.
func (s *FileStore) Backup(dst string, now time.Time) (string, error) {
	target := filepath.Join(dst, now.Format(backupLayout))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory %s: %w", target, err)
	}

	copied := 0
	for _, slot := range entities.Slots() {
		data, err := os.ReadFile(s.path(slot))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return target, fmt.Errorf("failed to read slot %s for backup: %w", slot, err)
		}
		if err := os.WriteFile(filepath.Join(target, string(slot)+".json"), data, 0o644); err != nil {
			return target, fmt.Errorf("failed to write backup of slot %s: %w", slot, err)
		}
		copied++
	}

	logging.Info("Backup written", "dir", target, "slots", copied)
	return target, nil
}

// PruneBackups deletes all but the newest keep backup directories under dst and returns
// how many were removed. Entries not named like a backup are left alone.
func PruneBackups(dst string, keep int) (int, error) {
	entries, err := os.ReadDir(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list backups in %s: %w", dst, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(backupLayout, e.Name()); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	removed := 0
	for len(names)-removed > keep {
		if err := os.RemoveAll(filepath.Join(dst, names[removed])); err != nil {
			return removed, fmt.Errorf("failed to remove backup %s: %w", names[removed], err)
		}
		removed++
	}
	return removed, nil
}
