// Package dedup tracks the set of post URIs already sent to the sink. The set
// is the only durable cross-run state; it grows monotonically and is flushed
// after each user's batch.
package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/hmartens/skypulse/internal/models"
)

type stateFile struct {
	URIs []string `json:"uris"`
}

// Store persists the seen-URI set as a JSON file. Concurrent runs against the
// same file are unsupported.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted set. A missing or unreadable file is not an error:
// it yields an empty set so a corrupt state file costs duplicates, never a run.
func (s *Store) Load() map[string]struct{} {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("[DedupStore] Could not read state file, starting empty",
				slog.String("path", s.path),
				slog.String("error", err.Error()))
		}
		return map[string]struct{}{}
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("[DedupStore] Malformed state file, starting empty",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return map[string]struct{}{}
	}

	seen := make(map[string]struct{}, len(state.URIs))
	for _, uri := range state.URIs {
		seen[uri] = struct{}{}
	}
	return seen
}

// Save overwrites the persisted state, writing to a temp file in the same
// directory and renaming over the target so readers never see a torn file.
func (s *Store) Save(seen map[string]struct{}) error {
	uris := make([]string, 0, len(seen))
	for uri := range seen {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	data, err := json.MarshalIndent(stateFile{URIs: uris}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// FilterNew partitions rows into those not yet seen (returned in order) and
// returns the updated set containing every row's URI. The input set is left
// unmodified; the caller persists the updated set only after a successful
// sink write.
func FilterNew(rows []models.PostRow, seen map[string]struct{}) ([]models.PostRow, map[string]struct{}) {
	updated := make(map[string]struct{}, len(seen)+len(rows))
	for uri := range seen {
		updated[uri] = struct{}{}
	}

	var fresh []models.PostRow
	for _, row := range rows {
		if _, exists := updated[row.URI]; exists {
			continue
		}
		updated[row.URI] = struct{}{}
		fresh = append(fresh, row)
	}
	return fresh, updated
}
