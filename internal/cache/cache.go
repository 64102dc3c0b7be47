// Package cache persists per-file analysis results between runs so unchanged
// files are not parsed or walked again.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/weasel-sec/weasel/internal/types"
)

// Entry is what one file contributed to the last run.
type Entry struct {
	// Hash is the content hash of the file (xxhash, 16 hex digits).
	Hash string `json:"hash"`
	// Locations maps detector id to the locations it matched in this file.
	Locations map[string][]types.Location `json:"locations,omitempty"`
}

type DB struct {
	// Fingerprint identifies the detector selection the entries were
	// produced with. Entries are only valid for the same fingerprint.
	Fingerprint string `json:"fingerprint"`
	// Path relative to the scan root -> entry
	Entries map[string]Entry `json:"entries"`
}

func defaultPath(root string) string {
	// Prefer storing cache under .git to avoid accidental commits
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "weaselcache.json")
	}
	return filepath.Join(root, ".weaselcache.json")
}

// Load reads the cache for root. On any error an empty DB is returned along
// with the error, so callers may ignore it.
func Load(root string) (DB, error) {
	var db DB
	b, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return DB{Entries: map[string]Entry{}}, err
	}
	if err := json.Unmarshal(b, &db); err != nil {
		return DB{Entries: map[string]Entry{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]Entry{}
	}
	return db, nil
}

// Lookup returns the entry for path when its hash matches and the DB was
// written for fingerprint.
func (db DB) Lookup(fingerprint, path, hash string) (Entry, bool) {
	if db.Fingerprint != fingerprint {
		return Entry{}, false
	}
	e, ok := db.Entries[path]
	if !ok || e.Hash != hash {
		return Entry{}, false
	}
	return e, true
}

func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, err := json.Marshal(db)
	if err != nil {
		return err
	}
	return os.WriteFile(defaultPath(root), b, 0644)
}
