package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/weasel-sec/weasel/internal/types"
)

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	// initial load should return empty DB and error
	db, err := Load(dir)
	if err == nil {
		t.Fatalf("expected error for missing cache")
	}
	if db.Entries == nil {
		t.Fatalf("expected entries map initialized")
	}
	loc := types.Location{Path: "A.sol", Line: 3, Column: 5, Snippet: "tx.origin"}
	db.Fingerprint = "fp1"
	db.Entries["A.sol"] = Entry{Hash: "deadbeef", Locations: map[string][]types.Location{"tx-origin-usage": {loc}}}
	if err := Save(dir, db); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".weaselcache.json")); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
	db2, err := Load(dir)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	e, ok := db2.Lookup("fp1", "A.sol", "deadbeef")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got := e.Locations["tx-origin-usage"]; len(got) != 1 || got[0] != loc {
		t.Fatalf("unexpected locations: %+v", got)
	}
	if _, ok := db2.Lookup("fp2", "A.sol", "deadbeef"); ok {
		t.Fatalf("fingerprint mismatch must miss")
	}
	if _, ok := db2.Lookup("fp1", "A.sol", "cafebabe"); ok {
		t.Fatalf("hash mismatch must miss")
	}
}

func TestSavePrefersGitDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := Save(dir, DB{Entries: map[string]Entry{}}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git", "weaselcache.json")); err != nil {
		t.Fatalf("expected cache under .git: %v", err)
	}
	if err := Save(dir, DB{}); err == nil {
		t.Fatalf("expected error saving nil entries")
	}
}

func TestResultsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := []types.Finding{{
		DetectorID: "tx-origin-usage",
		Severity:   types.SevMedium,
		Locations:  []types.Location{{Path: "A.sol", Line: 1}, {Path: "B.sol", Line: 2}},
	}}
	if err := SaveResults(dir, fs, 4); err != nil {
		t.Fatal(err)
	}
	got, err := LoadResults(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Count != 2 || got.FilesScanned != 4 || len(got.Findings) != 1 {
		t.Fatalf("unexpected results: %+v", got)
	}
	if got.Findings[0].Severity != types.SevMedium {
		t.Fatalf("severity lost: %v", got.Findings[0].Severity)
	}
}
