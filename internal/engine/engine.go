package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	xxhash "github.com/cespare/xxhash/v2"

	"github.com/weasel-sec/weasel/internal/cache"
	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/detectors"
	"github.com/weasel-sec/weasel/internal/git"
	"github.com/weasel-sec/weasel/internal/ignore"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

// cacheSchema is mixed into the cache fingerprint; bump it when detector
// behavior changes so stale entries are not replayed.
const cacheSchema = "weasel-cache-v1"

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	Root string
	// Scope lists root-relative directories or files to analyze. Empty
	// means the whole root.
	Scope           []string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	Threads         int
	Enable          []string
	Disable         []string
	MinSeverity     types.Severity
	Severities      []types.Severity
	Protocol        types.Protocol
	DefaultExcludes bool
	NoCache         bool
	// Changed restricts the scan to files modified in the working tree or
	// index; Base adds files changed since that revision.
	Changed  bool
	Base     string
	Progress func()

	// Registry defaults to the built-in detectors.
	Registry *detector.Registry
}

func (cfg Config) runnerOptions() Options {
	return Options{
		Enable:      cfg.Enable,
		Disable:     cfg.Disable,
		MinSeverity: cfg.MinSeverity,
		Severities:  cfg.Severities,
		Protocol:    cfg.Protocol,
		Workers:     cfg.Threads,
	}
}

func (cfg Config) registry() *detector.Registry {
	if cfg.Registry != nil {
		return cfg.Registry
	}
	return detectors.Default()
}

// SelectedDetectors returns the ids a scan with cfg would run.
func (cfg Config) SelectedDetectors() ([]string, error) {
	return NewRunner(cfg.registry(), cfg.runnerOptions()).Selected()
}

// ParseError is a file that could not be parsed and was skipped.
type ParseError struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

func parseErrorOf(path string, err error) ParseError {
	pe := ParseError{Path: path, Message: err.Error()}
	var se *solidity.SyntaxError
	if errors.As(err, &se) {
		pe.Line, pe.Column, pe.Message = se.Line, se.Column, se.Msg
	}
	return pe
}

// ScanResult contains findings and basic scan statistics.
type ScanResult struct {
	Findings     []types.Finding
	Warnings     []visitor.Warning
	Errors       []DetectorError
	ParseErrors  []ParseError
	FilesScanned int
	// FilesCached counts files whose results were replayed from the cache.
	FilesCached int
	Duration    time.Duration
}

// Scan runs a scan and returns only findings (without stats).
func Scan(cfg Config) ([]types.Finding, error) {
	res, err := ScanWithStats(cfg)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// ScanWithStats runs a scan and returns findings along with timing and counts.
func ScanWithStats(cfg Config) (ScanResult, error) {
	return ScanContext(context.Background(), cfg)
}

// ScanContext discovers the Solidity files under cfg.Root, parses them and
// runs the selected detectors. Unchanged files are replayed from the cache
// instead of being walked again. An unknown detector id fails before any file
// is read.
func ScanContext(ctx context.Context, cfg Config) (ScanResult, error) {
	var result ScanResult

	runner := NewRunner(cfg.registry(), cfg.runnerOptions())
	ids, err := runner.Selected()
	if err != nil {
		return result, err
	}
	fp := fingerprint(ids)

	only, err := changedSet(cfg)
	if err != nil {
		return result, err
	}
	ign, err := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", ignore.FileName, err)
	}

	var db cache.DB
	if !cfg.NoCache {
		db, _ = cache.Load(cfg.Root)
	}
	next := cache.DB{Fingerprint: fp, Entries: map[string]cache.Entry{}}

	started := time.Now()
	var files []*solidity.File
	hashes := map[string]string{}
	replay := map[string][]types.Location{}
	err = Walk(ctx, cfg, ign, func(p string, data []byte) {
		if only != nil && !only[p] {
			return
		}
		if cfg.Progress != nil {
			cfg.Progress()
		}
		h := fastHash(data)
		if !cfg.NoCache {
			if e, ok := db.Lookup(fp, p, h); ok {
				for id, locs := range e.Locations {
					replay[id] = append(replay[id], locs...)
				}
				next.Entries[p] = e
				result.FilesCached++
				return
			}
		}
		f, err := solidity.ParseFile(p, data)
		if err != nil {
			slog.Warn("skipping file that does not parse", "path", p, "error", err)
			result.ParseErrors = append(result.ParseErrors, parseErrorOf(p, err))
			return
		}
		hashes[p] = h
		files = append(files, f)
	})
	if err != nil {
		return result, err
	}

	res, err := runner.run(ctx, files, replay)
	if err != nil {
		return result, err
	}
	result.Findings = res.Findings
	result.Warnings = res.Warnings
	result.Errors = res.Errors
	result.FilesScanned = res.FilesScanned + result.FilesCached
	result.Duration = time.Since(started)
	slog.Debug("scan complete", "files", result.FilesScanned, "cached", result.FilesCached, "findings", len(result.Findings), "elapsed", result.Duration)

	if !cfg.NoCache {
		recordEntries(next, hashes, res)
		if err := cache.Save(cfg.Root, next); err != nil {
			slog.Warn("failed to save cache", "error", err)
		}
	}
	return result, nil
}

// recordEntries stores what each freshly walked file contributed. Files in
// which a detector failed or the walk left a warning are not stored, so they
// are walked again next time and report the same diagnostics.
func recordEntries(db cache.DB, hashes map[string]string, res *Result) {
	failed := map[string]bool{}
	for _, e := range res.Errors {
		failed[e.Path] = true
	}
	for _, w := range res.Warnings {
		failed[w.Path] = true
	}
	for p, h := range hashes {
		if !failed[p] {
			db.Entries[p] = cache.Entry{Hash: h}
		}
	}
	for _, f := range res.Findings {
		for _, loc := range f.Locations {
			if _, fresh := hashes[loc.Path]; !fresh || failed[loc.Path] {
				continue
			}
			e := db.Entries[loc.Path]
			if e.Locations == nil {
				e.Locations = map[string][]types.Location{}
			}
			e.Locations[f.DetectorID] = append(e.Locations[f.DetectorID], loc)
			db.Entries[loc.Path] = e
		}
	}
}

// changedSet returns the files a --changed/--base scan is limited to, or nil
// when every file is eligible.
func changedSet(cfg Config) (map[string]bool, error) {
	if !cfg.Changed && cfg.Base == "" {
		return nil, nil
	}
	paths, err := git.ChangedFiles(cfg.Root, cfg.Base)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files: %w", err)
	}
	only := make(map[string]bool, len(paths))
	for _, p := range paths {
		only[p] = true
	}
	return only, nil
}

// fingerprint identifies a detector selection for cache validity.
func fingerprint(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return fastHash([]byte(cacheSchema + "|" + strings.Join(sorted, ",")))
}

func fastHash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

// allowedByGlobs returns true if the given path is allowed by the include/exclude
// glob configuration. Include globs are comma-separated and, if provided, act as
// a positive filter. Exclude globs are subtracted last.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 {
		if !matchAnyGlob(rp, includes) {
			return false
		}
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
			out = append(out, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
