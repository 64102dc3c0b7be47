package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

// Options selects the detectors of a run and how many files are walked at
// once.
type Options struct {
	// Enable restricts the run to these ids. Empty means every registered
	// detector.
	Enable []string
	// Disable removes ids from the selection.
	Disable []string
	// MinSeverity drops detectors below this severity.
	MinSeverity types.Severity
	// Severities, when non-empty, keeps only detectors of these severities.
	Severities []types.Severity
	// Protocol switches conditional detectors on or off.
	Protocol types.Protocol
	// Workers is the number of files scanned concurrently (0 = GOMAXPROCS).
	Workers int
}

// DetectorError is a panic raised by a detector's observer while walking one
// file. It does not stop the run.
type DetectorError struct {
	DetectorID string `json:"detector"`
	Path       string `json:"path"`
	Line       int    `json:"line"`
	Message    string `json:"message"`
}

func (e DetectorError) Error() string {
	return fmt.Sprintf("detector %s failed at %s:%d: %s", e.DetectorID, e.Path, e.Line, e.Message)
}

// Result is the outcome of one Run.
type Result struct {
	Findings     []types.Finding
	Warnings     []visitor.Warning
	Errors       []DetectorError
	FilesScanned int
}

// Runner drives one visitor pass per file for a selected set of detectors and
// folds what they matched into Findings.
type Runner struct {
	reg  *detector.Registry
	opts Options
}

func NewRunner(reg *detector.Registry, opts Options) *Runner {
	return &Runner{reg: reg, opts: opts}
}

// Selected returns the ids the run would use, in registration order. Unknown
// ids in Enable or Disable fail with detector.ErrUnknownDetector.
func (r *Runner) Selected() ([]string, error) {
	ds, err := r.selectDetectors()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(ds))
	for i, d := range ds {
		ids[i] = d.ID()
	}
	return ids, nil
}

func (r *Runner) selectDetectors() ([]detector.Detector, error) {
	if err := r.reg.Validate(r.opts.Enable); err != nil {
		return nil, err
	}
	if err := r.reg.Validate(r.opts.Disable); err != nil {
		return nil, err
	}
	var ids []string
	if len(r.opts.Enable) > 0 {
		enabled := make(map[string]bool, len(r.opts.Enable))
		for _, id := range r.opts.Enable {
			enabled[id] = true
		}
		for _, id := range r.reg.IDs() {
			if enabled[id] {
				ids = append(ids, id)
			}
		}
	}
	all, err := r.reg.Build(ids)
	if err != nil {
		return nil, err
	}
	disabled := make(map[string]bool, len(r.opts.Disable))
	for _, id := range r.opts.Disable {
		disabled[id] = true
	}
	var sevs map[types.Severity]bool
	if len(r.opts.Severities) > 0 {
		sevs = make(map[types.Severity]bool, len(r.opts.Severities))
		for _, s := range r.opts.Severities {
			sevs[s] = true
		}
	}
	out := all[:0]
	for _, d := range all {
		switch {
		case disabled[d.ID()]:
		case d.Severity() < r.opts.MinSeverity:
		case sevs != nil && !sevs[d.Severity()]:
		case !detector.Enabled(d, r.opts.Protocol):
		default:
			out = append(out, d)
		}
	}
	return out, nil
}

// Run scans files with the selected detectors. The selection is validated
// before any file is touched. Findings are ordered by severity (most severe
// first) then id; locations by path, line and column.
func (r *Runner) Run(ctx context.Context, files []*solidity.File) (*Result, error) {
	return r.run(ctx, files, nil)
}

// run is Run with locations recorded by an earlier run (keyed by detector id)
// fed into the accumulators before any file is walked.
func (r *Runner) run(ctx context.Context, files []*solidity.File, replay map[string][]types.Location) (*Result, error) {
	ds, err := r.selectDetectors()
	if err != nil {
		return nil, err
	}
	accs := make([]*detector.Accumulator, len(ds))
	for i, d := range ds {
		accs[i] = detector.NewAccumulator()
		for _, loc := range replay[d.ID()] {
			accs[i].Add(loc)
		}
	}

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	res := &Result{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range files {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v := visitor.New()
			for i, d := range ds {
				d.Register(v.Scope(d.ID()), accs[i])
			}
			rep := v.Walk(f)
			slog.Debug("walked file", "path", f.Path, "detectors", len(ds), "warnings", len(rep.Warnings), "faults", len(rep.Faults))

			mu.Lock()
			defer mu.Unlock()
			res.FilesScanned++
			res.Warnings = append(res.Warnings, rep.Warnings...)
			for _, ft := range rep.Faults {
				slog.Warn("detector failed", "detector", ft.Owner, "path", ft.Path, "line", ft.Line, "error", ft.Value)
				res.Errors = append(res.Errors, DetectorError{
					DetectorID: ft.Owner,
					Path:       ft.Path,
					Line:       ft.Line,
					Message:    fmt.Sprint(ft.Value),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, d := range ds {
		locs, err := accs[i].Drain()
		if err != nil {
			return nil, fmt.Errorf("failed to collect %s: %w", d.ID(), err)
		}
		if len(locs) == 0 {
			continue
		}
		sort.SliceStable(locs, func(a, b int) bool { return locs[a].Less(locs[b]) })
		info := detector.Describe(d)
		res.Findings = append(res.Findings, types.Finding{
			DetectorID:  info.ID,
			Name:        info.Name,
			Severity:    info.Severity,
			Description: info.Description,
			GasSavings:  info.GasSavings,
			Example:     info.Example,
			Locations:   locs,
		})
	}
	// Locations added after collection would be missing from the findings.
	for i, d := range ds {
		if err := accs[i].Err(); err != nil {
			return nil, fmt.Errorf("detector %s reported after collection: %w", d.ID(), err)
		}
	}
	SortFindings(res.Findings)
	sortDiagnostics(res)
	return res, nil
}

// SortFindings orders findings by severity, most severe first, then by id.
func SortFindings(fs []types.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Severity != fs[j].Severity {
			return fs[i].Severity > fs[j].Severity
		}
		return fs[i].DetectorID < fs[j].DetectorID
	})
}

func sortDiagnostics(res *Result) {
	sort.SliceStable(res.Warnings, func(i, j int) bool {
		a, b := res.Warnings[i], res.Warnings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Line < b.Line
	})
	sort.SliceStable(res.Errors, func(i, j int) bool {
		a, b := res.Errors[i], res.Errors[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.DetectorID < b.DetectorID
	})
}
