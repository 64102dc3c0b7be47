package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/weasel-sec/weasel/internal/types"
)

const baselineVersion = 1

// Baseline is a set of accepted locations. Entries are fingerprints, so a
// location stays baselined when unrelated edits move it to another line.
type Baseline struct {
	Version int             `json:"version"`
	Items   map[string]bool `json:"items"`
}

// Fingerprint identifies a location of a detector by path and trimmed
// snippet.
func Fingerprint(detectorID string, loc types.Location) string {
	d := xxhash.New()
	_, _ = d.WriteString(detectorID)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strings.TrimPrefix(loc.Path, "./"))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strings.TrimSpace(loc.Snippet))
	return fmt.Sprintf("%016x", d.Sum64())
}

// LoadBaseline reads a baseline file. A missing file yields an empty
// baseline.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Version: baselineVersion, Items: map[string]bool{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return b, err
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("failed to parse baseline %s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

// SaveBaseline records every location of findings as accepted.
func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Version: baselineVersion, Items: map[string]bool{}}
	for _, f := range findings {
		for _, loc := range f.Locations {
			b.Items[Fingerprint(f.DetectorID, loc)] = true
		}
	}
	return b.Save(path)
}

// Save writes the baseline as indented JSON.
func (b Baseline) Save(path string) error {
	if b.Version == 0 {
		b.Version = baselineVersion
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// FilterNewFindings drops baselined locations. Findings left without any
// location are dropped too.
func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	if len(base.Items) == 0 {
		return findings
	}
	var out []types.Finding
	for _, f := range findings {
		var locs []types.Location
		for _, loc := range f.Locations {
			if !base.Items[Fingerprint(f.DetectorID, loc)] {
				locs = append(locs, loc)
			}
		}
		if len(locs) == 0 {
			continue
		}
		f.Locations = locs
		out = append(out, f)
	}
	return out
}

// ShouldFail reports whether any finding is at or above the failOn severity.
// An empty failOn means medium; "none" never fails.
func ShouldFail(findings []types.Finding, failOn string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(failOn)) {
	case "":
		failOn = "medium"
	case "none", "never", "off":
		return false, nil
	}
	th, err := types.ParseSeverity(failOn)
	if err != nil {
		return false, err
	}
	for _, f := range findings {
		if f.Severity >= th {
			return true, nil
		}
	}
	return false, nil
}
