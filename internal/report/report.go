package report

import (
	"time"

	"github.com/weasel-sec/weasel/internal/git"
	"github.com/weasel-sec/weasel/internal/types"
)

// Summary counts findings per severity. Instances counts locations.
type Summary struct {
	Critical  int `json:"critical"`
	High      int `json:"high"`
	Medium    int `json:"medium"`
	Low       int `json:"low"`
	Gas       int `json:"gas"`
	NC        int `json:"nc"`
	Total     int `json:"total"`
	Instances int `json:"instances"`
}

func Summarize(findings []types.Finding) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		s.Instances += len(f.Locations)
		switch f.Severity {
		case types.SevCritical:
			s.Critical++
		case types.SevHigh:
			s.High++
		case types.SevMedium:
			s.Medium++
		case types.SevLow:
			s.Low++
		case types.SevGas:
			s.Gas++
		default:
			s.NC++
		}
	}
	return s
}

// Count returns the number of findings of the given severity.
func (s Summary) Count(sev types.Severity) int {
	switch sev {
	case types.SevCritical:
		return s.Critical
	case types.SevHigh:
		return s.High
	case types.SevMedium:
		return s.Medium
	case types.SevLow:
		return s.Low
	case types.SevGas:
		return s.Gas
	default:
		return s.NC
	}
}

// Metadata describes the scan a report was produced from.
type Metadata struct {
	Tool         string    `json:"tool"`
	Version      string    `json:"version"`
	Root         string    `json:"root,omitempty"`
	Repo         string    `json:"repo,omitempty"`
	Commit       string    `json:"commit,omitempty"`
	Branch       string    `json:"branch,omitempty"`
	GeneratedAt  time.Time `json:"generated_at"`
	FilesScanned int       `json:"files_scanned"`
	DurationMS   int64     `json:"duration_ms,omitempty"`
	// Comment and Footnote are free text rendered around the findings in
	// markdown reports.
	Comment  string `json:"comment,omitempty"`
	Footnote string `json:"footnote,omitempty"`
}

// NewMetadata fills repository details from the git checkout at root, if any.
func NewMetadata(root, version string, filesScanned int, elapsed time.Duration) Metadata {
	repo, commit, branch := git.RepoMetadata(root)
	return Metadata{
		Tool:         "weasel",
		Version:      version,
		Root:         root,
		Repo:         repo,
		Commit:       commit,
		Branch:       branch,
		GeneratedAt:  time.Now().UTC(),
		FilesScanned: filesScanned,
		DurationMS:   elapsed.Milliseconds(),
	}
}
