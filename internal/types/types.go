package types

import (
	"fmt"
	"strings"
)

// Severity is the impact classification of a detector. The zero value is NC
// and values are ordered so that a larger Severity is more severe.
type Severity int

const (
	SevNC Severity = iota
	SevGas
	SevLow
	SevMedium
	SevHigh
	SevCritical
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SevCritical, SevHigh, SevMedium, SevLow, SevGas, SevNC}

func (s Severity) String() string {
	switch s {
	case SevNC:
		return "nc"
	case SevGas:
		return "gas"
	case SevLow:
		return "low"
	case SevMedium:
		return "medium"
	case SevHigh:
		return "high"
	case SevCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Title is the display form used in reports ("High", "Gas", "NC").
func (s Severity) Title() string {
	if s == SevNC {
		return "NC"
	}
	str := s.String()
	return strings.ToUpper(str[:1]) + str[1:]
}

// ParseSeverity accepts the lower-case names plus a few common aliases.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nc", "non-critical", "info", "informational":
		return SevNC, nil
	case "gas":
		return SevGas, nil
	case "low":
		return SevLow, nil
	case "medium", "med":
		return SevMedium, nil
	case "high":
		return SevHigh, nil
	case "critical", "crit":
		return SevCritical, nil
	}
	return SevNC, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	if s < SevNC || s > SevCritical {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Location is a single matched site. Line and Column are 1-indexed; Column
// counts runes. EndLine/EndColumn point just past the match. Snippet is the
// exact source text of the match.
type Location struct {
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line,omitempty"`
	EndColumn int    `json:"end_column,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
}

// Less orders locations by path, line, column, then end position and snippet.
func (l Location) Less(o Location) bool {
	if l.Path != o.Path {
		return l.Path < o.Path
	}
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	if l.Column != o.Column {
		return l.Column < o.Column
	}
	if l.EndLine != o.EndLine {
		return l.EndLine < o.EndLine
	}
	if l.EndColumn != o.EndColumn {
		return l.EndColumn < o.EndColumn
	}
	return l.Snippet < o.Snippet
}

// Finding is one detector's complete result for a run. Repeated matches
// collapse into Locations; an emitted Finding always has at least one.
type Finding struct {
	DetectorID  string     `json:"id"`
	Name        string     `json:"name"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	GasSavings  uint64     `json:"gas_savings,omitempty"`
	Example     string     `json:"example,omitempty"`
	Locations   []Location `json:"locations"`
}

// Protocol describes project traits that switch conditional detectors on.
type Protocol struct {
	UsesFOTTokens   bool `json:"uses_fot_tokens" yaml:"uses_fot_tokens"`
	UsesWeirdERC20  bool `json:"uses_weird_erc20" yaml:"uses_weird_erc20"`
	UsesNativeToken bool `json:"uses_native_token" yaml:"uses_native_token"`
	UsesL2          bool `json:"uses_l2" yaml:"uses_l2"`
	UsesNFT         bool `json:"uses_nft" yaml:"uses_nft"`
}
