// Package detector defines the contract every analysis rule implements and
// the per-run state the engine keeps for each rule.
package detector

import (
	"errors"

	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

var (
	ErrUnknownDetector    = errors.New("unknown detector")
	ErrDuplicateDetector  = errors.New("duplicate detector")
	ErrAccumulatorDrained = errors.New("accumulator already drained")
)

// Detector is one analysis rule. Register is called once for every scanned
// file with a scope on that file's visitor; observers record matches in acc.
// A Detector keeps no state between runs.
type Detector interface {
	ID() string
	Name() string
	Severity() types.Severity
	Description() string
	Register(s *visitor.Scope, acc *Accumulator)
}

// GasEstimator is implemented by gas detectors that can state the saving per
// occurrence.
type GasEstimator interface {
	GasSavings() uint64
}

// Exampler is implemented by detectors that ship a short code example of the
// pattern they flag.
type Exampler interface {
	Example() string
}

// Conditional is implemented by detectors that only make sense for some
// protocols.
type Conditional interface {
	Enabled(p types.Protocol) bool
}

// Info is the static metadata of a detector.
type Info struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Severity    types.Severity `json:"severity"`
	Description string         `json:"description"`
	GasSavings  uint64         `json:"gas_savings,omitempty"`
	Example     string         `json:"example,omitempty"`
	Conditional bool           `json:"conditional,omitempty"`
}

// Describe collects the metadata of d, including optional capabilities.
func Describe(d Detector) Info {
	info := Info{ID: d.ID(), Name: d.Name(), Severity: d.Severity(), Description: d.Description()}
	if g, ok := d.(GasEstimator); ok {
		info.GasSavings = g.GasSavings()
	}
	if e, ok := d.(Exampler); ok {
		info.Example = e.Example()
	}
	_, info.Conditional = d.(Conditional)
	return info
}

// Enabled reports whether d applies to a project with traits p.
func Enabled(d Detector, p types.Protocol) bool {
	if c, ok := d.(Conditional); ok {
		return c.Enabled(p)
	}
	return true
}
