package detector

import (
	"sync"

	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
)

// Accumulator collects the locations one detector matched during a run. It is
// safe for concurrent use by the workers scanning different files.
type Accumulator struct {
	mu      sync.Mutex
	locs    []types.Location
	drained bool
	err     error
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add records loc. Adding after Drain is a programming error; it is
// remembered and returned by the next Drain or Err.
func (a *Accumulator) Add(loc types.Location) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drained {
		a.err = ErrAccumulatorDrained
		return
	}
	a.locs = append(a.locs, loc)
}

// Report records the location of node n in file f.
func (a *Accumulator) Report(f *solidity.File, n solidity.Node) {
	a.Add(f.Location(n))
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locs)
}

// Drain returns the recorded locations and closes the accumulator.
func (a *Accumulator) Drain() ([]types.Location, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drained {
		return nil, ErrAccumulatorDrained
	}
	a.drained = true
	out := a.locs
	a.locs = nil
	if a.err != nil {
		return out, a.err
	}
	return out, nil
}

// Err reports whether the accumulator was written to after Drain.
func (a *Accumulator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}
