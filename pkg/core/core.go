package core

import (
	"context"

	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/detectors"
	"github.com/weasel-sec/weasel/internal/engine"
	"github.com/weasel-sec/weasel/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type Config = engine.Config
type ScanResult = engine.ScanResult
type Finding = types.Finding
type Location = types.Location
type Severity = types.Severity
type Protocol = types.Protocol
type DetectorInfo = detector.Info

const (
	SevNC       = types.SevNC
	SevGas      = types.SevGas
	SevLow      = types.SevLow
	SevMedium   = types.SevMedium
	SevHigh     = types.SevHigh
	SevCritical = types.SevCritical
)

// Scan is the stable entrypoint for other programs.
func Scan(cfg Config) ([]Finding, error) {
	return engine.Scan(cfg)
}

// ScanWithStats runs a scan and returns findings with counts and timing.
func ScanWithStats(cfg Config) (ScanResult, error) {
	return engine.ScanWithStats(cfg)
}

// ScanContext is ScanWithStats with cancellation. Cancellation is observed
// between files.
func ScanContext(ctx context.Context, cfg Config) (ScanResult, error) {
	return engine.ScanContext(ctx, cfg)
}

// DetectorIDs returns the ids of the built-in detectors.
func DetectorIDs() []string { return detectors.IDs() }

// Detectors describes every built-in detector.
func Detectors() []DetectorInfo { return detectors.Default().Describe() }

// ParseSeverity accepts the lower-case severity names and common aliases.
func ParseSeverity(s string) (Severity, error) { return types.ParseSeverity(s) }
