// Package core provides a small, stable facade over weasel's internal engine
// for external integrations. It re-exports a narrow API surface so that CI
// plugins and editors can depend on a stable import path without importing
// internal packages.
//
// Example:
//
//	cfg := core.Config{Root: ".", MinSeverity: core.SevLow}
//	findings, err := core.Scan(cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalFindings(os.Stdout, findings)
package core
