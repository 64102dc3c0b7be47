// Package engine contains the core analysis logic for Weasel. The Runner
// drives one visitor pass per parsed file for a selected set of detectors and
// folds their matches into ordered findings; ScanContext adds file discovery,
// parsing and the incremental cache around it. This package is internal;
// external consumers should use the stable facade in pkg/core.
package engine
