// Package weasel provides the command-line interface for the weasel Solidity
// analyzer. It configures subcommands (run, detectors, baseline, view, etc.),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/weasel-sec/weasel/cmd/weasel"
//	func main() { weasel.Execute() }
package weasel
