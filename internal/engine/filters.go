package engine

import "strings"

// Directories skipped when default excludes are enabled: dependency trees,
// build output and test suites of the common Solidity toolchains.
var defaultExcludeDirs = map[string]bool{
	".git":            true,
	"node_modules":    true,
	"lib":             true,
	"test":            true,
	"tests":           true,
	"out":             true,
	"cache":           true,
	"artifacts":       true,
	"broadcast":       true,
	"typechain":       true,
	"typechain-types": true,
	"coverage":        true,
	"build":           true,
	"dist":            true,
	"vendor":          true,
}

// suffixes of generated or test-only sources skipped when default excludes
// are enabled
var defaultExcludeFileSuffixes = []string{
	".t.sol", // forge tests
	".s.sol", // forge scripts
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git")
}

func isDefaultFileExcluded(lowerRel string) bool {
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	return false
}

func isSolidity(lowerRel string) bool {
	return strings.HasSuffix(lowerRel, ".sol")
}
