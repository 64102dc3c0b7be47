package solidity

import (
	"fmt"
	"regexp"
	"strings"

	semver "github.com/blang/semver/v4"
)

var (
	opSpace    = regexp.MustCompile(`(\^|~|>=|<=|>|<|=)\s+`)
	comparator = regexp.MustCompile(`^(\^|~|>=|<=|>|<|=)?(.+)$`)
)

// VersionConstraint is a parsed "pragma solidity" expression.
type VersionConstraint struct {
	Raw   string
	Range semver.Range
	// Min is the lowest version the constraint admits.
	Min semver.Version
	// Floating is true when more than one compiler version satisfies it.
	Floating bool

	altMins []semver.Version
}

// SolidityPragmas returns the version pragmas of a file in source order.
func SolidityPragmas(u *SourceUnit) []*PragmaDirective {
	var out []*PragmaDirective
	if u == nil {
		return out
	}
	for _, p := range u.Parts {
		if d, ok := p.(*PragmaDirective); ok && d.Name == "solidity" {
			out = append(out, d)
		}
	}
	return out
}

// ParseVersionConstraint converts a Solidity version expression such as
// "^0.8.0", ">=0.7.0 <0.9.0" or "0.8.19 || 0.8.20" into a semver range.
func ParseVersionConstraint(raw string) (VersionConstraint, error) {
	vc := VersionConstraint{Raw: raw}
	norm := opSpace.ReplaceAllString(strings.TrimSpace(raw), "$1")
	if norm == "" {
		return vc, fmt.Errorf("empty version constraint")
	}
	var alternatives []string
	for i, alt := range strings.Split(norm, "||") {
		var parts []string
		var altMin semver.Version
		exact := 0
		for _, c := range strings.Fields(alt) {
			m := comparator.FindStringSubmatch(c)
			if m == nil {
				return vc, fmt.Errorf("invalid comparator %q", c)
			}
			op, vs := m[1], strings.TrimPrefix(m[2], "v")
			v, err := semver.ParseTolerant(vs)
			if err != nil {
				return vc, fmt.Errorf("invalid version %q: %w", vs, err)
			}
			lower := v
			switch op {
			case "^":
				parts = append(parts, ">="+v.String(), "<"+caretUpper(v).String())
			case "~":
				parts = append(parts, ">="+v.String(), "<"+semver.Version{Major: v.Major, Minor: v.Minor + 1}.String())
			case "", "=":
				parts = append(parts, "="+v.String())
				exact++
			case ">":
				lower = semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
				parts = append(parts, op+v.String())
			default:
				parts = append(parts, op+v.String())
			}
			if op != "<" && op != "<=" && lower.GT(altMin) {
				altMin = lower
			}
		}
		if i == 0 || altMin.LT(vc.Min) {
			vc.Min = altMin
		}
		vc.altMins = append(vc.altMins, altMin)
		if exact == 0 || len(parts) > 1 {
			vc.Floating = true
		}
		alternatives = append(alternatives, strings.Join(parts, " "))
	}
	if len(alternatives) > 1 {
		vc.Floating = true
	}
	r, err := semver.ParseRange(strings.Join(alternatives, " || "))
	if err != nil {
		return vc, fmt.Errorf("invalid version range %q: %w", raw, err)
	}
	vc.Range = r
	return vc, nil
}

// Admits reports whether some version >= v satisfies the constraint.
func (vc VersionConstraint) Admits(v semver.Version) bool {
	if vc.Range != nil && vc.Range(v) {
		return true
	}
	for _, m := range vc.altMins {
		if m.GTE(v) && (vc.Range == nil || vc.Range(m)) {
			return true
		}
	}
	return false
}

func caretUpper(v semver.Version) semver.Version {
	switch {
	case v.Major > 0:
		return semver.Version{Major: v.Major + 1}
	case v.Minor > 0:
		return semver.Version{Minor: v.Minor + 1}
	default:
		return semver.Version{Patch: v.Patch + 1}
	}
}
