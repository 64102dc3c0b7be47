// Package ignore loads .weaselignore files. Patterns use gitignore syntax.
package ignore

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the ignore file looked up in the scan root.
const FileName = ".weaselignore"

// Matcher reports whether a slash-separated path relative to the scan root is
// ignored. The zero Matcher ignores nothing.
type Matcher struct {
	m gitignore.Matcher
}

// Load reads patterns from path. A missing file yields an empty Matcher and
// no error.
func Load(path string) (Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Matcher{}, nil
		}
		return Matcher{}, err
	}
	defer f.Close()

	var ps []gitignore.Pattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, nil))
	}
	if err := sc.Err(); err != nil {
		return Matcher{}, err
	}
	return New(ps...), nil
}

// Parse builds a Matcher from in-memory pattern lines.
func Parse(lines ...string) Matcher {
	ps := make([]gitignore.Pattern, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" && !strings.HasPrefix(l, "#") {
			ps = append(ps, gitignore.ParsePattern(l, nil))
		}
	}
	return New(ps...)
}

func New(ps ...gitignore.Pattern) Matcher {
	if len(ps) == 0 {
		return Matcher{}
	}
	return Matcher{m: gitignore.NewMatcher(ps)}
}

func (m Matcher) Match(rel string) bool {
	return m.match(rel, false)
}

// MatchDir is Match for a directory, so "dir/" patterns apply.
func (m Matcher) MatchDir(rel string) bool {
	return m.match(rel, true)
}

func (m Matcher) match(rel string, isDir bool) bool {
	if m.m == nil {
		return false
	}
	rel = strings.Trim(strings.ReplaceAll(rel, "\\", "/"), "/")
	if rel == "" || rel == "." {
		return false
	}
	return m.m.Match(strings.Split(rel, "/"), isDir)
}

// Append adds pattern to the ignore file at path, creating it if needed.
// It reports false when the pattern is already present.
func Append(path, pattern string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	for _, line := range strings.Split(string(b), "\n") {
		if strings.TrimSpace(line) == pattern {
			return false, nil
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if len(b) > 0 && b[len(b)-1] != '\n' {
		pattern = "\n" + pattern
	}
	if _, err := f.WriteString(pattern + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops every line naming rel (as rel, /rel or rel/**) from the ignore
// file at path. It reports false when nothing matched.
func Remove(path, rel string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var kept []string
	found := false
	for _, line := range strings.Split(string(b), "\n") {
		t := strings.TrimSpace(line)
		if t == rel || t == "/"+rel || t == rel+"/**" {
			found = true
			continue
		}
		kept = append(kept, line)
	}
	if !found {
		return false, nil
	}
	out := strings.TrimRight(strings.Join(kept, "\n"), "\n")
	if out != "" {
		out += "\n"
	}
	return true, os.WriteFile(path, []byte(out), 0644)
}
