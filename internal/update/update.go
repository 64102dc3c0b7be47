// Package update checks GitHub releases for a newer weasel version.
package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"

	"github.com/weasel-sec/weasel/internal/config"
)

// Repo is the GitHub repository releases are published to.
const Repo = "weasel-sec/weasel"

// checkInterval bounds how often the releases API is queried.
const checkInterval = 24 * time.Hour

var latestURL = "https://api.github.com/repos/" + Repo + "/releases/latest"

// state is persisted between runs so the API is hit at most once a day.
type state struct {
	CheckedAt time.Time `json:"last_checked"`
	Latest    string    `json:"latest"`
}

func statePath() string {
	dir := config.Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "update.json")
}

func readState() state {
	var st state
	if p := statePath(); p != "" {
		if b, err := os.ReadFile(p); err == nil {
			_ = json.Unmarshal(b, &st)
		}
	}
	return st
}

func writeState(st state) {
	p := statePath()
	if p == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(p, b, 0644)
}

type release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
}

func fetchLatest(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "weasel-updater")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := (&http.Client{Timeout: 2 * time.Second}).Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query releases: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("releases API returned %s", resp.Status)
	}
	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", fmt.Errorf("failed to decode release: %w", err)
	}
	if rel.TagName != "" {
		return rel.TagName, nil
	}
	return rel.Name, nil
}

// Check returns the latest published version and whether it is newer than
// current. It never touches the network in CI or when noNetwork is set, and
// otherwise reuses a cached answer for a day. Network failures are silent.
func Check(current string, noNetwork bool) (string, bool, error) {
	if noNetwork || os.Getenv("CI") != "" {
		return "", false, nil
	}
	st := readState()
	if st.Latest == "" || time.Since(st.CheckedAt) > checkInterval {
		if v, err := fetchLatest(latestURL); err == nil {
			st = state{CheckedAt: time.Now(), Latest: trimV(v)}
			writeState(st)
		}
	}
	current = trimV(current)
	if st.Latest == "" || current == "" {
		return st.Latest, false, nil
	}
	return st.Latest, Newer(st.Latest, current), nil
}

func trimV(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// Newer reports whether latest is a higher semantic version than current.
// Unparseable versions are never newer.
func Newer(latest, current string) bool {
	l, err := semver.ParseTolerant(latest)
	if err != nil {
		return false
	}
	c, err := semver.ParseTolerant(current)
	if err != nil {
		return false
	}
	return l.GT(c)
}
