package tui

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/weasel-sec/weasel/internal/config"
)

const (
	minContext = 1
	maxContext = 20
)

// Prefs are the browser settings remembered between sessions.
type Prefs struct {
	ContextLines  int  `json:"context_lines"`
	HideBaselined bool `json:"hide_baselined"`
}

func DefaultPrefs() Prefs {
	return Prefs{ContextLines: 3}
}

func prefsFile() (string, error) {
	dir := config.Dir()
	if dir == "" {
		return "", errors.New("no config directory")
	}
	return filepath.Join(dir, "tui_prefs.json"), nil
}

// LoadPrefs never fails: a missing or unreadable file yields the defaults and
// an out-of-range context falls back to the default width.
func LoadPrefs() Prefs {
	p := DefaultPrefs()
	path, err := prefsFile()
	if err != nil {
		return p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	var saved Prefs
	if err := json.Unmarshal(data, &saved); err != nil {
		return p
	}
	if saved.ContextLines < minContext || saved.ContextLines > maxContext {
		saved.ContextLines = p.ContextLines
	}
	return saved
}

func SavePrefs(p Prefs) error {
	path, err := prefsFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
