package tui

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/weasel-sec/weasel/internal/ignore"
	"github.com/weasel-sec/weasel/internal/report"
)

func statusCmd(format string, args ...any) tea.Cmd {
	msg := statusMsg(fmt.Sprintf(format, args...))
	return func() tea.Msg { return msg }
}

// editorArgs builds the command line that opens path at line:col for the
// given editor.
func editorArgs(editor, path string, line, col int) []string {
	base := filepath.Base(editor)
	switch base {
	case "code", "code-insiders":
		return []string{"-g", fmt.Sprintf("%s:%d:%d", path, line, col)}
	case "subl", "sublime", "sublime_text", "zed":
		return []string{fmt.Sprintf("%s:%d:%d", path, line, col)}
	case "emacs", "emacsclient":
		return []string{fmt.Sprintf("+%d:%d", line, col), path}
	case "nano":
		return []string{fmt.Sprintf("+%d,%d", line, col), path}
	case "vi", "vim", "nvim":
		if col > 0 {
			return []string{fmt.Sprintf("+call cursor(%d,%d)", line, col), path}
		}
		return []string{fmt.Sprintf("+%d", line), path}
	default:
		return []string{fmt.Sprintf("+%d", line), path}
	}
}

func (m Model) openEditor() tea.Cmd {
	idx := m.selectedIndex()
	if idx < 0 {
		return nil
	}
	loc := m.items[idx].loc

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	c := exec.Command(editor, editorArgs(editor, m.resolve(loc.Path), loc.Line, loc.Column)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return statusMsg(fmt.Sprintf("Error opening editor: %v", err))
		}
		return statusMsg("Editor closed")
	})
}

func (m Model) ignorePath() string {
	return filepath.Join(m.root, ignore.FileName)
}

func (m Model) ignoreFile() tea.Cmd {
	idx := m.selectedIndex()
	if idx < 0 {
		return nil
	}
	path := m.items[idx].loc.Path

	added, err := ignore.Append(m.ignorePath(), path)
	if err != nil {
		return statusCmd("Error writing to %s: %v", ignore.FileName, err)
	}
	if !added {
		return statusCmd("%s is already in %s", path, ignore.FileName)
	}
	return statusCmd("Added %s to %s (applies on rescan)", path, ignore.FileName)
}

func (m Model) unignoreFile() tea.Cmd {
	idx := m.selectedIndex()
	if idx < 0 {
		return nil
	}
	path := m.items[idx].loc.Path

	removed, err := ignore.Remove(m.ignorePath(), path)
	if errors.Is(err, fs.ErrNotExist) {
		return statusCmd("No %s file found", ignore.FileName)
	}
	if err != nil {
		return statusCmd("Error writing %s: %v", ignore.FileName, err)
	}
	if !removed {
		return statusCmd("%s is not in %s", path, ignore.FileName)
	}
	return statusCmd("Removed %s from %s", path, ignore.FileName)
}

func (m *Model) fingerprintOf(idx int) string {
	it := m.items[idx]
	return report.Fingerprint(m.findings[it.finding].DetectorID, it.loc)
}

// updateBaseline applies fn to the on-disk baseline and mirrors the result
// into the model.
func (m *Model) updateBaseline(fn func(b *report.Baseline) int) (int, error) {
	base, err := report.LoadBaseline(m.baselinePath)
	if err != nil {
		return 0, err
	}
	n := fn(&base)
	if err := base.Save(m.baselinePath); err != nil {
		return 0, err
	}
	m.baselinedSet = map[string]bool{}
	for k := range base.Items {
		m.baselinedSet[k] = true
	}
	m.applyFilters()
	return n, nil
}

func (m *Model) addToBaseline() tea.Cmd {
	idx := m.selectedIndex()
	if idx < 0 {
		return nil
	}
	key := m.fingerprintOf(idx)
	if _, err := m.updateBaseline(func(b *report.Baseline) int {
		b.Items[key] = true
		return 1
	}); err != nil {
		return statusCmd("Error writing baseline: %v", err)
	}
	return statusCmd("Added location to baseline")
}

func (m *Model) removeFromBaseline() tea.Cmd {
	idx := m.selectedIndex()
	if idx < 0 {
		return nil
	}
	key := m.fingerprintOf(idx)
	if !m.baselinedSet[key] {
		return statusCmd("Location is not baselined")
	}
	if _, err := m.updateBaseline(func(b *report.Baseline) int {
		delete(b.Items, key)
		return 1
	}); err != nil {
		return statusCmd("Error writing baseline: %v", err)
	}
	return statusCmd("Removed location from baseline")
}

// bulkBaseline adds all selected locations to the baseline
func (m *Model) bulkBaseline() tea.Cmd {
	keys := make([]string, 0, len(m.selected))
	for idx := range m.selected {
		keys = append(keys, m.fingerprintOf(idx))
	}
	n, err := m.updateBaseline(func(b *report.Baseline) int {
		added := 0
		for _, k := range keys {
			if !b.Items[k] {
				b.Items[k] = true
				added++
			}
		}
		return added
	})
	if err != nil {
		return statusCmd("Error writing baseline: %v", err)
	}
	m.selected = map[int]bool{}
	m.rebuildTableRows()
	return statusCmd("Added %d locations to baseline", n)
}

func (m Model) copyPathToClipboard() tea.Cmd {
	idx := m.selectedIndex()
	if idx < 0 {
		return statusCmd("No location selected")
	}
	loc := m.items[idx].loc
	ref := fmt.Sprintf("%s:%d:%d", loc.Path, loc.Line, loc.Column)
	if err := clipboard.WriteAll(ref); err != nil {
		return statusCmd("Clipboard error: %v", err)
	}
	return statusCmd("Copied: %s", ref)
}

func (m Model) copyFindingToClipboard() tea.Cmd {
	idx := m.selectedIndex()
	if idx < 0 {
		return statusCmd("No location selected")
	}
	if err := clipboard.WriteAll(m.findingText(idx)); err != nil {
		return statusCmd("Clipboard error: %v", err)
	}
	return statusCmd("Copied finding details to clipboard")
}

func (m Model) findingText(idx int) string {
	it := m.items[idx]
	f := m.findings[it.finding]
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s (%s)\n", f.Severity.Title(), f.Name, f.DetectorID)
	fmt.Fprintf(&sb, "Location: %s:%d:%d\n", it.loc.Path, it.loc.Line, it.loc.Column)
	if it.loc.Snippet != "" {
		fmt.Fprintf(&sb, "Snippet: %s\n", it.loc.Snippet)
	}
	fmt.Fprintf(&sb, "\n%s\n", f.Description)
	if f.Example != "" {
		fmt.Fprintf(&sb, "\nRecommendation:\n%s\n", f.Example)
	}
	return sb.String()
}

// exportFindings writes the shown locations to a timestamped file in the
// project root.
func (m *Model) exportFindings(format string) tea.Cmd {
	findings := m.displayFindings()
	if len(findings) == 0 {
		return statusCmd("No findings to export")
	}

	timestamp := time.Now().Format("20060102-150405")
	var ext string
	switch format {
	case "json":
		ext = "json"
	case "markdown":
		ext = "md"
	case "sarif":
		ext = "sarif"
	default:
		return statusCmd("Unknown format: %s", format)
	}
	filename := filepath.Join(m.root, fmt.Sprintf("weasel-export-%s.%s", timestamp, ext))

	f, err := os.Create(filename)
	if err != nil {
		return statusCmd("Write error: %v", err)
	}
	defer func() { _ = f.Close() }()

	meta := report.Metadata{Tool: "weasel", Root: m.root, GeneratedAt: time.Now().UTC()}
	switch format {
	case "json":
		err = report.WriteJSON(f, findings, meta)
	case "markdown":
		err = report.WriteMarkdown(f, findings, meta)
	case "sarif":
		err = report.WriteSARIF(f, findings, "")
	}
	if err != nil {
		return statusCmd("Export error: %v", err)
	}

	absPath, _ := filepath.Abs(filename)
	return statusCmd("Exported %d findings to %s", len(findings), absPath)
}
