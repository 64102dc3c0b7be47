package tui

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/weasel-sec/weasel/internal/ignore"
	"github.com/weasel-sec/weasel/internal/report"
)

func statusOf(t *testing.T, msg any) string {
	t.Helper()
	s, ok := msg.(statusMsg)
	if !ok {
		t.Fatalf("expected statusMsg, got %T", msg)
	}
	return string(s)
}

func TestEditorArgs(t *testing.T) {
	tests := []struct {
		editor string
		want   []string
	}{
		{"code", []string{"-g", "a.sol:3:7"}},
		{"/usr/local/bin/code", []string{"-g", "a.sol:3:7"}},
		{"subl", []string{"a.sol:3:7"}},
		{"zed", []string{"a.sol:3:7"}},
		{"emacsclient", []string{"+3:7", "a.sol"}},
		{"nano", []string{"+3,7", "a.sol"}},
		{"nvim", []string{"+call cursor(3,7)", "a.sol"}},
		{"ed", []string{"+3", "a.sol"}},
	}
	for _, tt := range tests {
		if got := editorArgs(tt.editor, "a.sol", 3, 7); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("editorArgs(%q) = %v, want %v", tt.editor, got, tt.want)
		}
	}
	if got := editorArgs("vim", "a.sol", 3, 0); !reflect.DeepEqual(got, []string{"+3", "a.sol"}) {
		t.Errorf("vim without column: %v", got)
	}
}

func TestAddAndRemoveBaseline(t *testing.T) {
	m := newTestModel(t, testFindings(), Options{})
	m.table.SetCursor(1) // src/Pool.sol

	msg := m.addToBaseline()()
	if got := statusOf(t, msg); got != "Added location to baseline" {
		t.Errorf("unexpected status %q", got)
	}

	base, err := report.LoadBaseline(m.baselinePath)
	if err != nil {
		t.Fatal(err)
	}
	key := m.fingerprintOf(1)
	if !base.Items[key] {
		t.Fatalf("baseline file missing %s", key)
	}
	if !strings.HasPrefix(m.table.Rows()[1][0], "(b) ") {
		t.Errorf("row not marked baselined: %q", m.table.Rows()[1][0])
	}

	msg = m.removeFromBaseline()()
	if got := statusOf(t, msg); got != "Removed location from baseline" {
		t.Errorf("unexpected status %q", got)
	}
	base, err = report.LoadBaseline(m.baselinePath)
	if err != nil {
		t.Fatal(err)
	}
	if base.Items[key] {
		t.Error("fingerprint should be removed from baseline file")
	}

	msg = m.removeFromBaseline()()
	if got := statusOf(t, msg); got != "Location is not baselined" {
		t.Errorf("unexpected status %q", got)
	}
}

func TestBulkBaseline(t *testing.T) {
	m := newTestModel(t, testFindings(), Options{})
	m.toggleSelectAll()

	msg := m.bulkBaseline()()
	if got := statusOf(t, msg); got != "Added 4 locations to baseline" {
		t.Errorf("unexpected status %q", got)
	}
	if len(m.selected) != 0 {
		t.Error("selection should be cleared after bulk baseline")
	}
	if n := m.baselinedCount(); n != 4 {
		t.Errorf("expected 4 baselined rows, got %d", n)
	}

	m.prefs.HideBaselined = true
	m.applyFilters()
	if got := len(m.displayIndices()); got != 0 {
		t.Errorf("expected every row hidden, got %d", got)
	}
}

func TestIgnoreAndUnignoreFile(t *testing.T) {
	m := newTestModel(t, testFindings(), Options{})
	path := filepath.Join(m.root, ignore.FileName)
	if err := os.WriteFile(path, []byte("lib/**\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m.table.SetCursor(0) // src/Oracle.sol
	if got := statusOf(t, m.ignoreFile()()); !strings.Contains(got, "Added src/Oracle.sol") {
		t.Errorf("unexpected status %q", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "lib/**\nsrc/Oracle.sol\n" {
		t.Errorf("unexpected ignore file %q", data)
	}

	if got := statusOf(t, m.unignoreFile()()); !strings.Contains(got, "Removed src/Oracle.sol") {
		t.Errorf("unexpected status %q", got)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "lib/**\n" {
		t.Errorf("unexpected ignore file %q", data)
	}

	if got := statusOf(t, m.unignoreFile()()); !strings.Contains(got, "is not in") {
		t.Errorf("unexpected status %q", got)
	}
}

func TestUnignoreWithoutFile(t *testing.T) {
	m := newTestModel(t, testFindings(), Options{})
	if got := statusOf(t, m.unignoreFile()()); got != "No .weaselignore file found" {
		t.Errorf("unexpected status %q", got)
	}
}

func TestFindingText(t *testing.T) {
	m := newTestModel(t, testFindings(), Options{})
	text := m.findingText(3)

	for _, want := range []string{
		"[Gas] Prefer pre-increment (post-increment)",
		"Location: src/Vault.sol:12:30",
		"Snippet: i++",
		"Recommendation:\n++i;",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("finding text missing %q:\n%s", want, text)
		}
	}
}

func TestExportFindings(t *testing.T) {
	for _, format := range []string{"json", "markdown", "sarif"} {
		m := newTestModel(t, testFindings(), Options{})
		m.setSeverityFilter(m.findings[1].Severity)

		got := statusOf(t, m.exportFindings(format)())
		if !strings.HasPrefix(got, "Exported 1 findings to ") {
			t.Errorf("%s: unexpected status %q", format, got)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(m.root, "weasel-export-*"))
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 1 {
			t.Fatalf("%s: expected one export file, got %v", format, matches)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "tx-origin-usage") {
			t.Errorf("%s: export missing detector id", format)
		}
	}
}

func TestExportUnknownFormat(t *testing.T) {
	m := newTestModel(t, testFindings(), Options{})
	if got := statusOf(t, m.exportFindings("xml")()); got != "Unknown format: xml" {
		t.Errorf("unexpected status %q", got)
	}
}
