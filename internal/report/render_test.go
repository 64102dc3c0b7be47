package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/weasel-sec/weasel/internal/types"
)

func sampleFindings() []types.Finding {
	return []types.Finding{
		{
			DetectorID:  "tx-origin-usage",
			Name:        "Use of tx.origin for authorization",
			Severity:    types.SevMedium,
			Description: "tx.origin can be spoofed by an intermediate contract.",
			Locations: []types.Location{
				{Path: "src/Vault.sol", Line: 5, Column: 17, EndLine: 5, EndColumn: 26, Snippet: "tx.origin"},
				{Path: "src/Vault.sol", Line: 9, Column: 13, EndLine: 9, EndColumn: 22, Snippet: "tx.origin"},
				{Path: "src/Pool.sol", Line: 2, Column: 1, EndLine: 2, EndColumn: 10, Snippet: "tx.origin"},
			},
		},
		{
			DetectorID:  "post-increment",
			Name:        "Pre-increment is cheaper than post-increment",
			Severity:    types.SevGas,
			Description: "i++ keeps a copy of the old value.",
			GasSavings:  5,
			Example:     "++i;",
			Locations: []types.Location{
				{Path: "src/Vault.sol", Line: 12, Column: 9, EndLine: 12, EndColumn: 12, Snippet: "i++"},
			},
		},
	}
}

func TestPrintText_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintText(&buf, nil, PrintOptions{NoColor: true, Duration: 1200 * time.Millisecond, FilesScanned: 10}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "No issues found") {
		t.Fatalf("expected friendly no-findings message; got: %q", out)
	}
	if !strings.Contains(out, "Files scanned: 10") {
		t.Fatalf("expected footer with files scanned; got: %q", out)
	}
}

func TestPrintText_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintText(&buf, sampleFindings(), PrintOptions{NoColor: true, FilesScanned: 4, FilesCached: 3, Baselined: 2}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"[Medium] tx-origin-usage: Use of tx.origin for authorization (3 instances)",
		"  src/Vault.sol:5:17  tx.origin",
		"[Gas] post-increment",
		"(1 instance)",
		"Findings: 2 (medium: 1, gas: 1), instances: 4",
		"Baselined: 2",
		"Files scanned: 4 (3 cached)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output; got: %q", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no escape codes with NoColor; got: %q", out)
	}
}

func TestPrintTable_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintTable(&buf, sampleFindings(), PrintOptions{NoColor: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "SEVERITY") {
		t.Fatalf("expected table header with SEVERITY; got: %q", out)
	}
	for _, want := range []string{"tx-origin-usage", "src/Pool.sol:2:1", "post-increment"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table; got: %q", want, out)
		}
	}
}

func TestPrintTable_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintTable(&buf, nil, PrintOptions{NoColor: true, Duration: 1200 * time.Millisecond, FilesScanned: 10, ParseErrors: 1}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "No issues found") {
		t.Fatalf("expected friendly no-findings message; got: %q", out)
	}
	if !strings.Contains(out, "Scan duration: 1.20s") || !strings.Contains(out, "parse errors): 1") {
		t.Fatalf("expected footer; got: %q", out)
	}
}

func TestColorEnabled_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if ColorEnabled(&buf, false) {
		t.Fatal("a buffer is not a terminal")
	}
	t.Setenv("NO_COLOR", "1")
	if ColorEnabled(&buf, false) {
		t.Fatal("NO_COLOR must disable colour")
	}
}

func TestShorten(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 5, "short"},
		{"abcdefghij", 5, "abcd…"},
		{"line one\nline two", 80, "line one …"},
	}
	for _, tc := range cases {
		if got := shorten(tc.in, tc.max); got != tc.want {
			t.Errorf("shorten(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
