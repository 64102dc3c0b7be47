package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/weasel-sec/weasel/internal/types"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	FilesCached  int
	ParseErrors  int
	// Baselined is the number of locations hidden by the baseline.
	Baselined int
}

var severityStyles = map[types.Severity]lipgloss.Style{
	types.SevCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true),
	types.SevHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	types.SevMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	types.SevLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	types.SevGas:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	types.SevNC:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

var pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Underline(true)

// ColorEnabled reports whether w is a terminal that should get colour.
// NO_COLOR in the environment always disables it.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func colorSeverity(s types.Severity, noColor bool) string {
	label := s.Title()
	if noColor {
		return label
	}
	if st, ok := severityStyles[s]; ok {
		return st.Render(label)
	}
	return label
}

// PrintTable renders one row per location.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No issues found ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("SEVERITY", "DETECTOR", "LOCATION", "SNIPPET")
		for _, f := range findings {
			for _, loc := range f.Locations {
				row := []string{
					colorSeverity(f.Severity, opts.NoColor),
					f.DetectorID,
					fmt.Sprintf("%s:%d:%d", loc.Path, loc.Line, loc.Column),
					shorten(loc.Snippet, 60),
				}
				if err := table.Append(row); err != nil {
					return err
				}
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	printSummary(w, findings, opts)
	return nil
}

// PrintText renders each finding with its locations and highlighted snippets.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No issues found ✅")
	}
	for _, f := range findings {
		n := len(f.Locations)
		fmt.Fprintf(w, "[%s] %s: %s (%d %s)\n", colorSeverity(f.Severity, opts.NoColor), f.DetectorID, f.Name, n, plural(n, "instance", "instances"))
		for _, loc := range f.Locations {
			where := fmt.Sprintf("%s:%d:%d", loc.Path, loc.Line, loc.Column)
			snippet := shorten(loc.Snippet, 100)
			if !opts.NoColor {
				where = pathStyle.Render(where)
				snippet = highlightSnippet(snippet, loc.Path)
			}
			if _, err := fmt.Fprintf(w, "  %s  %s\n", where, snippet); err != nil {
				return err
			}
		}
		fmt.Fprintln(w)
	}
	printSummary(w, findings, opts)
	return nil
}

func printSummary(w io.Writer, findings []types.Finding, opts PrintOptions) {
	s := Summarize(findings)
	var parts []string
	for _, sev := range types.Severities {
		if c := s.Count(sev); c > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", sev, c))
		}
	}
	if len(findings) > 0 || opts.Duration > 0 || opts.FilesScanned > 0 {
		fmt.Fprintln(w)
		if len(parts) > 0 {
			fmt.Fprintf(w, "Findings: %d (%s), instances: %d\n", s.Total, strings.Join(parts, ", "), s.Instances)
		} else {
			fmt.Fprintf(w, "Findings: %d\n", s.Total)
		}
		if opts.Baselined > 0 {
			fmt.Fprintf(w, "Baselined: %d\n", opts.Baselined)
		}
		if opts.Duration > 0 {
			fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
		}
		if opts.FilesScanned > 0 {
			if opts.FilesCached > 0 {
				fmt.Fprintf(w, "Files scanned: %d (%d cached)\n", opts.FilesScanned, opts.FilesCached)
			} else {
				fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
			}
		}
		if opts.ParseErrors > 0 {
			fmt.Fprintf(w, "Files skipped (parse errors): %d\n", opts.ParseErrors)
		}
	}
}

// highlightSnippet colours a single line of Solidity for a 256-colour
// terminal. The input is returned unchanged if highlighting fails.
func highlightSnippet(code, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Get("solidity")
	}
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// shorten keeps the first line of s and caps it at max runes.
func shorten(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimRight(s[:i], "\r") + " …"
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
