package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/weasel-sec/weasel/internal/types"
)

// WriteMarkdown writes a report suitable for audit write-ups: metadata, a
// severity summary table, then one section per finding with its locations
// grouped by file inside a collapsible block.
func WriteMarkdown(w io.Writer, findings []types.Finding, meta Metadata) error {
	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, "# Smart Contract Analysis Report\n\n")

	fmt.Fprint(bw, "## Metadata\n\n")
	writeMeta(bw, "Tool", strings.TrimSpace(meta.Tool+" "+meta.Version))
	writeMeta(bw, "Repository", meta.Repo)
	writeMeta(bw, "Branch", meta.Branch)
	writeMeta(bw, "Commit", meta.Commit)
	if !meta.GeneratedAt.IsZero() {
		writeMeta(bw, "Generated", meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if meta.FilesScanned > 0 {
		writeMeta(bw, "Files scanned", fmt.Sprint(meta.FilesScanned))
	}
	fmt.Fprintln(bw)

	if meta.Comment != "" {
		fmt.Fprintf(bw, "## Overview\n\n%s\n\n", meta.Comment)
	}

	s := Summarize(findings)
	fmt.Fprint(bw, "## Summary\n\n")
	fmt.Fprint(bw, "| Severity | Findings |\n| --- | ---: |\n")
	for _, sev := range types.Severities {
		if sev == types.SevCritical && s.Critical == 0 {
			continue
		}
		fmt.Fprintf(bw, "| %s | %d |\n", sev.Title(), s.Count(sev))
	}
	fmt.Fprintf(bw, "| **Total** | **%d** |\n\n", s.Total)

	fmt.Fprint(bw, "## Findings\n\n")
	if len(findings) == 0 {
		fmt.Fprint(bw, "No issues found.\n\n")
	}
	for i, f := range findings {
		fmt.Fprintf(bw, "### %d. %s (%s)\n\n", i+1, f.Name, f.Severity.Title())
		fmt.Fprintf(bw, "**Detector**: `%s`\n\n", f.DetectorID)
		fmt.Fprintf(bw, "**Description**:\n%s\n\n", f.Description)
		if f.GasSavings > 0 {
			fmt.Fprintf(bw, "**Gas Savings**: %d gas\n\n", f.GasSavings)
		}
		if f.Example != "" {
			fmt.Fprintf(bw, "**Recommendation**:\n%s\n\n", f.Example)
		}
		writeLocations(bw, f.Locations)
		fmt.Fprint(bw, "---\n\n")
	}

	if meta.Footnote != "" {
		fmt.Fprintf(bw, "## Note\n\n%s\n", meta.Footnote)
	}
	return bw.Flush()
}

func writeMeta(w io.Writer, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "- **%s**: %s\n", key, value)
}

// writeLocations expects locations sorted by path.
func writeLocations(w io.Writer, locs []types.Location) {
	if len(locs) == 0 {
		return
	}
	files := 0
	for i, loc := range locs {
		if i == 0 || loc.Path != locs[i-1].Path {
			files++
		}
	}
	fmt.Fprintf(w, "<details>\n<summary><i>%d %s in %d %s</i></summary>\n\n",
		len(locs), plural(len(locs), "instance", "instances"), files, plural(files, "file", "files"))
	for i, loc := range locs {
		if i == 0 || loc.Path != locs[i-1].Path {
			if i > 0 {
				fmt.Fprint(w, "```\n\n")
			}
			fmt.Fprintf(w, "```solidity\nFile: %s\n\n", loc.Path)
		}
		snippet := loc.Snippet
		if snippet == "" {
			snippet = "..."
		}
		fmt.Fprintf(w, "%d: %s\n", loc.Line, snippet)
	}
	fmt.Fprint(w, "```\n\n</details>\n\n")
}
