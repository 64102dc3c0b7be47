package weasel

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/weasel-sec/weasel/internal/audit"
	"github.com/weasel-sec/weasel/internal/cache"
	"github.com/weasel-sec/weasel/internal/config"
	"github.com/weasel-sec/weasel/internal/engine"
	"github.com/weasel-sec/weasel/internal/report"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/update"
)

const defaultBaseline = "weasel.baseline.json"

var (
	flagScope           string
	flagInclude         string
	flagExclude         string
	flagMaxBytes        int64
	flagMinSeverity     string
	flagEnable          string
	flagDisable         string
	flagFormat          string
	flagOutput          string
	flagFailOn          string
	flagBaseline        string
	flagChanged         bool
	flagBase            string
	flagDefaultExcludes bool
	flagComment         string
	flagFootnote        string
	flagNoAudit         bool
)

func init() {
	cmd := &cobra.Command{
		Use:     "run [path]",
		Aliases: []string{"analyze"},
		Short:   "Analyze Solidity sources and report findings",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runAnalyze,
	}
	rootCmd.AddCommand(cmd)

	addScanFlags(cmd)
	cmd.Flags().StringVarP(&flagFormat, "format", "f", "", "output format: table|text|md|json|sarif (default table)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "exit 1 on new findings at or above: critical|high|medium|low|gas|nc|none (default medium)")
	cmd.Flags().StringVar(&flagComment, "comment", "", "overview text for markdown reports")
	cmd.Flags().StringVar(&flagFootnote, "footnote", "", "closing note for markdown reports")
	cmd.Flags().BoolVar(&flagNoAudit, "no-audit-log", false, "do not append this scan to the audit log")
}

// addScanFlags registers the flags that select what is analyzed.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagScope, "scope", "s", "", "comma-separated directories or files to analyze (default: whole project)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVarP(&flagExclude, "exclude", "e", "", "comma-separated paths or globs to skip")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (0 = no limit)")
	cmd.Flags().StringVar(&flagMinSeverity, "min-severity", "", "only run detectors at or above: critical|high|medium|low|gas|nc")
	cmd.Flags().StringVar(&flagEnable, "enable", "", "only run these detectors (comma-separated IDs)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "disable these detectors (comma-separated IDs)")
	cmd.Flags().StringVar(&flagBaseline, "baseline", defaultBaseline, "baseline file, relative to the project root")
	cmd.Flags().BoolVar(&flagChanged, "changed", false, "only analyze files changed in the working tree or index")
	cmd.Flags().StringVar(&flagBase, "base", "", "also analyze files changed since this revision (e.g. main)")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "skip lib/, node_modules/, test files and other vendored code")
}

// loadConfigs returns the local and global config files. A missing file is
// not an error; a malformed one is.
func loadConfigs(root string) (local, global config.FileConfig, err error) {
	local, err = config.LoadLocal(root)
	if err != nil && !errors.Is(err, config.ErrNoConfig) {
		return local, global, err
	}
	global, gerr := config.LoadGlobal()
	if gerr != nil && !errors.Is(gerr, config.ErrNoConfig) {
		slog.Warn("ignoring global config", "error", gerr)
		global = config.FileConfig{}
	}
	return local, global, nil
}

// buildConfig resolves engine settings with flag > local > global
// precedence.
func buildConfig(cmd *cobra.Command, root string, lcfg, gcfg config.FileConfig) (engine.Config, error) {
	minSev, err := pickSeverity(flagMinSeverity, lcfg.MinSeverity, gcfg.MinSeverity)
	if err != nil {
		return engine.Config{}, err
	}
	defaultExcludes := pickBoolDefault(flagDefaultExcludes, cmd.Flags().Changed("default-excludes"),
		lcfg.DefaultExcludes, gcfg.DefaultExcludes, true)
	cfg := engine.Config{
		Root:            root,
		Scope:           pickList(flagScope, lcfg.Scope, gcfg.Scope),
		IncludeGlobs:    strings.Join(config.PathGlobs(pickList(flagInclude, lcfg.Include, gcfg.Include)), ","),
		ExcludeGlobs:    strings.Join(config.PathGlobs(pickList(flagExclude, lcfg.Exclude, gcfg.Exclude)), ","),
		MaxBytes:        pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		Enable:          pickList(flagEnable, lcfg.Enable, gcfg.Enable),
		Disable:         pickList(flagDisable, lcfg.Disable, gcfg.Disable),
		MinSeverity:     minSev,
		Protocol:        pickProtocol(lcfg.Protocol, gcfg.Protocol),
		DefaultExcludes: defaultExcludes,
		NoCache:         pickBool(flagNoCache, lcfg.NoCache, gcfg.NoCache),
		Changed:         flagChanged,
		Base:            flagBase,
	}
	return cfg, nil
}

func normalizeFormat(f string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case "", "table":
		return "table", nil
	case "text", "txt":
		return "text", nil
	case "md", "markdown":
		return "md", nil
	case "json":
		return "json", nil
	case "sarif":
		return "sarif", nil
	}
	return "", fmt.Errorf("unknown format %q (want table, text, md, json or sarif)", f)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if st, err := os.Stat(abs); err != nil || !st.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	lcfg, gcfg, err := loadConfigs(abs)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, abs, lcfg, gcfg)
	if err != nil {
		return err
	}
	format, err := normalizeFormat(pickString(flagFormat, lcfg.Format, gcfg.Format))
	if err != nil {
		return err
	}
	failOn := pickString(flagFailOn, lcfg.FailOn, gcfg.FailOn)
	noColor := pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor)
	human := format == "table" || format == "text"
	stderr := cmd.ErrOrStderr()

	if human && !flagNoUpdateCheck {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			_, _ = fmt.Fprintf(stderr, "(new version available: v%s)  run 'weasel update' to upgrade\n", latest)
		}
	}

	// Progress goes to an interactive stderr only.
	total := 0
	if human && isTerminal(os.Stderr) {
		total, _ = engine.CountTargets(cfg)
		progressed := 0
		if total > 0 {
			cfg.Progress = func() {
				progressed++
				if progressed%10 == 0 || progressed == total {
					pct := float64(progressed) / float64(total) * 100
					_, _ = fmt.Fprintf(os.Stderr, "\r[%d/%d] %.0f%%", progressed, total, pct)
				}
			}
		}
	}

	res, err := engine.ScanContext(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	if total > 0 {
		_, _ = fmt.Fprintln(os.Stderr)
	}
	for _, pe := range res.ParseErrors {
		loc := pe.Path
		if pe.Line > 0 {
			loc = fmt.Sprintf("%s:%d:%d", pe.Path, pe.Line, pe.Column)
		}
		_, _ = fmt.Fprintf(stderr, "warning: skipped %s: %s\n", loc, pe.Message)
	}
	if n := len(res.Errors); n > 0 {
		_, _ = fmt.Fprintf(stderr, "warning: %d detector failures (run with -v for details)\n", n)
	}

	baselinePath := flagBaseline
	if !filepath.IsAbs(baselinePath) {
		baselinePath = filepath.Join(abs, baselinePath)
	}
	baseline, err := report.LoadBaseline(baselinePath)
	if err != nil {
		return err
	}
	newFindings := report.FilterNewFindings(res.Findings, baseline)
	if newFindings == nil {
		newFindings = []types.Finding{}
	}

	out := cmd.OutOrStdout()
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", flagOutput, err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	if err := writeReport(out, format, newFindings, res, abs, noColor, instances(res.Findings)-instances(newFindings)); err != nil {
		return err
	}
	if flagOutput != "" && human {
		_, _ = fmt.Fprintf(stderr, "Report written to %s\n", flagOutput)
	}

	if err := cache.SaveResults(abs, res.Findings, res.FilesScanned); err != nil {
		slog.Warn("failed to save results for weasel view", "error", err)
	}
	if !flagNoAudit {
		ids, _ := cfg.SelectedDetectors()
		record := audit.CreateScanRecord(abs, res.Findings, newFindings, audit.ScanStats{
			Detectors:    ids,
			FilesScanned: res.FilesScanned,
			FilesCached:  res.FilesCached,
			ParseErrors:  len(res.ParseErrors),
			Duration:     res.Duration,
			BaselineFile: flagBaseline,
		})
		if err := audit.NewAuditLog(abs).LogScan(record); err != nil {
			slog.Warn("failed to write audit log", "error", err)
		}
	}

	fail, err := report.ShouldFail(newFindings, failOn)
	if err != nil {
		return fmt.Errorf("invalid --fail-on: %w", err)
	}
	if fail {
		return &ExitError{Code: 1}
	}
	return nil
}

func writeReport(w io.Writer, format string, findings []types.Finding, res engine.ScanResult, root string, noColor bool, baselined int) error {
	switch format {
	case "json", "md":
		meta := report.NewMetadata(root, version, res.FilesScanned, res.Duration)
		meta.Comment = flagComment
		meta.Footnote = flagFootnote
		if format == "json" {
			return report.WriteJSON(w, findings, meta)
		}
		return report.WriteMarkdown(w, findings, meta)
	case "sarif":
		stats := map[string]int{
			"filesScanned": res.FilesScanned,
			"filesCached":  res.FilesCached,
			"parseErrors":  len(res.ParseErrors),
			"baselined":    baselined,
		}
		if err := report.WriteSARIFWithStats(w, findings, version, stats); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
		return nil
	}
	opts := report.PrintOptions{
		NoColor:      noColor,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		FilesCached:  res.FilesCached,
		ParseErrors:  len(res.ParseErrors),
		Baselined:    baselined,
	}
	if format == "text" {
		return report.PrintText(w, findings, opts)
	}
	return report.PrintTable(w, findings, opts)
}

func instances(findings []types.Finding) int {
	n := 0
	for _, f := range findings {
		n += len(f.Locations)
	}
	return n
}
