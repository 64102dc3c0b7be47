package weasel

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weasel-sec/weasel/internal/cache"
	"github.com/weasel-sec/weasel/internal/engine"
	"github.com/weasel-sec/weasel/internal/report"
	"github.com/weasel-sec/weasel/internal/tui"
	"github.com/weasel-sec/weasel/internal/types"
)

func init() {
	cmd := &cobra.Command{
		Use:   "view [path]",
		Short: "Browse the findings of the last run interactively",
		Long:  "view opens the interactive findings browser on the results of the last `weasel run` in the project. Press r inside the browser to analyze again.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runView,
	}
	addScanFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func runView(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	lcfg, gcfg, err := loadConfigs(abs)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, abs, lcfg, gcfg)
	if err != nil {
		return err
	}

	baselinePath := flagBaseline
	if !filepath.IsAbs(baselinePath) {
		baselinePath = filepath.Join(abs, baselinePath)
	}
	baseline, err := report.LoadBaseline(baselinePath)
	if err != nil {
		return err
	}

	rescan := func() ([]types.Finding, error) {
		res, err := engine.ScanContext(cmd.Context(), cfg)
		if err != nil {
			return nil, err
		}
		if err := cache.SaveResults(abs, res.Findings, res.FilesScanned); err != nil {
			return nil, err
		}
		return res.Findings, nil
	}
	opts := tui.Options{Root: abs, BaselinePath: baselinePath, Baseline: baseline, Rescan: rescan}

	results, err := cache.LoadResults(abs)
	switch {
	case err == nil:
		opts.CachedAt = results.Timestamp
		return tui.Run(results.Findings, opts)
	case errors.Is(err, fs.ErrNotExist):
		findings, err := rescan()
		if err != nil {
			return fmt.Errorf("scan error: %w", err)
		}
		return tui.Run(findings, opts)
	default:
		return fmt.Errorf("failed to read last results: %w", err)
	}
}
