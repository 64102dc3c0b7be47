package weasel

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weasel-sec/weasel/internal/engine"
	"github.com/weasel-sec/weasel/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update [path]",
		Short: "Accept every current finding into the baseline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			res, err := engine.ScanContext(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("scan error: %w", err)
			}
			out := flagBaseline
			if !filepath.IsAbs(out) {
				out = filepath.Join(abs, out)
			}
			if err := report.SaveBaseline(out, res.Findings); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated: %d locations in %s\n", instances(res.Findings), out)
			return err
		},
	}
	addScanFlags(update)

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
