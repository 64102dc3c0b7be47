package weasel

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weasel-sec/weasel/internal/update"
)

func init() {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the weasel version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "weasel %s\n", currentVersion()); err != nil {
				return err
			}
			if flagNoUpdateCheck {
				return nil
			}
			if latest, newer, _ := update.Check(version, false); newer {
				_, _ = fmt.Fprintf(out, "new version available: v%s (run 'weasel update')\n", latest)
			}
			return nil
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update weasel to the latest release",
		RunE: func(cmd *cobra.Command, _ []string) error {
			latest, err := selfUpdate()
			if err != nil {
				return fmt.Errorf("self-update failed: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "weasel is at v%s\n", latest)
			return err
		},
	}

	rootCmd.AddCommand(versionCmd, updateCmd)
}
