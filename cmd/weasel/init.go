package weasel

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weasel-sec/weasel/internal/config"
)

var flagForce bool

func init() {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a commented .weasel.yml to the project root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			p, err := config.WriteDefault(abs, flagForce)
			if err != nil {
				return fmt.Errorf("%w (use --force to overwrite)", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Wrote", p)
			return err
		},
	}
	cmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(cmd)
}
