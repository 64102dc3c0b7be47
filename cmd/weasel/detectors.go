package weasel

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/weasel-sec/weasel/internal/detectors"
)

var (
	flagDetails       bool
	flagDetectorsJSON bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "detectors",
		Short: "List available detectors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			infos := detectors.Default().Describe()
			switch {
			case flagDetectorsJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			case flagDetails:
				table := tablewriter.NewWriter(out)
				table.Header("ID", "SEVERITY", "NAME", "GAS")
				for _, d := range infos {
					gas := ""
					if d.GasSavings > 0 {
						gas = fmt.Sprintf("~%d", d.GasSavings)
					}
					name := d.Name
					if d.Conditional {
						name += " *"
					}
					if err := table.Append([]string{d.ID, d.Severity.String(), name, gas}); err != nil {
						return err
					}
				}
				if err := table.Render(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out, "* runs only when the matching protocol trait is enabled")
				return err
			}
			for _, d := range infos {
				if _, err := fmt.Fprintln(out, d.ID); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagDetails, "details", false, "show severity, name and gas savings")
	cmd.Flags().BoolVar(&flagDetectorsJSON, "json", false, "emit detector metadata as JSON")
	rootCmd.AddCommand(cmd)
}
