package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run a trace and write the report without console details",
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := loadProject()
		if err != nil {
			return err
		}

		record, err := proj.svc.Run(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		path, err := writeReport(proj, record.Result)
		if err != nil {
			return MapError(err)
		}

		fmt.Printf("Report written to %s\n", path)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&traceOutput, "output", "o", "", "report file path (defaults to config)")
	reportCmd.Flags().StringVarP(&traceFormat, "format", "f", "", "report format: html or json (defaults to config)")
	RootCmd.AddCommand(reportCmd)
}
