package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reqtrace/internal/application"
	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/report"
	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/storage"
	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
)

var (
	traceOutput string
	traceFormat string
	traceCheck  bool
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace requirements to their coverage and report defects",
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := loadProject()
		if err != nil {
			return err
		}

		record, err := proj.svc.Run(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		printResult(record)

		path, err := writeReport(proj, record.Result)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("\nReport written to %s\n", path)

		if traceCheck && !record.Result.IsSuccess {
			return MapError(ErrDefectsFound)
		}
		return nil
	},
}

// writeReport renders the result in the requested format and writes
// it below the project root.
func writeReport(proj *project, result *trace.Result) (string, error) {
	format := proj.cfg.Output.Format
	if traceFormat != "" {
		format = traceFormat
	}

	path := proj.cfg.Output.Path
	if traceOutput != "" {
		path = traceOutput
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(proj.root, path)
	}

	var data []byte
	var err error
	switch format {
	case "json":
		data, err = report.JSON(result)
	case "html":
		data, err = report.HTML(result)
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}
	if err != nil {
		return "", err
	}

	if err := storage.WriteReport(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func printResult(record *application.RunRecord) {
	result := record.Result

	fmt.Printf("Traced %d file(s), %d item(s)\n\n", record.FilesScanned, len(result.Items))

	for _, artifactType := range result.ArtifactTypes() {
		summary := result.Summary[artifactType]
		fmt.Printf("  %-8s %3d/%3d covered (%.1f%%) %s\n",
			artifactType, summary.Covered, summary.Total, summary.Percentage, summary.Status)
	}

	if result.IsSuccess {
		fmt.Println("\nok - no defects found")
		return
	}

	fmt.Printf("\nnot ok - %d defect(s) found\n", result.DefectCount)
	for _, line := range result.SummaryLines() {
		fmt.Printf("  %s\n", line)
	}

	fmt.Println()
	for _, d := range result.Defects {
		if d.Origin.IsZero() {
			fmt.Printf("  [%s] %s\n", d.Kind, d.Message)
		} else {
			fmt.Printf("  [%s] %s (%s)\n", d.Kind, d.Message, d.Origin)
		}
	}
}

func init() {
	traceCmd.Flags().StringVarP(&traceOutput, "output", "o", "", "report file path (defaults to config)")
	traceCmd.Flags().StringVarP(&traceFormat, "format", "f", "", "report format: html or json (defaults to config)")
	traceCmd.Flags().BoolVar(&traceCheck, "check", false, "exit non-zero when defects are found")
	RootCmd.AddCommand(traceCmd)
}
