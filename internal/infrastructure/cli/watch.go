package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the trace whenever a traced file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := loadProject()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runOnce := func() {
			record, err := proj.svc.Run(ctx)
			if err != nil {
				fmt.Printf("trace failed: %v\n", MapError(err))
				return
			}
			path, err := writeReport(proj, record.Result)
			if err != nil {
				fmt.Printf("report failed: %v\n", MapError(err))
				return
			}
			result := record.Result
			if result.IsSuccess {
				fmt.Printf("%s ok - %d item(s), report at %s\n",
					time.Now().Format("15:04:05"), len(result.Items), path)
			} else {
				fmt.Printf("%s not ok - %d defect(s), report at %s\n",
					time.Now().Format("15:04:05"), result.DefectCount, path)
			}
		}

		runOnce()

		filter := watchFilter(proj)
		w, err := watch.NewWatcher(proj.root, filter, watchDebounce, func(e watch.ChangeEvent) {
			fmt.Printf("%s changed (%s)\n", e.Path, e.ChangeType)
			runOnce()
		})
		if err != nil {
			return MapError(err)
		}
		if err := w.Watch(); err != nil {
			return MapError(err)
		}

		fmt.Printf("Watching %s for changes (ctrl-c to stop)\n", proj.root)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return MapError(err)
		}
		return nil
	},
}

// watchFilter accepts everything the trace would discover: markdown
// specs plus the configured source patterns, minus excludes.
func watchFilter(proj *project) *watch.Filter {
	include := append([]string{"**/*.md", "**/*.markdown"}, proj.cfg.SourcePatterns...)
	return watch.NewFilter(include, proj.cfg.ExcludePatterns)
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet window before a re-trace")
	RootCmd.AddCommand(watchCmd)
}
