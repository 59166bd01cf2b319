package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/dashboard"
	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/watch"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTML report over HTTP with live reload",
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := loadProject()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := dashboard.NewServer(serveAddr, nil)

		retrace := func() {
			record, err := proj.svc.Run(ctx)
			if err != nil {
				fmt.Printf("trace failed: %v\n", MapError(err))
				return
			}
			server.Publish(record.Result)
		}

		retrace()

		w, err := watch.NewWatcher(proj.root, watchFilter(proj), 0, func(e watch.ChangeEvent) {
			retrace()
		})
		if err != nil {
			return MapError(err)
		}
		if err := w.Watch(); err != nil {
			return MapError(err)
		}
		go func() { _ = w.Run(ctx) }()

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- server.Start()
		}()

		fmt.Printf("Serving report on http://%s (ctrl-c to stop)\n", serveAddr)

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-serverErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return MapError(err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address for the report server")
	RootCmd.AddCommand(serveCmd)
}
