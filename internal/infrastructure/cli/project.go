package cli

import (
	"log/slog"
	"path/filepath"

	"github.com/felixgeelhaar/reqtrace/internal/application"
	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/config"
)

// project bundles everything a command needs to run a trace.
type project struct {
	root string
	cfg  *config.Config
	svc  *application.TraceService
}

// loadProject discovers the configuration starting at the --dir flag.
// When a config file exists in a parent directory, that directory
// becomes the project root.
func loadProject() (*project, error) {
	cfg, cfgPath, err := config.Discover(rootDir)
	if err != nil {
		return nil, MapError(err)
	}

	root := rootDir
	if cfgPath != "" {
		root = filepath.Dir(cfgPath)
	}

	if cfg.Verbose && !verbose {
		verbose = true
		configureLogging()
	}

	return &project{
		root: root,
		cfg:  cfg,
		svc:  application.NewTraceService(root, cfg, slog.Default()),
	}, nil
}
