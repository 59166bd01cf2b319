package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/reqtrace/internal/infrastructure/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .reqtrace.yaml into the project directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(rootDir, config.FileName)
		if _, err := os.Stat(path); err == nil {
			return NewCLIError(
				fmt.Sprintf("%s already exists", path),
				"Edit the existing file or remove it before re-running init",
				nil,
			)
		}

		if err := config.WriteDefault(path); err != nil {
			return MapError(err)
		}

		fmt.Printf("Created %s\n", path)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(initCmd)
}
