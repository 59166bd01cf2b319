package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteReport writes report bytes to path, creating parent
// directories as needed.
func WriteReport(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("report path cannot be empty")
	}

	dir := filepath.Dir(path)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	// G306: Use 0600 for files
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
