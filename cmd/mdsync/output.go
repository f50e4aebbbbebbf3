package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mdsync/common"
)

// writeOutput writes result to file or to STDOUT when name is empty.
func writeOutput(name string, data []byte, overwrite bool) error {
	if len(name) == 0 {
		_, err := os.Stdout.Write(data)
		return err
	}
	if !overwrite {
		if _, err := os.Stat(name); err == nil {
			return fmt.Errorf("destination '%s' already exists, use --overwrite", name)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to check destination '%s': %w", name, err)
		}
	}
	if dir := filepath.Dir(name); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create destination directory '%s': %w", dir, err)
		}
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("unable to write '%s': %w", name, err)
	}
	return nil
}

// modeOf derives representation from file extension.
func modeOf(name string) (common.Mode, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return common.ModeMarkdown, nil
	case ".html", ".htm", ".xhtml":
		return common.ModeHTML, nil
	case ".css":
		return common.ModeCSS, nil
	}
	return 0, fmt.Errorf("unable to tell document type of '%s' from its extension", name)
}
