// Package download turns a fetched binary payload into a file the user
// ends up with, the desktop counterpart of the browser's synthesized
// anchor click.
package download

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Save writes data under dir with the given filename and returns the
// full path. The filename is sanitized; an existing file is
// overwritten, matching the browser behavior of re-downloading.
func Save(dir, filename string, data []byte) (string, error) {
	if filename == "" {
		return "", errors.New("[download.Save] filename is required")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "[download.Save] MkdirAll")
	}

	path := filepath.Join(dir, Sanitize(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "[download.Save] WriteFile")
	}
	return path, nil
}

// Sanitize strips path separators and whitespace runs out of a
// user-derived filename.
func Sanitize(filename string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_")
	return replacer.Replace(strings.TrimSpace(filename))
}
