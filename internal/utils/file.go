package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// textExtensions are the input extensions read as plain text. HTML job
// postings are converted to markdown downstream.
var textExtensions = map[string]bool{
	".txt": true, ".text": true,
	".md": true, ".markdown": true,
	".json": true,
	".html": true, ".htm": true,
}

// StatInput returns the file info of filename, which must be an existing
// regular file.
func StatInput(filename string) (fs.FileInfo, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	switch {
	case err == nil:
	case os.IsNotExist(err):
		return nil, fmt.Errorf("file does not exist: %s", filename)
	default:
		return nil, fmt.Errorf("cannot access file %s: %w", filename, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", filename)
	}
	return info, nil
}

// EnsureParentDir creates the directory that will hold filename.
func EnsureParentDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// IsTextFile reports whether filename has a text-based extension.
func IsTextFile(filename string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(filename))]
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
