// Package fileutil provides the small filesystem helpers shared by the
// webhook pipeline.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SizeBytes returns the size of the file at path.
func SizeBytes(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("stat %s: %w", path, err)
		}
		return 0, err
	}
	return info.Size(), nil
}

// SizeMB returns the size of the file at path in mebibytes.
func SizeMB(path string) (float64, error) {
	size, err := SizeBytes(path)
	if err != nil {
		return 0, err
	}
	return float64(size) / 1024 / 1024, nil
}

// UniquePath returns path unchanged when nothing exists there, otherwise a
// sibling path with a uuid inserted before the extension.
func UniquePath(path string) string {
	if !Exists(path) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return stem + "-" + uuid.NewString() + ext
}

// CompanionPath returns the sibling file sharing path's base name with a
// different extension. Ext must include the leading dot.
func CompanionPath(path, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + ext
}
