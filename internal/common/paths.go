package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CleanPath cleans path, rejects traversal and makes it absolute.
func CleanPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("invalid path: empty")
	}
	cleaned := filepath.Clean(path)

	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains directory traversal")
	}

	if !filepath.IsAbs(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		cleaned = abs
	}

	return cleaned, nil
}

// ValidatePath ensures a path is within baseDir
func ValidatePath(path, baseDir string) (string, error) {
	cleanedPath, err := CleanPath(path)
	if err != nil {
		return "", err
	}

	cleanedBase, err := CleanPath(baseDir)
	if err != nil {
		return "", err
	}

	if cleanedPath != cleanedBase && !strings.HasPrefix(cleanedPath, cleanedBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside allowed directory")
	}

	return cleanedPath, nil
}
