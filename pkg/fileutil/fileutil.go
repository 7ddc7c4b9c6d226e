// Package fileutil provides case-insensitive file lookup.
// Karaoke collections copied from old FAT volumes mix "SONG.KAR" and "song.kar"
// freely, so input paths are resolved against what is actually on disk.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches for a file with the given name in the specified directory.
// The search is case-insensitive.
//
// Parameters:
//   - dir: The directory to search in
//   - filename: The filename to search for (case-insensitive)
//
// Returns:
//   - string: The actual path to the file if found
//   - error: Error if the file is not found or if there's an I/O error
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/music", "Yesterday.KAR")
//	// Will find "yesterday.kar", "YESTERDAY.KAR", "Yesterday.kar", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}

// FindFileCaseInsensitiveFS is FindFileCaseInsensitive for an fs.FS.
// name is a slash-separated path; only its last element is matched case-insensitively.
func FindFileCaseInsensitiveFS(fsys fs.FS, name string) (string, error) {
	if _, err := fs.Stat(fsys, name); err == nil {
		return name, nil
	}

	dir, base := path.Split(name)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "."
	}
	searchName := strings.ToLower(base)

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return path.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", base, dir)
}

// FindFileInsensitive resolves filename against the real file system.
// An exact match is returned as is; otherwise every directory component and
// the file name are matched case-insensitively.
//
// Example:
//   - FindFileInsensitive("KAR/Beatles/YESTERDAY.KAR") might return "kar/beatles/Yesterday.kar"
func FindFileInsensitive(filename string) (string, error) {
	if _, err := os.Stat(filename); err == nil {
		return filename, nil
	}

	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	if dir != "." && dir != string(filepath.Separator) {
		actualDir, err := findDirInsensitive(dir)
		if err != nil {
			return "", fmt.Errorf("directory not found: %s", dir)
		}
		dir = actualDir
	}

	return FindFileCaseInsensitive(dir, base)
}

// findDirInsensitive walks path one component at a time, matching each
// directory name case-insensitively.
func findDirInsensitive(dir string) (string, error) {
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	}

	components := strings.Split(filepath.ToSlash(dir), "/")
	currentPath := "."
	if filepath.IsAbs(dir) {
		currentPath = string(filepath.Separator)
		if vol := filepath.VolumeName(dir); vol != "" {
			currentPath = vol + string(filepath.Separator)
			components = strings.Split(filepath.ToSlash(dir[len(vol):]), "/")
		}
	}

	for _, component := range components {
		if component == "." || component == "" {
			continue
		}
		if component == ".." {
			currentPath = filepath.Join(currentPath, component)
			continue
		}

		entries, err := os.ReadDir(currentPath)
		if err != nil {
			return "", err
		}

		componentLower := strings.ToLower(component)
		found := false
		for _, entry := range entries {
			if entry.IsDir() && strings.ToLower(entry.Name()) == componentLower {
				currentPath = filepath.Join(currentPath, entry.Name())
				found = true
				break
			}
		}

		if !found {
			return "", fmt.Errorf("directory component not found: %s in %s", component, currentPath)
		}
	}

	return currentPath, nil
}
