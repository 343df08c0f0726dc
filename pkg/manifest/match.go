package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Match resolves a glob pattern against the filesystem into the concrete set
// of regular files it names. Patterns support `*` within a path segment and
// `**` across segments. Directories matched by the pattern are expanded when
// recursive is set, never included as entries themselves.
//
// A pattern matching nothing yields an empty slice, not an error; callers
// decide what that means.
func Match(pattern string, recursive bool) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			// Raced away between glob and stat; treat as no match.
			continue
		}

		if !info.IsDir() {
			if info.Mode().IsRegular() {
				files = append(files, match)
			}
			continue
		}

		if !recursive {
			continue
		}

		err = filepath.WalkDir(match, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", match, err)
		}
	}

	return files, nil
}
