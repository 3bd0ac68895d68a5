// Package media knows how to find source files and probe their
// metadata. Assets are probed once and read-only afterwards.
package media

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Extension sets for folder listing, lowercase with leading dot.
var (
	VideoExtensions = map[string]bool{".mp4": true, ".mov": true, ".m4v": true, ".avi": true, ".mkv": true}
	AudioExtensions = map[string]bool{".mp3": true, ".wav": true, ".m4a": true}
)

// VideoAsset is a probed source video.
type VideoAsset struct {
	Path     string
	Width    int
	Height   int
	Duration float64
	FPS      float64
}

// AudioAsset is a probed source audio track.
type AudioAsset struct {
	Path     string
	Duration float64
}

// Stem returns the lowercased filename without extension, the token the
// planner keys diversity on.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base))))
}

// ListFiles returns the sorted regular files in folder whose extension
// is in exts. A missing folder yields an empty list, not an error.
func ListFiles(folder string, exts map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if e.IsDir() {
			return "", false
		}
		if !exts[strings.ToLower(filepath.Ext(e.Name()))] {
			return "", false
		}
		return filepath.Join(folder, e.Name()), true
	})
	sort.Strings(names)
	return names, nil
}
