// Package storage abstracts where batch media lives. The batch runner
// sees one Library interface whether sources sit in a local folder or
// an S3 bucket.
package storage

import (
	"context"
	"path/filepath"

	"github.com/Pimboto/VideoLab/internal/media"
)

// Library lists source media, materializes it for processing and
// stores finished outputs.
type Library interface {
	// ListVideos returns video keys under a subfolder, sorted.
	ListVideos(ctx context.Context, subfolder string) ([]string, error)
	// ListAudios returns audio keys under a subfolder, sorted.
	ListAudios(ctx context.Context, subfolder string) ([]string, error)
	// Fetch makes a key available as a local file and returns its path.
	Fetch(ctx context.Context, key, localDir string) (string, error)
	// Store persists a finished output and returns its stored location.
	Store(ctx context.Context, localPath, name string) (string, error)
	// Cleanup removes a fetched local file if the library created it.
	Cleanup(localPath string)
}

// Local serves media straight from directories on disk; outputs land in
// OutputDir untouched.
type Local struct {
	VideosDir string
	AudiosDir string
	OutputDir string
}

func (l *Local) ListVideos(_ context.Context, subfolder string) ([]string, error) {
	return listLocal(filepath.Join(l.VideosDir, subfolder), true)
}

func (l *Local) ListAudios(_ context.Context, subfolder string) ([]string, error) {
	return listLocal(filepath.Join(l.AudiosDir, subfolder), false)
}

func (l *Local) Fetch(_ context.Context, key, _ string) (string, error) {
	return key, nil
}

func (l *Local) Store(_ context.Context, localPath, _ string) (string, error) {
	return localPath, nil
}

func (l *Local) Cleanup(string) {}

func listLocal(folder string, video bool) ([]string, error) {
	exts := media.AudioExtensions
	if video {
		exts = media.VideoExtensions
	}
	return media.ListFiles(folder, exts)
}
