// Package mux finishes a silent composited video: applies gain to the
// music track, optionally mixes it with the source's embedded audio,
// trims to the target duration and writes the final file.
package mux

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/Pimboto/VideoLab/internal/logging"
	"github.com/Pimboto/VideoLab/internal/media"
)

// Muxer combines the silent render with an audio track.
type Muxer struct {
	log    *logging.Logger
	prober *media.Prober
}

func New(log *logging.Logger, prober *media.Prober) *Muxer {
	return &Muxer{log: log, prober: prober}
}

// Request describes one mux operation.
type Request struct {
	SilentVideo string
	SourceVideo string // original clip, consulted for embedded audio when mixing
	AudioPath   string // empty means deliver the silent video as-is
	OutputPath  string
	Target      float64 // seconds; <= 0 means no trim
	GainDB      int
	MixAudio    bool
}

// Run produces the final output. Muxing failures do not fail the job:
// the silent video is delivered as a degraded success and the actual
// output path is returned.
func (m *Muxer) Run(ctx context.Context, req Request) (string, error) {
	if req.AudioPath == "" {
		if err := moveFile(req.SilentVideo, req.OutputPath); err != nil {
			return "", errors.Wrap(err, "finalize silent video")
		}
		return req.OutputPath, nil
	}

	if err := m.addAudio(ctx, req); err != nil {
		m.log.Warnf("mux: audio combination failed (%v), delivering silent video", err)
		if mvErr := moveFile(req.SilentVideo, req.OutputPath); mvErr != nil {
			return "", errors.Wrap(mvErr, "finalize silent fallback")
		}
		return req.OutputPath, nil
	}

	_ = os.Remove(req.SilentVideo)
	return req.OutputPath, nil
}

func (m *Muxer) addAudio(ctx context.Context, req Request) error {
	video := ffmpeg.Input(req.SilentVideo)
	audio := ffmpeg.Input(req.AudioPath).Audio()

	if req.GainDB != 0 {
		factor := math.Pow(10, float64(req.GainDB)/20)
		audio = audio.Filter("volume", ffmpeg.Args{fmt.Sprintf("%.6f", factor)})
	}

	finalAudio := audio
	if req.MixAudio && req.SourceVideo != "" && m.prober.HasAudioStream(ctx, req.SourceVideo) {
		source := ffmpeg.Input(req.SourceVideo).Audio()
		finalAudio = ffmpeg.Filter(
			[]*ffmpeg.Stream{source, audio},
			"amix",
			ffmpeg.Args{},
			ffmpeg.KwArgs{"inputs": 2, "duration": "longest"},
		)
	}

	kwargs := ffmpeg.KwArgs{
		"c:v":     "libx264",
		"c:a":     "aac",
		"pix_fmt": "yuv420p",
	}
	if req.Target > 0 {
		kwargs["t"] = fmt.Sprintf("%.3f", req.Target)
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}

	err := ffmpeg.Output([]*ffmpeg.Stream{video.Video(), finalAudio}, req.OutputPath, kwargs).
		OverWriteOutput().
		Run()
	if err != nil {
		return errors.Wrap(err, "ffmpeg mux")
	}
	return nil
}

func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to copy.
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}
