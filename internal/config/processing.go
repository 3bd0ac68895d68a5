package config

import (
	"github.com/pkg/errors"
)

// Position anchors the caption bitmap on the canvas.
type Position string

const (
	PositionCenter Position = "center"
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// DurationPolicy decides the target length of the rendered video.
type DurationPolicy string

const (
	DurationShortest DurationPolicy = "shortest"
	DurationAudio    DurationPolicy = "audio"
	DurationVideo    DurationPolicy = "video"
	DurationFixed    DurationPolicy = "fixed"
)

// FitMode maps a source frame's aspect ratio onto the fixed canvas.
// "zoom" is a documented alias of "cover"; anything unrecognized is a
// direct stretch.
type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
	FitZoom    FitMode = "zoom"
)

// ProcessingConfig is the immutable per-batch rendering configuration.
// Validate once at construction; a validated value is never mutated.
type ProcessingConfig struct {
	Position       Position
	MarginPct      float64
	DurationPolicy DurationPolicy
	FixedSeconds   float64
	CanvasWidth    int
	CanvasHeight   int
	FitMode        FitMode
	MusicGainDB    int
	MixAudio       bool
	Preset         string
	OutlinePx      int
	FontsizeRatio  float64
}

// DefaultProcessing mirrors the defaults the service has always shipped
// with: centered captions on a 1080x1920 cover-fit canvas, shortest
// duration, music at -8dB replacing the source audio.
func DefaultProcessing() ProcessingConfig {
	return ProcessingConfig{
		Position:       PositionCenter,
		MarginPct:      0.16,
		DurationPolicy: DurationShortest,
		FixedSeconds:   0,
		CanvasWidth:    1080,
		CanvasHeight:   1920,
		FitMode:        FitCover,
		MusicGainDB:    -8,
		MixAudio:       false,
		Preset:         "",
		OutlinePx:      2,
		FontsizeRatio:  0.036,
	}
}

func (c ProcessingConfig) Validate() error {
	switch c.Position {
	case PositionCenter, PositionTop, PositionBottom:
	default:
		return errors.Errorf("invalid position %q (want center, top or bottom)", c.Position)
	}
	switch c.DurationPolicy {
	case DurationShortest, DurationAudio, DurationVideo:
	case DurationFixed:
		if c.FixedSeconds <= 0 {
			return errors.New("duration_policy=fixed requires fixed_seconds > 0")
		}
	default:
		return errors.Errorf("invalid duration_policy %q", c.DurationPolicy)
	}
	if c.MarginPct < 0 || c.MarginPct > 0.5 {
		return errors.Errorf("margin_pct %.3f out of range [0, 0.5]", c.MarginPct)
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return errors.Errorf("invalid canvas_size %dx%d", c.CanvasWidth, c.CanvasHeight)
	}
	if c.OutlinePx < 0 {
		return errors.Errorf("outline_px %d must be >= 0", c.OutlinePx)
	}
	if c.FontsizeRatio < 0.01 || c.FontsizeRatio > 0.1 {
		return errors.Errorf("fontsize_ratio %.4f out of range [0.01, 0.1]", c.FontsizeRatio)
	}
	switch c.Preset {
	case "", "none", "clean", "bold", "subtle", "yellow", "shadow":
	default:
		return errors.Errorf("unknown preset %q", c.Preset)
	}
	return nil
}

// Canvas returns the output dimensions rounded down to even values.
// Odd dimensions break most encoders, so the canvas is always even.
func (c ProcessingConfig) Canvas() (w, h int) {
	return c.CanvasWidth &^ 1, c.CanvasHeight &^ 1
}
