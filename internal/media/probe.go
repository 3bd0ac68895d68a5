package media

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// maxFPS caps nonsense frame rates some containers report.
const maxFPS = 60.0

const probeTimeout = 30 * time.Second

// Prober reads stream metadata through ffprobe.
type Prober struct{}

func NewProber() *Prober { return &Prober{} }

// ProbeVideo reads dimensions, duration and frame rate of the first
// video stream. Failure here is a MediaReadError in job terms: the
// caller fails that one job and moves on.
func (p *Prober) ProbeVideo(ctx context.Context, path string) (VideoAsset, error) {
	out, err := runFFprobe(ctx, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "json", path)
	if err != nil {
		return VideoAsset{}, errors.Wrapf(err, "probe video %s", path)
	}

	streams := gjson.GetBytes(out, "streams")
	if !streams.Exists() || len(streams.Array()) == 0 {
		return VideoAsset{}, errors.Errorf("cannot read video: %s", path)
	}
	first := streams.Array()[0]

	asset := VideoAsset{
		Path:   path,
		Width:  int(first.Get("width").Int()),
		Height: int(first.Get("height").Int()),
		FPS:    parseFrameRate(first.Get("r_frame_rate").String()),
	}
	if asset.Width <= 0 || asset.Height <= 0 {
		return VideoAsset{}, errors.Errorf("video %s reports %dx%d", path, asset.Width, asset.Height)
	}

	dur, err := probeDuration(ctx, path)
	if err != nil {
		return VideoAsset{}, errors.Wrapf(err, "probe duration %s", path)
	}
	asset.Duration = dur
	return asset, nil
}

// ProbeAudio reads the container duration of an audio file. A missing
// or unreadable file probes as zero duration rather than failing, so a
// bad music track degrades to a silent render instead of killing the
// job.
func (p *Prober) ProbeAudio(ctx context.Context, path string) AudioAsset {
	if path == "" {
		return AudioAsset{}
	}
	dur, err := probeDuration(ctx, path)
	if err != nil {
		return AudioAsset{Path: path}
	}
	return AudioAsset{Path: path, Duration: dur}
}

// HasAudioStream reports whether the container carries at least one
// audio stream. Errors count as "no audio": the muxer then simply
// replaces instead of mixing.
func (p *Prober) HasAudioStream(ctx context.Context, path string) bool {
	out, err := runFFprobe(ctx, "-v", "error", "-select_streams", "a",
		"-show_entries", "stream=codec_type", "-of", "json", path)
	if err != nil {
		return false
	}
	return len(gjson.GetBytes(out, "streams").Array()) > 0
}

func probeDuration(ctx context.Context, path string) (float64, error) {
	out, err := runFFprobe(ctx, "-v", "error", "-show_entries", "format=duration",
		"-of", "default=nokey=1:noprint_wrappers=1", path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(out))
	if s == "" || s == "N/A" {
		return 0, nil
	}
	dur, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse duration %q", s)
	}
	return dur, nil
}

// parseFrameRate handles the "num/den" fractions ffprobe reports,
// defaulting to 30 and clamping to maxFPS.
func parseFrameRate(s string) float64 {
	if s == "" {
		return 30
	}
	fps := 30.0
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN == nil && errD == nil {
			if d == 0 {
				d = 1
			}
			fps = n / d
		}
	} else if v, err := strconv.ParseFloat(s, 64); err == nil {
		fps = v
	}
	if fps <= 0 {
		fps = 30
	}
	if fps > maxFPS {
		fps = maxFPS
	}
	return fps
}

func runFFprobe(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.Errorf("ffprobe: %s", msg)
	}
	return out, nil
}

// CheckEnvironment verifies the decode/encode/probe capability once at
// startup. Missing ffmpeg or ffprobe is fatal configuration, not a
// per-job failure.
func CheckEnvironment() error {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return errors.New("ffprobe not found on PATH; install FFmpeg")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return errors.New("ffmpeg not found on PATH; install FFmpeg")
	}
	return nil
}
