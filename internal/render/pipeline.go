// Package render runs one job end to end: probe, decode, composite,
// encode, mux. A pipeline never lets one bad job take the batch down.
package render

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Pimboto/VideoLab/internal/compositor"
	"github.com/Pimboto/VideoLab/internal/config"
	"github.com/Pimboto/VideoLab/internal/fonts"
	"github.com/Pimboto/VideoLab/internal/logging"
	"github.com/Pimboto/VideoLab/internal/media"
	"github.com/Pimboto/VideoLab/internal/mux"
	"github.com/Pimboto/VideoLab/internal/planner"
	"github.com/Pimboto/VideoLab/internal/textlayout"
)

const minFontSize = 18

// Pipeline renders jobs one at a time. It holds no per-job state, so
// distinct pipelines may run concurrently as long as output paths are
// distinct; the text engine and its cache are constructed per job.
type Pipeline struct {
	log      *logging.Logger
	prober   *media.Prober
	fontProv fonts.Provider
	muxer    *mux.Muxer
	cfg      config.ProcessingConfig
}

func NewPipeline(log *logging.Logger, prober *media.Prober, fontProv fonts.Provider, muxer *mux.Muxer, cfg config.ProcessingConfig) *Pipeline {
	return &Pipeline{log: log, prober: prober, fontProv: fontProv, muxer: muxer, cfg: cfg}
}

// Run renders one job to outputPath. It returns whether the job
// succeeded and the path actually written. It never panics or returns
// an error: failures are logged and reported as false so the batch
// driver can continue.
func (p *Pipeline) Run(ctx context.Context, job planner.Job, outputPath string) (ok bool, outPath string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("render: panic processing %s: %v", filepath.Base(job.VideoPath), r)
			ok, outPath = false, ""
		}
	}()

	name := filepath.Base(outputPath)
	p.log.Infof("render: processing %s (%d caption segments)", name, len(job.Captions))

	video, err := p.prober.ProbeVideo(ctx, job.VideoPath)
	if err != nil {
		p.log.Errorf("render: %v", err)
		return false, ""
	}

	outW, outH := p.cfg.Canvas()

	audio := p.prober.ProbeAudio(ctx, job.AudioPath)
	plan := p.jobPlan(video, audio, len(job.Captions))

	silentPath, err := p.renderSilent(ctx, job, video, plan, outW, outH, outputPath)
	if err != nil {
		p.log.Errorf("render: %s: %v", name, err)
		return false, ""
	}

	// Keep the writer's container extension on the final path.
	finalPath := outputPath
	if ext := filepath.Ext(silentPath); ext != filepath.Ext(outputPath) {
		finalPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ext
	}

	result, err := p.muxer.Run(ctx, mux.Request{
		SilentVideo: silentPath,
		SourceVideo: job.VideoPath,
		AudioPath:   job.AudioPath,
		OutputPath:  finalPath,
		Target:      plan.Target,
		GainDB:      p.cfg.MusicGainDB,
		MixAudio:    p.cfg.MixAudio,
	})
	if err != nil {
		p.log.Errorf("render: %s: %v", name, err)
		return false, ""
	}

	p.log.Infof("render: completed %s", filepath.Base(result))
	return true, result
}

// jobPlan reconciles the configured duration policy against the probed
// source durations for one job.
func (p *Pipeline) jobPlan(video media.VideoAsset, audio media.AudioAsset, segments int) Plan {
	return Reconcile(p.cfg.DurationPolicy, p.cfg.FixedSeconds, video.Duration, audio.Duration, video.FPS, segments)
}

// renderSilent runs the decode/composite/encode loop and returns the
// path of the silent video it wrote.
func (p *Pipeline) renderSilent(ctx context.Context, job planner.Job, video media.VideoAsset, plan Plan, outW, outH int, outputPath string) (string, error) {
	dec, err := OpenDecoder(ctx, job.VideoPath, video.Width, video.Height)
	if err != nil {
		return "", err
	}
	defer dec.Close()

	// Job-unique temp name so concurrent pipelines never collide.
	dir := filepath.Dir(outputPath)
	stem := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	tempPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.mp4", stem, uuid.NewString()[:8]))

	writer, tempPath, err := OpenWriter(ctx, p.log, tempPath, outW, outH, video.FPS)
	if err != nil {
		return "", err
	}
	defer writer.Close()

	bitmaps, err := p.renderCaptions(job.Captions, outW, outH)
	if err != nil {
		return "", err
	}

	p.log.Infof("render: target %.2fs, %.2fs per segment, %d frame budget",
		plan.Target, plan.SegmentDuration, plan.FrameBudget)

	for frameIdx := 0; frameIdx < plan.FrameBudget; frameIdx++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		frame, err := dec.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		frame = compositor.Resize(frame, outW, outH, p.cfg.FitMode)

		if len(bitmaps) > 0 {
			t := float64(frameIdx) / video.FPS
			idx := compositor.CaptionIndex(t, plan.SegmentDuration, len(bitmaps))
			compositor.Overlay(frame, bitmaps[idx], p.cfg.Position, p.cfg.MarginPct, nil)
		}

		// Size guard: the writer expects exactly the canvas.
		if frame.Width != outW || frame.Height != outH {
			frame = compositor.Resize(frame, outW, outH, "stretch")
		}

		if err := writer.WriteFrame(frame); err != nil {
			return "", err
		}
	}

	dec.Close()
	if err := writer.Close(); err != nil {
		return "", err
	}
	return tempPath, nil
}

// renderCaptions rasterizes every segment up front. A segment that
// fails gets a blank placeholder so the job survives.
func (p *Pipeline) renderCaptions(segments []string, outW, outH int) ([]*textlayout.GlyphBitmap, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	fontSize := int(float64(outH)*p.cfg.FontsizeRatio + 0.5)
	if fontSize < minFontSize {
		fontSize = minFontSize
	}

	engine, err := textlayout.NewEngine(p.log, p.fontProv, fontSize, textlayout.Options{
		Preset: p.cfg.Preset,
		Style: textlayout.Style{
			TextColor:    textlayout.DefaultTextColor,
			OutlineColor: textlayout.DefaultOutlineColor,
			OutlineWidth: p.cfg.OutlinePx,
		},
	})
	if err != nil {
		return nil, err
	}

	maxWidth := int(float64(outW) * (1 - 2*p.cfg.MarginPct))
	bitmaps := make([]*textlayout.GlyphBitmap, 0, len(segments))
	for _, seg := range segments {
		bmp, err := engine.Render(seg, maxWidth)
		if err != nil {
			p.log.Warnf("render: segment %q failed to rasterize: %v", truncate(seg, 20), err)
			bmp = textlayout.Blank(100, 100)
		}
		bitmaps = append(bitmaps, bmp)
	}
	return bitmaps, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
