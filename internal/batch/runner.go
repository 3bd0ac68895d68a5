// Package batch drives a full composition run: enumerate sources, plan
// the job list, render each job and deliver outputs. One bad job never
// aborts the batch.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Pimboto/VideoLab/internal/caption"
	"github.com/Pimboto/VideoLab/internal/logging"
	"github.com/Pimboto/VideoLab/internal/media"
	"github.com/Pimboto/VideoLab/internal/planner"
	"github.com/Pimboto/VideoLab/internal/render"
	"github.com/Pimboto/VideoLab/internal/report"
	"github.com/Pimboto/VideoLab/internal/storage"
)

const (
	ModeAll     = "all"
	ModeUnique  = "unique"
	ModeDiverse = "diverse"
)

type Options struct {
	VideosSubfolder string
	AudiosSubfolder string
	CaptionsCSV     string

	// OutputDir is where rendered files land before Store.
	OutputDir string
	// WorkDir holds fetched sources and scratch files.
	WorkDir string

	Mode    string // all | unique | diverse
	Want    int    // unique: number of jobs to build
	TargetN int    // diverse: number of jobs to select

	CheckDuplicates bool
}

type Runner struct {
	log      *logging.Logger
	library  storage.Library
	pipeline *render.Pipeline
	sink     report.Sink
	opts     Options

	fetched map[string]string // source key -> local path
}

func NewRunner(log *logging.Logger, lib storage.Library, pipe *render.Pipeline, sink report.Sink, opts Options) *Runner {
	return &Runner{
		log:      log,
		library:  lib,
		pipeline: pipe,
		sink:     sink,
		opts:     opts,
		fetched:  make(map[string]string),
	}
}

// Run executes the whole batch and returns how many jobs succeeded.
func (r *Runner) Run(ctx context.Context) (int, error) {
	defer r.cleanupFetched()

	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return 0, errors.Wrap(err, "create output dir")
	}
	if err := os.MkdirAll(r.opts.WorkDir, 0o755); err != nil {
		return 0, errors.Wrap(err, "create work dir")
	}

	jobs, err := r.plan(ctx)
	if err != nil {
		r.sink.Report(report.Update{Status: report.StatusFailed, Message: err.Error()})
		return 0, err
	}
	r.log.Infof("batch: %d job(s) planned (mode=%s)", len(jobs), r.opts.Mode)
	r.sink.Report(report.Update{
		Status:   report.StatusProcessing,
		Progress: 5,
		Message:  fmt.Sprintf("planned %d job(s)", len(jobs)),
	})

	var outputs []string
	for i, job := range jobs {
		if ctx.Err() != nil {
			r.sink.Report(report.Update{
				Status:      report.StatusFailed,
				Message:     fmt.Sprintf("cancelled after %d/%d job(s)", len(outputs), len(jobs)),
				OutputPaths: outputs,
			})
			return len(outputs), ctx.Err()
		}
		progress := 5 + 90*float64(i)/float64(len(jobs))
		r.sink.Report(report.Update{
			Status:   report.StatusProcessing,
			Progress: progress,
			Message:  fmt.Sprintf("rendering %d/%d", i+1, len(jobs)),
		})
		stored, ok := r.runJob(ctx, job)
		if !ok {
			r.log.Errorf("batch: job %d/%d failed (video=%s audio=%s)", i+1, len(jobs), job.VideoPath, job.AudioPath)
			continue
		}
		outputs = append(outputs, stored)
	}

	status := report.StatusCompleted
	if len(outputs) == 0 && len(jobs) > 0 {
		status = report.StatusFailed
	}
	r.sink.Report(report.Update{
		Status:      status,
		Progress:    100,
		Message:     fmt.Sprintf("completed %d/%d job(s)", len(outputs), len(jobs)),
		OutputPaths: outputs,
	})
	return len(outputs), nil
}

func (r *Runner) plan(ctx context.Context) ([]planner.Job, error) {
	videos, err := r.library.ListVideos(ctx, r.opts.VideosSubfolder)
	if err != nil {
		return nil, errors.Wrap(err, "list videos")
	}
	if len(videos) == 0 {
		return nil, errors.New("no source videos found")
	}
	audios, err := r.library.ListAudios(ctx, r.opts.AudiosSubfolder)
	if err != nil {
		r.log.Warnf("batch: list audios: %v", err)
		audios = nil
	}

	var combos []caption.Combination
	if r.opts.CaptionsCSV != "" {
		combos, err = caption.LoadCombinations(r.opts.CaptionsCSV)
		if err != nil {
			return nil, errors.Wrap(err, "load captions")
		}
	}
	r.log.Infof("batch: %d video(s), %d audio(s), %d caption combination(s)",
		len(videos), len(audios), len(combos))

	if r.opts.CheckDuplicates {
		r.warnDuplicates(ctx, videos)
	}

	switch r.opts.Mode {
	case ModeUnique:
		return planner.BuildUnique(videos, audios, combos, r.opts.Want), nil
	case ModeDiverse:
		pool := planner.BuildCartesian(videos, audios, combos)
		return planner.SelectDiverse(pool, r.opts.TargetN, planner.DiverseOptions{}), nil
	case ModeAll, "":
		return planner.BuildCartesian(videos, audios, combos), nil
	default:
		return nil, errors.Errorf("unknown selection mode %q", r.opts.Mode)
	}
}

func (r *Runner) warnDuplicates(ctx context.Context, videoKeys []string) {
	local := make([]string, 0, len(videoKeys))
	for _, key := range videoKeys {
		path, err := r.fetch(ctx, key)
		if err != nil {
			r.log.Warnf("batch: fetch %s for duplicate scan: %v", key, err)
			continue
		}
		local = append(local, path)
	}
	for _, pair := range planner.FindDuplicateSources(ctx, local, r.opts.WorkDir, r.log) {
		r.log.Warnf("batch: %s and %s look like the same source", pair.A, pair.B)
	}
}

// runJob materializes sources, renders and stores one output. Returns
// the stored location and whether the job produced a usable file.
func (r *Runner) runJob(ctx context.Context, job planner.Job) (string, bool) {
	videoPath, err := r.fetch(ctx, job.VideoPath)
	if err != nil {
		r.log.Errorf("batch: fetch video %s: %v", job.VideoPath, err)
		return "", false
	}
	audioPath := ""
	if job.AudioPath != "" {
		audioPath, err = r.fetch(ctx, job.AudioPath)
		if err != nil {
			r.log.Warnf("batch: fetch audio %s: %v, rendering without audio", job.AudioPath, err)
			audioPath = ""
		}
	}

	name := OutputName(job)
	local := planner.Job{
		VideoPath:  videoPath,
		AudioPath:  audioPath,
		Captions:   job.Captions,
		ComboIndex: job.ComboIndex,
	}
	ok, outPath := r.pipeline.Run(ctx, local, filepath.Join(r.opts.OutputDir, name))
	if !ok {
		return "", false
	}

	stored, err := r.library.Store(ctx, outPath, filepath.Base(outPath))
	if err != nil {
		r.log.Errorf("batch: store %s: %v", outPath, err)
		return "", false
	}
	r.log.Infof("batch: stored %s", stored)
	return stored, true
}

// fetch makes a source key local, caching across jobs so shared
// sources are only downloaded once per batch.
func (r *Runner) fetch(ctx context.Context, key string) (string, error) {
	if path, ok := r.fetched[key]; ok {
		return path, nil
	}
	path, err := r.library.Fetch(ctx, key, r.opts.WorkDir)
	if err != nil {
		return "", err
	}
	r.fetched[key] = path
	return path, nil
}

func (r *Runner) cleanupFetched() {
	for _, path := range r.fetched {
		r.library.Cleanup(path)
	}
}

// OutputName builds the output filename for a job:
// {videoStem}_{audioStem|noaudio}__combo{N}_{caption snippet}.mp4
func OutputName(job planner.Job) string {
	audio := "noaudio"
	if job.AudioPath != "" {
		audio = media.Stem(job.AudioPath)
	}
	name := fmt.Sprintf("%s_%s__combo%d", media.Stem(job.VideoPath), audio, job.ComboIndex+1)
	if snippet := sanitizeFragment(strings.Join(job.Captions, " ")); snippet != "" {
		name += "_" + snippet
	}
	// Stems may carry multibyte characters; cut on a rune boundary.
	if r := []rune(name); len(r) > 50 {
		name = string(r[:50])
	}
	return name + ".mp4"
}

// sanitizeFragment keeps the first 20 characters of text with anything
// outside [A-Za-z0-9_-] replaced by underscores; runs collapse to one.
func sanitizeFragment(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > 20 {
		s = string(r[:20])
	}
	var b strings.Builder
	underscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			underscore = false
		default:
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
