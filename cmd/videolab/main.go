package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Pimboto/VideoLab/internal/batch"
	"github.com/Pimboto/VideoLab/internal/config"
	"github.com/Pimboto/VideoLab/internal/fonts"
	"github.com/Pimboto/VideoLab/internal/logging"
	"github.com/Pimboto/VideoLab/internal/media"
	"github.com/Pimboto/VideoLab/internal/mux"
	"github.com/Pimboto/VideoLab/internal/render"
	"github.com/Pimboto/VideoLab/internal/report"
	"github.com/Pimboto/VideoLab/internal/storage"
)

type flags struct {
	videos   string
	audios   string
	captions string
	output   string
	workDir  string

	mode    string
	want    int
	targetN int

	position      string
	marginPct     float64
	duration      string
	fixedSeconds  float64
	width, height int
	fit           string
	gainDB        int
	mixAudio      bool
	preset        string
	outlinePx     int
	fontsizeRatio float64

	checkDuplicates bool
	local           bool
	every           string
}

func main() {
	// Load .env file if it exists (try multiple paths)
	for _, path := range []string{".env", "../.env", "../../.env"} {
		_ = godotenv.Load(path)
	}

	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "videolab",
		Short: "Batch video composition: captions, audio and source combinatorics",
		Long: `videolab renders batches of short videos by combining source clips,
caption combinations and audio tracks. Sources come from local folders
or an S3 bucket; each planned combination becomes one captioned,
muxed output file.

Examples:
  # Every video x caption x audio combination
  videolab run --videos ./videos --audios ./audios --captions combos.csv -o ./out

  # 20 balanced combinations instead of the full product
  videolab run --mode unique --want 20 --videos ./videos --captions combos.csv -o ./out`,
	}
	run := &cobra.Command{
		Use:   "run",
		Short: "Render one batch (optionally on a cron schedule)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(f)
		},
	}

	run.Flags().StringVar(&f.videos, "videos", "", "video source folder (local dir or bucket subfolder)")
	run.Flags().StringVar(&f.audios, "audios", "", "audio source folder (local dir or bucket subfolder)")
	run.Flags().StringVar(&f.captions, "captions", "", "CSV of caption combinations, one combination per row")
	run.Flags().StringVarP(&f.output, "output", "o", "./output", "output directory")
	run.Flags().StringVar(&f.workDir, "workdir", os.TempDir(), "scratch directory for fetched sources")

	run.Flags().StringVar(&f.mode, "mode", batch.ModeAll, "job selection: all, unique or diverse")
	run.Flags().IntVar(&f.want, "want", 10, "number of combinations to build in unique mode")
	run.Flags().IntVar(&f.targetN, "target", 10, "number of combinations to select in diverse mode")

	def := config.DefaultProcessing()
	run.Flags().StringVar(&f.position, "position", string(def.Position), "caption position: center, top or bottom")
	run.Flags().Float64Var(&f.marginPct, "margin", def.MarginPct, "caption margin as a fraction of canvas size")
	run.Flags().StringVar(&f.duration, "duration-policy", string(def.DurationPolicy), "output duration: shortest, audio, video or fixed")
	run.Flags().Float64Var(&f.fixedSeconds, "fixed-seconds", def.FixedSeconds, "output length when --duration-policy=fixed")
	run.Flags().IntVar(&f.width, "width", def.CanvasWidth, "canvas width")
	run.Flags().IntVar(&f.height, "height", def.CanvasHeight, "canvas height")
	run.Flags().StringVar(&f.fit, "fit", string(def.FitMode), "source fit: cover, contain, zoom or stretch")
	run.Flags().IntVar(&f.gainDB, "gain", def.MusicGainDB, "audio gain in dB")
	run.Flags().BoolVar(&f.mixAudio, "mix-audio", def.MixAudio, "mix the track with the video's own audio instead of replacing it")
	run.Flags().StringVar(&f.preset, "preset", def.Preset, "caption style preset (clean, bold, subtle, yellow, shadow)")
	run.Flags().IntVar(&f.outlinePx, "outline", def.OutlinePx, "caption outline width in pixels")
	run.Flags().Float64Var(&f.fontsizeRatio, "fontsize-ratio", def.FontsizeRatio, "font size as a fraction of canvas height")

	run.Flags().BoolVar(&f.checkDuplicates, "check-duplicates", false, "warn about visually identical source videos")
	run.Flags().BoolVar(&f.local, "local", false, "use local folders even when S3 is configured")
	run.Flags().StringVar(&f.every, "every", "", "cron spec to re-run the batch on a schedule")

	cmd.AddCommand(run)
	return cmd
}

func runBatch(f *flags) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	log, err := logging.New(settings.ErrorsLogPath)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("shutdown signal received")
		cancel()
	}()

	if err := media.CheckEnvironment(); err != nil {
		return err
	}
	fontProv := fonts.NewSystemProvider(settings.TextFontPath, settings.EmojiFontPath)
	if _, err := fontProv.TextFontPath(); err != nil {
		return err
	}
	if _, err := fontProv.EmojiFontPath(); err != nil {
		return err
	}

	cfg := config.ProcessingConfig{
		Position:       config.Position(f.position),
		MarginPct:      f.marginPct,
		DurationPolicy: config.DurationPolicy(f.duration),
		FixedSeconds:   f.fixedSeconds,
		CanvasWidth:    f.width,
		CanvasHeight:   f.height,
		FitMode:        config.FitMode(f.fit),
		MusicGainDB:    f.gainDB,
		MixAudio:       f.mixAudio,
		Preset:         f.preset,
		OutlinePx:      f.outlinePx,
		FontsizeRatio:  f.fontsizeRatio,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lib, videosSub, audiosSub, err := buildLibrary(ctx, settings, f, log)
	if err != nil {
		return err
	}

	var sink report.Sink = &report.ConsoleSink{Log: log}
	if settings.TelegramConfigured() {
		tg, err := report.NewTelegramSink(settings.TelegramToken, settings.TelegramChatID, log)
		if err != nil {
			log.Warnf("telegram reporting disabled: %v", err)
		} else {
			sink = report.MultiSink{sink, tg}
		}
	}

	prober := media.NewProber()
	pipeline := render.NewPipeline(log, prober, fontProv, mux.New(log, prober), cfg)
	runner := batch.NewRunner(log, lib, pipeline, sink, batch.Options{
		VideosSubfolder: videosSub,
		AudiosSubfolder: audiosSub,
		CaptionsCSV:     f.captions,
		OutputDir:       f.output,
		WorkDir:         f.workDir,
		Mode:            f.mode,
		Want:            f.want,
		TargetN:         f.targetN,
		CheckDuplicates: f.checkDuplicates,
	})

	if f.every == "" {
		_, err := runner.Run(ctx)
		return err
	}
	return runScheduled(ctx, log, runner, f.every)
}

// runScheduled re-runs the batch on a cron spec until the context is
// cancelled. Overlapping runs are skipped, not queued.
func runScheduled(ctx context.Context, log *logging.Logger, runner *batch.Runner, spec string) error {
	running := make(chan struct{}, 1)
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		select {
		case running <- struct{}{}:
		default:
			log.Warnf("previous batch still running, skipping this tick")
			return
		}
		defer func() { <-running }()
		if _, err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("scheduled batch: %v", err)
		}
	})
	if err != nil {
		return err
	}
	log.Infof("scheduled batch every %q", spec)
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

func buildLibrary(ctx context.Context, settings config.Settings, f *flags, log *logging.Logger) (storage.Library, string, string, error) {
	if !f.local && settings.S3Configured() {
		if err := settings.ValidateS3(); err != nil {
			return nil, "", "", err
		}
		lib, err := storage.NewS3Library(ctx, settings)
		if err != nil {
			return nil, "", "", err
		}
		log.Infof("using S3 bucket %s", settings.S3Bucket)
		return lib, f.videos, f.audios, nil
	}
	videos := f.videos
	if videos == "" {
		videos = "./videos"
	}
	audios := f.audios
	if audios == "" {
		audios = "./audios"
	}
	return &storage.Local{VideosDir: videos, AudiosDir: audios, OutputDir: f.output}, "", "", nil
}
