package render

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/icza/mjpeg"
	"github.com/pkg/errors"

	"github.com/Pimboto/VideoLab/internal/compositor"
	"github.com/Pimboto/VideoLab/internal/logging"
)

// FrameWriter consumes composited frames and produces the silent video
// file the muxer finishes off.
type FrameWriter interface {
	WriteFrame(f *compositor.Frame) error
	Close() error
}

// encoderLadder is the ordered codec fallback list; if none of these
// encoders is available the writer falls back to an in-process MJPEG
// AVI.
var encoderLadder = []string{"libx264", "mpeg4"}

var (
	encoderMu    sync.Mutex
	encoderKnown = map[string]bool{}
)

// encoderAvailable runs a tiny null encode once per process to check
// whether the ffmpeg build carries the encoder.
func encoderAvailable(codec string) bool {
	encoderMu.Lock()
	defer encoderMu.Unlock()
	if ok, seen := encoderKnown[codec]; seen {
		return ok
	}
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=c=black:s=64x64:d=0.1",
		"-c:v", codec, "-f", "null", "-",
	)
	ok := cmd.Run() == nil
	encoderKnown[codec] = ok
	return ok
}

// OpenWriter opens a frame writer for the given canvas, trying the
// encoder ladder and falling back to MJPEG AVI. It returns the actual
// output path, which may carry a different extension than requested.
func OpenWriter(ctx context.Context, log *logging.Logger, outPath string, width, height int, fps float64) (FrameWriter, string, error) {
	for _, codec := range encoderLadder {
		if !encoderAvailable(codec) {
			log.Warnf("render: encoder %s unavailable, trying next", codec)
			continue
		}
		w, err := openFFmpegWriter(ctx, outPath, width, height, fps, codec)
		if err != nil {
			log.Warnf("render: writer %s failed to open: %v", codec, err)
			continue
		}
		return w, outPath, nil
	}

	aviPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".avi"
	log.Warnf("render: no ffmpeg encoder usable, writing MJPEG AVI %s", filepath.Base(aviPath))
	w, err := openMJPEGWriter(aviPath, width, height, fps)
	if err != nil {
		return nil, "", errors.Wrap(err, "could not initialize any video writer")
	}
	return w, aviPath, nil
}

type ffmpegWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	closed bool
}

func openFFmpegWriter(ctx context.Context, outPath string, width, height int, fps float64, codec string) (*ffmpegWriter, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "bgra",
		"-s", strconv.Itoa(width)+"x"+strconv.Itoa(height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "-",
		"-an",
		"-c:v", codec,
		"-pix_fmt", "yuv420p",
		"-y",
		outPath,
	)
	w := &ffmpegWriter{cmd: cmd}
	cmd.Stderr = &w.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "writer stdin pipe")
	}
	w.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "start %s writer", codec)
	}
	return w, nil
}

func (w *ffmpegWriter) WriteFrame(f *compositor.Frame) error {
	if _, err := w.stdin.Write(f.Pix); err != nil {
		// stderr belongs to the running process until Wait returns;
		// Close surfaces its contents.
		return errors.Wrap(err, "write frame")
	}
	return nil
}

func (w *ffmpegWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		msg := strings.TrimSpace(w.stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return errors.Errorf("finalize video: %s", msg)
	}
	return nil
}

// mjpegWriter is the last-resort writer: always available, no external
// encoder needed.
type mjpegWriter struct {
	avi    mjpeg.AviWriter
	width  int
	height int
	closed bool
}

func openMJPEGWriter(path string, width, height int, fps float64) (*mjpegWriter, error) {
	rate := int32(fps + 0.5)
	if rate < 1 {
		rate = 1
	}
	avi, err := mjpeg.New(path, int32(width), int32(height), rate)
	if err != nil {
		return nil, err
	}
	return &mjpegWriter{avi: avi, width: width, height: height}, nil
}

func (w *mjpegWriter) WriteFrame(f *compositor.Frame) error {
	// BGRA back to RGBA for the JPEG encoder.
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i+3 < len(f.Pix); i += 4 {
		img.Pix[i] = f.Pix[i+2]
		img.Pix[i+1] = f.Pix[i+1]
		img.Pix[i+2] = f.Pix[i]
		img.Pix[i+3] = 0xFF
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return errors.Wrap(err, "encode frame")
	}
	return w.avi.AddFrame(buf.Bytes())
}

func (w *mjpegWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.avi.Close()
}
