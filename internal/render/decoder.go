package render

import (
	"bytes"
	"context"
	"io"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/Pimboto/VideoLab/internal/compositor"
)

// Decoder streams raw BGRA frames out of a video file through an
// ffmpeg pipe, one ReadFrame call per frame.
type Decoder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	width  int
	height int
	buf    []byte
	closed bool
}

// OpenDecoder starts the decode process for a source already probed to
// width x height.
func OpenDecoder(ctx context.Context, path string, width, height int) (*Decoder, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "bgra",
		"-",
	)
	d := &Decoder{cmd: cmd, width: width, height: height, buf: make([]byte, width*height*4)}
	cmd.Stderr = &d.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "decoder stdout pipe")
	}
	d.stdout = stdout

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "start decoder for %s", path)
	}
	return d, nil
}

// ReadFrame returns the next frame, or io.EOF when the source is
// exhausted. The returned frame owns its buffer.
func (d *Decoder) ReadFrame() (*compositor.Frame, error) {
	if _, err := io.ReadFull(d.stdout, d.buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "read frame")
	}
	pix := make([]byte, len(d.buf))
	copy(pix, d.buf)
	return &compositor.Frame{Pix: pix, Width: d.width, Height: d.height}, nil
}

// Close terminates the decode process. Safe to call on every exit
// path, including mid-stream when the frame budget ends before the
// source does.
func (d *Decoder) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.stdout.Close()
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.cmd.Wait()
}
