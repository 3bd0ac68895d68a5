// Package compositor resizes decoded frames onto the output canvas and
// blends the active caption bitmap in. Frames are raw BGRA byte
// buffers, the byte order the decode/encode pipes carry.
package compositor

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/Pimboto/VideoLab/internal/config"
	"github.com/Pimboto/VideoLab/internal/textlayout"
)

// Frame is one decoded video frame in BGRA order.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// NewFrame allocates a black frame.
func NewFrame(w, h int) *Frame {
	f := &Frame{Pix: make([]byte, w*h*4), Width: w, Height: h}
	for i := 3; i < len(f.Pix); i += 4 {
		f.Pix[i] = 0xFF
	}
	return f
}

// rgba wraps the frame buffer as an image.RGBA for the x/image
// scalers. Channel naming does not matter to interpolation, so BGRA
// bytes pass through unchanged.
func (f *Frame) rgba() *image.RGBA {
	return &image.RGBA{Pix: f.Pix, Stride: f.Width * 4, Rect: image.Rect(0, 0, f.Width, f.Height)}
}

// Resize maps the frame onto an outW x outH canvas per the fit mode.
// cover and zoom scale to fully cover and center-crop the overflow;
// contain letterboxes; anything else stretches.
func Resize(f *Frame, outW, outH int, mode config.FitMode) *Frame {
	if f.Width == outW && f.Height == outH {
		return f
	}
	if f.Width <= 0 || f.Height <= 0 {
		return NewFrame(outW, outH)
	}
	switch mode {
	case config.FitCover, config.FitZoom:
		return resizeCover(f, outW, outH)
	case config.FitContain:
		return resizeContain(f, outW, outH)
	default:
		return scale(f, outW, outH)
	}
}

func scale(f *Frame, w, h int) *Frame {
	dst := NewFrame(w, h)
	xdraw.ApproxBiLinear.Scale(dst.rgba(), dst.rgba().Rect, f.rgba(), f.rgba().Rect, xdraw.Src, nil)
	return dst
}

func resizeCover(f *Frame, outW, outH int) *Frame {
	sx := float64(outW) / float64(f.Width)
	sy := float64(outH) / float64(f.Height)
	s := sx
	if sy > s {
		s = sy
	}
	newW := maxInt(1, int(float64(f.Width)*s+0.5))
	newH := maxInt(1, int(float64(f.Height)*s+0.5))

	scaled := scale(f, newW, newH)
	x0 := maxInt(0, (newW-outW)/2)
	y0 := maxInt(0, (newH-outH)/2)
	cropped := crop(scaled, x0, y0, outW, outH)
	if cropped.Width != outW || cropped.Height != outH {
		return scale(cropped, outW, outH)
	}
	return cropped
}

func resizeContain(f *Frame, outW, outH int) *Frame {
	sx := float64(outW) / float64(f.Width)
	sy := float64(outH) / float64(f.Height)
	s := sx
	if sy < s {
		s = sy
	}
	newW := maxInt(1, int(float64(f.Width)*s+0.5))
	newH := maxInt(1, int(float64(f.Height)*s+0.5))

	scaled := scale(f, newW, newH)
	canvas := NewFrame(outW, outH)
	left := (outW - newW) / 2
	top := (outH - newH) / 2
	for row := 0; row < newH; row++ {
		dy := top + row
		if dy < 0 || dy >= outH {
			continue
		}
		src := scaled.Pix[row*newW*4 : (row+1)*newW*4]
		dstOff := (dy*outW + left) * 4
		copy(canvas.Pix[dstOff:dstOff+newW*4], src)
	}
	return canvas
}

func crop(f *Frame, x0, y0, w, h int) *Frame {
	if x0+w > f.Width {
		w = f.Width - x0
	}
	if y0+h > f.Height {
		h = f.Height - y0
	}
	out := &Frame{Pix: make([]byte, w*h*4), Width: w, Height: h}
	for row := 0; row < h; row++ {
		srcOff := ((y0+row)*f.Width + x0) * 4
		copy(out.Pix[row*w*4:(row+1)*w*4], f.Pix[srcOff:srcOff+w*4])
	}
	return out
}

// CaptionIndex returns the active caption for a frame time: the
// segment floor(t/segDur), clamped to [0, n-1] and never negative.
func CaptionIndex(frameTime, segmentDuration float64, numSegments int) int {
	if numSegments <= 0 {
		return 0
	}
	if segmentDuration <= 0 || frameTime <= 0 {
		return 0
	}
	idx := int(frameTime / segmentDuration)
	if idx > numSegments-1 {
		idx = numSegments - 1
	}
	return idx
}

// Overlay alpha-blends the caption bitmap onto the frame. Anchoring
// follows position with margin = marginPct * canvas dimension; a
// non-nil at overrides the anchor with a raw top-left point. A bitmap
// larger than the frame is scaled down to fit with a 10% safety
// margin.
func Overlay(frame *Frame, bmp *textlayout.GlyphBitmap, position config.Position, marginPct float64, at *image.Point) {
	if bmp == nil || len(bmp.Pix) == 0 {
		return
	}
	fw, fh := frame.Width, frame.Height
	tw, th := bmp.Width, bmp.Height

	if th > fh || tw > fw {
		s := minFloat(float64(fh)/float64(th), float64(fw)/float64(tw)) * 0.9
		bmp = scaleBitmap(bmp, maxInt(1, int(float64(tw)*s)), maxInt(1, int(float64(th)*s)))
		tw, th = bmp.Width, bmp.Height
	}

	var x, y int
	if at != nil {
		x, y = at.X, at.Y
	} else {
		my := int(float64(fh) * marginPct)
		switch position {
		case config.PositionTop:
			x, y = (fw-tw)/2, my
		case config.PositionBottom:
			x, y = (fw-tw)/2, fh-th-my
		default:
			x, y = (fw-tw)/2, (fh-th)/2
		}
	}
	x = clamp(x, 0, fw-tw)
	y = clamp(y, 0, fh-th)

	// Straight per-channel alpha blend.
	for row := 0; row < th; row++ {
		srcOff := row * tw * 4
		dstOff := ((y+row)*fw + x) * 4
		for col := 0; col < tw; col++ {
			so := srcOff + col*4
			do := dstOff + col*4
			a := uint32(bmp.Pix[so+3])
			if a == 0 {
				continue
			}
			inv := 255 - a
			frame.Pix[do] = uint8((uint32(frame.Pix[do])*inv + uint32(bmp.Pix[so])*a) / 255)
			frame.Pix[do+1] = uint8((uint32(frame.Pix[do+1])*inv + uint32(bmp.Pix[so+1])*a) / 255)
			frame.Pix[do+2] = uint8((uint32(frame.Pix[do+2])*inv + uint32(bmp.Pix[so+2])*a) / 255)
		}
	}
}

func scaleBitmap(bmp *textlayout.GlyphBitmap, w, h int) *textlayout.GlyphBitmap {
	src := &image.RGBA{Pix: bmp.Pix, Stride: bmp.Width * 4, Rect: image.Rect(0, 0, bmp.Width, bmp.Height)}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)
	return &textlayout.GlyphBitmap{Pix: dst.Pix, Width: w, Height: h}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
