package compositor

import (
	"image"
	"testing"

	"github.com/Pimboto/VideoLab/internal/config"
	"github.com/Pimboto/VideoLab/internal/textlayout"
)

// solidFrame fills every pixel with one BGRA value.
func solidFrame(w, h int, b, g, r uint8) *Frame {
	f := NewFrame(w, h)
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i] = b
		f.Pix[i+1] = g
		f.Pix[i+2] = r
	}
	return f
}

// solidBitmap is a caption bitmap with uniform color and alpha.
func solidBitmap(w, h int, b, g, r, a uint8) *textlayout.GlyphBitmap {
	bmp := textlayout.Blank(w, h)
	for i := 0; i < len(bmp.Pix); i += 4 {
		bmp.Pix[i] = b
		bmp.Pix[i+1] = g
		bmp.Pix[i+2] = r
		bmp.Pix[i+3] = a
	}
	return bmp
}

func TestResizeDimensions(t *testing.T) {
	cases := []struct {
		name       string
		srcW, srcH int
		mode       config.FitMode
	}{
		{"cover landscape to portrait", 1920, 1080, config.FitCover},
		{"cover portrait to portrait", 720, 1280, config.FitCover},
		{"zoom behaves like cover", 640, 480, config.FitZoom},
		{"contain letterboxes", 1920, 1080, config.FitContain},
		{"stretch", 333, 777, config.FitMode("stretch")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := solidFrame(tc.srcW, tc.srcH, 10, 20, 30)
			got := Resize(src, 1080, 1920, tc.mode)
			if got.Width != 1080 || got.Height != 1920 {
				t.Fatalf("got %dx%d, want 1080x1920", got.Width, got.Height)
			}
			if len(got.Pix) != 1080*1920*4 {
				t.Fatalf("pix length %d, want %d", len(got.Pix), 1080*1920*4)
			}
		})
	}
}

func TestResizeSameSizeIsNoop(t *testing.T) {
	src := solidFrame(64, 64, 1, 2, 3)
	if got := Resize(src, 64, 64, config.FitCover); got != src {
		t.Fatal("expected the same frame back when dimensions already match")
	}
}

func TestResizeContainKeepsBars(t *testing.T) {
	// A white 16:9 source into a 9:16 canvas leaves black bars above
	// and below.
	src := solidFrame(1920, 1080, 255, 255, 255)
	got := Resize(src, 1080, 1920, config.FitContain)
	if got.Pix[0] != 0 || got.Pix[1] != 0 || got.Pix[2] != 0 {
		t.Fatalf("top-left should be black, got %v", got.Pix[:4])
	}
	mid := ((1920/2)*1080 + 1080/2) * 4
	if got.Pix[mid] != 255 {
		t.Fatalf("center should be white, got %v", got.Pix[mid:mid+4])
	}
}

func TestCaptionIndex(t *testing.T) {
	cases := []struct {
		name    string
		t       float64
		segDur  float64
		n       int
		want    int
	}{
		{"first segment", 0, 2.5, 4, 0},
		{"just before boundary", 2.49, 2.5, 4, 0},
		{"on boundary", 2.5, 2.5, 4, 1},
		{"last segment", 9.9, 2.5, 4, 3},
		{"past the end clamps", 50, 2.5, 4, 3},
		{"negative time clamps", -1, 2.5, 4, 0},
		{"zero segments", 5, 2.5, 0, 0},
		{"zero segment duration", 5, 0, 4, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CaptionIndex(tc.t, tc.segDur, tc.n); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOverlayOpaque(t *testing.T) {
	frame := solidFrame(100, 100, 0, 0, 0)
	bmp := solidBitmap(10, 10, 50, 100, 150, 255)
	Overlay(frame, bmp, config.PositionCenter, 0, nil)

	off := (50*100 + 50) * 4
	if frame.Pix[off] != 50 || frame.Pix[off+1] != 100 || frame.Pix[off+2] != 150 {
		t.Fatalf("center pixel %v, want [50 100 150]", frame.Pix[off:off+3])
	}
	// Corners untouched.
	if frame.Pix[0] != 0 {
		t.Fatalf("corner pixel modified: %v", frame.Pix[:4])
	}
}

func TestOverlayBlendsAlpha(t *testing.T) {
	frame := solidFrame(20, 20, 0, 0, 0)
	bmp := solidBitmap(20, 20, 200, 200, 200, 128)
	Overlay(frame, bmp, config.PositionCenter, 0, nil)

	// 0*(1-128/255) + 200*(128/255) = 100 (integer math rounds down).
	got := frame.Pix[0]
	if got < 99 || got > 101 {
		t.Fatalf("blended value %d, want ~100", got)
	}
}

func TestOverlayPositions(t *testing.T) {
	bmp := solidBitmap(10, 10, 255, 255, 255, 255)

	top := solidFrame(100, 100, 0, 0, 0)
	Overlay(top, bmp, config.PositionTop, 0.1, nil)
	if top.Pix[((10)*100+50)*4] != 255 {
		t.Fatal("top placement missing at margin row")
	}

	bottom := solidFrame(100, 100, 0, 0, 0)
	Overlay(bottom, bmp, config.PositionBottom, 0.1, nil)
	if bottom.Pix[((85)*100+50)*4] != 255 {
		t.Fatal("bottom placement missing above margin row")
	}
}

func TestOverlayExplicitPoint(t *testing.T) {
	frame := solidFrame(100, 100, 0, 0, 0)
	bmp := solidBitmap(10, 10, 255, 255, 255, 255)
	at := image.Pt(5, 7)
	Overlay(frame, bmp, config.PositionCenter, 0.5, &at)
	if frame.Pix[((7)*100+5)*4] != 255 {
		t.Fatal("explicit anchor not honored")
	}
}

func TestOverlayShrinksOversizedBitmap(t *testing.T) {
	frame := solidFrame(50, 50, 0, 0, 0)
	bmp := solidBitmap(200, 40, 255, 255, 255, 255)
	Overlay(frame, bmp, config.PositionCenter, 0, nil)

	// Scaled to fit with headroom, so the edges stay clear.
	if frame.Pix[(25*50)*4] != 0 {
		t.Fatal("left edge should stay black after downscale")
	}
	center := (25*50 + 25) * 4
	if frame.Pix[center] != 255 {
		t.Fatal("center should carry the caption")
	}
}

func TestNewFrameOpaqueBlack(t *testing.T) {
	f := NewFrame(4, 4)
	for i := 0; i < len(f.Pix); i += 4 {
		if f.Pix[i] != 0 || f.Pix[i+1] != 0 || f.Pix[i+2] != 0 || f.Pix[i+3] != 0xFF {
			t.Fatalf("pixel %d not opaque black: %v", i/4, f.Pix[i:i+4])
		}
	}
}
