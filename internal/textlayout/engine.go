// Package textlayout rasterizes caption text into bitmaps the frame
// compositor blends onto video frames. Text and emoji runs are measured
// and drawn with separate fonts; results are cached per (text, width).
package textlayout

import (
	"fmt"
	"image"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/Pimboto/VideoLab/internal/fonts"
	"github.com/Pimboto/VideoLab/internal/logging"
)

const (
	// lineGap is the fixed vertical spacing between wrapped lines.
	lineGap = 5
	// cacheEntries bounds the render cache; entries larger than
	// maxCachedBytes bypass it entirely.
	cacheEntries   = 128
	maxCachedBytes = 50 * 1024 * 1024
)

// GlyphBitmap is a rasterized caption in the pipeline's BGRA byte
// order. Entries are pure functions of (text, maxWidth, font
// signature): safe to recompute, never stale.
type GlyphBitmap struct {
	Pix    []byte // BGRA, 4 bytes per pixel, row-major
	Width  int
	Height int
}

// Blank returns a fully transparent placeholder bitmap. Substituted
// when one segment fails to rasterize so the job can continue.
func Blank(w, h int) *GlyphBitmap {
	return &GlyphBitmap{Pix: make([]byte, w*h*4), Width: w, Height: h}
}

// Engine lays out and rasterizes captions. One engine per job: the
// cache and font faces are not safe for concurrent use.
type Engine struct {
	log       *logging.Logger
	textFace  font.Face
	emojiFace font.Face
	fontSize  int
	style     Style
	signature string
	cache     *lru.Cache[string, *GlyphBitmap]
}

// Options configures an Engine beyond the font size.
type Options struct {
	Preset    string // named style; empty or "none" keeps Style
	Style     Style  // used when Preset is empty/none
	TextPath  string // resolved font paths; empty means resolve via provider
	EmojiPath string
}

// NewEngine resolves fonts through the provider and builds the faces at
// fontSize pixels. A missing emoji font is a fatal configuration error.
func NewEngine(log *logging.Logger, provider fonts.Provider, fontSize int, opts Options) (*Engine, error) {
	style := opts.Style
	if style == (Style{}) {
		style = defaultStyle
	}
	if opts.Preset != "" && opts.Preset != "none" {
		s, known := PresetStyle(opts.Preset)
		if !known {
			log.Warnf("textlayout: unknown preset %q, using default style", opts.Preset)
		}
		style = s
	}

	textPath := opts.TextPath
	emojiPath := opts.EmojiPath
	var err error
	if emojiPath == "" {
		if emojiPath, err = provider.EmojiFontPath(); err != nil {
			return nil, err
		}
	}
	if textPath == "" {
		if textPath, err = provider.TextFontPath(); err != nil {
			return nil, err
		}
	}

	textFace, err := fonts.LoadFace(textPath, float64(fontSize))
	if err != nil {
		return nil, errors.Wrap(err, "load text font")
	}
	emojiFace, err := fonts.LoadFace(emojiPath, float64(fontSize))
	if err != nil {
		// Color emoji fonts are not always parseable as outlines;
		// render emoji with the text face rather than failing.
		log.Warnf("textlayout: emoji font %s unusable (%v), falling back to text font", emojiPath, err)
		emojiFace = textFace
	}

	cache, err := lru.New[string, *GlyphBitmap](cacheEntries)
	if err != nil {
		return nil, errors.Wrap(err, "build render cache")
	}

	return &Engine{
		log:       log,
		textFace:  textFace,
		emojiFace: emojiFace,
		fontSize:  fontSize,
		style:     style,
		signature: fonts.Signature(textPath, emojiPath, fontSize),
		cache:     cache,
	}, nil
}

func (e *Engine) face(emoji bool) font.Face {
	if emoji {
		return e.emojiFace
	}
	return e.textFace
}

type measuredRun struct {
	run
	width   int // horizontal advance
	descent int // pixels the glyph extends below the baseline
	height  int // ink height
}

type measuredLine struct {
	runs   []measuredRun
	width  int
	height int
}

func (e *Engine) measureLine(line string) measuredLine {
	var ml measuredLine
	for _, r := range splitRuns(line) {
		if r.text == "" {
			continue
		}
		face := e.face(r.emoji)
		bounds, adv := font.BoundString(face, r.text)
		mr := measuredRun{
			run:     r,
			width:   adv.Ceil(),
			descent: bounds.Max.Y.Ceil(),
			height:  (bounds.Max.Y - bounds.Min.Y).Ceil(),
		}
		ml.runs = append(ml.runs, mr)
		ml.width += mr.width
		if mr.height > ml.height {
			ml.height = mr.height
		}
	}
	return ml
}

// wrap breaks text at word boundaries once the measured line width
// exceeds maxWidth. A single word wider than maxWidth is emitted alone
// rather than split.
func (e *Engine) wrap(text string, maxWidth int) []string {
	var lines []string
	cur := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if e.measureLine(candidate).width <= maxWidth {
			cur = candidate
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// Render rasterizes one caption segment, wrapped to maxWidth, into a
// BGRA bitmap. maxWidth <= 0 disables wrapping.
func (e *Engine) Render(text string, maxWidth int) (*GlyphBitmap, error) {
	key := fmt.Sprintf("%s\x00%d\x00%s", text, maxWidth, e.signature)
	if bmp, ok := e.cache.Get(key); ok {
		return bmp, nil
	}

	lines := []string{text}
	if maxWidth > 0 {
		if wrapped := e.wrap(text, maxWidth); len(wrapped) > 0 {
			lines = wrapped
		}
	}

	measured := make([]measuredLine, 0, len(lines))
	maxLineW, totalH := 0, 0
	for _, line := range lines {
		ml := e.measureLine(line)
		measured = append(measured, ml)
		if ml.width > maxLineW {
			maxLineW = ml.width
		}
		totalH += ml.height + lineGap
	}
	if maxLineW == 0 || totalH == 0 {
		return nil, errors.Errorf("nothing to render for %q", text)
	}

	padding := e.style.OutlineWidth*2 + 10
	w := maxLineW + padding*2
	h := totalH + padding*2
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))

	emojiOffset := e.fontSize / 10

	y := padding
	for _, ml := range measured {
		// Center the line inside the widest line.
		x := padding + (maxLineW-ml.width)/2
		lineBottom := y + ml.height
		for _, mr := range ml.runs {
			face := e.face(mr.emoji)
			// Anchor the glyph's ink bottom on the line bottom.
			dotY := lineBottom - mr.descent
			if mr.emoji {
				// Emoji sit slightly low relative to text metrics.
				dotY += emojiOffset
			}
			dot := fixed.P(x, dotY)

			if !mr.emoji && e.style.OutlineWidth > 0 {
				outline := image.NewUniform(e.style.OutlineColor)
				for dx := -e.style.OutlineWidth; dx <= e.style.OutlineWidth; dx++ {
					for dy := -e.style.OutlineWidth; dy <= e.style.OutlineWidth; dy++ {
						if dx == 0 && dy == 0 {
							continue
						}
						d := font.Drawer{Dst: canvas, Src: outline, Face: face, Dot: fixed.P(x+dx, dotY+dy)}
						d.DrawString(mr.text)
					}
				}
			}
			d := font.Drawer{Dst: canvas, Src: image.NewUniform(e.style.TextColor), Face: face, Dot: dot}
			d.DrawString(mr.text)

			x += mr.width
		}
		y += ml.height + lineGap
	}

	bmp := toBGRA(canvas)
	if len(bmp.Pix) < maxCachedBytes {
		e.cache.Add(key, bmp)
	}
	return bmp, nil
}

// toBGRA swaps the canvas into the compositor's BGRA byte order.
func toBGRA(img *image.RGBA) *GlyphBitmap {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	for row := 0; row < h; row++ {
		src := img.Pix[row*img.Stride : row*img.Stride+w*4]
		dst := out[row*w*4 : (row+1)*w*4]
		for i := 0; i < w*4; i += 4 {
			dst[i] = src[i+2]   // B
			dst[i+1] = src[i+1] // G
			dst[i+2] = src[i]   // R
			dst[i+3] = src[i+3] // A
		}
	}
	return &GlyphBitmap{Pix: out, Width: w, Height: h}
}
