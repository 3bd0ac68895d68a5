package textlayout

import "image/color"

// Style is a (text color, outline color, outline width) triple.
type Style struct {
	TextColor    color.RGBA
	OutlineColor color.RGBA
	OutlineWidth int
}

var presets = map[string]Style{
	"clean":  {TextColor: color.RGBA{255, 255, 255, 255}, OutlineColor: color.RGBA{0, 0, 0, 255}, OutlineWidth: 0},
	"bold":   {TextColor: color.RGBA{255, 255, 255, 255}, OutlineColor: color.RGBA{0, 0, 0, 255}, OutlineWidth: 3},
	"subtle": {TextColor: color.RGBA{255, 255, 255, 255}, OutlineColor: color.RGBA{128, 128, 128, 255}, OutlineWidth: 1},
	"yellow": {TextColor: color.RGBA{255, 255, 0, 255}, OutlineColor: color.RGBA{0, 0, 0, 255}, OutlineWidth: 2},
	"shadow": {TextColor: color.RGBA{255, 255, 255, 255}, OutlineColor: color.RGBA{50, 50, 50, 255}, OutlineWidth: 2},
}

// Default colors for explicitly-styled (non-preset) rendering.
var (
	DefaultTextColor    = color.RGBA{255, 255, 255, 255}
	DefaultOutlineColor = color.RGBA{0, 0, 0, 255}
)

// defaultStyle is the bold-like fallback: white fill, black outline.
var defaultStyle = Style{
	TextColor:    color.RGBA{255, 255, 255, 255},
	OutlineColor: color.RGBA{0, 0, 0, 255},
	OutlineWidth: 2,
}

// PresetStyle looks up a named preset. The second return reports
// whether the name was recognized; callers log when it was not, the
// style still falls back to the default rather than failing the batch.
func PresetStyle(name string) (Style, bool) {
	if s, ok := presets[name]; ok {
		return s, true
	}
	return defaultStyle, false
}
