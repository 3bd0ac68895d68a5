// Package fonts resolves the text and emoji fonts the caption renderer
// draws with. Resolution is platform-aware so the rendering code never
// branches on OS.
package fonts

import (
	"fmt"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// Provider resolves font file paths. Implementations must be safe to
// call repeatedly; resolution happens once at startup.
type Provider interface {
	// TextFontPath returns a readable path to the caption text font.
	TextFontPath() (string, error)
	// EmojiFontPath returns a readable path to a platform emoji font.
	// Missing emoji font is fatal configuration.
	EmojiFontPath() (string, error)
}

var emojiCandidates = map[string][]string{
	"windows": {
		"C:/Windows/Fonts/seguiemj.ttf",
		"C:/Windows/Fonts/SegoeUIEmoji.ttf",
	},
	"darwin": {
		"/System/Library/Fonts/Apple Color Emoji.ttc",
	},
	"linux": {
		"/usr/share/fonts/truetype/noto/NotoColorEmoji.ttf",
		"/usr/share/fonts/noto/NotoColorEmoji.ttf",
	},
}

var textCandidates = map[string][]string{
	"windows": {
		"C:/Windows/Fonts/inter.ttf",
		"C:/Windows/Fonts/Inter-VariableFont_slnt,wght.ttf",
		"C:/Windows/Fonts/Arial.ttf",
	},
	"darwin": {
		"/System/Library/Fonts/Supplemental/Arial.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
	},
	"linux": {
		"/usr/share/fonts/truetype/inter/Inter-Regular.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
	},
}

// SystemProvider resolves fonts from well-known OS paths, with optional
// explicit overrides taking precedence.
type SystemProvider struct {
	TextOverride  string
	EmojiOverride string
	goos          string
}

func NewSystemProvider(textOverride, emojiOverride string) *SystemProvider {
	return &SystemProvider{TextOverride: textOverride, EmojiOverride: emojiOverride, goos: runtime.GOOS}
}

func (p *SystemProvider) platform() string {
	switch p.goos {
	case "windows", "darwin":
		return p.goos
	default:
		return "linux"
	}
}

func (p *SystemProvider) TextFontPath() (string, error) {
	if p.TextOverride != "" {
		if fileExists(p.TextOverride) {
			return p.TextOverride, nil
		}
		return "", errors.Errorf("text font not found: %s", p.TextOverride)
	}
	for _, c := range textCandidates[p.platform()] {
		if fileExists(c) {
			return c, nil
		}
	}
	// Fall back to the emoji font so text still renders somewhere.
	return p.EmojiFontPath()
}

func (p *SystemProvider) EmojiFontPath() (string, error) {
	if p.EmojiOverride != "" {
		if fileExists(p.EmojiOverride) {
			return p.EmojiOverride, nil
		}
		return "", errors.Errorf("emoji font not found: %s", p.EmojiOverride)
	}
	for _, c := range emojiCandidates[p.platform()] {
		if fileExists(c) {
			return c, nil
		}
	}
	// Any platform's font will do if the host has one installed.
	for _, list := range emojiCandidates {
		for _, c := range list {
			if fileExists(c) {
				return c, nil
			}
		}
	}
	return "", errors.New("no emoji font found; install Segoe UI Emoji (Windows) or Noto Color Emoji (Linux)")
}

// LoadFace parses a font file and builds a face at the given pixel
// size.
func LoadFace(path string, size float64) (font.Face, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read font %s", path)
	}
	f, err := opentype.Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "parse font %s", path)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "build face %s", path)
	}
	return face, nil
}

// Signature identifies a (text font, emoji font, size) combination for
// cache keying.
func Signature(textPath, emojiPath string, size int) string {
	return fmt.Sprintf("%s|%s|%d", textPath, emojiPath, size)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
