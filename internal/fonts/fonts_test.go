package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func writeFont(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	return path
}

func TestOverridesTakePrecedence(t *testing.T) {
	path := writeFont(t)
	p := &SystemProvider{TextOverride: path, EmojiOverride: path, goos: "linux"}

	if got, err := p.TextFontPath(); err != nil || got != path {
		t.Fatalf("text: got (%q, %v), want %q", got, err, path)
	}
	if got, err := p.EmojiFontPath(); err != nil || got != path {
		t.Fatalf("emoji: got (%q, %v), want %q", got, err, path)
	}
}

func TestMissingOverrideFails(t *testing.T) {
	p := &SystemProvider{TextOverride: "/nope/absent.ttf", goos: "linux"}
	if _, err := p.TextFontPath(); err == nil {
		t.Fatal("expected an error for a missing override")
	}
	p = &SystemProvider{EmojiOverride: "/nope/absent.ttf", goos: "linux"}
	if _, err := p.EmojiFontPath(); err == nil {
		t.Fatal("expected an error for a missing emoji override")
	}
}

func TestPlatformNormalization(t *testing.T) {
	cases := []struct{ goos, want string }{
		{"windows", "windows"},
		{"darwin", "darwin"},
		{"linux", "linux"},
		{"freebsd", "linux"},
	}
	for _, tc := range cases {
		p := &SystemProvider{goos: tc.goos}
		if got := p.platform(); got != tc.want {
			t.Fatalf("platform(%q) = %q, want %q", tc.goos, got, tc.want)
		}
	}
}

func TestLoadFace(t *testing.T) {
	path := writeFont(t)
	face, err := LoadFace(path, 24)
	if err != nil {
		t.Fatalf("load face: %v", err)
	}
	if face == nil {
		t.Fatal("nil face")
	}

	if _, err := LoadFace(filepath.Join(t.TempDir(), "absent.ttf"), 24); err == nil {
		t.Fatal("expected an error for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFace(bad, 24); err == nil {
		t.Fatal("expected a parse error for garbage bytes")
	}
}

func TestSignature(t *testing.T) {
	a := Signature("/t.ttf", "/e.ttf", 42)
	b := Signature("/t.ttf", "/e.ttf", 43)
	if a == b {
		t.Fatal("size must change the signature")
	}
	if a != Signature("/t.ttf", "/e.ttf", 42) {
		t.Fatal("signature must be deterministic")
	}
}
