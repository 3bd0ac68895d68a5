package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001},
		{"25", 25},
		{"", 30},
		{"garbage", 30},
		{"0/0", 30},
		{"-5/1", 30},
		{"120/1", 60},
		{"240", 60},
	}
	for _, tc := range cases {
		if got := parseFrameRate(tc.in); got != tc.want {
			t.Fatalf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStem(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/data/Clip_One.MP4", "clip_one"},
		{"beat.mp3", "beat"},
		{"videos/nested/My Video.mov", "my video"},
		{"noext", "noext"},
	}
	for _, tc := range cases {
		if got := Stem(tc.in); got != tc.want {
			t.Fatalf("Stem(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.MOV", "song.mp3", "notes.txt", "c.mkv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.mp4"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := ListFiles(dir, VideoExtensions)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 videos, got %v", got)
	}
	// Sorted, extension matching is case-insensitive, directories skipped.
	if filepath.Base(got[0]) != "a.MOV" || filepath.Base(got[1]) != "b.mp4" || filepath.Base(got[2]) != "c.mkv" {
		t.Fatalf("unexpected order: %v", got)
	}

	audio, err := ListFiles(dir, AudioExtensions)
	if err != nil {
		t.Fatalf("list audio: %v", err)
	}
	if len(audio) != 1 || filepath.Base(audio[0]) != "song.mp3" {
		t.Fatalf("unexpected audio listing: %v", audio)
	}
}

func TestListFilesMissingFolder(t *testing.T) {
	got, err := ListFiles(filepath.Join(t.TempDir(), "absent"), VideoExtensions)
	if err != nil {
		t.Fatalf("missing folder should not error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil listing, got %v", got)
	}
}
