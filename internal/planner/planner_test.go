package planner

import (
	"math/rand/v2"
	"testing"

	"github.com/Pimboto/VideoLab/internal/caption"
)

// --- Helper builders ---

func videos3() []string {
	return []string{"/data/v1.mp4", "/data/v2.mp4", "/data/v3.mp4"}
}

func audios2() []string {
	return []string{"/data/beat.mp3", "/data/calm.mp3"}
}

func combos2() []caption.Combination {
	return []caption.Combination{
		{"first line", "second line"},
		{"other caption"},
	}
}

func TestBuildCartesianOrderAndCount(t *testing.T) {
	jobs := BuildCartesian(videos3(), audios2(), combos2())
	if len(jobs) != 3*2*2 {
		t.Fatalf("expected 12 jobs, got %d", len(jobs))
	}
	// Videos vary slowest, audios fastest.
	if jobs[0].VideoPath != "/data/v1.mp4" || jobs[0].AudioPath != "/data/beat.mp3" || jobs[0].ComboIndex != 0 {
		t.Fatalf("unexpected first job: %+v", jobs[0])
	}
	if jobs[1].AudioPath != "/data/calm.mp3" || jobs[1].ComboIndex != 0 {
		t.Fatalf("audio should vary fastest: %+v", jobs[1])
	}
	if jobs[2].ComboIndex != 1 {
		t.Fatalf("combo should vary before video: %+v", jobs[2])
	}
	if jobs[4].VideoPath != "/data/v2.mp4" {
		t.Fatalf("video should vary slowest: %+v", jobs[4])
	}
}

func TestBuildCartesianNoAudioNoCaptions(t *testing.T) {
	jobs := BuildCartesian(videos3(), nil, nil)
	if len(jobs) != 3 {
		t.Fatalf("expected one job per video, got %d", len(jobs))
	}
	for _, j := range jobs {
		if j.AudioPath != "" {
			t.Fatalf("expected no audio, got %q", j.AudioPath)
		}
		if len(j.Captions) != 0 {
			t.Fatalf("expected empty captions, got %v", j.Captions)
		}
	}
}

func TestBuildUniqueStaggered(t *testing.T) {
	jobs := BuildUnique(videos3(), nil, combos2(), 5)
	if len(jobs) != 5 {
		t.Fatalf("expected 5 jobs, got %d", len(jobs))
	}
	want := []struct {
		video string
		combo int
	}{
		{"/data/v1.mp4", 0},
		{"/data/v2.mp4", 1},
		{"/data/v3.mp4", 0},
		{"/data/v1.mp4", 1},
		{"/data/v2.mp4", 0},
	}
	for i, w := range want {
		if jobs[i].VideoPath != w.video || jobs[i].ComboIndex != w.combo {
			t.Fatalf("job %d: want (%s, combo %d), got (%s, combo %d)",
				i, w.video, w.combo, jobs[i].VideoPath, jobs[i].ComboIndex)
		}
	}
}

func TestBuildUniqueBalancesVideos(t *testing.T) {
	jobs := BuildUnique(videos3(), audios2(), combos2(), 10)
	if len(jobs) != 10 {
		t.Fatalf("expected 10 jobs, got %d", len(jobs))
	}
	counts := map[string]int{}
	for _, j := range jobs {
		counts[j.VideoPath]++
	}
	for v, n := range counts {
		if n < 3 || n > 4 {
			t.Fatalf("video %s picked %d times, want 3 or 4", v, n)
		}
	}
}

func TestBuildUniqueCapsAtTotal(t *testing.T) {
	jobs := BuildUnique(videos3(), nil, combos2(), 100)
	if len(jobs) != 6 {
		t.Fatalf("expected cap at 3*2=6 jobs, got %d", len(jobs))
	}
	if got := BuildUnique(nil, nil, combos2(), 5); got != nil {
		t.Fatalf("expected nil for zero videos, got %v", got)
	}
}

func TestTokens(t *testing.T) {
	cases := []struct {
		name  string
		job   Job
		base  string
		audio string
		capt  string
	}{
		{
			name:  "full job",
			job:   Job{VideoPath: "/x/Clip_One.MP4", AudioPath: "/x/Beat.mp3", Captions: caption.Combination{"Hello, World!"}},
			base:  "clip_one", audio: "beat", capt: "hello world",
		},
		{
			name: "no audio no captions",
			job:  Job{VideoPath: "/x/v.mp4"},
			base: "v", audio: "noaudio", capt: "text",
		},
		{
			name: "punctuation-only caption",
			job:  Job{VideoPath: "/x/v.mp4", Captions: caption.Combination{"?!..."}},
			base: "v", audio: "noaudio", capt: "text",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base, audio, capt := Tokens(tc.job)
			if base != tc.base || audio != tc.audio || capt != tc.capt {
				t.Fatalf("got (%q, %q, %q), want (%q, %q, %q)",
					base, audio, capt, tc.base, tc.audio, tc.capt)
			}
		})
	}
}

func TestSelectDiverseLengthAndUniqueness(t *testing.T) {
	pool := BuildCartesian(videos3(), audios2(), combos2())
	rng := rand.New(rand.NewPCG(1, 2))
	got := SelectDiverse(pool, 8, DiverseOptions{Rand: rng})
	if len(got) != 8 {
		t.Fatalf("expected 8 jobs, got %d", len(got))
	}
	type jobKey struct {
		video, audio string
		combo        int
	}
	seen := map[jobKey]bool{}
	for _, j := range got {
		key := jobKey{j.VideoPath, j.AudioPath, j.ComboIndex}
		if seen[key] {
			t.Fatalf("job selected twice: %+v", key)
		}
		seen[key] = true
	}

	if more := SelectDiverse(pool, 100, DiverseOptions{Rand: rng}); len(more) != len(pool) {
		t.Fatalf("expected selection capped at pool size %d, got %d", len(pool), len(more))
	}
}

func TestSelectDiverseAvoidsConsecutiveVideos(t *testing.T) {
	pool := BuildCartesian(videos3(), audios2(), combos2())
	rng := rand.New(rand.NewPCG(7, 11))
	got := SelectDiverse(pool, 6, DiverseOptions{Rand: rng})
	for i := 1; i < len(got); i++ {
		if got[i].VideoPath == got[i-1].VideoPath {
			t.Fatalf("same video at %d and %d: %s", i-1, i, got[i].VideoPath)
		}
	}
}
