package render

import (
	"testing"

	"github.com/Pimboto/VideoLab/internal/compositor"
	"github.com/Pimboto/VideoLab/internal/config"
)

func TestReconcile(t *testing.T) {
	cases := []struct {
		name         string
		policy       config.DurationPolicy
		fixed        float64
		videoDur     float64
		audioDur     float64
		fps          float64
		segments     int
		wantTarget   float64
		wantSegDur   float64
		wantFrames   int
	}{
		{
			name:   "fixed",
			policy: config.DurationFixed, fixed: 5, videoDur: 10, audioDur: 6, fps: 30, segments: 2,
			wantTarget: 5, wantSegDur: 2.5, wantFrames: 150,
		},
		{
			name:   "fixed without seconds falls back to shortest",
			policy: config.DurationFixed, videoDur: 10, audioDur: 6, fps: 30, segments: 1,
			wantTarget: 6, wantSegDur: 6, wantFrames: 180,
		},
		{
			name:   "audio",
			policy: config.DurationAudio, videoDur: 10, audioDur: 6, fps: 30, segments: 3,
			wantTarget: 6, wantSegDur: 2, wantFrames: 180,
		},
		{
			name:   "audio policy without audio falls back to shortest",
			policy: config.DurationAudio, videoDur: 10, fps: 30, segments: 1,
			wantTarget: 10, wantSegDur: 10, wantFrames: 300,
		},
		{
			name:   "video ignores longer audio",
			policy: config.DurationVideo, videoDur: 4, audioDur: 9, fps: 30, segments: 1,
			wantTarget: 4, wantSegDur: 4, wantFrames: 120,
		},
		{
			name:   "shortest",
			policy: config.DurationShortest, videoDur: 10, audioDur: 6, fps: 30, segments: 2,
			wantTarget: 6, wantSegDur: 3, wantFrames: 180,
		},
		{
			name:   "shortest without audio uses video",
			policy: config.DurationShortest, videoDur: 7, fps: 24, segments: 2,
			wantTarget: 7, wantSegDur: 3.5, wantFrames: 168,
		},
		{
			name:   "zero segments clamps to one",
			policy: config.DurationVideo, videoDur: 3, fps: 30, segments: 0,
			wantTarget: 3, wantSegDur: 3, wantFrames: 90,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reconcile(tc.policy, tc.fixed, tc.videoDur, tc.audioDur, tc.fps, tc.segments)
			if got.Target != tc.wantTarget {
				t.Fatalf("target: got %v, want %v", got.Target, tc.wantTarget)
			}
			if got.SegmentDuration != tc.wantSegDur {
				t.Fatalf("segment duration: got %v, want %v", got.SegmentDuration, tc.wantSegDur)
			}
			if got.FrameBudget != tc.wantFrames {
				t.Fatalf("frame budget: got %d, want %d", got.FrameBudget, tc.wantFrames)
			}
		})
	}
}

// Frame timing and caption indexing agree: at 30fps with two segments
// over 10 seconds, frames 0-149 show the first caption and 150-299 the
// second.
func TestFrameToCaptionMapping(t *testing.T) {
	plan := Reconcile(config.DurationShortest, 0, 10, 0, 30, 2)
	for frame := 0; frame < plan.FrameBudget; frame++ {
		tSec := float64(frame) / 30
		idx := compositor.CaptionIndex(tSec, plan.SegmentDuration, 2)
		want := 0
		if frame >= 150 {
			want = 1
		}
		if idx != want {
			t.Fatalf("frame %d: caption index %d, want %d", frame, idx, want)
		}
	}
}
