package render

import (
	"testing"

	"github.com/Pimboto/VideoLab/internal/config"
	"github.com/Pimboto/VideoLab/internal/logging"
	"github.com/Pimboto/VideoLab/internal/media"
)

// The plan is computed once per job, from the probed assets and the
// configured policy, and carried through the render and mux stages.
func TestJobPlan(t *testing.T) {
	cfg := config.DefaultProcessing() // shortest
	p := NewPipeline(logging.NewDiscard(), media.NewProber(), nil, nil, cfg)

	plan := p.jobPlan(media.VideoAsset{Duration: 10, FPS: 30}, media.AudioAsset{Duration: 6}, 2)
	if plan.Target != 6 || plan.SegmentDuration != 3 || plan.FrameBudget != 180 {
		t.Fatalf("unexpected plan: %+v", plan)
	}

	cfg.DurationPolicy = config.DurationFixed
	cfg.FixedSeconds = 5
	p = NewPipeline(logging.NewDiscard(), media.NewProber(), nil, nil, cfg)
	plan = p.jobPlan(media.VideoAsset{Duration: 10, FPS: 30}, media.AudioAsset{}, 1)
	if plan.Target != 5 || plan.FrameBudget != 150 {
		t.Fatalf("unexpected fixed plan: %+v", plan)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("a longer caption segment", 8); got != "a longer..." {
		t.Fatalf("got %q", got)
	}
}
