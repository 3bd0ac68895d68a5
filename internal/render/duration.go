package render

import (
	"math"

	"github.com/Pimboto/VideoLab/internal/config"
)

// Plan is the reconciled timing for one job.
type Plan struct {
	// Target is the output duration in seconds.
	Target float64
	// SegmentDuration is how long each caption segment stays on screen.
	SegmentDuration float64
	// FrameBudget is the number of frames to emit; the decode loop
	// stops earlier if the source runs out.
	FrameBudget int
}

// Reconcile resolves the duration policy against the probed source
// durations. An audio policy without usable audio falls back to the
// shortest rule, as does everything unrecognized.
func Reconcile(policy config.DurationPolicy, fixedSeconds, videoDur, audioDur, fps float64, numSegments int) Plan {
	var target float64
	switch {
	case policy == config.DurationFixed && fixedSeconds > 0:
		target = fixedSeconds
	case policy == config.DurationAudio && audioDur > 0:
		target = audioDur
	case policy == config.DurationVideo:
		target = videoDur
	default:
		if audioDur > 0 {
			target = math.Min(videoDur, audioDur)
		} else {
			target = videoDur
		}
	}

	segs := numSegments
	if segs < 1 {
		segs = 1
	}

	return Plan{
		Target:          target,
		SegmentDuration: target / float64(segs),
		FrameBudget:     int(math.Round(target * fps)),
	}
}
