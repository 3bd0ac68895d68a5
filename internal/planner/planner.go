// Package planner decides which (video, audio, caption combination)
// triples a batch renders. Three strategies: the full cartesian
// product, a deterministic staggered subset, and a diversity-weighted
// greedy selection.
package planner

import (
	"strings"
	"unicode"

	"github.com/Pimboto/VideoLab/internal/caption"
	"github.com/Pimboto/VideoLab/internal/media"
)

// Job is one immutable unit of render work. Created here, consumed
// exactly once by the render pipeline.
type Job struct {
	VideoPath  string
	AudioPath  string // empty means no audio track
	Captions   caption.Combination
	ComboIndex int
}

// normalizeCombos guarantees at least one (possibly empty) caption
// combination so videos without captions still render.
func normalizeCombos(combos []caption.Combination) []caption.Combination {
	if len(combos) == 0 {
		return []caption.Combination{{}}
	}
	return combos
}

// BuildCartesian emits every combination: videos outer, caption
// combinations middle, audios inner. V*C*A jobs, or V*C without audio.
func BuildCartesian(videos, audios []string, combos []caption.Combination) []Job {
	combos = normalizeCombos(combos)
	var jobs []Job
	for _, v := range videos {
		for idx, segs := range combos {
			if len(audios) > 0 {
				for _, a := range audios {
					jobs = append(jobs, Job{VideoPath: v, AudioPath: a, Captions: segs, ComboIndex: idx})
				}
			} else {
				jobs = append(jobs, Job{VideoPath: v, Captions: segs, ComboIndex: idx})
			}
		}
	}
	return jobs
}

// BuildUnique emits min(want, V*C*A) jobs, round-robining videos so
// every video gets floor(N/V) or ceil(N/V) picks, and staggering each
// video's caption/audio start offset to spread the pairings.
func BuildUnique(videos, audios []string, combos []caption.Combination, want int) []Job {
	combos = normalizeCombos(combos)
	v := len(videos)
	if v == 0 || want <= 0 {
		return nil
	}
	c := len(combos)
	a := len(audios)
	total := v * c
	if a > 0 {
		total *= a
	}
	n := want
	if total < n {
		n = total
	}

	picksPerVideo := make([]int, v)
	jobs := make([]Job, 0, n)
	for t := 0; t < n; t++ {
		b := t % v
		k := picksPerVideo[b]
		picksPerVideo[b]++

		capIdx := (b%c + k) % c
		job := Job{VideoPath: videos[b], Captions: combos[capIdx], ComboIndex: capIdx}
		if a > 0 {
			job.AudioPath = audios[(b%a+k)%a]
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// Tokens derives the diversity tokens of a job: the lowercased video
// stem, the audio stem or "noaudio", and the punctuation-stripped
// first caption segment or "text".
func Tokens(j Job) (base, audio, capt string) {
	base = media.Stem(j.VideoPath)
	if j.AudioPath != "" {
		audio = media.Stem(j.AudioPath)
	} else {
		audio = "noaudio"
	}
	if len(j.Captions) > 0 {
		capt = stripPunct(j.Captions[0])
	}
	if capt == "" {
		capt = "text"
	}
	return base, audio, capt
}

// stripPunct keeps word characters, spaces and hyphens, lowercased.
func stripPunct(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
