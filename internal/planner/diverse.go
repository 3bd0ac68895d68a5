package planner

import (
	"math/rand/v2"
)

// Weights price repetition per token category when scoring candidates.
type Weights struct {
	Base        float64
	Audio       float64
	Caption     float64
	Combo       float64
	RepeatBonus float64
}

// TargetMix is the desired share of the most-used token per category;
// exceeding it costs RatioStrength * overage.
type TargetMix struct {
	Base    float64
	Audio   float64
	Caption float64
}

// DiverseOptions tunes the greedy selector. Zero values take defaults.
type DiverseOptions struct {
	Weights       *Weights
	TargetMix     *TargetMix
	RatioStrength float64
	WindowPenalty float64
	RecentWindow  int
	Rand          *rand.Rand // injectable for deterministic tests
}

func defaultWeights() Weights {
	return Weights{Base: 6, Audio: 4, Caption: 3, Combo: 1, RepeatBonus: 8}
}

func defaultMix() TargetMix {
	return TargetMix{Base: 0.70, Audio: 0.10, Caption: 0.20}
}

// recency is a bounded FIFO window of recently selected tokens.
type recency struct {
	items []string
	size  int
}

func newRecency(size int) *recency { return &recency{size: size} }

func (r *recency) push(s string) {
	r.items = append(r.items, s)
	if len(r.items) > r.size {
		r.items = r.items[1:]
	}
}

func (r *recency) contains(s string) bool {
	for _, it := range r.items {
		if it == s {
			return true
		}
	}
	return false
}

// selectionState holds the per-run counters the scorer reads. Owned by
// exactly one SelectDiverse call, discarded afterwards.
type selectionState struct {
	baseCounts    map[string]int
	audioCounts   map[string]int
	captionCounts map[string]int
	comboCounts   map[int]int
	lastBases     *recency
	lastAudios    *recency
	lastCaptions  *recency
	selected      int
}

func newSelectionState(recentWindow int) *selectionState {
	return &selectionState{
		baseCounts:    map[string]int{},
		audioCounts:   map[string]int{},
		captionCounts: map[string]int{},
		comboCounts:   map[int]int{},
		lastBases:     newRecency(2),
		lastAudios:    newRecency(recentWindow),
		lastCaptions:  newRecency(recentWindow),
	}
}

func (st *selectionState) record(j Job) {
	base, audio, capt := Tokens(j)
	st.baseCounts[base]++
	st.audioCounts[audio]++
	st.captionCounts[capt]++
	st.comboCounts[j.ComboIndex]++
	st.lastBases.push(base)
	st.lastAudios.push(audio)
	st.lastCaptions.push(capt)
	st.selected++
}

func ratioPenalty(total, count int, targetRatio, strength float64) float64 {
	if total <= 0 {
		return 0
	}
	over := float64(count)/float64(total) - targetRatio
	if over <= 0 {
		return 0
	}
	return strength * over
}

func (st *selectionState) score(j Job, w Weights, mix TargetMix, ratioStrength, windowPenalty float64) float64 {
	base, audio, capt := Tokens(j)
	s := float64(st.baseCounts[base])*w.Base +
		float64(st.audioCounts[audio])*w.Audio +
		float64(st.captionCounts[capt])*w.Caption +
		float64(st.comboCounts[j.ComboIndex])*w.Combo
	if st.lastBases.contains(base) {
		s += w.RepeatBonus
	}
	if st.lastAudios.contains(audio) {
		s += windowPenalty
	}
	if st.lastCaptions.contains(capt) {
		s += windowPenalty
	}
	s += ratioPenalty(st.selected, st.audioCounts[audio], mix.Audio, ratioStrength)
	s += ratioPenalty(st.selected, st.captionCounts[capt], mix.Caption, ratioStrength)
	s += ratioPenalty(st.selected, st.baseCounts[base], mix.Base, ratioStrength*0.6)
	return s
}

// SelectDiverse greedily picks up to targetN jobs, minimizing
// repetition of video/audio/caption tokens relative to the target mix.
// The candidate pool is reshuffled before every pick so equal scores
// break randomly; selection itself is without replacement.
func SelectDiverse(candidates []Job, targetN int, opts DiverseOptions) []Job {
	if len(candidates) == 0 || targetN <= 0 {
		return nil
	}

	w := defaultWeights()
	if opts.Weights != nil {
		w = *opts.Weights
	}
	mix := defaultMix()
	if opts.TargetMix != nil {
		mix = *opts.TargetMix
	}
	ratioStrength := opts.RatioStrength
	if ratioStrength == 0 {
		ratioStrength = 12.0
	}
	windowPenalty := opts.WindowPenalty
	if windowPenalty == 0 {
		windowPenalty = 2.0
	}
	recentWindow := opts.RecentWindow
	if recentWindow <= 0 {
		recentWindow = 4
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	pool := make([]Job, len(candidates))
	copy(pool, candidates)

	st := newSelectionState(recentWindow)
	n := targetN
	if len(pool) < n {
		n = len(pool)
	}

	selected := make([]Job, 0, n)
	for len(selected) < n && len(pool) > 0 {
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

		bestIdx := 0
		bestScore := st.score(pool[0], w, mix, ratioStrength, windowPenalty)
		for i := 1; i < len(pool); i++ {
			if s := st.score(pool[i], w, mix, ratioStrength, windowPenalty); s < bestScore {
				bestIdx, bestScore = i, s
			}
		}

		best := pool[bestIdx]
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
		st.record(best)
		selected = append(selected, best)
	}
	return selected
}
