package textlayout

// Emoji detection covers the pictograph blocks the caption renderer
// switches fonts for, plus the variation selector U+FE0F.
var emojiRanges = [][2]rune{
	{0x2300, 0x23FF},   // technical symbols
	{0x2600, 0x27BF},   // misc symbols, dingbats
	{0x2B00, 0x2BFF},   // arrows, stars
	{0xFE0F, 0xFE0F},   // variation selector
	{0x10000, 0x1FFFF}, // supplementary planes incl. all emoji blocks
}

const (
	zeroWidthJoiner   = '‍'
	variationSelector = '️'
)

func isEmoji(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// run is a maximal sequence of either plain text or one emoji cluster.
type run struct {
	text  string
	emoji bool
}

// splitRuns segments mixed text into alternating plain-text and emoji
// runs. An emoji cluster absorbs trailing ZWJ sequences, variation
// selectors and further emoji runes so multi-codepoint emoji stay in
// one drawable unit.
func splitRuns(text string) []run {
	if text == "" {
		return nil
	}
	rs := []rune(text)
	var out []run
	var cur []rune

	flushText := func() {
		if len(cur) > 0 {
			out = append(out, run{text: string(cur)})
			cur = cur[:0]
		}
	}

	for i := 0; i < len(rs); {
		if !isEmoji(rs[i]) {
			cur = append(cur, rs[i])
			i++
			continue
		}
		flushText()
		end := i + 1
		for end < len(rs) && (rs[end] == zeroWidthJoiner || rs[end] == variationSelector || isEmoji(rs[end])) {
			end++
		}
		out = append(out, run{text: string(rs[i:end]), emoji: true})
		i = end
	}
	flushText()
	return out
}
