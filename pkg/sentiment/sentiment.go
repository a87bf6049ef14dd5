// Package sentiment derives a coarse polarity score from search snippets by
// counting lexicon hits.
package sentiment

import (
	"math"
	"strings"
)

// Neutral is returned when no lexicon word is present.
const Neutral = 0.5

type Lexicon struct {
	Positive []string
	Negative []string
}

// Score returns pos/(pos+neg) rounded to two decimals, where pos and neg
// count the distinct lexicon words found in the joined snippets.
func (l Lexicon) Score(snippets []string) float64 {
	text := strings.ToLower(strings.Join(snippets, ""))
	if text == "" {
		return Neutral
	}

	pos := countHits(text, l.Positive)
	neg := countHits(text, l.Negative)
	if pos+neg == 0 {
		return Neutral
	}
	return math.Round(float64(pos)/float64(pos+neg)*100) / 100
}

func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if w != "" && strings.Contains(text, strings.ToLower(w)) {
			n++
		}
	}
	return n
}
