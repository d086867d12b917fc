// internal/service/sentiment/scorer.go

package sentiment

import (
	"math"
	"strings"
	"unicode"

	"fashionpulse/internal/domain/mention"
)

// Label thresholds on the compound score
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

const (
	// normalization constant of the compound score
	alpha = 15.0

	// negated valence is flipped and dampened by this factor
	negationScalar = -0.74

	// each '!' adds this much emphasis, up to maxExclamations
	exclamationBoost = 0.292
	maxExclamations  = 4

	// how many preceding tokens can negate or boost a word
	window = 3
)

// Scorer is a lexicon and rule based sentiment scorer.
// It is stateless after construction and safe for concurrent use.
type Scorer struct {
	lexicon   map[string]float64
	boosters  map[string]float64
	negations map[string]struct{}
}

// NewScorer creates a scorer backed by the built-in lexicon
func NewScorer() *Scorer {
	return &Scorer{
		lexicon:   lexicon,
		boosters:  boosters,
		negations: negations,
	}
}

// Score returns the compound score in [-1, 1] for text and its label
func (s *Scorer) Score(text string) (float64, mention.Label) {
	compound := s.Compound(text)
	return compound, Label(compound)
}

// Compound returns the normalized compound score of text
func (s *Scorer) Compound(text string) float64 {
	tokens := tokenize(text)

	sum := 0.0
	for i, tok := range tokens {
		valence, ok := s.lexicon[tok]
		if !ok {
			continue
		}

		negated := false
		for d := 1; d <= window && i-d >= 0; d++ {
			prev := tokens[i-d]
			if boost, ok := s.boosters[prev]; ok {
				// boosters further away have less effect
				scalar := boost * (1 - 0.05*float64(d-1))
				if valence < 0 {
					scalar = -scalar
				}
				valence += scalar
			}
			if _, ok := s.negations[prev]; ok {
				negated = true
			}
		}
		if negated {
			valence *= negationScalar
		}

		sum += valence
	}

	if sum == 0 {
		return 0
	}

	bangs := strings.Count(text, "!")
	if bangs > maxExclamations {
		bangs = maxExclamations
	}
	if sum > 0 {
		sum += float64(bangs) * exclamationBoost
	} else {
		sum -= float64(bangs) * exclamationBoost
	}

	return normalize(sum)
}

// Label classifies a compound score
func Label(compound float64) mention.Label {
	switch {
	case compound >= PositiveThreshold:
		return mention.LabelPositive
	case compound <= NegativeThreshold:
		return mention.LabelNegative
	default:
		return mention.LabelNeutral
	}
}

func normalize(sum float64) float64 {
	score := sum / math.Sqrt(sum*sum+alpha)
	score = math.Max(-1, math.Min(1, score))
	return math.Round(score*10000) / 10000
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
