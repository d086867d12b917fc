// internal/service/forecast/share.go

package forecast

import (
	"math"

	"fashionpulse/internal/domain/mention"
)

// Weight is a mention's contribution to its brand's share. It rewards reach
// and positivity and stays positive for any score above -1.
func Weight(m mention.Mention) float64 {
	return float64(m.Engagement) * (1 + m.SentimentScore)
}

// EstimateShare returns brand's share, in percent, of the weighted mentions
func EstimateShare(brand string, mentions []mention.Mention) float64 {
	var brandWeight, total float64
	found := false

	for _, m := range mentions {
		w := Weight(m)
		total += w
		if m.Brand == brand {
			brandWeight += w
			found = true
		}
	}

	if !found || total == 0 {
		return 0
	}

	return Round(brandWeight/total*100, 2)
}

// EstimateShares returns the share of every brand present in mentions
func EstimateShares(mentions []mention.Mention) map[string]float64 {
	weights := make(map[string]float64)
	total := 0.0

	for _, m := range mentions {
		w := Weight(m)
		weights[m.Brand] += w
		total += w
	}

	shares := make(map[string]float64, len(weights))
	for brand, w := range weights {
		if total == 0 {
			shares[brand] = 0
			continue
		}
		shares[brand] = Round(w/total*100, 2)
	}

	return shares
}

// Mean returns the average sentiment score of mentions
func Mean(mentions []mention.Mention) float64 {
	if len(mentions) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range mentions {
		sum += m.SentimentScore
	}
	return sum / float64(len(mentions))
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
