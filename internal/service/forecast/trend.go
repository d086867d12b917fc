// internal/service/forecast/trend.go

package forecast

import (
	"fashionpulse/internal/domain/analytics"
)

const (
	// TrendWindow is the number of most recent scores the trend is fitted on
	TrendWindow = 10

	// SlopeThreshold separates a rising or falling trend from a stable one
	SlopeThreshold = 0.01

	minTrendPoints = 3
)

// EstimateTrend classifies chronologically ordered scores by the slope of
// their least-squares line against position
func EstimateTrend(scores []float64) analytics.Trend {
	if len(scores) < minTrendPoints {
		return analytics.TrendStable
	}

	if len(scores) > TrendWindow {
		scores = scores[len(scores)-TrendWindow:]
	}
	if len(scores) < minTrendPoints {
		return analytics.TrendStable
	}

	slope := Slope(scores)
	switch {
	case slope > SlopeThreshold:
		return analytics.TrendRising
	case slope < -SlopeThreshold:
		return analytics.TrendFalling
	default:
		return analytics.TrendStable
	}
}

// Slope returns the ordinary least squares slope of ys against 0..n-1
func Slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}

	meanX := (n - 1) / 2
	meanY := 0.0
	for _, y := range ys {
		meanY += y
	}
	meanY /= n

	var sxy, sxx float64
	for i, y := range ys {
		dx := float64(i) - meanX
		sxy += dx * (y - meanY)
		sxx += dx * dx
	}

	return sxy / sxx
}
