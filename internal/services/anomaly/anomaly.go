// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package anomaly flags time-series points whose rolling z-score exceeds a
// fixed threshold.
package anomaly

import (
	"math"

	"github.com/tradelite/tradelite/internal/types"
)

const (
	// DefaultWindowSize is used when a request does not specify one.
	DefaultWindowSize = 20

	// zScoreThreshold is the |z| above which a point counts as an anomaly.
	zScoreThreshold = 3.0
)

// Detect computes rolling z-scores over the preceding windowSize points.
// Points inside the warm-up window, or whose window has zero variance, score
// zero. Series shorter than the window yield no anomalies.
func Detect(data []float64, windowSize int) types.AnomalyResponse {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	if len(data) < windowSize {
		return types.AnomalyResponse{
			Anomalies: []int{},
			Scores:    make([]float64, len(data)),
			Threshold: zScoreThreshold,
		}
	}

	scores := make([]float64, len(data))
	anomalies := []int{}

	for i := windowSize; i < len(data); i++ {
		window := data[i-windowSize : i]
		mean, std := meanStd(window)
		if std == 0 {
			continue
		}

		z := math.Abs((data[i] - mean) / std)
		scores[i] = z
		if z > zScoreThreshold {
			anomalies = append(anomalies, i)
		}
	}

	return types.AnomalyResponse{
		Anomalies: anomalies,
		Scores:    scores,
		Threshold: zScoreThreshold,
	}
}

// meanStd returns the mean and population standard deviation of the window.
func meanStd(window []float64) (float64, float64) {
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))

	var variance float64
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(window))

	return mean, math.Sqrt(variance)
}
