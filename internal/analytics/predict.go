package analytics

import (
	"math"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

// logisticScale converts a score differential into win probability; 15
// points of EPA difference is roughly a 73% favorite, matching typical
// FTC score spreads.
const logisticScale = 15.0

// Confidence buckets on the favorite's win probability.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceTossup = "tossup"
)

// PredictMatch estimates a 2v2 outcome: each alliance's predicted score
// is the sum of its teams' EPA totals, and win probability follows a
// logistic curve over the differential. Equal scores give exactly 0.5;
// the curve saturates but never reaches 0 or 1.
func PredictMatch(redEPA, blueEPA []float64) models.MatchPrediction {
	var red, blue float64
	for _, e := range redEPA {
		red += e
	}
	for _, e := range blueEPA {
		blue += e
	}

	// Clamp the exponent so float64 rounding cannot push the
	// probability onto exactly 0 or 1.
	z := (red - blue) / logisticScale
	if z > 30 {
		z = 30
	} else if z < -30 {
		z = -30
	}
	pRed := 1.0 / (1.0 + math.Exp(-z))

	favorite := math.Max(pRed, 1-pRed)
	confidence := ConfidenceTossup
	switch {
	case favorite >= 0.8:
		confidence = ConfidenceHigh
	case favorite >= 0.65:
		confidence = ConfidenceMedium
	}

	return models.MatchPrediction{
		RedScore:           red,
		BlueScore:          blue,
		RedWinProbability:  pRed,
		BlueWinProbability: 1 - pRed,
		Confidence:         confidence,
	}
}
