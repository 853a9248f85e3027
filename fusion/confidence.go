package fusion

import "github.com/theoremus-urban-solutions/transight/traffic"

// Confidence bounds and adjustments. This score is a heuristic data-quality
// signal, not a statistical confidence interval.
const (
	baseConfidence = 0.85
	minConfidence  = 0.5
	maxConfidence  = 0.99

	crowdNormalBonus   = 0.10 // crowd in the normal band (1..49)
	crowdOverloadMalus = 0.05 // crowd beyond the overload threshold
	crowdOverloadAt    = 50
	freeFlowBonus      = 0.05
	congestedMalus     = 0.10
)

// confidenceScore rates how much to trust a prediction given the inputs it
// was built from.
func confidenceScore(crowdCount int, status traffic.Status) float64 {
	confidence := baseConfidence

	if crowdCount > 0 && crowdCount < crowdOverloadAt {
		confidence += crowdNormalBonus
	} else if crowdCount > crowdOverloadAt {
		confidence -= crowdOverloadMalus
	}

	switch status {
	case traffic.StatusFreeFlow:
		confidence += freeFlowBonus
	case traffic.StatusCongested:
		confidence -= congestedMalus
	}

	if confidence < minConfidence {
		return minConfidence
	}
	if confidence > maxConfidence {
		return maxConfidence
	}
	return confidence
}
