package assessment

import (
	"errors"
	"math"
)

// Sub-score weights applied when deriving the overall score.
const (
	accuracyWeight     = 0.4
	completenessWeight = 0.3
	legibilityWeight   = 0.2
	presentationWeight = 0.1
)

// ErrInvalidScoreInput indicates a sub-score was not a finite number.
var ErrInvalidScoreInput = errors.New("sub-scores must be finite numbers")

// ComputeOverallScore derives the weighted overall score from the four
// sub-scores. The result is rounded half away from zero. Inputs are expected
// in [0,100] but are intentionally not clamped: out-of-range values propagate
// arithmetically. Only non-finite inputs are rejected.
func ComputeOverallScore(accuracy, completeness, legibility, presentation float64) (float64, error) {
	for _, v := range []float64{accuracy, completeness, legibility, presentation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrInvalidScoreInput
		}
	}

	weighted := accuracy*accuracyWeight +
		completeness*completenessWeight +
		legibility*legibilityWeight +
		presentation*presentationWeight

	return math.Round(weighted), nil
}

// LetterGrade maps an overall score to its letter grade. The mapping is a
// total step function with inclusive lower bounds.
func LetterGrade(overall float64) string {
	switch {
	case overall >= 93:
		return "A"
	case overall >= 90:
		return "A-"
	case overall >= 87:
		return "B+"
	case overall >= 83:
		return "B"
	case overall >= 80:
		return "B-"
	case overall >= 77:
		return "C+"
	case overall >= 73:
		return "C"
	case overall >= 70:
		return "C-"
	case overall >= 67:
		return "D+"
	case overall >= 63:
		return "D"
	case overall >= 60:
		return "D-"
	default:
		return "F"
	}
}
