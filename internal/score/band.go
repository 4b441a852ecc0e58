package score

// Band is the textual sustainability rating derived from a score relative to
// its maximum. The same bands apply to the overall score (max 10) and to each
// category's weighted score against its own max (10 * weight).
type Band string

const (
	BandSustainable         Band = "Sustainable"
	BandPartiallySustain    Band = "Partially Sustainable"
	BandPartiallyInfeasible Band = "Partially Not Feasible"
	BandNotFeasible         Band = "Not Feasible"
)

// Color returns the hex color associated with a band, used for score bars and
// PDF accents.
func (b Band) Color() string {
	switch b {
	case BandSustainable:
		return "#16a34a"
	case BandPartiallySustain:
		return "#ca8a04"
	case BandPartiallyInfeasible:
		return "#ea580c"
	default:
		return "#dc2626"
	}
}

// Classify maps a score against its maximum onto a rating band. Intervals are
// closed-open except the top: [0.75,1.0] Sustainable, [0.5,0.75) Partially
// Sustainable, [0.25,0.5) Partially Not Feasible, [0,0.25) Not Feasible, so
// boundary values always belong to the higher tier.
//
// A zero max (a category with weight 0) is treated as 0%, never a division
// error.
func Classify(score, max float64) Band {
	if max <= 0 {
		return BandNotFeasible
	}
	ratio := score / max
	switch {
	case ratio >= 0.75:
		return BandSustainable
	case ratio >= 0.5:
		return BandPartiallySustain
	case ratio >= 0.25:
		return BandPartiallyInfeasible
	default:
		return BandNotFeasible
	}
}

// Percent returns the percentage-of-max for a score bar, guarding the zero
// denominator case as 0%.
func Percent(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return score / max * 100
}
