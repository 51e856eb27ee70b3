package domain

// VerdictBand is one rung of the seven-level truth scale (spec.md §4.10).
type VerdictBand struct {
	Label    string
	Question string // parallel question-form label
	Min      float64 // inclusive lower bound
}

// verdictBands is ordered from highest to lowest; the first band whose Min
// the percentage meets or exceeds wins.
var verdictBands = []VerdictBand{
	{Label: "TRUE", Question: "YES", Min: 86},
	{Label: "MOSTLY-TRUE", Question: "MOSTLY-YES", Min: 72},
	{Label: "LEANING-TRUE", Question: "LEANING-YES", Min: 58},
	{Label: "UNVERIFIED", Question: "UNVERIFIED", Min: 43},
	{Label: "LEANING-FALSE", Question: "LEANING-NO", Min: 29},
	{Label: "MOSTLY-FALSE", Question: "MOSTLY-NO", Min: 15},
	{Label: "FALSE", Question: "NO", Min: 0},
}

// VerdictLabelFor returns the seven-level label for a truth percentage,
// using the question-form parallel scale when kind == InputQuestion.
func VerdictLabelFor(truthPercentage float64, kind InputKind) string {
	for _, band := range verdictBands {
		if truthPercentage >= band.Min {
			if kind == InputQuestion {
				return band.Question
			}
			return band.Label
		}
	}
	return verdictBands[len(verdictBands)-1].Label
}

// BandIndex returns the index of the band containing truthPercentage, used to
// check "labels agree to within one band" (spec.md §8 neutrality property).
func BandIndex(truthPercentage float64) int {
	for i, band := range verdictBands {
		if truthPercentage >= band.Min {
			return i
		}
	}
	return len(verdictBands) - 1
}

// LabelMatchesBand reports whether label is the correct label (in either
// scale) for truthPercentage — the structural-consistency invariant in
// spec.md §4.10 step "Verdict label matches the truth-percentage band".
func LabelMatchesBand(label string, truthPercentage float64) bool {
	idx := BandIndex(truthPercentage)
	band := verdictBands[idx]
	return label == band.Label || label == band.Question
}
