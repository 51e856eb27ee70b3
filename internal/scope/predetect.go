package scope

import "regexp"

// Hint is a heuristic scope pair suggested to C7 before extraction runs,
// so the claim-extraction prompt can be primed with candidate scope labels
// (spec.md §4.6 step 6).
type Hint struct {
	Trigger string
	Scopes  [2]string
}

var comparisonEfficiency = regexp.MustCompile(`(?i)\b(more|less|than)\b.{0,40}\b(efficien|productiv|output|yield)`)
var legalFairness = regexp.MustCompile(`(?i)\b(fair|unfair|due process|sentenc|convict|acquit)\b`)
var envHealthComparison = regexp.MustCompile(`(?i)\b(more|less|than)\b.{0,40}\b(emission|toxic|pollut|carbon|lifecycle|health impact)`)

// PreDetectHints scans rawInputText for the three trigger patterns spec.md
// §4.6 step 6 names and returns the corresponding scope-pair hints.
func PreDetectHints(rawInputText string) []Hint {
	var hints []Hint
	if comparisonEfficiency.MatchString(rawInputText) {
		hints = append(hints, Hint{Trigger: "comparison_efficiency", Scopes: [2]string{"SCOPE_PRODUCTION", "SCOPE_USAGE"}})
	}
	if legalFairness.MatchString(rawInputText) {
		hints = append(hints, Hint{Trigger: "legal_fairness", Scopes: [2]string{"SCOPE_LEGAL_PROC", "SCOPE_OUTCOMES"}})
	}
	if envHealthComparison.MatchString(rawInputText) {
		hints = append(hints, Hint{Trigger: "environmental_health_comparison", Scopes: [2]string{"SCOPE_DIRECT", "SCOPE_LIFECYCLE"}})
	}
	return hints
}
