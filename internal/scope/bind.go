package scope

import "github.com/claimboundary/factcheck/internal/domain"

// ResolveEvidenceContext binds a piece of evidence to exactly one context id.
// matchedContextIDs is the set of canonical context ids a caller determined
// the evidence plausibly belongs to (e.g. via keyword/entity overlap);
// ambiguous evidence — matching zero, or more than one, context — binds to
// CTX_UNSCOPED and is excluded from per-context aggregation (spec.md §4.6
// invariant; adversarial case in §8: two contexts sharing only an
// abbreviation must not let evidence bleed between them).
func ResolveEvidenceContext(matchedContextIDs []string) string {
	if len(matchedContextIDs) != 1 {
		return domain.UnscopedContextID
	}
	return matchedContextIDs[0]
}
