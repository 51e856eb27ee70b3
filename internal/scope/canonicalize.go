// Package scope implements context (scope) canonicalization (C6): stable id
// assignment, name rewriting, and the date/status blanking rules that keep
// citations from bleeding across two scopes sharing a label (e.g. two courts
// both abbreviated "SC").
package scope

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/claimboundary/factcheck/internal/domain"
)

// typeRank orders context types for the canonicalization sort (step 1); an
// unrecognized type sorts last.
var typeRank = map[domain.ContextType]int{
	domain.ContextLegal:          0,
	domain.ContextMethodological: 1,
	domain.ContextGeographic:     2,
	domain.ContextTemporal:       3,
	domain.ContextOther:          4,
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
var statusAnchors = []string{"pending", "resolved", "ongoing", "concluded", "settled", "appealed", "dismissed"}

// institutionCodePattern matches a short all-caps acronym such as FTC, EC, SC.
var institutionCodePattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// Remap maps a raw (pre-canonicalization) context id to its canonical id.
type Remap map[string]string

// Canonicalize sorts, assigns stable ids, rewrites names, and blanks
// date/status per spec.md §4.6 steps 1-4. It mutates contexts in place and
// returns the id remap so callers can rewrite relatedContextId references
// (step 5) and evidence scope bindings.
func Canonicalize(contexts []*domain.AnalysisContext, rawInputText string) ([]*domain.AnalysisContext, Remap) {
	contexts = ensureAtLeastOneContext(contexts)

	sort.SliceStable(contexts, func(i, j int) bool {
		ri, rj := typeRank[contexts[i].Type], typeRank[contexts[j].Type]
		if ri != rj {
			return ri < rj
		}
		ci, cj := institutionCode(contexts[i]), institutionCode(contexts[j])
		if ci != cj {
			return ci < cj
		}
		return contexts[i].Name < contexts[j].Name
	})

	remap := make(Remap, len(contexts))
	usedIDs := make(map[string]bool, len(contexts))
	hasYear := yearPattern.MatchString(rawInputText)
	statusWord := detectStatusAnchor(rawInputText)

	for i, c := range contexts {
		rawID := c.ID
		canonicalID := assignCanonicalID(c, i, usedIDs)
		usedIDs[canonicalID] = true
		remap[rawID] = canonicalID
		c.ID = canonicalID

		c.Name = canonicalName(c)

		if !hasYear {
			c.Date = ""
		}
		if statusWord == "" {
			c.Status = "unknown"
		} else {
			c.Status = statusWord
		}
	}

	return contexts, remap
}

// ensureAtLeastOneContext appends the General fallback context (spec.md
// §4.6 invariant) when extraction produced none.
func ensureAtLeastOneContext(contexts []*domain.AnalysisContext) []*domain.AnalysisContext {
	if len(contexts) > 0 {
		return contexts
	}
	return []*domain.AnalysisContext{{
		ID:     domain.GeneralContextID,
		Name:   "General context",
		Type:   domain.ContextOther,
		Status: "unknown",
	}}
}

// institutionCode extracts a detectable institution acronym (e.g. FTC, EC)
// from a context's name or subject, or "" if none is present.
func institutionCode(c *domain.AnalysisContext) string {
	if m := institutionCodePattern.FindString(c.Name); m != "" {
		return m
	}
	if m := institutionCodePattern.FindString(c.Subject); m != "" {
		return m
	}
	return ""
}

// assignCanonicalID builds CTX_{INSTITUTION} when an institution code is
// detectable, else CTX_{index}, resolving collisions by appending the
// stable index (spec.md §4.6 step 2).
func assignCanonicalID(c *domain.AnalysisContext, index int, used map[string]bool) string {
	inst := institutionCode(c)
	if inst == "" {
		return fmt.Sprintf("CTX_%d", index+1)
	}
	candidate := "CTX_" + inst
	if !used[candidate] {
		return candidate
	}
	return fmt.Sprintf("CTX_%s_%d", inst, index+1)
}

// canonicalName replaces a generic placeholder name with the subject
// truncated to 120 chars, or a synthesized "{type} context ({INST})" label
// (spec.md §4.6 step 3).
func canonicalName(c *domain.AnalysisContext) string {
	if !isGenericName(c.Name) {
		return c.Name
	}
	if c.Subject != "" {
		return truncate(c.Subject, 120)
	}
	inst := institutionCode(c)
	if inst != "" {
		return fmt.Sprintf("%s context (%s)", c.Type, inst)
	}
	return fmt.Sprintf("%s context", c.Type)
}

var genericNamePrefixes = []string{"general ", "unnamed", "context", "unspecified"}

func isGenericName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return true
	}
	for _, p := range genericNamePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func detectStatusAnchor(text string) string {
	lower := strings.ToLower(text)
	for _, anchor := range statusAnchors {
		if strings.Contains(lower, anchor) {
			return anchor
		}
	}
	return ""
}

// RewriteRelatedContextIDs applies remap to every claim's RelatedContextID
// (spec.md §4.6 step 5), leaving unresolvable ids bound to CTX_UNSCOPED.
func RewriteRelatedContextIDs(claims []*domain.AtomicClaim, remap Remap) {
	for _, claim := range claims {
		if claim.RelatedContextID == "" {
			continue
		}
		if canonical, ok := remap[claim.RelatedContextID]; ok {
			claim.RelatedContextID = canonical
		} else {
			claim.RelatedContextID = domain.UnscopedContextID
		}
	}
}
