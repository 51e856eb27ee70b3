package search

import (
	"regexp"
	"strings"
)

// registrySuffixes are common public-suffix-ish endings stripped before
// deriving the base brand token (a simplified PSL, not the full list).
var registrySuffixes = []string{"com", "net", "org", "co", "io", "info", "news"}

var brandStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "www": true,
}

var sourceTypeSuffixes = []string{"news", "net", "media", "times", "post", "daily", "tribune", "herald"}

var camelSplit = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// BrandVariants derives the leftmost non-registry domain label and generates
// alternate brand tokens via hyphen-split, camelCase-split, and suffix-strip,
// keeping tokens with length >= 3 that aren't stopwords (spec.md §4.4 step 1).
func BrandVariants(domain string) []string {
	base := leftmostLabel(domain)
	variants := map[string]bool{}

	addVariant(variants, base)
	for _, part := range strings.Split(base, "-") {
		addVariant(variants, part)
	}
	camel := camelSplit.ReplaceAllString(base, "$1 $2")
	for _, part := range strings.Fields(camel) {
		addVariant(variants, part)
	}
	for _, suffix := range sourceTypeSuffixes {
		lower := strings.ToLower(base)
		if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix) {
			addVariant(variants, lower[:len(lower)-len(suffix)])
		}
	}

	out := make([]string, 0, len(variants))
	for v := range variants {
		out = append(out, v)
	}
	return out
}

func addVariant(set map[string]bool, token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if len(token) < 3 {
		return
	}
	if brandStopwords[token] {
		return
	}
	set[token] = true
}

// leftmostLabel returns the first label of a domain that isn't a known
// registry suffix, e.g. "news.example.co.uk" -> "example".
func leftmostLabel(domain string) string {
	domain = strings.ToLower(strings.TrimPrefix(domain, "www."))
	labels := strings.Split(domain, ".")
	for _, label := range labels {
		isSuffix := false
		for _, s := range registrySuffixes {
			if label == s {
				isSuffix = true
				break
			}
		}
		if !isSuffix && label != "" {
			return label
		}
	}
	if len(labels) > 0 {
		return labels[0]
	}
	return domain
}

// IsSelfCitation reports whether hostURL's host equals evaluatedDomain or is
// a subdomain of it (spec.md §4.4 step 4).
func IsSelfCitation(hostDomain, evaluatedDomain string) bool {
	hostDomain = strings.ToLower(strings.TrimPrefix(hostDomain, "www."))
	evaluatedDomain = strings.ToLower(strings.TrimPrefix(evaluatedDomain, "www."))
	return hostDomain == evaluatedDomain || strings.HasSuffix(hostDomain, "."+evaluatedDomain)
}
