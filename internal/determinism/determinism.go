// Package determinism implements the C14 deterministic-mode harness:
// when a run has deterministic=true, temperatures clamp to 0, tie-breaks
// over otherwise-arbitrary ids fall back to a lexical sort, and the final
// result is re-encoded as canonical JSON so that two runs over identical
// input and configuration produce byte-for-byte identical output.
package determinism

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// Temperature returns 0 under deterministic mode; otherwise it clamps
// configured to [0.1, 0.7], the non-deterministic range spec.md §4.3
// mandates for every LLM call.
func Temperature(configured float64, deterministic bool) float64 {
	if deterministic {
		return 0
	}
	switch {
	case configured < 0.1:
		return 0.1
	case configured > 0.7:
		return 0.7
	default:
		return configured
	}
}

// LexSortStrings sorts ids in place by plain byte-lexical order, the
// tie-break rule deterministic mode uses for otherwise-arbitrary id
// orderings (spec.md §5).
func LexSortStrings(ids []string) {
	sort.Strings(ids)
}

// ContentHash derives a stable hex digest from an arbitrary
// JSON-encodable value. Used for deterministic entity ids and for the
// configuration-hash the orchestrator stamps into a run's meta so two
// runs against the same configuration can be compared for
// reproducibility (spec.md §4.13, "by content hash for reproducibility").
func ContentHash(v interface{}) (string, error) {
	canon, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	h := fnv.New64a()
	h.Write(canon)
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// EntityID derives a deterministic id for an entity from a prefix and a
// set of stable parts (e.g. a claim's statement plus its context id),
// replacing a random uuid under deterministic mode the same way
// internal/orchestrator derives its run id.
func EntityID(prefix string, parts ...string) string {
	joined := strings.Join(parts, "\x1f")
	sum, err := ContentHash(joined)
	if err != nil {
		// ContentHash only fails on non-JSON-encodable input; a string
		// never hits that path, so this is unreachable in practice.
		sum = "0000000000000000"
	}
	if len(sum) > 12 {
		sum = sum[:12]
	}
	return fmt.Sprintf("%s-%s", prefix, sum)
}

// CanonicalJSON re-encodes v with object keys sorted and no surrounding
// whitespace: the wire format spec.md §4.13 requires under deterministic
// mode so resultJson is byte-for-byte reproducible across runs. Go's
// encoding/json already sorts map[string]interface{} keys; round-tripping
// a struct through that representation applies the same guarantee to
// struct fields, which json.Marshal would otherwise emit in declaration
// order instead of sorted order.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("determinism: marshal: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("determinism: unmarshal for canonicalization: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("determinism: canonical encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Equal reports whether two values produce identical canonical JSON,
// the bit-for-bit reproducibility property spec.md §8 tests for
// deterministic-mode runs over identical input.
func Equal(a, b interface{}) (bool, error) {
	ca, err := CanonicalJSON(a)
	if err != nil {
		return false, err
	}
	cb, err := CanonicalJSON(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ca, cb), nil
}
