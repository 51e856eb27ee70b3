package boundary

import (
	"context"
	"crypto/sha256"
	"math"

	chromem "github.com/philippgille/chromem-go"

	"github.com/claimboundary/factcheck/internal/domain"
)

// embedDimension is small and fixed: pre-clustering only needs a coarse
// similarity signal to narrow candidate groupings before the LLM call makes
// the final boundary assignment, not a production-quality embedding space.
const embedDimension = 64

// hashEmbed produces a deterministic, dependency-free embedding from text by
// hashing overlapping trigrams into a fixed-width vector: a text-hash
// approach that stays content-sensitive (trigrams) rather than purely
// length/char-sum based, since clustering needs near-duplicate text to
// land close in the space.
func hashEmbed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, embedDimension)
	runes := []rune(text)
	if len(runes) < 3 {
		runes = append(runes, make([]rune, 3-len(runes))...)
	}
	for i := 0; i+2 < len(runes); i++ {
		trigram := string(runes[i : i+3])
		sum := sha256.Sum256([]byte(trigram))
		bucket := int(sum[0]) % embedDimension
		vec[bucket]++
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] /= norm
	}
}

// similarityThreshold is the minimum cosine similarity for two evidence
// items to be proposed in the same candidate pre-cluster.
const similarityThreshold = 0.82

// PreCluster groups evidence items by embedding similarity, giving the
// boundary LLM call a narrowed set of candidate groupings to refine rather
// than clustering from scratch over the full evidence set (spec.md §4.9
// is silent on an intermediate step; this plays the same role a
// SearchSimilarWithThreshold prefilter plays ahead of LLM reasoning over a
// vector store).
func PreCluster(ctx context.Context, items []*domain.EvidenceItem) ([][]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	db := chromem.NewDB()
	collection, err := db.CreateCollection("evidence", nil, hashEmbed)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if err := collection.AddDocument(ctx, chromem.Document{ID: item.ID, Content: item.Statement}); err != nil {
			return nil, err
		}
	}

	parent := make(map[string]string, len(items))
	for _, item := range items {
		parent[item.ID] = item.ID
	}
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	k := len(items)
	if k > 6 {
		k = 6
	}
	for _, item := range items {
		results, err := collection.Query(ctx, item.Statement, k, nil, nil)
		if err != nil {
			continue
		}
		for _, r := range results {
			if r.ID == item.ID || r.Similarity < similarityThreshold {
				continue
			}
			union(item.ID, r.ID)
		}
	}

	groups := make(map[string][]string)
	for _, item := range items {
		root := find(item.ID)
		groups[root] = append(groups[root], item.ID)
	}

	clusters := make([][]string, 0, len(groups))
	for _, ids := range groups {
		clusters = append(clusters, ids)
	}
	return clusters, nil
}
