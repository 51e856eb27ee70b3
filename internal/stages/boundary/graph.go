package boundary

import (
	"github.com/dominikbraun/graph"
)

// traceability is the claim -> evidence -> boundary directed graph used to
// walk citation paths deterministically when building the coverage matrix
// (spec.md §4.9). internal/auditgraph plays the analogous role for durable,
// Neo4j-backed entity relationships; this is an in-memory traceability
// graph scoped to a single run.
type traceability struct {
	g graph.Graph[string, string]
}

const (
	claimPrefix    = "claim:"
	evidencePrefix = "evidence:"
	boundaryPrefix = "boundary:"
)

func newTraceability() *traceability {
	return &traceability{g: graph.New(graph.StringHash, graph.Directed())}
}

func (t *traceability) addClaimEvidenceEdge(claimID, evidenceID string) {
	_ = t.g.AddVertex(claimPrefix + claimID)
	_ = t.g.AddVertex(evidencePrefix + evidenceID)
	_ = t.g.AddEdge(claimPrefix+claimID, evidencePrefix+evidenceID)
}

func (t *traceability) addEvidenceBoundaryEdge(evidenceID, boundaryID string) {
	_ = t.g.AddVertex(evidencePrefix + evidenceID)
	_ = t.g.AddVertex(boundaryPrefix + boundaryID)
	_ = t.g.AddEdge(evidencePrefix+evidenceID, boundaryPrefix+boundaryID)
}

// boundariesForClaim walks claim -> evidence -> boundary two-hop paths.
func (t *traceability) boundariesForClaim(claimID string) []string {
	adjacency, err := t.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for evidenceVertex := range adjacency[claimPrefix+claimID] {
		for boundaryVertex := range adjacency[evidenceVertex] {
			id := stripPrefix(boundaryVertex, boundaryPrefix)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func stripPrefix(s, prefix string) string {
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return ""
	}
	return s[len(prefix):]
}
