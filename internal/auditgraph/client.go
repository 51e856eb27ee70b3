// Package auditgraph mirrors one run's claims, boundaries, and verdicts
// into Neo4j as an optional audit trail: a persistent graph an analyst can
// query across runs to see how a claim boundary's verdict has shifted over
// time. Disabled unless FCB_NEO4J_URI is configured (internal/config).
package auditgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/claimboundary/factcheck/internal/domain"
)

// Config holds Neo4j connection configuration.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// Client wraps a Neo4j driver for writing one run's audit graph.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewClient creates a Client with connection pooling and verifies
// connectivity before returning.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *config.Config) {
			c.MaxConnectionPoolSize = 20
			c.ConnectionAcquisitionTimeout = cfg.Timeout
			c.SocketConnectTimeout = cfg.Timeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: cfg.Database, timeout: cfg.Timeout}, nil
}

// Close releases the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

// RecordRun mirrors one run's claims, boundaries, and verdicts as a small
// graph: (:Run)-[:ASSESSED]->(:Claim)-[:RESOLVED_TO]->(:Verdict),
// (:Claim)-[:BOUNDED_BY]->(:Boundary). Best-effort: callers should log but
// not fail a run on an audit-graph write error.
func (c *Client) RecordRun(ctx context.Context, runID string, claims []*domain.AtomicClaim, boundaries []*domain.ClaimBoundary, verdicts []*domain.CBClaimVerdict) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database, AccessMode: neo4j.AccessModeWrite})
	defer func() { _ = session.Close(ctx) }()

	verdictByClaim := make(map[string]*domain.CBClaimVerdict, len(verdicts))
	for _, v := range verdicts {
		verdictByClaim[v.ClaimID] = v
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		if _, err := tx.Run(ctx, `MERGE (r:Run {id: $runID}) SET r.createdAt = datetime()`, map[string]interface{}{"runID": runID}); err != nil {
			return nil, err
		}
		for _, b := range boundaries {
			if _, err := tx.Run(ctx, `MERGE (b:Boundary {id: $id}) SET b.name = $name, b.methodology = $methodology`,
				map[string]interface{}{"id": b.ID, "name": b.Name, "methodology": b.Methodology}); err != nil {
				return nil, err
			}
		}
		for _, claim := range claims {
			if _, err := tx.Run(ctx, `
				MATCH (r:Run {id: $runID})
				MERGE (c:Claim {id: $claimID})
				SET c.statement = $statement
				MERGE (r)-[:ASSESSED]->(c)`,
				map[string]interface{}{"runID": runID, "claimID": claim.ID, "statement": claim.Statement}); err != nil {
				return nil, err
			}
			if claim.RelatedContextID != "" {
				if _, err := tx.Run(ctx, `
					MATCH (c:Claim {id: $claimID}), (b:Boundary {id: $boundaryID})
					MERGE (c)-[:BOUNDED_BY]->(b)`,
					map[string]interface{}{"claimID": claim.ID, "boundaryID": claim.RelatedContextID}); err != nil {
					return nil, err
				}
			}
			v, ok := verdictByClaim[claim.ID]
			if !ok {
				continue
			}
			if _, err := tx.Run(ctx, `
				MATCH (c:Claim {id: $claimID})
				MERGE (verdict:Verdict {id: $verdictID})
				SET verdict.truthPercentage = $truth, verdict.confidence = $confidence, verdict.label = $label
				MERGE (c)-[:RESOLVED_TO]->(verdict)`,
				map[string]interface{}{
					"claimID": claim.ID, "verdictID": v.ID,
					"truth": v.TruthPercentage, "confidence": v.Confidence, "label": v.Verdict,
				}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
