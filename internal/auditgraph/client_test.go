package auditgraph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewClientConnectionFailure exercises NewClient against an
// unreachable address: it must return an error and a nil client rather
// than leaking a half-open driver.
func TestNewClientConnectionFailure(t *testing.T) {
	cfg := Config{
		URI:      "bolt://nonexistent.invalid:7687",
		Username: "neo4j",
		Password: "password",
		Timeout:  1 * time.Second,
	}

	client, err := NewClient(cfg)
	if err == nil {
		if client != nil {
			_ = client.Close(context.Background())
		}
		t.Skip("unexpectedly reached a Neo4j instance at bolt://nonexistent.invalid:7687")
	}
	assert.Nil(t, client)
	require.Error(t, err)
}

// TestClientCloseOnNilDriverIsSafe: closing a Client with no driver must
// not panic or error.
func TestClientCloseOnNilDriverIsSafe(t *testing.T) {
	c := &Client{}
	err := c.Close(context.Background())
	assert.NoError(t, err)
}

func TestNewClientDefaultsTimeoutAndDatabase(t *testing.T) {
	// No Timeout or Database is set, so NewClient fills in the package
	// defaults (5s timeout, "neo4j" database) before dialing; the
	// unreachable host then makes it return an error.
	cfg := Config{URI: "bolt://nonexistent.invalid:7687"}
	_, err := NewClient(cfg)
	require.Error(t, err)
}
