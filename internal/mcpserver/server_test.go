package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/domain"
)

func TestResolveKindDefaultsToClaim(t *testing.T) {
	assert.Equal(t, domain.InputClaim, resolveKind(""))
	assert.Equal(t, domain.InputClaim, resolveKind("garbage"))
	assert.Equal(t, domain.InputQuestion, resolveKind("question"))
}

func TestHandleRunRejectsEmptyText(t *testing.T) {
	s := New(nil)
	_, resp, err := s.handleRun(context.Background(), nil, RunClaimBoundaryAnalysisRequest{Text: ""})
	require.Error(t, err)
	assert.Nil(t, resp)
}
