package determinism

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemperature(t *testing.T) {
	assert.Equal(t, 0.0, Temperature(0.9, true))
	assert.Equal(t, 0.1, Temperature(0.0, false))
	assert.Equal(t, 0.7, Temperature(5, false))
	assert.Equal(t, 0.5, Temperature(0.5, false))
}

func TestLexSortStrings(t *testing.T) {
	ids := []string{"CTX_3", "CTX_1", "CTX_2"}
	LexSortStrings(ids)
	assert.Equal(t, []string{"CTX_1", "CTX_2", "CTX_3"}, ids)
}

func TestContentHashStable(t *testing.T) {
	a, err := ContentHash(map[string]interface{}{"b": 2, "a": 1})
	assert.NoError(t, err)
	b, err := ContentHash(map[string]interface{}{"a": 1, "b": 2})
	assert.NoError(t, err)
	assert.Equal(t, a, b, "key order in the source map must not affect the hash")
}

func TestContentHashDiffers(t *testing.T) {
	a, _ := ContentHash("claim one")
	b, _ := ContentHash("claim two")
	assert.NotEqual(t, a, b)
}

func TestEntityIDIsStableAndPrefixed(t *testing.T) {
	id1 := EntityID("claim", "the sky is blue", "CTX_1")
	id2 := EntityID("claim", "the sky is blue", "CTX_1")
	assert.Equal(t, id1, id2)
	assert.Contains(t, id1, "claim-")

	id3 := EntityID("claim", "the sky is green", "CTX_1")
	assert.NotEqual(t, id1, id3)
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	type inner struct {
		Zeta  int `json:"zeta"`
		Alpha int `json:"alpha"`
	}
	out, err := CanonicalJSON(inner{Zeta: 1, Alpha: 2})
	assert.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"zeta":1}`, string(out))
}

func TestEqualDetectsIdenticalAndDifferentValues(t *testing.T) {
	type payload struct {
		Truth float64 `json:"truth"`
	}
	eq, err := Equal(payload{Truth: 72}, payload{Truth: 72})
	assert.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal(payload{Truth: 72}, payload{Truth: 73})
	assert.NoError(t, err)
	assert.False(t, eq)
}
