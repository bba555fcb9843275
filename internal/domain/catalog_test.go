package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	t.Run("string preserves text", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(`"199.90"`), &a))
		assert.Equal(t, Amount("199.90"), a)
	})

	t.Run("number preserves text", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(`199.90`), &a))
		assert.Equal(t, Amount("199.90"), a)
	})

	t.Run("null is empty", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(`null`), &a))
		assert.Equal(t, Amount(""), a)
		assert.Nil(t, a.StringPtr())
	})

	t.Run("non-decimal rejected", func(t *testing.T) {
		var a Amount
		err := json.Unmarshal([]byte(`"not-a-price"`), &a)
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestParseProvider(t *testing.T) {
	for _, p := range Providers {
		got, err := ParseProvider(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParseProvider("amazon")
	require.ErrorIs(t, err, ErrValidation)
}

func TestMergeMetadata(t *testing.T) {
	existing := map[string]any{"agentHost": "edge-1", "lastIngestAt": "old"}
	extra := map[string]any{"lastIngestAt": "new", "lastIngestAgentVersion": "1.2.0"}

	merged := MergeMetadata(existing, extra)
	assert.Equal(t, "edge-1", merged["agentHost"])
	assert.Equal(t, "new", merged["lastIngestAt"])
	assert.Equal(t, "1.2.0", merged["lastIngestAgentVersion"])
	// input maps untouched
	assert.Equal(t, "old", existing["lastIngestAt"])
}
