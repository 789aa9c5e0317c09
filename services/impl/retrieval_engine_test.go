package impl

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldcatalog/catalog-service/models"
)

func TestReciprocalRankFusion(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	t.Run("chunk present in both rankings outscores a single-ranking chunk", func(t *testing.T) {
		vector := []models.RankedChunk{{ChunkID: a, Rank: 1}, {ChunkID: b, Rank: 2}}
		lexical := []models.RankedChunk{{ChunkID: a, Rank: 1}, {ChunkID: c, Rank: 2}}

		fused := reciprocalRankFusion(60, vector, lexical)
		require.Len(t, fused, 3)
		assert.Equal(t, a, fused[0].ChunkID)
		assert.InDelta(t, 2.0/61.0, fused[0].RRFScore, 1e-9)
	})

	t.Run("tied scores break on chunk id for deterministic ordering", func(t *testing.T) {
		ranking1 := []models.RankedChunk{{ChunkID: b, Rank: 1}, {ChunkID: a, Rank: 1}}
		fusedFirst := reciprocalRankFusion(60, ranking1)
		fusedSecond := reciprocalRankFusion(60, ranking1)
		require.Equal(t, fusedFirst, fusedSecond)

		// Independent of input order, ties resolve to the same ordering.
		ranking2 := []models.RankedChunk{{ChunkID: a, Rank: 1}, {ChunkID: b, Rank: 1}}
		fusedFromReordered := reciprocalRankFusion(60, ranking2)
		assert.Equal(t, fusedFirst, fusedFromReordered)
	})

	t.Run("empty rankings produce empty fusion", func(t *testing.T) {
		fused := reciprocalRankFusion(60)
		assert.Empty(t, fused)
	})
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		hasSpecTerm bool
		want        models.QueryIntent
	}{
		{"comparison keyword", "true t-49 vs hoshizaki kf-53", false, models.IntentComparison},
		{"recommendation keyword", "which unit is best for a butcher shop", false, models.IntentRecommendation},
		{"compliance keyword", "is this nsf certified", false, models.IntentCompliance},
		{"spec term without keyword falls back to spec lookup", "door count", true, models.IntentSpecLookup},
		{"no signal falls back to general", "tell me about this", false, models.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyIntent(tt.query, tt.hasSpecTerm)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModelNumberTokenPattern(t *testing.T) {
	matches := modelNumberToken.FindAllString("Compare the TSSU-60-16 against a T-49", -1)
	assert.Contains(t, matches, "TSSU-60-16")
	assert.Contains(t, matches, "T-49")
}

func TestDedupStrings(t *testing.T) {
	out := dedupStrings([]string{"TRUE", "TRUE", "HOSHIZAKI"})
	assert.Equal(t, []string{"TRUE", "HOSHIZAKI"}, out)
}
