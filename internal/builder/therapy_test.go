package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
)

func TestBuildCivicTherapy_CacheHitSkipsNormalizer(t *testing.T) {
	c := cache.New()
	c.PutTherapy("civic.tid:33", domain.Concept{ID: "civic.normalize.therapy.rxcui:123", Name: "Erlotinib"})

	b := NewTherapyBuilder(nil, c)
	concept, err := b.BuildCivicTherapy(context.Background(), CivicTherapy{ID: 33, Name: "Erlotinib"})
	require.NoError(t, err)
	require.NotNil(t, concept)
	assert.Equal(t, "Erlotinib", concept.Name)
}

func TestBuildMoaTherapy_DuplicateCanonicalIDNeverProducesTwoCacheEntries(t *testing.T) {
	c := cache.New()
	b := NewTherapyBuilder(nil, c)

	concept := domain.Concept{ID: "moa.normalize.therapy.rxcui:1", Name: "Vemurafenib"}
	// Two distinct source labels (generic and brand name) resolving to the
	// identical canonical concept must reconcile to one cache entry, not
	// two entries sharing the same ID.
	b.SeedMoaTherapy("Vemurafenib", concept)
	b.SeedMoaTherapy("Zelboraf", concept)
	b.FinalizeMoaTherapies()

	therapies := c.Therapies()
	require.Len(t, therapies, 1, "duplicate canonical ID must not yield duplicate cache entries")
	assert.Equal(t, "Vemurafenib", therapies[0].Name, "lexicographic minimum of observed labels wins")
}

func TestBuildMoaTherapy_SingleLabelLeavesNameUnchanged(t *testing.T) {
	c := cache.New()
	b := NewTherapyBuilder(nil, c)

	concept := domain.Concept{ID: "moa.normalize.therapy.rxcui:2", Name: "Dabrafenib"}
	b.SeedMoaTherapy("Dabrafenib", concept)
	b.FinalizeMoaTherapies()

	cached, ok := c.GetTherapy("moa.normalize.therapy.rxcui:2")
	require.True(t, ok)
	assert.Equal(t, "Dabrafenib", cached.Name)
}
