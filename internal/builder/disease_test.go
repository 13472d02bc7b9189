package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/digest"
	"github.com/metakb-transform/internal/domain"
)

func TestBuildMoaDisease_MissingFieldReturnsNilWithoutCallingGateway(t *testing.T) {
	b := NewDiseaseBuilder(nil, cache.New())

	concept, err := b.BuildMoaDisease(context.Background(), MoaDisease{Name: "Melanoma"})
	require.NoError(t, err)
	assert.Nil(t, concept, "oncotree_code and oncotree_term are both required alongside name")
}

func TestBuildCivicDisease_CacheHitSkipsNormalizer(t *testing.T) {
	c := cache.New()
	c.PutCondition("civic.did:7", domain.Concept{ID: "civic.normalize.disease.ncit:C3224", Name: "Melanoma"})

	b := NewDiseaseBuilder(nil, c)
	concept, err := b.BuildCivicDisease(context.Background(), CivicDisease{ID: 7, DisplayName: "Melanoma"})
	require.NoError(t, err)
	require.NotNil(t, concept)
	assert.Equal(t, "Melanoma", concept.Name)
}

func TestBuildMoaDisease_CacheKeyIsDigestOverOncotreeCodeOnly(t *testing.T) {
	c := cache.New()
	b := NewDiseaseBuilder(nil, c)

	d := MoaDisease{Name: "Melanoma", OncotreeCode: "MEL", OncotreeTerm: "Melanoma"}
	// Pre-seed the cache under the same digest key this builder would compute,
	// so BuildMoaDisease hits cache and never touches the nil gateway.
	cacheKey := "moa.disease:" + digest.ForSortedStrings([]string{"oncotree_code:MEL"})
	c.PutCondition(cacheKey, domain.Concept{ID: "moa.normalize.disease.ncit:C3224", Name: "Melanoma"})

	concept, err := b.BuildMoaDisease(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, concept)
	assert.Equal(t, "Melanoma", concept.Name)
}

func TestBuildMoaDisease_SameOncotreeCodeReconcilesDespiteDifferentName(t *testing.T) {
	c := cache.New()
	b := NewDiseaseBuilder(nil, c)

	cacheKey := "moa.disease:" + digest.ForSortedStrings([]string{"oncotree_code:MEL"})
	c.PutCondition(cacheKey, domain.Concept{ID: "moa.normalize.disease.ncit:C3224", Name: "Melanoma"})

	// A different source disease name with the same oncotree_code must hit
	// the identical cache key, since the digest never includes name.
	d := MoaDisease{Name: "Malignant Melanoma", OncotreeCode: "MEL", OncotreeTerm: "Melanoma"}
	concept, err := b.BuildMoaDisease(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, concept)
	assert.Equal(t, "moa.normalize.disease.ncit:C3224", concept.ID)
}
