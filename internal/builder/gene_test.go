package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
)

func TestBuildCivicGene_CacheHitSkipsNormalizer(t *testing.T) {
	c := cache.New()
	c.PutGene("civic.gid:5", domain.Concept{ID: "civic.normalize.gene.hgnc:1097", Name: "BRAF"})

	b := NewGeneBuilder(nil, c)
	err := b.BuildCivicGene(context.Background(), CivicGene{ID: 5, Name: "BRAF"})
	require.NoError(t, err)

	got, ok := c.GetGene("civic.gid:5")
	require.True(t, ok)
	assert.Equal(t, "BRAF", got.Name)
}

func TestReconcileNCBIMapping_MatchingCodeTagsCivicAnnotation(t *testing.T) {
	concept := &domain.Concept{
		Mappings: []domain.ConceptMapping{
			{Coding: domain.Coding{Code: "673", System: "ncbigene"}, Relation: domain.RelationExactMatch},
		},
	}
	reconcileNCBIMapping(concept, "ncbigene:673", "673")

	require.Len(t, concept.Mappings, 1)
	require.Len(t, concept.Mappings[0].Extensions, 1)
	assert.Equal(t, "civic_annotation", concept.Mappings[0].Extensions[0].Name)
	assert.Equal(t, true, concept.Mappings[0].Extensions[0].Value)
}

func TestReconcileNCBIMapping_DifferingCodeLeftUnchanged(t *testing.T) {
	concept := &domain.Concept{
		Mappings: []domain.ConceptMapping{
			{Coding: domain.Coding{Code: "999", System: "ncbigene"}, Relation: domain.RelationExactMatch},
		},
	}
	reconcileNCBIMapping(concept, "ncbigene:673", "673")

	require.Len(t, concept.Mappings, 1, "a discrepant mapping is not auto-corrected or duplicated")
	assert.Empty(t, concept.Mappings[0].Extensions)
	assert.Equal(t, "999", concept.Mappings[0].Coding.Code)
}

func TestReconcileNCBIMapping_AbsentMappingIsAppended(t *testing.T) {
	concept := &domain.Concept{}
	reconcileNCBIMapping(concept, "ncbigene:673", "673")

	require.Len(t, concept.Mappings, 1)
	assert.Equal(t, "673", concept.Mappings[0].Coding.Code)
	assert.Equal(t, "ncbigene", concept.Mappings[0].Coding.System)
	assert.Equal(t, domain.RelationExactMatch, concept.Mappings[0].Relation)
}
