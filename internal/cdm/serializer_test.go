package cdm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/reachability"
)

func TestBuild_ProjectsOnlyAdmittedIDs(t *testing.T) {
	c := cache.New()
	c.PutGene("civic.gid:1", domain.Concept{ID: "civic.normalize.gene.hgnc:1", Name: "EGFR"})
	c.PutGene("civic.gid:2", domain.Concept{ID: "civic.gid:2", Name: "Unused"})
	c.PutCondition("civic.did:1", domain.Concept{ID: "civic.normalize.disease.ncit:1", Name: "NSCLC"})

	result := reachability.Result{
		ProjectedIDs: map[string]bool{"civic.normalize.gene.hgnc:1": true, "civic.normalize.disease.ncit:1": true},
	}

	doc := Build(c, nil, result)
	require.Len(t, doc.Genes, 1)
	assert.Equal(t, "EGFR", doc.Genes[0].Name)
	require.Len(t, doc.Conditions, 1)
}

func TestBuild_PreservesFirstInsertionOrder(t *testing.T) {
	c := cache.New()
	c.PutGene("civic.gid:2", domain.Concept{ID: "g2", Name: "Second"})
	c.PutGene("civic.gid:1", domain.Concept{ID: "g1", Name: "First"})

	result := reachability.Result{ProjectedIDs: map[string]bool{"g1": true, "g2": true}}
	doc := Build(c, nil, result)

	require.Len(t, doc.Genes, 2)
	assert.Equal(t, "Second", doc.Genes[0].Name, "g2 was inserted first and must emit first")
	assert.Equal(t, "First", doc.Genes[1].Name)
}

func TestMarshal_RoundTripsTopLevelKeys(t *testing.T) {
	doc := Document{
		Genes: []domain.Concept{{ID: "g1", Name: "EGFR"}},
		StatementsEvidence: []domain.Statement{{ID: "civic.eid:1", Type: domain.StatementEvidence}},
	}

	raw, err := Marshal(doc)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{
		"categorical_variants", "variations", "genes", "conditions", "therapies",
		"documents", "methods", "statements_evidence", "statements_assertions",
	} {
		_, ok := m[key]
		assert.True(t, ok, "missing top-level key %q", key)
	}

	var roundTripped Document
	require.NoError(t, json.Unmarshal(raw, &roundTripped))
	assert.Equal(t, doc.Genes[0].Name, roundTripped.Genes[0].Name)
}
