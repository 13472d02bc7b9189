package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metakb-transform/internal/domain"
)

func TestStatementRows_EmitsFlattenedPredicate(t *testing.T) {
	stmt := domain.Statement{
		ID:        "civic.eid:1",
		Type:      domain.StatementEvidence,
		Direction: domain.DirectionSupports,
		Proposition: domain.Proposition{
			Kind:                 domain.PropositionTherapeuticResponse,
			TherapeuticPredicate: domain.PredictsSensitivityTo,
		},
	}

	rows := statementRows([]domain.Statement{stmt})
	require.Len(t, rows, 1)
	assert.Equal(t, "predictsSensitivityTo", rows[0]["predicate"])
	assert.Equal(t, "Statement", rows[0]["type"])
}

func TestStatementLinkRows_SkipsFailedGeneContext(t *testing.T) {
	disease := domain.Concept{ID: "civic.normalize.disease.ncit:1"}
	stmt := domain.Statement{
		ID: "civic.eid:1",
		Proposition: domain.Proposition{
			Kind:           domain.PropositionPrognostic,
			SubjectVariant: domain.CategoricalVariant{ID: "civic.vid:1"},
			GeneContextQualifier: domain.Concept{
				ID:         "civic.gid:1",
				Extensions: []domain.Extension{{Name: domain.ExtensionNormalizerFailure, Value: true}},
			},
			ObjectCondition: &disease,
		},
	}

	rows := statementLinkRows([]domain.Statement{stmt})
	for _, r := range rows {
		assert.NotEqual(t, "HAS_GENE_CONTEXT", r["rel"], "a failed gene context must not be linked")
	}
	assert.NotEmpty(t, rows, "subject variant link must still be present")
}

func TestStatementLinkRows_LinksEveryTherapyGroupMember(t *testing.T) {
	disease := domain.Concept{ID: "civic.normalize.disease.ncit:1"}
	group := &domain.TherapyGroup{
		ID: "civic.ctid:abc",
		Therapies: []domain.Concept{
			{ID: "civic.normalize.therapy.rxcui:1"},
			{ID: "civic.normalize.therapy.rxcui:2"},
		},
	}
	stmt := domain.Statement{
		ID: "civic.eid:2",
		Proposition: domain.Proposition{
			Kind:               domain.PropositionTherapeuticResponse,
			SubjectVariant:     domain.CategoricalVariant{ID: "civic.vid:2"},
			ConditionQualifier: &disease,
			ObjectTherapeutic:  &domain.TherapeuticObject{Group: group},
		},
	}

	rows := statementLinkRows([]domain.Statement{stmt})
	count := 0
	for _, r := range rows {
		if r["rel"] == "HAS_OBJECT_THERAPEUTIC" {
			count++
		}
	}
	assert.Equal(t, 3, count, "group node plus its two member therapies")
}

func TestConstraints_CoverEveryNodeLabel(t *testing.T) {
	assert.Len(t, constraints, 8)
}
