package reachability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metakb-transform/internal/domain"
)

func validVariant(id string) domain.CategoricalVariant {
	return domain.CategoricalVariant{
		ID:          id,
		Constraints: []domain.DefiningAlleleConstraint{{Allele: domain.Variation{ID: "ga4gh:VA.x"}}},
	}
}

func TestFilter_AdmitsFullyNormalizedTherapeuticStatement(t *testing.T) {
	gene := domain.Concept{ID: "civic.normalize.gene.hgnc:1", Name: "EGFR"}
	disease := domain.Concept{ID: "civic.normalize.disease.ncit:1", Name: "NSCLC"}
	therapy := domain.Concept{ID: "civic.normalize.therapy.rxcui:1", Name: "Erlotinib"}

	stmt := domain.Statement{
		ID: "civic.eid:1",
		Proposition: domain.Proposition{
			Kind:                 domain.PropositionTherapeuticResponse,
			SubjectVariant:       validVariant("civic.vid:1"),
			GeneContextQualifier: gene,
			ConditionQualifier:   &disease,
			ObjectTherapeutic:    &domain.TherapeuticObject{Therapy: &therapy},
		},
	}

	result := Filter([]domain.Statement{stmt}, nil)
	require.Len(t, result.Evidence, 1)
	assert.True(t, result.ProjectedIDs["civic.eid:1"])
	assert.True(t, result.ProjectedIDs["civic.vid:1"])
	assert.True(t, result.ProjectedIDs[gene.ID])
	assert.True(t, result.ProjectedIDs[disease.ID])
	assert.True(t, result.ProjectedIDs[therapy.ID])
}

func TestFilter_DropsStatementWithFailedGene(t *testing.T) {
	failedGene := domain.Concept{
		ID: "civic.gid:1", Name: "EGFR",
		Extensions: []domain.Extension{{Name: domain.ExtensionNormalizerFailure, Value: true}},
	}
	disease := domain.Concept{ID: "civic.normalize.disease.ncit:1"}
	therapy := domain.Concept{ID: "civic.normalize.therapy.rxcui:1"}

	stmt := domain.Statement{
		ID: "civic.eid:2",
		Proposition: domain.Proposition{
			Kind:                 domain.PropositionTherapeuticResponse,
			SubjectVariant:       validVariant("civic.vid:2"),
			GeneContextQualifier: failedGene,
			ConditionQualifier:   &disease,
			ObjectTherapeutic:    &domain.TherapeuticObject{Therapy: &therapy},
		},
	}

	result := Filter([]domain.Statement{stmt}, nil)
	assert.Empty(t, result.Evidence)
}

func TestFilter_DropsStatementWithNoDefiningAllele(t *testing.T) {
	stmt := domain.Statement{
		ID: "civic.eid:3",
		Proposition: domain.Proposition{
			Kind:                 domain.PropositionPrognostic,
			SubjectVariant:       domain.CategoricalVariant{ID: "civic.vid:3"},
			GeneContextQualifier: domain.Concept{ID: "civic.normalize.gene.hgnc:1"},
			ObjectCondition:      &domain.Concept{ID: "civic.normalize.disease.ncit:1"},
		},
	}

	result := Filter([]domain.Statement{stmt}, nil)
	assert.Empty(t, result.Evidence)
}

func TestFilter_AssertionDroppedWithZeroAdmittedEvidenceLines(t *testing.T) {
	gene := domain.Concept{ID: "civic.normalize.gene.hgnc:1"}
	disease := domain.Concept{ID: "civic.normalize.disease.ncit:1"}

	assertion := domain.Statement{
		ID: "civic.aid:1",
		Proposition: domain.Proposition{
			Kind:                 domain.PropositionPrognostic,
			SubjectVariant:       validVariant("civic.vid:1"),
			GeneContextQualifier: gene,
			ObjectCondition:      &disease,
		},
		HasEvidenceLines: []domain.EvidenceLine{
			{ID: "civic.aid:1.line:1", HasEvidenceItems: []string{"civic.eid:999"}}, // never admitted
		},
	}

	result := Filter(nil, []domain.Statement{assertion})
	assert.Empty(t, result.Assertions, "assertion with zero surviving evidence lines must be dropped (Open Question (a))")
}

func TestFilter_AssertionEvidenceLineDropsUnadmittedReference(t *testing.T) {
	gene := domain.Concept{ID: "civic.normalize.gene.hgnc:1"}
	disease := domain.Concept{ID: "civic.normalize.disease.ncit:1"}

	evidence := domain.Statement{
		ID: "civic.eid:1",
		Proposition: domain.Proposition{
			Kind:                 domain.PropositionPrognostic,
			SubjectVariant:       validVariant("civic.vid:1"),
			GeneContextQualifier: gene,
			ObjectCondition:      &disease,
		},
	}
	assertion := domain.Statement{
		ID: "civic.aid:1",
		Proposition: domain.Proposition{
			Kind:                 domain.PropositionPrognostic,
			SubjectVariant:       validVariant("civic.vid:2"),
			GeneContextQualifier: gene,
			ObjectCondition:      &disease,
		},
		HasEvidenceLines: []domain.EvidenceLine{
			{ID: "civic.aid:1.line:1", HasEvidenceItems: []string{"civic.eid:1", "civic.eid:999"}},
		},
	}

	result := Filter([]domain.Statement{evidence}, []domain.Statement{assertion})
	require.Len(t, result.Assertions, 1)
	require.Len(t, result.Assertions[0].HasEvidenceLines, 1)
	assert.Equal(t, []string{"civic.eid:1"}, result.Assertions[0].HasEvidenceLines[0].HasEvidenceItems)
}

func TestFilter_TherapyGroupMemberFailureBlocksAdmission(t *testing.T) {
	gene := domain.Concept{ID: "civic.normalize.gene.hgnc:1"}
	disease := domain.Concept{ID: "civic.normalize.disease.ncit:1"}
	failedTherapy := domain.Concept{
		ID: "civic.tid:1", Extensions: []domain.Extension{{Name: domain.ExtensionNormalizerFailure, Value: true}},
	}
	group := &domain.TherapyGroup{
		ID:                 "civic.ctid:abc",
		MembershipOperator: domain.MembershipAND,
		Therapies:          []domain.Concept{failedTherapy},
	}

	stmt := domain.Statement{
		ID: "civic.eid:5",
		Proposition: domain.Proposition{
			Kind:                 domain.PropositionTherapeuticResponse,
			SubjectVariant:       validVariant("civic.vid:5"),
			GeneContextQualifier: gene,
			ConditionQualifier:   &disease,
			ObjectTherapeutic:    &domain.TherapeuticObject{Group: group},
		},
	}

	result := Filter([]domain.Statement{stmt}, nil)
	assert.Empty(t, result.Evidence)
}
