package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metakb-transform/internal/builder"
	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/digest"
	"github.com/metakb-transform/internal/domain"
)

func seedMoaEntities(c *cache.Cache, tb *builder.TherapyBuilder) {
	c.PutCategoricalVariant("moa.variant:64", domain.CategoricalVariant{
		ID:   "moa.variant:64",
		Name: "BRAF V600E",
		Constraints: []domain.DefiningAlleleConstraint{{Allele: domain.Variation{ID: "ga4gh:VA.xyz"}}},
		Extensions: []domain.Extension{{Name: "moa_feature_type", Value: "somatic_variant"}},
	})
	c.SetVariationGene("moa.variant:64", "moa.gene:BRAF")
	c.PutGene("moa.gene:BRAF", domain.Concept{ID: "moa.normalize.gene.hgnc:1097", Name: "BRAF"})
	c.PutDocument("moa.source:5", domain.Document{ID: "moa.source:5", Title: "Chapman et al., 2011"})
	tb.SeedMoaTherapy("Vemurafenib", domain.Concept{ID: "moa.normalize.therapy.rxcui:1", Name: "Vemurafenib"})

	diseaseKey := "moa.disease:" + digest.ForSortedStrings([]string{"oncotree_code:MEL"})
	c.PutCondition(diseaseKey, domain.Concept{ID: "moa.normalize.disease.ncit:C3224", Name: "Melanoma"})
}

func TestMoaTransformer_TherapeuticSensitivityStatement(t *testing.T) {
	c := cache.New()
	db := builder.NewDiseaseBuilder(nil, c)
	tb := builder.NewTherapyBuilder(nil, c)
	seedMoaEntities(c, tb)
	tr := NewMoaTransformer(c, db, tb)

	err := tr.Transform(context.Background(), []MoaAssertion{
		{
			ID: 99, Description: "BRAF V600E sensitive to vemurafenib.",
			PredictiveImplication: "FDA_APPROVED", FavorablePrognosis: "",
			Variant: MoaVariantRef{ID: 64},
			Disease: MoaDiseaseRef{Name: "Melanoma", OncotreeCode: "MEL", OncotreeTerm: "Melanoma"},
			Therapy: MoaTherapyRef{Name: "Vemurafenib", Resistance: "", Sensitivity: "1"},
			SourceID: 5,
		},
	})
	require.NoError(t, err)

	stmts := tr.Statements()
	require.Len(t, stmts, 1)
	s := stmts[0]
	assert.Equal(t, "moa.assertion:99", s.ID)
	assert.Equal(t, domain.PropositionTherapeuticResponse, s.Proposition.Kind)
	assert.Equal(t, domain.PredictsSensitivityTo, s.Proposition.TherapeuticPredicate)
	require.NotNil(t, s.Proposition.AlleleOriginQualifier)
	assert.Equal(t, domain.AlleleOriginSomatic, *s.Proposition.AlleleOriginQualifier)
	require.Len(t, s.ReportedIn, 1)
	assert.Equal(t, "moa.source:5", s.ReportedIn[0].ID)
}

func TestMoaTransformer_PrognosticStatement(t *testing.T) {
	c := cache.New()
	db := builder.NewDiseaseBuilder(nil, c)
	tb := builder.NewTherapyBuilder(nil, c)
	seedMoaEntities(c, tb)
	tr := NewMoaTransformer(c, db, tb)

	err := tr.Transform(context.Background(), []MoaAssertion{
		{
			ID: 100, PredictiveImplication: "CLINICAL_EVIDENCE", FavorablePrognosis: "0",
			Variant: MoaVariantRef{ID: 64},
			Disease: MoaDiseaseRef{Name: "Melanoma", OncotreeCode: "MEL", OncotreeTerm: "Melanoma"},
			SourceID: 5,
		},
	})
	require.NoError(t, err)

	stmts := tr.Statements()
	require.Len(t, stmts, 1)
	s := stmts[0]
	assert.Equal(t, domain.PropositionPrognostic, s.Proposition.Kind)
	assert.Equal(t, domain.AssociatedWithWorseOutcomeFor, s.Proposition.PrognosticPredicate)
	assert.Equal(t, domain.DirectionDisputes, s.Direction)
}

func TestMoaTransformer_SkipsWhenVariantMissingFromCache(t *testing.T) {
	c := cache.New()
	db := builder.NewDiseaseBuilder(nil, c)
	tb := builder.NewTherapyBuilder(nil, c)
	seedMoaEntities(c, tb)
	tr := NewMoaTransformer(c, db, tb)

	err := tr.Transform(context.Background(), []MoaAssertion{
		{ID: 1, Variant: MoaVariantRef{ID: 9999}, Disease: MoaDiseaseRef{Name: "Melanoma"}},
	})
	require.NoError(t, err)
	assert.Empty(t, tr.Statements())
}

func TestMoaTransformer_CombinationTherapyGroup(t *testing.T) {
	c := cache.New()
	db := builder.NewDiseaseBuilder(nil, c)
	tb := builder.NewTherapyBuilder(nil, c)
	seedMoaEntities(c, tb)
	tb.SeedMoaTherapy("Dabrafenib", domain.Concept{ID: "moa.normalize.therapy.rxcui:2", Name: "Dabrafenib"})
	tr := NewMoaTransformer(c, db, tb)

	err := tr.Transform(context.Background(), []MoaAssertion{
		{
			ID: 200, PredictiveImplication: "FDA_APPROVED", FavorablePrognosis: "",
			Variant: MoaVariantRef{ID: 64},
			Disease: MoaDiseaseRef{Name: "Melanoma", OncotreeCode: "MEL", OncotreeTerm: "Melanoma"},
			Therapy: MoaTherapyRef{Name: "Vemurafenib + Dabrafenib", Type: "Combination Therapy", Sensitivity: "1"},
			SourceID: 5,
		},
	})
	require.NoError(t, err)

	stmts := tr.Statements()
	require.Len(t, stmts, 1)
	require.NotNil(t, stmts[0].Proposition.ObjectTherapeutic.Group)
	assert.Equal(t, domain.MembershipAND, stmts[0].Proposition.ObjectTherapeutic.Group.MembershipOperator)
	assert.Len(t, stmts[0].Proposition.ObjectTherapeutic.Group.Therapies, 2)
}

func TestMoaTransformer_UnsupportedTherapyTypeSkipsCombination(t *testing.T) {
	c := cache.New()
	db := builder.NewDiseaseBuilder(nil, c)
	tb := builder.NewTherapyBuilder(nil, c)
	seedMoaEntities(c, tb)
	tb.SeedMoaTherapy("Tamoxifen", domain.Concept{ID: "moa.normalize.therapy.rxcui:3", Name: "Tamoxifen"})
	tr := NewMoaTransformer(c, db, tb)

	err := tr.Transform(context.Background(), []MoaAssertion{
		{
			ID: 201, PredictiveImplication: "FDA_APPROVED",
			Variant: MoaVariantRef{ID: 64},
			Disease: MoaDiseaseRef{Name: "Melanoma", OncotreeCode: "MEL", OncotreeTerm: "Melanoma"},
			Therapy: MoaTherapyRef{Name: "Vemurafenib + Tamoxifen", Type: "Hormone Therapy", Sensitivity: "1"},
			SourceID: 5,
		},
	})
	require.NoError(t, err)
	assert.Empty(t, tr.Statements())
}
