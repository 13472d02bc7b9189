package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/metakb-transform/internal/builder"
	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
)

// moaSupportedGroupTypes restricts which therapy_type values form a
// combination group, grounded on moa.py's _get_therapy_or_group.
var moaSupportedGroupTypes = map[string]bool{
	"COMBINATION THERAPY": true, "IMMUNOTHERAPY": true,
	"RADIATION THERAPY": true, "TARGETED THERAPY": true,
}

// MoaTransformer implements C6 for MOAlmanac: its assertions are simpler
// than CIViC's (no evidence/assertion split, no combination-vs-substitute
// distinction), but the resistance/sensitivity-vs-prognosis branch requires
// its own predicate derivation.
type MoaTransformer struct {
	cache          *cache.Cache
	diseaseBuilder *builder.DiseaseBuilder
	therapyBuilder *builder.TherapyBuilder

	assertions []domain.Statement
}

// NewMoaTransformer wires a MoaTransformer against the shared Entity Cache
// and the disease/therapy builders it must invoke per assertion.
func NewMoaTransformer(c *cache.Cache, db *builder.DiseaseBuilder, tb *builder.TherapyBuilder) *MoaTransformer {
	return &MoaTransformer{cache: c, diseaseBuilder: db, therapyBuilder: tb}
}

// Statements returns the admitted MOA assertion statements in assembly order.
func (t *MoaTransformer) Statements() []domain.Statement {
	return t.assertions
}

// moaEvidenceLevelInfo names the (name, vicc code) a MOA predictive_implication
// maps to, grounded on moa.py's MoaEvidenceLevel / evidence_level_to_vicc_concept_mapping.
var moaEvidenceLevelInfo = map[string]struct {
	name     string
	viccCode string
	viccName string
}{
	"FDA_APPROVED":  {"FDA-Approved", "e000001", "authoritative evidence"},
	"GUIDELINE":     {"Professional guideline", "e000001", "authoritative evidence"},
	"CLINICAL_TRIAL": {"Clinical trial", "e000005", "clinical cohort evidence"},
	"CLINICAL_EVIDENCE": {"Clinical evidence", "e000005", "clinical cohort evidence"},
	"PRECLINICAL":   {"Preclinical evidence", "e000003", "preclinical evidence"},
	"INFERENTIAL":   {"Inferential association", "e000004", "indirect evidence"},
}

func moaStrength(predictiveImplication string) *domain.Concept {
	key := strings.ToUpper(strings.ReplaceAll(predictiveImplication, " ", "_"))
	info, ok := moaEvidenceLevelInfo[key]
	if !ok {
		return nil
	}
	return &domain.Concept{
		Name:          info.name,
		PrimaryCoding: &domain.Coding{System: "https://moalmanac.org", Code: predictiveImplication},
		Mappings: []domain.ConceptMapping{
			{
				Coding:   domain.Coding{System: viccEvidenceCodeSystem, Code: info.viccCode, Name: info.viccName},
				Relation: domain.RelationExactMatch,
			},
		},
	}
}

// Transform assembles one Statement per admitted MOA assertion, grounded on
// moa.py's _add_variant_study_stmt.
func (t *MoaTransformer) Transform(ctx context.Context, assertions []MoaAssertion) error {
	for _, a := range assertions {
		variantKey := fmt.Sprintf("moa.variant:%d", a.Variant.ID)
		cv, ok := t.cache.GetCategoricalVariant(variantKey)
		if !ok || !cv.HasDefiningAllele() {
			continue
		}

		disease, err := t.diseaseBuilder.BuildMoaDisease(ctx, builder.MoaDisease{
			Name: a.Disease.Name, OncotreeCode: a.Disease.OncotreeCode, OncotreeTerm: a.Disease.OncotreeTerm,
		})
		if err != nil {
			return err
		}
		if disease == nil {
			continue
		}

		document, ok := t.cache.GetDocument(fmt.Sprintf("moa.source:%d", a.SourceID))
		if !ok {
			continue
		}

		var prop domain.Proposition
		prop.SubjectVariant = cv
		if geneID, ok := t.cache.GeneFor(variantKey); ok {
			if gene, ok := t.cache.GetGene(geneID); ok {
				prop.GeneContextQualifier = gene
			}
		}
		prop.AlleleOriginQualifier = moaAlleleOrigin(cv)

		var direction domain.Direction

		if a.FavorablePrognosis == "" {
			obj, err := t.buildTherapeuticObject(ctx, a.Therapy)
			if err != nil {
				return err
			}
			if obj == nil {
				continue
			}
			prop.Kind = domain.PropositionTherapeuticResponse
			prop.ObjectTherapeutic = obj
			prop.ConditionQualifier = disease

			if a.Therapy.Resistance != "" && a.Therapy.Resistance != "0" {
				prop.TherapeuticPredicate = domain.PredictsResistanceTo
				direction = domain.DirectionSupports
			} else {
				prop.TherapeuticPredicate = domain.PredictsSensitivityTo
				direction = domain.DirectionSupports
			}
		} else {
			prop.Kind = domain.PropositionPrognostic
			prop.ObjectCondition = disease
			if a.FavorablePrognosis != "" && a.FavorablePrognosis != "0" {
				prop.PrognosticPredicate = domain.AssociatedWithBetterOutcomeFor
				direction = domain.DirectionSupports
			} else {
				prop.PrognosticPredicate = domain.AssociatedWithWorseOutcomeFor
				direction = domain.DirectionDisputes
			}
		}

		stmt := domain.Statement{
			ID:          fmt.Sprintf("moa.assertion:%d", a.ID),
			Type:        domain.StatementAssertion,
			Description: a.Description,
			Direction:   direction,
			Strength:    moaStrength(a.PredictiveImplication),
			Proposition: prop,
			SpecifiedBy: moaMethod,
			ReportedIn:  []domain.Document{document},
		}
		t.assertions = append(t.assertions, stmt)
	}
	return nil
}

// buildTherapeuticObject resolves a single therapy or "+"-joined combination
// group, grounded on moa.py's _get_therapy_or_group.
func (t *MoaTransformer) buildTherapeuticObject(ctx context.Context, ref MoaTherapyRef) (*domain.TherapeuticObject, error) {
	names := strings.Split(ref.Name, "+")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}

	if len(names) == 1 {
		concept, err := t.therapyBuilder.BuildMoaTherapy(ctx, names[0])
		if err != nil {
			return nil, err
		}
		if concept == nil {
			return nil, nil
		}
		return &domain.TherapeuticObject{Therapy: concept}, nil
	}

	if !moaSupportedGroupTypes[strings.ToUpper(ref.Type)] {
		return nil, nil
	}

	concepts := make([]*domain.Concept, 0, len(names))
	for _, name := range names {
		c, err := t.therapyBuilder.BuildMoaTherapy(ctx, name)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, nil
		}
		concepts = append(concepts, c)
	}

	group := builder.BuildTherapyGroup("moa", "ctid", domain.MembershipAND, concepts)
	builder.CacheTherapyGroup(t.cache, group)
	return &domain.TherapeuticObject{Group: group}, nil
}

// moaAlleleOrigin derives the allele origin qualifier from the categorical
// variant's feature_type, carried as an extension by the variation builder
// (grounded on moa.py's somatic_variant/germline_variant branch).
func moaAlleleOrigin(cv domain.CategoricalVariant) *domain.AlleleOrigin {
	for _, ext := range cv.Extensions {
		if ext.Name != "moa_feature_type" {
			continue
		}
		switch ext.Value {
		case "somatic_variant":
			o := domain.AlleleOriginSomatic
			return &o
		case "germline_variant":
			o := domain.AlleleOriginGermline
			return &o
		}
	}
	return nil
}
