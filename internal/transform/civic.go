package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/metakb-transform/internal/builder"
	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
)

// civicSupportedRecordTypes restricts evidence/assertion records to the
// three types MetaKB supports (PREDICTIVE, PROGNOSTIC, DIAGNOSTIC), grounded
// on civic.py's _CivicEvidenceAssertionType; the same set is used for both
// evidence_type and assertion_type. ONCOGENIC and PREDISPOSING records are
// skipped.
var civicSupportedRecordTypes = map[string]bool{
	"PREDICTIVE": true, "PROGNOSTIC": true, "DIAGNOSTIC": true,
}

// civicSourcePrefixes restricts which document source types are supported,
// grounded on civic.py's SourcePrefix.
var civicSourcePrefixes = map[string]bool{"PUBMED": true, "ASCO": true, "ASH": true}

// BuildMPToVariantMapping resolves the 1:1 molecular-profile-to-variant
// mapping (spec.md §4.6 step 2): profiles naming zero or more than one
// variant are dropped.
func BuildMPToVariantMapping(profiles []CivicMolecularProfile) map[int]int {
	m := make(map[int]int)
	for _, p := range profiles {
		if len(p.VariantIDs) == 1 {
			m[p.ID] = p.VariantIDs[0]
		}
	}
	return m
}

// CivicTransformer implements C6 for CIViC: it joins entities already
// populated in the Entity Cache (disease/therapy are normalized lazily,
// here, per record) into evidence and assertion Statements.
type CivicTransformer struct {
	cache          *cache.Cache
	diseaseBuilder *builder.DiseaseBuilder
	therapyBuilder *builder.TherapyBuilder
	therapiesByID  map[int]builder.CivicTherapy

	evidenceOrder []string // statement IDs, insertion order
	evidenceByID  map[string]domain.Statement
	assertions    []domain.Statement
}

// NewCivicTransformer wires a CivicTransformer against the shared Entity
// Cache and the disease/therapy builders it must invoke for records it
// processes (CIViC normalizes disease/therapy per-statement, not upfront).
// therapiesByID is the harvest's top-level therapies array indexed by
// source ID (spec.md §6); a therapy reference missing from it falls back
// to an ID-only record, matching this transformer's pre-existing behavior.
func NewCivicTransformer(c *cache.Cache, db *builder.DiseaseBuilder, tb *builder.TherapyBuilder, therapiesByID map[int]builder.CivicTherapy) *CivicTransformer {
	return &CivicTransformer{
		cache:          c,
		diseaseBuilder: db,
		therapyBuilder: tb,
		therapiesByID:  therapiesByID,
		evidenceByID:   make(map[string]domain.Statement),
	}
}

// resolveTherapy looks up a therapy reference's full harvested record by
// ID, falling back to an ID-only record when the harvest carried no
// top-level therapies array (or omitted this ID from it).
func (t *CivicTransformer) resolveTherapy(id int) builder.CivicTherapy {
	if rec, ok := t.therapiesByID[id]; ok {
		return rec
	}
	return builder.CivicTherapy{ID: id}
}

// EvidenceStatements returns the admitted evidence statements in assembly order.
func (t *CivicTransformer) EvidenceStatements() []domain.Statement {
	out := make([]domain.Statement, 0, len(t.evidenceOrder))
	for _, id := range t.evidenceOrder {
		out = append(out, t.evidenceByID[id])
	}
	return out
}

// AssertionStatements returns the admitted assertion statements in assembly order.
func (t *CivicTransformer) AssertionStatements() []domain.Statement {
	return t.assertions
}

// statementID converts a CIViC record name ("EID2997"/"AID123") into its
// CURIE form, per civic.py's statement_id construction.
func statementID(name string, evidence bool) string {
	lower := strings.ToLower(name)
	if evidence {
		return strings.Replace(lower, "eid", "civic.eid:", 1)
	}
	return strings.Replace(lower, "aid", "civic.aid:", 1)
}

// TransformEvidence assembles evidence Statements. Must run before
// TransformAssertions (spec.md §4.6 "Ordering") so assertion evidence-line
// back-references resolve.
func (t *CivicTransformer) TransformEvidence(ctx context.Context, items []CivicEvidenceItem, mpToVariant map[int]int) error {
	for _, item := range items {
		if item.Status != "accepted" || !civicSupportedRecordTypes[item.EvidenceType] {
			continue
		}
		stmt, ok, err := t.assembleStatement(ctx, evidenceInput{
			recordID: item.ID, name: item.Name, recordType: item.EvidenceType,
			directionRaw: item.EvidenceDirection, significance: item.Significance,
			description: item.Description, mpID: item.MolecularProfileID,
			variantOrigin: item.VariantOrigin, disease: item.Disease,
			therapies: item.Therapies, therapyInteraction: item.TherapyInteractionType,
		}, mpToVariant)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		document := t.addEvidenceDocument(item.Source)
		if document == nil {
			continue
		}
		stmt.ReportedIn = []domain.Document{*document}
		stmt.Strength = evidenceStrength(item.EvidenceLevel)

		t.evidenceOrder = append(t.evidenceOrder, stmt.ID)
		t.evidenceByID[stmt.ID] = stmt
		t.cache.PutEvidence(stmt.ID, stmt)
	}
	return nil
}

// TransformAssertions assembles assertion Statements, resolving evidence-line
// back-references against statements admitted by TransformEvidence in this
// same run. Unresolved references are silently dropped (spec.md §4.6 step 9).
func (t *CivicTransformer) TransformAssertions(ctx context.Context, assertions []CivicAssertion, mpToVariant map[int]int) error {
	for _, a := range assertions {
		if a.Status != "accepted" || !civicSupportedRecordTypes[a.AssertionType] {
			continue
		}

		var classification *domain.Concept
		var strength *domain.Concept
		if a.AMPLevel != "" {
			classification, strength = classificationAndStrength(a.AMPLevel)
			if classification == nil {
				continue
			}
		}

		stmt, ok, err := t.assembleStatement(ctx, evidenceInput{
			recordID: a.ID, name: a.Name, recordType: a.AssertionType,
			directionRaw: a.AssertionDirection, significance: a.Significance,
			description: a.Description, mpID: a.MolecularProfileID,
			variantOrigin: a.VariantOrigin, disease: a.Disease,
			therapies: a.Therapies, therapyInteraction: a.TherapyInteractionType,
		}, mpToVariant)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		stmt.Classification = classification
		stmt.Strength = strength

		var lines []domain.EvidenceLine
		for _, eid := range a.EvidenceIDs {
			evidenceStmtID := fmt.Sprintf("civic.eid:%d", eid)
			if _, ok := t.evidenceByID[evidenceStmtID]; !ok {
				continue
			}
			lines = append(lines, domain.EvidenceLine{
				ID:                          fmt.Sprintf("%s.line:%d", stmt.ID, eid),
				DirectionOfEvidenceProvided: domain.DirectionSupports,
				HasEvidenceItems:            []string{evidenceStmtID},
			})
		}
		stmt.HasEvidenceLines = lines

		t.assertions = append(t.assertions, stmt)
	}
	return nil
}

// evidenceInput is the subset of fields shared by evidence items and
// assertions needed to assemble a statement's proposition, independent of
// the evidence-only (strength/reportedIn) and assertion-only
// (classification/evidence-lines) fields assembled by the caller.
type evidenceInput struct {
	recordID           int
	name               string
	recordType         string
	directionRaw       string
	significance       string
	description        string
	mpID               int
	variantOrigin      string
	disease            *CivicDiseaseRef
	therapies          []CivicTherapyRef
	therapyInteraction string
}

func (t *CivicTransformer) assembleStatement(ctx context.Context, in evidenceInput, mpToVariant map[int]int) (domain.Statement, bool, error) {
	variantID, ok := mpToVariant[in.mpID]
	if !ok {
		return domain.Statement{}, false, nil
	}
	variantKey := fmt.Sprintf("civic.vid:%d", variantID)
	cv, ok := t.cache.GetCategoricalVariant(variantKey)
	if !ok || !cv.HasDefiningAllele() {
		return domain.Statement{}, false, nil
	}

	pred, ok := clinSigToPredicate[in.significance]
	if !ok {
		return domain.Statement{}, false, nil
	}

	if in.disease == nil {
		return domain.Statement{}, false, nil
	}
	civicDisease, err := t.diseaseBuilder.BuildCivicDisease(ctx, builder.CivicDisease{
		ID: in.disease.ID, DisplayName: in.disease.DisplayName, DOID: in.disease.DOID,
	})
	if err != nil {
		return domain.Statement{}, false, err
	}
	if civicDisease == nil {
		return domain.Statement{}, false, nil
	}

	var therapeuticObject *domain.TherapeuticObject
	if pred.kind == domain.PropositionTherapeuticResponse {
		obj, err := t.buildTherapeuticObject(ctx, in.therapies, in.therapyInteraction)
		if err != nil {
			return domain.Statement{}, false, err
		}
		if obj == nil {
			return domain.Statement{}, false, nil
		}
		therapeuticObject = obj
	}

	geneID, _ := t.cache.GeneFor(variantKey)
	gene, _ := t.cache.GetGene(geneID)

	prop := domain.Proposition{
		Kind:                  pred.kind,
		SubjectVariant:        cv,
		GeneContextQualifier:  gene,
		AlleleOriginQualifier: alleleOrigin(strings.ToUpper(in.variantOrigin)),
	}
	switch pred.kind {
	case domain.PropositionTherapeuticResponse:
		prop.TherapeuticPredicate = pred.therapeutic
		prop.ObjectTherapeutic = therapeuticObject
		prop.ConditionQualifier = civicDisease
	case domain.PropositionPrognostic:
		prop.PrognosticPredicate = pred.prognostic
		prop.ObjectCondition = civicDisease
	case domain.PropositionDiagnostic:
		prop.DiagnosticPredicate = pred.diagnostic
		prop.ObjectCondition = civicDisease
	}

	evidence := !strings.HasPrefix(strings.ToLower(in.name), "aid")
	id := statementID(in.name, evidence)
	stype := domain.StatementEvidence
	if !evidence {
		stype = domain.StatementAssertion
	}

	stmt := domain.Statement{
		ID:          id,
		Type:        stype,
		Description: in.description,
		Direction:   direction(in.directionRaw),
		Proposition: prop,
		SpecifiedBy: civicMethod,
	}
	return stmt, true, nil
}

// buildTherapeuticObject resolves a single therapy or a therapy group,
// grounded on civic.py's _get_therapeutic_metadata + _add_therapy.
func (t *CivicTransformer) buildTherapeuticObject(ctx context.Context, refs []CivicTherapyRef, interactionRaw string) (*domain.TherapeuticObject, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	if len(refs) == 1 {
		concept, err := t.therapyBuilder.BuildCivicTherapy(ctx, t.resolveTherapy(refs[0].ID))
		if err != nil {
			return nil, err
		}
		if concept == nil {
			return nil, nil
		}
		return &domain.TherapeuticObject{Therapy: concept}, nil
	}

	op, idPrefix, ok := builder.CivicGroupKind(builder.InteractionType(interactionRaw))
	if !ok {
		return nil, nil
	}

	concepts := make([]*domain.Concept, 0, len(refs))
	for _, r := range refs {
		c, err := t.therapyBuilder.BuildCivicTherapy(ctx, t.resolveTherapy(r.ID))
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, nil
		}
		concepts = append(concepts, c)
	}

	group := builder.BuildTherapyGroup("civic", idPrefix, op, concepts)
	builder.CacheTherapyGroup(t.cache, group)
	return &domain.TherapeuticObject{Group: group}, nil
}

// addEvidenceDocument resolves (or builds and caches) the Document for a
// CIViC evidence item's source, grounded on civic.py's _add_eid_document.
// Unsupported source types return nil (the evidence item is then skipped).
func (t *CivicTransformer) addEvidenceDocument(source CivicSource) *domain.Document {
	sourceType := strings.ToUpper(source.SourceType)
	if !civicSourcePrefixes[sourceType] {
		return nil
	}

	id := fmt.Sprintf("civic.source:%d", source.ID)
	if cached, ok := t.cache.GetDocument(id); ok {
		return &cached
	}

	doc := domain.Document{ID: id, Title: source.Citation, Name: source.Title}
	if sourceType == "PUBMED" {
		if _, err := strconv.Atoi(source.CitationID); err == nil {
			doc.PMID = source.CitationID
		}
	}
	t.cache.PutDocument(id, doc)
	return &doc
}
