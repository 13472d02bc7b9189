package transform

import (
	"regexp"

	"github.com/metakb-transform/internal/domain"
)

// clinSigToPredicate maps a source clinical-significance string to its GKS
// predicate, grounded on civic.py's CLIN_SIG_TO_PREDICATE. An unmapped (or
// "N/A"/"UNKNOWN") significance causes the record to be skipped (spec.md
// §4.6 step 4).
var clinSigToPredicate = map[string]struct {
	kind                domain.PropositionKind
	therapeutic         domain.TherapeuticPredicate
	prognostic          domain.PrognosticPredicate
	diagnostic          domain.DiagnosticPredicate
}{
	"SENSITIVITYRESPONSE": {kind: domain.PropositionTherapeuticResponse, therapeutic: domain.PredictsSensitivityTo},
	"RESISTANCE":          {kind: domain.PropositionTherapeuticResponse, therapeutic: domain.PredictsResistanceTo},
	"POOR_OUTCOME":        {kind: domain.PropositionPrognostic, prognostic: domain.AssociatedWithWorseOutcomeFor},
	"BETTER_OUTCOME":      {kind: domain.PropositionPrognostic, prognostic: domain.AssociatedWithBetterOutcomeFor},
	"POSITIVE":            {kind: domain.PropositionDiagnostic, diagnostic: domain.IsDiagnosticInclusionCriterionFor},
	"NEGATIVE":            {kind: domain.PropositionDiagnostic, diagnostic: domain.IsDiagnosticExclusionCriterionFor},
}

// direction maps a source evidence/assertion direction string to the
// normalized Direction, grounded on civic.py's _get_direction. Any other
// value (including empty) yields DirectionNone.
func direction(raw string) domain.Direction {
	switch raw {
	case "SUPPORTS":
		return domain.DirectionSupports
	case "DOES_NOT_SUPPORT":
		return domain.DirectionDisputes
	default:
		return domain.DirectionNone
	}
}

// alleleOrigin maps a source variant_origin string to the qualifier, per
// civic.py's SOMATIC / {RARE,COMMON}_GERMLINE handling.
func alleleOrigin(raw string) *domain.AlleleOrigin {
	switch raw {
	case "SOMATIC":
		o := domain.AlleleOriginSomatic
		return &o
	case "RARE_GERMLINE", "COMMON_GERMLINE":
		o := domain.AlleleOriginGermline
		return &o
	default:
		return nil
	}
}

// civicEvidenceLevelInfo names the (name, vicc evidence code + label) a
// CIViC evidence level maps to, grounded on civic.py's
// CIVIC_EVIDENCE_LEVEL_TO_NAME plus the evidence_level_to_vicc_concept_mapping
// table observed in the transformer test fixtures (go.osu.edu/evidence-codes).
var civicEvidenceLevelInfo = map[string]struct {
	name     string
	viccCode string
	viccName string
}{
	"A": {"Validated association", "e000001", "authoritative evidence"},
	"B": {"Clinical evidence", "e000005", "clinical cohort evidence"},
	"C": {"Case study", "e000002", "case study evidence"},
	"D": {"Preclinical evidence", "e000003", "preclinical evidence"},
	"E": {"Inferential association", "e000004", "indirect evidence"},
}

const civicEvidenceLevelSystem = "https://civic.readthedocs.io/en/latest/model/evidence/level.html"
const viccEvidenceCodeSystem = "https://go.osu.edu/evidence-codes"

// evidenceStrength builds the strength MappableConcept for a CIViC evidence
// item from its evidence_level code (spec.md §4.6 step 6).
func evidenceStrength(level string) *domain.Concept {
	info, ok := civicEvidenceLevelInfo[level]
	if !ok {
		return nil
	}
	return &domain.Concept{
		Name:          info.name,
		PrimaryCoding: &domain.Coding{System: civicEvidenceLevelSystem, Code: level},
		Mappings: []domain.ConceptMapping{
			{
				Coding:   domain.Coding{System: viccEvidenceCodeSystem, Code: info.viccCode, Name: info.viccName},
				Relation: domain.RelationExactMatch,
			},
		},
	}
}

const ampAscoCapSystem = "AMP/ASCO/CAP"

// ampLevelPattern parses an AMP/ASCO/CAP level string of the form
// "TIER_{I|II|III|IV}[_LEVEL_{A|B|C|D}]", per civic.py's _get_classification.
var ampLevelPattern = regexp.MustCompile(`^TIER_(?P<tier>I{1,3}|IV)(?:_LEVEL_(?P<level>[A-D]))?$`)

// classificationAndStrength parses an assertion's amp_level string into a
// classification (the tier) and, if a level letter is present, a strength
// reusing the evidence-level vicc mapping for that letter (spec.md §4.6
// step 7). Returns (nil, nil) for "NA" or an unparseable string.
func classificationAndStrength(ampLevel string) (*domain.Concept, *domain.Concept) {
	if ampLevel == "" || ampLevel == "NA" {
		return nil, nil
	}
	m := ampLevelPattern.FindStringSubmatch(ampLevel)
	if m == nil {
		return nil, nil
	}
	tier := m[1]
	level := m[2]

	classification := &domain.Concept{
		Name:          "Tier " + tier,
		PrimaryCoding: &domain.Coding{System: ampAscoCapSystem, Code: "Tier " + tier},
		Extensions:    []domain.Extension{{Name: "civic_amp_level", Value: ampLevel}},
	}

	var strength *domain.Concept
	if level != "" {
		strength = evidenceStrength(level)
	}
	return classification, strength
}

// Method IDs: every CIViC evidence/assertion in a run is specifiedBy the same
// method, likewise every MOA assertion. Grounded on base.py's MethodId enum
// (CIVIC_EID_SOP / MOA_ASSERTION_BIORXIV), reconstructed from usage in
// civic.py/moa.py since the enum body itself is not in the retrieved set.
var (
	civicMethod = domain.Method{
		ID:   "civic.method:2019",
		Name: "CIViC Curation SOP (2019)",
	}
	moaMethod = domain.Method{
		ID:   "moa.method:2021",
		Name: "MOAlmanac (Reardon et al., 2021)",
	}
)

// CivicMethod returns the single Method every CIViC statement in a run is
// specifiedBy, for the CDM serializer's top-level "methods" array.
func CivicMethod() domain.Method { return civicMethod }

// MoaMethod returns the single Method every MOA statement in a run is
// specifiedBy, for the CDM serializer's top-level "methods" array.
func MoaMethod() domain.Method { return moaMethod }
