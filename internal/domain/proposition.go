package domain

import "encoding/json"

// PropositionKind discriminates the tagged-union Proposition variants. This
// replaces runtime class polymorphism with an explicit, serializable tag
// that is pattern-matched at serialize time.
type PropositionKind string

const (
	PropositionTherapeuticResponse PropositionKind = "VariantTherapeuticResponseProposition"
	PropositionPrognostic          PropositionKind = "VariantPrognosticProposition"
	PropositionDiagnostic          PropositionKind = "VariantDiagnosticProposition"
)

// TherapeuticPredicate enumerates predicates valid on a
// VariantTherapeuticResponseProposition.
type TherapeuticPredicate string

const (
	PredictsSensitivityTo TherapeuticPredicate = "predictsSensitivityTo"
	PredictsResistanceTo  TherapeuticPredicate = "predictsResistanceTo"
)

// PrognosticPredicate enumerates predicates valid on a
// VariantPrognosticProposition.
type PrognosticPredicate string

const (
	AssociatedWithBetterOutcomeFor PrognosticPredicate = "associatedWithBetterOutcomeFor"
	AssociatedWithWorseOutcomeFor  PrognosticPredicate = "associatedWithWorseOutcomeFor"
)

// DiagnosticPredicate enumerates predicates valid on a
// VariantDiagnosticProposition.
type DiagnosticPredicate string

const (
	IsDiagnosticInclusionCriterionFor DiagnosticPredicate = "isDiagnosticInclusionCriterionFor"
	IsDiagnosticExclusionCriterionFor DiagnosticPredicate = "isDiagnosticExclusionCriterionFor"
)

// AlleleOrigin is derived from a source record's variant-origin field.
type AlleleOrigin string

const (
	AlleleOriginSomatic  AlleleOrigin = "somatic"
	AlleleOriginGermline AlleleOrigin = "germline"
)

// Proposition is the tagged-union claim portion of a Statement: subject
// variant + predicate + object, with qualifiers. Exactly one of the three
// predicate fields is populated, matching Kind.
type Proposition struct {
	Kind PropositionKind `json:"type"`

	SubjectVariant CategoricalVariant `json:"subjectVariant"`
	GeneContextQualifier Concept      `json:"geneContextQualifier"`
	AlleleOriginQualifier *AlleleOrigin `json:"alleleOriginQualifier,omitempty"`

	// Populated when Kind == PropositionTherapeuticResponse.
	TherapeuticPredicate  TherapeuticPredicate `json:"predicate,omitempty"`
	ObjectTherapeutic     *TherapeuticObject   `json:"objectTherapeutic,omitempty"`
	ConditionQualifier    *Concept             `json:"conditionQualifier,omitempty"`

	// Populated when Kind == PropositionPrognostic or PropositionDiagnostic.
	PrognosticPredicate PrognosticPredicate `json:"-"`
	DiagnosticPredicate DiagnosticPredicate `json:"-"`
	ObjectCondition     *Concept            `json:"objectCondition,omitempty"`
}

// Predicate returns the wire-level predicate string for whichever typed
// predicate field is populated, matching Kind. Exported for callers (the
// graph loader) that need the flattened value outside of JSON marshaling.
func (p Proposition) Predicate() string {
	return p.predicateValue()
}

// predicateValue returns the wire-level predicate string for whichever
// predicate field is populated, so MarshalJSON can emit a single "predicate" key.
func (p Proposition) predicateValue() string {
	switch p.Kind {
	case PropositionTherapeuticResponse:
		return string(p.TherapeuticPredicate)
	case PropositionPrognostic:
		return string(p.PrognosticPredicate)
	case PropositionDiagnostic:
		return string(p.DiagnosticPredicate)
	default:
		return ""
	}
}

// MarshalJSON emits a flat object with a single "predicate" key regardless
// of which typed predicate field was populated, and omits the qualifiers
// that don't apply to this proposition's kind.
func (p Proposition) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind                  PropositionKind    `json:"type"`
		Predicate             string             `json:"predicate"`
		SubjectVariant        CategoricalVariant `json:"subjectVariant"`
		GeneContextQualifier  Concept            `json:"geneContextQualifier"`
		AlleleOriginQualifier *AlleleOrigin      `json:"alleleOriginQualifier,omitempty"`
		ObjectTherapeutic     *TherapeuticObject `json:"objectTherapeutic,omitempty"`
		ConditionQualifier    *Concept           `json:"conditionQualifier,omitempty"`
		ObjectCondition       *Concept           `json:"objectCondition,omitempty"`
	}
	w := wire{
		Kind:                  p.Kind,
		Predicate:             p.predicateValue(),
		SubjectVariant:        p.SubjectVariant,
		GeneContextQualifier:  p.GeneContextQualifier,
		AlleleOriginQualifier: p.AlleleOriginQualifier,
	}
	if p.Kind == PropositionTherapeuticResponse {
		w.ObjectTherapeutic = p.ObjectTherapeutic
		w.ConditionQualifier = p.ConditionQualifier
	} else {
		w.ObjectCondition = p.ObjectCondition
	}
	return json.Marshal(w)
}
