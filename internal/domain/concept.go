package domain

// ConceptType enumerates the kinds of MappableConcept this transformer builds.
type ConceptType string

const (
	ConceptGene     ConceptType = "Gene"
	ConceptDisease  ConceptType = "Disease"
	ConceptTherapy  ConceptType = "Therapy"
)

// MappingRelation classifies how strongly a ConceptMapping's coding relates
// to the concept it is attached to.
type MappingRelation string

const (
	RelationExactMatch   MappingRelation = "exactMatch"
	RelationRelatedMatch MappingRelation = "relatedMatch"
)

// Coding is a single system-qualified code, optionally carrying its own id.
type Coding struct {
	ID     string `json:"id,omitempty"`
	Code   string `json:"code"`
	System string `json:"system"`
	Name   string `json:"name,omitempty"`
}

// Extension is a free-form, named value attached to an entity. It carries
// normalizer failure markers, source annotations, aliases-as-extension, and
// similar side-channel data that does not fit the core data model.
type Extension struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

const (
	// ExtensionNormalizerFailure marks a concept or variation that could not
	// be resolved by its normalizer. Its presence is what the reachability
	// filter (C7) checks to decide admissibility.
	ExtensionNormalizerFailure = "vicc_normalizer_failure"
	// ExtensionAliases carries non-rsID aliases that were not promoted to a
	// ConceptMapping.
	ExtensionAliases = "aliases"
	// ExtensionRegulatoryApproval carries a therapy's FDA/ChEMBL approval
	// rating and matched indications, built by the normalizer gateway.
	ExtensionRegulatoryApproval = "regulatory_approval"
)

// ConceptMapping carries a single cross-reference, whether supplied by the
// source record or produced by a normalizer's priority mapping list.
type ConceptMapping struct {
	Coding     Coding          `json:"coding"`
	Relation   MappingRelation `json:"relation"`
	Extensions []Extension     `json:"extensions,omitempty"`
}

// Concept is a MappableConcept: a biomedical concept (gene, disease, or
// therapy) with a primary name, cross-reference mappings, and free-form
// extensions.
//
// Invariant: when normalization succeeded, ID has the form
// "<source>.<normalized_id>"; when it failed, ID has the form
// "<source>.<kind>:<sanitized_name>" and Extensions carries an
// ExtensionNormalizerFailure marker.
type Concept struct {
	ID            string           `json:"id,omitempty"`
	ConceptType   ConceptType      `json:"conceptType,omitempty"`
	Name          string           `json:"name"`
	PrimaryCoding *Coding          `json:"primaryCoding,omitempty"`
	Mappings      []ConceptMapping `json:"mappings,omitempty"`
	Extensions    []Extension      `json:"extensions,omitempty"`
}

// FailedToNormalize reports whether this concept carries the normalizer
// failure marker extension.
func (c *Concept) FailedToNormalize() bool {
	for _, ext := range c.Extensions {
		if ext.Name == ExtensionNormalizerFailure {
			return true
		}
	}
	return false
}

// MembershipOperator distinguishes a combination therapy group (AND) from a
// substitute therapy group (OR).
type MembershipOperator string

const (
	MembershipAND MembershipOperator = "AND"
	MembershipOR  MembershipOperator = "OR"
)

// TherapyGroup is a combination (AND) or substitute (OR) set of therapies
// treated as a single therapeutic object.
//
// Invariant: len(Therapies) >= 2; ID has the form
// "<source>.<ctid|tsgid>:<digest(sorted(therapy_ids))>".
type TherapyGroup struct {
	ID                 string              `json:"id"`
	MembershipOperator MembershipOperator  `json:"membershipOperator"`
	Therapies          []Concept           `json:"therapies"`
}

// FailedToNormalize propagates failure from any member therapy: if any
// member failed, the group as a whole is not admissible.
func (g *TherapyGroup) FailedToNormalize() bool {
	for i := range g.Therapies {
		if g.Therapies[i].FailedToNormalize() {
			return true
		}
	}
	return false
}

// TherapeuticObject is either a single Therapy (*Concept) or a TherapyGroup;
// exactly one of its two fields is populated.
type TherapeuticObject struct {
	Therapy *Concept      `json:"therapy,omitempty"`
	Group   *TherapyGroup `json:"therapyGroup,omitempty"`
}

// FailedToNormalize reports whether the populated member failed normalization.
func (t *TherapeuticObject) FailedToNormalize() bool {
	if t.Therapy != nil {
		return t.Therapy.FailedToNormalize()
	}
	if t.Group != nil {
		return t.Group.FailedToNormalize()
	}
	return true
}

// IDs returns the concept ID(s) carried by this therapeutic object, for use
// by the reachability filter when collecting referenced entity IDs.
func (t *TherapeuticObject) IDs() []string {
	if t.Therapy != nil {
		return []string{t.Therapy.ID}
	}
	if t.Group != nil {
		ids := make([]string, 0, len(t.Group.Therapies)+1)
		ids = append(ids, t.Group.ID)
		for _, th := range t.Group.Therapies {
			ids = append(ids, th.ID)
		}
		return ids
	}
	return nil
}
