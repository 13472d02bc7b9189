// Package transform implements the Statement Assembler (C6): per source,
// classifies record type and joins entities already built into the Entity
// Cache (C3) into propositions and statements.
package transform

// CivicTherapyRef is a therapy reference as it appears on an evidence item
// or assertion's "therapies" list.
type CivicTherapyRef struct {
	ID int `json:"id"`
}

// CivicDiseaseRef is a disease reference as it appears on an evidence item
// or assertion.
type CivicDiseaseRef struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
	DOID        string `json:"doid"`
}

// CivicSource is a single evidence item's document reference, as harvested.
type CivicSource struct {
	ID         int    `json:"id"`
	SourceType string `json:"source_type"`
	Citation   string `json:"citation"`
	Title      string `json:"title"`
	CitationID string `json:"citation_id"`
}

// CivicMolecularProfile maps one molecular profile to exactly one variant;
// profiles naming more than one variant are not supported (spec.md §4.6
// step 2).
type CivicMolecularProfile struct {
	ID         int   `json:"id"`
	VariantIDs []int `json:"variant_ids"`
}

// CivicEvidenceItem is a single CIViC evidence item record, as harvested.
type CivicEvidenceItem struct {
	ID                     int               `json:"id"`
	Name                   string            `json:"name"`
	Status                 string            `json:"status"`
	EvidenceType           string            `json:"evidence_type"`
	EvidenceDirection      string            `json:"evidence_direction"`
	EvidenceLevel          string            `json:"evidence_level"`
	Significance           string            `json:"significance"`
	Description            string            `json:"description"`
	MolecularProfileID     int               `json:"molecular_profile_id"`
	VariantOrigin          string            `json:"variant_origin"`
	Disease                *CivicDiseaseRef  `json:"disease"`
	Therapies              []CivicTherapyRef `json:"therapies"`
	TherapyInteractionType string            `json:"therapy_interaction_type"`
	Source                 CivicSource       `json:"source"`
}

// CivicAssertion is a single CIViC assertion record, as harvested.
type CivicAssertion struct {
	ID                     int               `json:"id"`
	Name                   string            `json:"name"`
	Status                 string            `json:"status"`
	AssertionType          string            `json:"assertion_type"`
	AssertionDirection     string            `json:"assertion_direction"`
	AMPLevel               string            `json:"amp_level"`
	Significance           string            `json:"significance"`
	Description            string            `json:"description"`
	MolecularProfileID     int               `json:"molecular_profile_id"`
	VariantOrigin          string            `json:"variant_origin"`
	Disease                *CivicDiseaseRef  `json:"disease"`
	Therapies              []CivicTherapyRef `json:"therapies"`
	TherapyInteractionType string            `json:"therapy_interaction_type"`
	EvidenceIDs            []int             `json:"evidence_ids"`
}

// MoaTherapyRef is the inline therapy shape an MOA assertion carries.
type MoaTherapyRef struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Resistance string `json:"resistance"` // "", "0", or "1"
	Sensitivity string `json:"sensitivity"`
}

// MoaVariantRef is the inline variant shape an MOA assertion references by ID.
type MoaVariantRef struct {
	ID int `json:"id"`
}

// MoaAssertion is a single MOAlmanac assertion record, as harvested.
type MoaAssertion struct {
	ID                   int           `json:"id"`
	Description          string        `json:"description"`
	PredictiveImplication string       `json:"predictive_implication"`
	FavorablePrognosis   string        `json:"favorable_prognosis"` // "", "0", or "1"
	Variant              MoaVariantRef `json:"variant"`
	Disease              MoaDiseaseRef `json:"disease"`
	Therapy              MoaTherapyRef `json:"therapy"`
	SourceID             int           `json:"source_id"`
}

// MoaDiseaseRef mirrors builder.MoaDisease; duplicated here (rather than
// imported) because the assertion's inline disease shape is a statement
// concern, not a concept-builder concern.
type MoaDiseaseRef struct {
	Name         string `json:"name"`
	OncotreeCode string `json:"oncotree_code"`
	OncotreeTerm string `json:"oncotree_term"`
}
