package domain

// Syntax identifies the HGVS expression dialect carried on a Variation.
type Syntax string

const (
	SyntaxHGVSP Syntax = "hgvs.p"
	SyntaxHGVSC Syntax = "hgvs.c"
	SyntaxHGVSG Syntax = "hgvs.g"
	SyntaxHGVSN Syntax = "hgvs.n"
	SyntaxHGVSM Syntax = "hgvs.m"
	SyntaxHGVSR Syntax = "hgvs.r"
)

// StateType distinguishes the two sequence-state shapes a VRS Allele can carry.
type StateType string

const (
	StateLiteralSequenceExpression  StateType = "LiteralSequenceExpression"
	StateReferenceLengthExpression  StateType = "ReferenceLengthExpression"
)

// Expression is a single HGVS (or similar) textual representation of a Variation.
type Expression struct {
	Syntax Syntax `json:"syntax"`
	Value  string `json:"value"`
}

// SequenceReference anchors a Location to a refget-addressed sequence.
type SequenceReference struct {
	RefgetAccession string `json:"refgetAccession"`
}

// Location is the genomic span a Variation's State is defined over.
type Location struct {
	SequenceReference SequenceReference `json:"sequenceReference"`
	Start             int               `json:"start"`
	End               int               `json:"end"`
	Sequence          string            `json:"sequence,omitempty"`
}

// State carries the sequence-level content of a Variation: either a literal
// sequence or a reference-length expression (tandem-repeat style).
type State struct {
	Type                 StateType `json:"type"`
	Sequence             string    `json:"sequence,omitempty"`
	Length               *int      `json:"length,omitempty"`
	RepeatSubunitLength   *int      `json:"repeatSubunitLength,omitempty"`
}

// Variation is a VRS-style allele: a content-addressed genomic variation.
//
// Invariant: ID is derivable from Digest; Digest is derivable from the
// canonicalized (Location, State) pair. See internal/digest for the
// canonicalization and digest construction.
type Variation struct {
	ID          string       `json:"id"`
	Digest      string       `json:"digest"`
	Type        string       `json:"type"`
	Location    Location     `json:"location"`
	State       State        `json:"state"`
	Expressions []Expression `json:"expressions,omitempty"`
	Label       string       `json:"label,omitempty"`
}

// DefiningAlleleConstraint pins a CategoricalVariant's identity to a single Variation.
type DefiningAlleleConstraint struct {
	Allele Variation `json:"allele"`
}

// CategoricalVariant is a named concept whose identity is pinned by a
// defining-allele constraint plus an optional set of equivalent member alleles.
//
// Invariant: at most one defining-allele constraint is ever populated; when
// the variation builder could not normalize a defining allele, Constraints
// is empty and the entity is not admissible downstream (see
// internal/reachability).
type CategoricalVariant struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Aliases     []string                   `json:"aliases,omitempty"`
	Mappings    []ConceptMapping           `json:"mappings,omitempty"`
	Extensions  []Extension                `json:"extensions,omitempty"`
	Constraints []DefiningAlleleConstraint `json:"constraints,omitempty"`
	Members     []Variation                `json:"members,omitempty"`
}

// HasDefiningAllele reports whether the categorical variant carries the
// single defining-allele constraint required for downstream admission.
func (c *CategoricalVariant) HasDefiningAllele() bool {
	return len(c.Constraints) == 1
}
