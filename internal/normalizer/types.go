// Package normalizer implements the Normalizer Gateway (C1): a uniform
// facade over the four external concept-normalizer services (gene, disease,
// therapy, variation), resilient per spec.md §4.1 and §5's failure model.
package normalizer

import "github.com/metakb-transform/internal/domain"

// ConceptKind identifies which of the three synchronous concept normalizers
// a request targets.
type ConceptKind string

const (
	KindGene    ConceptKind = "gene"
	KindDisease ConceptKind = "disease"
	KindTherapy ConceptKind = "therapy"
)

// MatchType mirrors the external normalizer's match-confidence enum;
// MatchNone indicates no match was found.
type MatchType int

const (
	MatchNone MatchType = 0
)

// ConceptResponse is the external normalizer's response shape for gene,
// disease, and therapy queries: NormalizationService{match_type, <concept>}.
type ConceptResponse struct {
	MatchType  MatchType
	Normalized *Concept
}

// Concept is the normalizer's own representation of a resolved concept,
// distinct from domain.Concept: it carries the normalizer's internal ID
// (e.g. "normalize.gene.hgnc:1100"), from which the caller extracts the
// canonical ID suffix.
type Concept struct {
	ID         string
	Name       string
	Mappings   []domain.ConceptMapping
	Extensions []domain.Extension
}

// CanonicalID extracts the trailing canonical ID segment from a normalizer
// internal ID of the form "normalize.<kind>.<canonical_id>", matching the
// original normalizer's `id.split(f"normalize.{concept_name}.")[-1]` logic.
func CanonicalID(kind ConceptKind, normalizerID string) string {
	prefix := "normalize." + string(kind) + "."
	if len(normalizerID) > len(prefix) && normalizerID[:len(prefix)] == prefix {
		return normalizerID[len(prefix):]
	}
	return normalizerID
}
