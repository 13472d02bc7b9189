// Package cdm implements the CDM Serializer (C8): emission of the final
// normalized JSON document from a run's Entity Cache and Reachability
// Filter projection.
package cdm

import (
	"encoding/json"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/reachability"
)

// Document is the CDM artifact: nine top-level keys, each an
// insertion-ordered array, per spec.md §4.8. Field order matches the
// spec's documented key order; encoding/json preserves struct field order
// on marshal, so no custom MarshalJSON is needed here.
type Document struct {
	CategoricalVariants []domain.CategoricalVariant `json:"categorical_variants"`
	Variations          []domain.Variation          `json:"variations"`
	Genes               []domain.Concept            `json:"genes"`
	Conditions          []domain.Concept            `json:"conditions"`
	Therapies           []domain.Concept            `json:"therapies"`
	Documents           []domain.Document           `json:"documents"`
	Methods             []domain.Method             `json:"methods"`
	StatementsEvidence  []domain.Statement          `json:"statements_evidence"`
	StatementsAssertions []domain.Statement         `json:"statements_assertions"`
}

// Build projects a run's cache through the reachability filter's admitted-ID
// set and assembles the final Document. Therapy groups are not folded into
// Therapies: TherapyGroup is its own type without a MappableConcept-
// compatible shape, so groups are not separately emitted as top-level
// entities; the group is embedded inline inside each admitted statement's
// objectTherapeutic instead (spec.md §4.8 lists no "therapy_groups" key).
func Build(c *cache.Cache, methods []domain.Method, result reachability.Result) Document {
	doc := Document{
		StatementsEvidence:   result.Evidence,
		StatementsAssertions: result.Assertions,
	}

	for _, cv := range c.CategoricalVariants() {
		if result.ProjectedIDs[cv.ID] {
			doc.CategoricalVariants = append(doc.CategoricalVariants, cv)
		}
	}
	for _, v := range c.Variations() {
		if result.ProjectedIDs[v.ID] {
			doc.Variations = append(doc.Variations, v)
		}
	}
	for _, g := range c.Genes() {
		if result.ProjectedIDs[g.ID] {
			doc.Genes = append(doc.Genes, g)
		}
	}
	for _, d := range c.Conditions() {
		if result.ProjectedIDs[d.ID] {
			doc.Conditions = append(doc.Conditions, d)
		}
	}
	for _, t := range c.Therapies() {
		if result.ProjectedIDs[t.ID] {
			doc.Therapies = append(doc.Therapies, t)
		}
	}
	for _, d := range c.Documents() {
		if result.ProjectedIDs[d.ID] {
			doc.Documents = append(doc.Documents, d)
		}
	}
	for _, m := range methods {
		if result.ProjectedIDs[m.ID] {
			doc.Methods = append(doc.Methods, m)
		}
	}

	return doc
}

// Marshal serializes the Document as compact-free (indented) JSON. Per
// spec.md §5 ("Partial output is not written"), this is only ever called
// once the full run — every source's builders and statement assembly —
// has completed without error.
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
