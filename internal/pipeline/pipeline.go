// Package pipeline wires the per-source Transformer stages (C1, C3-C8) into
// the two end-to-end runs the CLI drives: CIViC and MOAlmanac. Kept separate
// from cmd/metakb so the orchestration is exercised by tests without
// spawning a process, matching the teacher's pattern of a thin cmd/ entry
// point delegating to an internal package (cmd/server/main.go -> internal/api).
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/metakb-transform/internal/builder"
	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/cdm"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/normalizer"
	"github.com/metakb-transform/internal/reachability"
	"github.com/metakb-transform/internal/transform"
)

// CivicHarvest is the shape of a single CIViC harvest JSON artifact
// (data/civic/harvest/civic_harvester_<date>.json, spec.md §6).
type CivicHarvest struct {
	Genes             []builder.CivicGene             `json:"genes"`
	Variants          []builder.CivicVariant           `json:"variants"`
	Therapies         []builder.CivicTherapy            `json:"therapies"`
	MolecularProfiles []transform.CivicMolecularProfile `json:"molecular_profiles"`
	EvidenceItems     []transform.CivicEvidenceItem     `json:"evidence_items"`
	Assertions        []transform.CivicAssertion        `json:"assertions"`
}

// MoaHarvest is the shape of a single MOAlmanac harvest JSON artifact
// (data/moa/harvest/moa_harvester_<date>.json, spec.md §6).
type MoaHarvest struct {
	Variants   []builder.MoaVariant    `json:"variants"`
	Sources    []builder.MoaSource     `json:"sources"`
	Assertions []transform.MoaAssertion `json:"assertions"`
}

// Counts summarizes a completed run's CDM top-level key cardinalities, for
// the CLI's success message and the run ledger.
type Counts struct {
	CategoricalVariants  int
	Variations           int
	Genes                int
	Conditions           int
	Therapies            int
	Documents            int
	Methods              int
	StatementsEvidence   int
	StatementsAssertions int
}

func countsOf(doc cdm.Document) Counts {
	return Counts{
		CategoricalVariants:  len(doc.CategoricalVariants),
		Variations:           len(doc.Variations),
		Genes:                len(doc.Genes),
		Conditions:           len(doc.Conditions),
		Therapies:            len(doc.Therapies),
		Documents:            len(doc.Documents),
		Methods:              len(doc.Methods),
		StatementsEvidence:   len(doc.StatementsEvidence),
		StatementsAssertions: len(doc.StatementsAssertions),
	}
}

// RunCivic builds every CIViC entity and statement, filters for
// reachability, and emits the final CDM Document.
func RunCivic(ctx context.Context, gw *normalizer.Gateway, concurrency int64, h CivicHarvest, logger *logrus.Logger) (cdm.Document, Counts, error) {
	c := cache.New()
	geneBuilder := builder.NewGeneBuilder(gw, c)
	diseaseBuilder := builder.NewDiseaseBuilder(gw, c)
	therapyBuilder := builder.NewTherapyBuilder(gw, c)
	variationBuilder := builder.NewVariationBuilder(gw, c, concurrency)

	for _, g := range h.Genes {
		if err := geneBuilder.BuildCivicGene(ctx, g); err != nil {
			return cdm.Document{}, Counts{}, fmt.Errorf("building civic gene %d: %w", g.ID, err)
		}
	}
	if err := variationBuilder.BuildCivicVariants(ctx, h.Variants); err != nil {
		return cdm.Document{}, Counts{}, fmt.Errorf("building civic variants: %w", err)
	}

	mpToVariant := transform.BuildMPToVariantMapping(h.MolecularProfiles)
	therapiesByID := make(map[int]builder.CivicTherapy, len(h.Therapies))
	for _, t := range h.Therapies {
		therapiesByID[t.ID] = t
	}
	transformer := transform.NewCivicTransformer(c, diseaseBuilder, therapyBuilder, therapiesByID)
	if err := transformer.TransformEvidence(ctx, h.EvidenceItems, mpToVariant); err != nil {
		return cdm.Document{}, Counts{}, fmt.Errorf("transforming civic evidence: %w", err)
	}
	if err := transformer.TransformAssertions(ctx, h.Assertions, mpToVariant); err != nil {
		return cdm.Document{}, Counts{}, fmt.Errorf("transforming civic assertions: %w", err)
	}

	result := reachability.Filter(transformer.EvidenceStatements(), transformer.AssertionStatements())
	doc := cdm.Build(c, []domain.Method{transform.CivicMethod()}, result)

	logger.WithFields(logrus.Fields{
		"evidence":   len(doc.StatementsEvidence),
		"assertions": len(doc.StatementsAssertions),
	}).Info("civic transform run completed")

	return doc, countsOf(doc), nil
}

// RunMoa builds every MOAlmanac entity and statement, filters for
// reachability, and emits the final CDM Document.
func RunMoa(ctx context.Context, gw *normalizer.Gateway, concurrency int64, h MoaHarvest, logger *logrus.Logger) (cdm.Document, Counts, error) {
	c := cache.New()
	diseaseBuilder := builder.NewDiseaseBuilder(gw, c)
	therapyBuilder := builder.NewTherapyBuilder(gw, c)
	variationBuilder := builder.NewVariationBuilder(gw, c, concurrency)
	documentBuilder := builder.NewDocumentBuilder(c)

	if err := variationBuilder.BuildMoaVariants(ctx, h.Variants); err != nil {
		return cdm.Document{}, Counts{}, fmt.Errorf("building moa variants: %w", err)
	}
	documentBuilder.BuildMoaDocuments(h.Sources)

	transformer := transform.NewMoaTransformer(c, diseaseBuilder, therapyBuilder)
	if err := transformer.Transform(ctx, h.Assertions); err != nil {
		return cdm.Document{}, Counts{}, fmt.Errorf("transforming moa assertions: %w", err)
	}
	diseaseBuilder.FinalizeMoaDiseases()
	therapyBuilder.FinalizeMoaTherapies()

	result := reachability.Filter(nil, transformer.AssertionStatements())
	doc := cdm.Build(c, []domain.Method{transform.MoaMethod()}, result)

	logger.WithFields(logrus.Fields{
		"assertions": len(doc.StatementsAssertions),
	}).Info("moa transform run completed")

	return doc, countsOf(doc), nil
}
