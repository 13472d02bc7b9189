package builder

import (
	"context"
	"fmt"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/normalizer"
)

// GeneBuilder implements the gene half of C5: query order normalized-ID
// form -> symbol -> aliases, first successful hit wins, grounded on
// civic.py's _add_genes.
type GeneBuilder struct {
	gateway *normalizer.Gateway
	cache   *cache.Cache
}

func NewGeneBuilder(gw *normalizer.Gateway, c *cache.Cache) *GeneBuilder {
	return &GeneBuilder{gateway: gw, cache: c}
}

// BuildCivicGene resolves a single CIViC gene record and caches it keyed by
// "civic.gid:<id>". If normalization fails, a failure-marked Concept is
// still cached (so later references resolve to *something*, but the
// reachability filter will exclude it).
func (b *GeneBuilder) BuildCivicGene(ctx context.Context, g CivicGene) error {
	id := fmt.Sprintf("civic.gid:%d", g.ID)
	if _, ok := b.cache.GetGene(id); ok {
		return nil
	}

	ncbigene := ""
	if g.EntrezID != "" {
		ncbigene = "ncbigene:" + g.EntrezID
	}

	queries := []string{}
	if ncbigene != "" {
		queries = append(queries, ncbigene)
	}
	queries = append(queries, g.Name)
	queries = append(queries, g.Aliases...)

	resp, matchedQuery, err := b.normalizeFirst(ctx, queries)
	if err != nil {
		return err
	}

	if resp == nil {
		concept := domain.Concept{
			ID:         id,
			ConceptType: domain.ConceptGene,
			Name:       g.Name,
			Extensions: []domain.Extension{{Name: domain.ExtensionNormalizerFailure, Value: true}},
		}
		if ncbigene != "" {
			concept.Mappings = append(concept.Mappings, domain.ConceptMapping{
				Coding:   domain.Coding{Code: g.EntrezID, System: "ncbigene"},
				Relation: domain.RelationExactMatch,
			})
		}
		b.cache.PutGene(id, concept)
		return nil
	}

	canonicalID := normalizer.CanonicalID(normalizer.KindGene, resp.ID)
	concept := domain.Concept{
		ID:          fmt.Sprintf("civic.%s", canonicalID),
		ConceptType: domain.ConceptGene,
		Name:        resp.Name,
		Mappings:    normalizer.GetVICCNormalizerMappings(normalizer.KindGene, canonicalID, resp),
	}

	if ncbigene != "" {
		reconcileNCBIMapping(&concept, ncbigene, g.EntrezID)
	}
	if g.Description != "" {
		concept.Extensions = append(concept.Extensions, domain.Extension{Name: "description", Value: g.Description})
	}
	if len(g.Aliases) > 0 {
		concept.Extensions = append(concept.Extensions, domain.Extension{Name: domain.ExtensionAliases, Value: g.Aliases})
	}

	_ = matchedQuery
	b.cache.PutGene(id, concept)
	return nil
}

// BuildMoaGene resolves a single MOA gene symbol and caches it keyed by
// "moa.gene:<symbol>", grounded on moa.py's _add_genes. MOA genes carry no
// source-provided ID or aliases, so the query list is just the symbol
// itself; on failure the cached Concept's ID falls back to
// `moa.gene:<symbol>` (moa.py's fallback form), with the symbol used as-is,
// not sanitized.
func (b *GeneBuilder) BuildMoaGene(ctx context.Context, symbol string) error {
	id := fmt.Sprintf("moa.gene:%s", symbol)
	if _, ok := b.cache.GetGene(id); ok {
		return nil
	}

	resp, _, err := b.normalizeFirst(ctx, []string{symbol})
	if err != nil {
		return err
	}

	if resp == nil {
		b.cache.PutGene(id, domain.Concept{
			ID:         id,
			ConceptType: domain.ConceptGene,
			Name:       symbol,
			Extensions: []domain.Extension{{Name: domain.ExtensionNormalizerFailure, Value: true}},
		})
		return nil
	}

	canonicalID := normalizer.CanonicalID(normalizer.KindGene, resp.ID)
	concept := domain.Concept{
		ID:          fmt.Sprintf("moa.%s", canonicalID),
		ConceptType: domain.ConceptGene,
		Name:        resp.Name,
		Mappings:    normalizer.GetVICCNormalizerMappings(normalizer.KindGene, canonicalID, resp),
	}
	b.cache.PutGene(id, concept)
	return nil
}

// reconcileNCBIMapping implements civic.py's gene post-processing: if the
// normalizer's own mappings already contain an ncbigene-coded entry, tag it
// civic_annotation=true when it matches CIViC's own NCBI ID, or leave it
// unchanged (not auto-corrected) when it differs; if absent entirely, add an
// explicit exactMatch mapping for CIViC's NCBI ID. Only the first
// ncbigene-coded mapping is examined, and a differing code is not logged.
func reconcileNCBIMapping(concept *domain.Concept, ncbigene, entrezID string) {
	for i := range concept.Mappings {
		m := &concept.Mappings[i]
		if m.Coding.System != "ncbigene" {
			continue
		}
		if m.Coding.Code == entrezID {
			m.Extensions = append(m.Extensions, domain.Extension{Name: "civic_annotation", Value: true})
		}
		// Differing code: the discrepancy is not auto-corrected (spec.md
		// §4.5) and is not logged; neither this helper nor its caller holds
		// a logger.
		return
	}
	concept.Mappings = append(concept.Mappings, domain.ConceptMapping{
		Coding:   domain.Coding{Code: entrezID, System: "ncbigene"},
		Relation: domain.RelationExactMatch,
	})
}

func (b *GeneBuilder) normalizeFirst(ctx context.Context, queries []string) (*normalizer.Concept, string, error) {
	for _, q := range queries {
		if q == "" {
			continue
		}
		resp, err := b.gateway.NormalizeGene(ctx, q)
		if err != nil {
			return nil, "", err
		}
		if resp != nil {
			return resp, q, nil
		}
	}
	return nil, "", nil
}
