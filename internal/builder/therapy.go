package builder

import (
	"context"
	"fmt"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/normalizer"
)

// TherapyBuilder implements the therapy half of C5: query order NCIt ID ->
// source name -> aliases, grounded on civic.py's _get_therapy and moa.py's
// _get_therapeutic_agent.
type TherapyBuilder struct {
	gateway *normalizer.Gateway
	cache   *cache.Cache

	moaReconciler *Reconciler
	moaByName     map[string]string // source therapy name -> cache id, memoizing repeat lookups
}

func NewTherapyBuilder(gw *normalizer.Gateway, c *cache.Cache) *TherapyBuilder {
	return &TherapyBuilder{gateway: gw, cache: c, moaReconciler: NewReconciler(), moaByName: make(map[string]string)}
}

// BuildCivicTherapy resolves a CIViC therapy record, optionally attaching
// the normalizer gateway's regulatory-approval extension on success.
func (b *TherapyBuilder) BuildCivicTherapy(ctx context.Context, t CivicTherapy) (*domain.Concept, error) {
	id := fmt.Sprintf("civic.tid:%d", t.ID)
	if cached, ok := b.cache.GetTherapy(id); ok {
		return cached, nil
	}

	var queries []string
	if t.NCItID != "" {
		queries = append(queries, "ncit:"+t.NCItID)
	}
	queries = append(queries, t.Name)
	queries = append(queries, t.Aliases...)

	var resp *normalizer.Concept
	for _, q := range queries {
		if q == "" {
			continue
		}
		r, err := b.gateway.NormalizeTherapy(ctx, q)
		if err != nil {
			return nil, err
		}
		if r != nil {
			resp = r
			break
		}
	}
	if resp == nil {
		return nil, nil
	}

	canonicalID := normalizer.CanonicalID(normalizer.KindTherapy, resp.ID)
	concept := &domain.Concept{
		ID:          "civic." + canonicalID,
		ConceptType: domain.ConceptTherapy,
		Name:        resp.Name,
		Mappings:    normalizer.GetVICCNormalizerMappings(normalizer.KindTherapy, canonicalID, resp),
	}
	if approval := normalizer.GetRegulatoryApprovalExtension(resp); approval != nil {
		concept.Extensions = append(concept.Extensions, *approval)
	}
	if len(t.Aliases) > 0 {
		concept.Extensions = append(concept.Extensions, domain.Extension{Name: domain.ExtensionAliases, Value: t.Aliases})
	}

	b.cache.PutTherapy(id, *concept)
	return concept, nil
}

// BuildMoaTherapy resolves a single free-text MOA therapy name. Since MOA
// supplies no stable therapy ID, identity is the normalizer's own canonical
// ID (moa.py's _get_therapy caches by id_, not by source name), which lets
// two distinct source labels that normalize to the same concept dedup and
// reconcile instead of producing duplicate cache entries sharing one ID
// (the bug this replaced: keying by "moa.therapy:"+name).
func (b *TherapyBuilder) BuildMoaTherapy(ctx context.Context, name string) (*domain.Concept, error) {
	if id, ok := b.moaByName[name]; ok {
		if cached, ok := b.cache.GetTherapy(id); ok {
			b.moaReconciler.Observe(cached.ID, name)
			return cached, nil
		}
	}

	resp, err := b.gateway.NormalizeTherapy(ctx, name)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	canonicalID := normalizer.CanonicalID(normalizer.KindTherapy, resp.ID)
	id := "moa." + canonicalID
	b.moaByName[name] = id
	b.moaReconciler.Observe(id, name)

	if cached, ok := b.cache.GetTherapy(id); ok {
		return cached, nil
	}

	// name is the source therapy label, not the normalizer's canonical name
	// (moa.py's _get_therapy: `name=therapy["name"]`), so reconciliation
	// across differing source labels for the same canonical ID has
	// something to do.
	concept := &domain.Concept{
		ID:          id,
		ConceptType: domain.ConceptTherapy,
		Name:        name,
		Mappings:    normalizer.GetVICCNormalizerMappings(normalizer.KindTherapy, canonicalID, resp),
	}
	if approval := normalizer.GetRegulatoryApprovalExtension(resp); approval != nil {
		concept.Extensions = append(concept.Extensions, *approval)
	}

	b.cache.PutTherapy(id, *concept)
	return concept, nil
}

// SeedMoaTherapy registers a pre-resolved therapy concept under a source
// name, bypassing the gateway. For tests and any caller that already holds
// a normalized concept (e.g. a warm cache restored between runs).
func (b *TherapyBuilder) SeedMoaTherapy(name string, concept domain.Concept) {
	b.moaByName[name] = concept.ID
	b.moaReconciler.Observe(concept.ID, name)
	b.cache.PutTherapy(concept.ID, concept)
}

// FinalizeMoaTherapies applies the second reconciliation pass (spec.md
// Design Notes §9) over every distinct MOA therapy built this run. See
// DiseaseBuilder.FinalizeMoaDiseases for the rationale; must run after every
// BuildMoaTherapy call for the run and before the cache is serialized.
func (b *TherapyBuilder) FinalizeMoaTherapies() {
	for _, id := range b.moaByName {
		if concept, ok := b.cache.GetTherapy(id); ok {
			b.moaReconciler.Reconcile(concept)
		}
	}
}
