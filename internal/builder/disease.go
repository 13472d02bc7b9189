package builder

import (
	"context"
	"fmt"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/digest"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/normalizer"
)

// DiseaseBuilder implements the disease half of C5. CIViC diseases carry a
// stable source ID; MOA diseases do not and are identified by a digest over
// a single oncotree_code-or-oncotree_term key (grounded on moa.py's
// _add_disease: oncotree_code wins when both are present, name is never
// part of the key since duplicate disease names for one oncotree code/term
// must reconcile to the same record).
type DiseaseBuilder struct {
	gateway *normalizer.Gateway
	cache   *cache.Cache

	moaReconciler *Reconciler
	moaKeys       map[string]bool // distinct MOA disease cache keys built this run
}

func NewDiseaseBuilder(gw *normalizer.Gateway, c *cache.Cache) *DiseaseBuilder {
	return &DiseaseBuilder{gateway: gw, cache: c, moaReconciler: NewReconciler(), moaKeys: make(map[string]bool)}
}

// BuildCivicDisease resolves a CIViC disease record. Query order: DOID ->
// display name.
func (b *DiseaseBuilder) BuildCivicDisease(ctx context.Context, d CivicDisease) (*domain.Concept, error) {
	id := fmt.Sprintf("civic.did:%d", d.ID)
	if cached, ok := b.cache.GetCondition(id); ok {
		return cached, nil
	}

	var queries []string
	var doidMapping *domain.ConceptMapping
	if d.DOID != "" {
		doid := "DOID:" + d.DOID
		queries = append(queries, doid)
		doidMapping = &domain.ConceptMapping{
			Coding:   domain.Coding{Code: doid, System: "do"},
			Relation: domain.RelationExactMatch,
		}
	}
	queries = append(queries, d.DisplayName)

	concept, err := b.normalize(ctx, "civic", queries, doidMapping)
	if err != nil {
		return nil, err
	}
	if concept != nil {
		b.cache.PutCondition(id, *concept)
	}
	return concept, nil
}

// BuildMoaDisease resolves a MOA disease record. Since MOA supplies no
// stable disease ID, identity is keyed by a digest over a single
// oncotree_code-or-oncotree_term key (moa.py::_add_disease's oncotree_kv),
// enabling dedup across assertions that reference the identical disease by
// code/term even when the source disease name differs (the discrepancy is
// left to the Reconciler to resolve, not baked into the cache key). Query
// order: OncoTree code -> OncoTree term -> name.
func (b *DiseaseBuilder) BuildMoaDisease(ctx context.Context, d MoaDisease) (*domain.Concept, error) {
	if d.Name == "" || d.OncotreeCode == "" || d.OncotreeTerm == "" {
		return nil, nil // all fields must be non-null, per moa.py.
	}

	oncotreeKey, oncotreeValue := "oncotree_term", d.OncotreeTerm
	if d.OncotreeCode != "" {
		oncotreeKey, oncotreeValue = "oncotree_code", d.OncotreeCode
	}
	cacheKey := "moa.disease:" + digest.ForSortedStrings([]string{fmt.Sprintf("%s:%s", oncotreeKey, oncotreeValue)})
	b.moaKeys[cacheKey] = true

	if cached, ok := b.cache.GetCondition(cacheKey); ok {
		b.moaReconciler.Observe(cached.ID, d.Name)
		return cached, nil
	}

	var queries []string
	var oncotreeMapping *domain.ConceptMapping
	if d.OncotreeCode != "" {
		oncotree := "oncotree:" + d.OncotreeCode
		queries = append(queries, oncotree)
		oncotreeMapping = &domain.ConceptMapping{
			Coding:   domain.Coding{Code: oncotree, System: "oncotree"},
			Relation: domain.RelationExactMatch,
		}
	}
	if d.OncotreeTerm != "" {
		queries = append(queries, d.OncotreeTerm)
	}
	queries = append(queries, d.Name)

	concept, err := b.normalize(ctx, "moa", queries, oncotreeMapping)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, nil
	}

	// name is the source disease label, not the normalizer's canonical name
	// (moa.py's _get_disease: `name=disease_name`), so reconciliation across
	// differing source labels for the same oncotree key has something to do.
	concept.Name = d.Name
	b.moaReconciler.Observe(concept.ID, d.Name)
	b.cache.PutCondition(cacheKey, *concept)
	return concept, nil
}

// FinalizeMoaDiseases applies the second reconciliation pass (spec.md
// Design Notes §9) over every distinct MOA disease built this run: once
// every assertion has been processed, a disease observed under more than
// one source label is rewritten in place so its name is the lexicographic
// minimum of every label seen and the rest appear in its aliases
// extension, independent of processing order. Must run after every
// BuildMoaDisease call for the run and before the cache is serialized.
func (b *DiseaseBuilder) FinalizeMoaDiseases() {
	for key := range b.moaKeys {
		if concept, ok := b.cache.GetCondition(key); ok {
			b.moaReconciler.Reconcile(concept)
		}
	}
}

func (b *DiseaseBuilder) normalize(ctx context.Context, source string, queries []string, extraMapping *domain.ConceptMapping) (*domain.Concept, error) {
	var resp *normalizer.Concept
	for _, q := range queries {
		if q == "" {
			continue
		}
		r, err := b.gateway.NormalizeDisease(ctx, q)
		if err != nil {
			return nil, err
		}
		if r != nil {
			resp = r
			break
		}
	}

	if resp == nil {
		// Disease normalization failure: per moa.py/civic.py, an
		// unnormalized disease is None, not an emitted failure-marked
		// concept — propositions referencing it are dropped outright by
		// the assembler (ReferentialFailure), since no conditionQualifier
		// can be built at all.
		return nil, nil
	}

	canonicalID := normalizer.CanonicalID(normalizer.KindDisease, resp.ID)
	concept := &domain.Concept{
		ID:          source + "." + canonicalID,
		ConceptType: domain.ConceptDisease,
		Name:        resp.Name,
		Mappings:    normalizer.GetVICCNormalizerMappings(normalizer.KindDisease, canonicalID, resp),
	}
	if extraMapping != nil {
		concept.Mappings = append(concept.Mappings, *extraMapping)
	}
	return concept, nil
}
