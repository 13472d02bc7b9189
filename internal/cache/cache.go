// Package cache implements the per-transform-run Entity Cache (C3): an
// idempotent dedup store keyed by source ID or digest. The cache is
// exclusively owned by one transformer instance (spec.md §5, "Shared
// resources") and is never shared across runs or goroutines concurrently —
// the statement assembler only reads it after all builders have completed,
// so a plain map is the correct backing store, not an LRU (eviction would
// violate the "transformed at most once" invariant that dedup depends on).
package cache

import (
	"github.com/metakb-transform/internal/domain"
)

// Cache holds every entity kind produced during a single transform run,
// keyed by source ID (e.g. "civic.vid:12") or digest. Documents are keyed
// by their ID only: two documents with different IDs but the same PMID or
// DOI are stored as separate entries. Each map
// is paired with an order slice recording first-insertion order, since
// spec.md §5's ordering guarantee (ii) requires entities to emit in the
// order they were first encountered, which a plain Go map cannot preserve.
type Cache struct {
	variations          map[string]domain.Variation
	variationOrder       []string
	categoricalVariants map[string]domain.CategoricalVariant
	categoricalVariantOrder []string
	genes               map[string]domain.Concept
	geneOrder           []string
	conditions          map[string]*domain.Concept
	conditionOrder      []string
	therapies           map[string]*domain.Concept
	therapyOrder        []string
	therapyGroups       map[string]domain.TherapyGroup
	therapyGroupOrder   []string
	documents           map[string]domain.Document
	documentOrder       []string
	evidence            map[string]domain.Statement

	// variationGeneMap records, per variant source ID, the gene concept ID it
	// was built under. The statement assembler uses this to populate a
	// proposition's geneContextQualifier without re-deriving it.
	variationGeneMap map[string]string
}

// New returns an empty Cache ready for a single transform run.
func New() *Cache {
	return &Cache{
		variations:          make(map[string]domain.Variation),
		categoricalVariants: make(map[string]domain.CategoricalVariant),
		genes:                make(map[string]domain.Concept),
		conditions:           make(map[string]*domain.Concept),
		therapies:            make(map[string]*domain.Concept),
		therapyGroups:        make(map[string]domain.TherapyGroup),
		documents:            make(map[string]domain.Document),
		evidence:             make(map[string]domain.Statement),
		variationGeneMap:     make(map[string]string),
	}
}

func (c *Cache) PutVariation(id string, v domain.Variation) {
	if _, ok := c.variations[id]; !ok {
		c.variationOrder = append(c.variationOrder, id)
	}
	c.variations[id] = v
}
func (c *Cache) GetVariation(id string) (domain.Variation, bool) {
	v, ok := c.variations[id]
	return v, ok
}

func (c *Cache) PutCategoricalVariant(id string, cv domain.CategoricalVariant) {
	if _, ok := c.categoricalVariants[id]; !ok {
		c.categoricalVariantOrder = append(c.categoricalVariantOrder, id)
	}
	c.categoricalVariants[id] = cv
}
func (c *Cache) GetCategoricalVariant(id string) (domain.CategoricalVariant, bool) {
	cv, ok := c.categoricalVariants[id]
	return cv, ok
}

func (c *Cache) PutGene(id string, g domain.Concept) {
	if _, ok := c.genes[id]; !ok {
		c.geneOrder = append(c.geneOrder, id)
	}
	c.genes[id] = g
}
func (c *Cache) GetGene(id string) (domain.Concept, bool) {
	g, ok := c.genes[id]
	return g, ok
}

// PutCondition stores a copy of d, owned by the cache, keyed by id. The
// returned pointer from GetCondition aliases this same copy: mutating it
// (e.g. MOA disease reconciliation) is visible to every earlier caller that
// already holds the pointer, including statements already assembled against
// it, since nothing is serialized until the full run completes.
func (c *Cache) PutCondition(id string, d domain.Concept) {
	if _, ok := c.conditions[id]; !ok {
		c.conditionOrder = append(c.conditionOrder, id)
	}
	cp := d
	c.conditions[id] = &cp
}
func (c *Cache) GetCondition(id string) (*domain.Concept, bool) {
	d, ok := c.conditions[id]
	return d, ok
}

// PutTherapy stores a copy of t, owned by the cache, keyed by id. See
// PutCondition's note on shared-pointer mutation.
func (c *Cache) PutTherapy(id string, t domain.Concept) {
	if _, ok := c.therapies[id]; !ok {
		c.therapyOrder = append(c.therapyOrder, id)
	}
	cp := t
	c.therapies[id] = &cp
}
func (c *Cache) GetTherapy(id string) (*domain.Concept, bool) {
	t, ok := c.therapies[id]
	return t, ok
}

func (c *Cache) PutTherapyGroup(id string, g domain.TherapyGroup) {
	if _, ok := c.therapyGroups[id]; !ok {
		c.therapyGroupOrder = append(c.therapyGroupOrder, id)
	}
	c.therapyGroups[id] = g
}
func (c *Cache) GetTherapyGroup(id string) (domain.TherapyGroup, bool) {
	g, ok := c.therapyGroups[id]
	return g, ok
}

func (c *Cache) PutDocument(id string, d domain.Document) {
	if _, ok := c.documents[id]; !ok {
		c.documentOrder = append(c.documentOrder, id)
	}
	c.documents[id] = d
}
func (c *Cache) GetDocument(id string) (domain.Document, bool) {
	d, ok := c.documents[id]
	return d, ok
}

func (c *Cache) PutEvidence(id string, s domain.Statement) { c.evidence[id] = s }
func (c *Cache) GetEvidence(id string) (domain.Statement, bool) {
	s, ok := c.evidence[id]
	return s, ok
}

func (c *Cache) SetVariationGene(variantID, geneID string) { c.variationGeneMap[variantID] = geneID }
func (c *Cache) GeneFor(variantID string) (string, bool) {
	g, ok := c.variationGeneMap[variantID]
	return g, ok
}

// Variations returns all cached variations in first-insertion order.
func (c *Cache) Variations() []domain.Variation {
	out := make([]domain.Variation, 0, len(c.variationOrder))
	for _, id := range c.variationOrder {
		out = append(out, c.variations[id])
	}
	return out
}

// CategoricalVariants returns all cached categorical variants in
// first-insertion order.
func (c *Cache) CategoricalVariants() []domain.CategoricalVariant {
	out := make([]domain.CategoricalVariant, 0, len(c.categoricalVariantOrder))
	for _, id := range c.categoricalVariantOrder {
		out = append(out, c.categoricalVariants[id])
	}
	return out
}

// Genes returns all cached genes in first-insertion order.
func (c *Cache) Genes() []domain.Concept {
	out := make([]domain.Concept, 0, len(c.geneOrder))
	for _, id := range c.geneOrder {
		out = append(out, c.genes[id])
	}
	return out
}

// Conditions returns all cached conditions (diseases) in first-insertion
// order. Snapshots are taken by value: call this only once every builder
// has finished mutating the cache (including MOA reconciliation).
func (c *Cache) Conditions() []domain.Concept {
	out := make([]domain.Concept, 0, len(c.conditionOrder))
	for _, id := range c.conditionOrder {
		out = append(out, *c.conditions[id])
	}
	return out
}

// Therapies returns all cached therapies in first-insertion order. See
// Conditions' note on snapshot timing.
func (c *Cache) Therapies() []domain.Concept {
	out := make([]domain.Concept, 0, len(c.therapyOrder))
	for _, id := range c.therapyOrder {
		out = append(out, *c.therapies[id])
	}
	return out
}

// TherapyGroups returns all cached therapy groups in first-insertion order.
func (c *Cache) TherapyGroups() []domain.TherapyGroup {
	out := make([]domain.TherapyGroup, 0, len(c.therapyGroupOrder))
	for _, id := range c.therapyGroupOrder {
		out = append(out, c.therapyGroups[id])
	}
	return out
}

// Documents returns all cached documents in first-insertion order.
func (c *Cache) Documents() []domain.Document {
	out := make([]domain.Document, 0, len(c.documentOrder))
	for _, id := range c.documentOrder {
		out = append(out, c.documents[id])
	}
	return out
}

// Evidence returns all cached evidence statements, keyed by statement ID.
func (c *Cache) Evidence() map[string]domain.Statement { return c.evidence }
