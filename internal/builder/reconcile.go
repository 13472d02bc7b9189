package builder

import (
	"sort"

	"github.com/metakb-transform/internal/domain"
)

// Reconciler implements the two-pass redesign from spec.md Design Notes §9
// ("Mutable cache concepts during reconciliation"): rather than mutating a
// cached concept in place every time a new source label resolves to the
// same normalized ID (which makes the result depend on processing order),
// this collects every (normalizedID, sourceLabel) pair across an entire
// source's concept set in a first pass, then builds each concept once from
// the complete aggregated label set in a second pass. This removes ordering
// sensitivity entirely: the result is the same no matter which label was
// encountered first.
type Reconciler struct {
	labels map[string]map[string]bool // normalizedID -> set of source labels seen
}

// NewReconciler returns an empty Reconciler ready to collect labels for one
// concept kind (gene, disease, or therapy) within one source's transform run.
func NewReconciler() *Reconciler {
	return &Reconciler{labels: make(map[string]map[string]bool)}
}

// Observe records that the source label was seen for the given normalized ID.
// Call this once per source record during the first pass.
func (r *Reconciler) Observe(normalizedID, label string) {
	if label == "" {
		return
	}
	set, ok := r.labels[normalizedID]
	if !ok {
		set = make(map[string]bool)
		r.labels[normalizedID] = set
	}
	set[label] = true
}

// Reconcile applies the second pass to a single concept: picks the
// lexicographically minimum observed label as Name, and appends every
// other observed label (deduped) to an "aliases" extension, replacing any
// prior aliases extension entirely (the aggregated set is authoritative).
//
// Invariant 5 (spec.md §8): after transform, exactly one concept with ID
// tied to normalizedID exists, its name is min(labels), and the rest appear
// in aliases.
func (r *Reconciler) Reconcile(concept *domain.Concept) {
	set, ok := r.labels[concept.ID]
	if !ok || len(set) == 0 {
		return
	}

	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	concept.Name = labels[0]
	aliases := labels[1:]

	filtered := concept.Extensions[:0]
	for _, ext := range concept.Extensions {
		if ext.Name != domain.ExtensionAliases {
			filtered = append(filtered, ext)
		}
	}
	concept.Extensions = filtered
	if len(aliases) > 0 {
		concept.Extensions = append(concept.Extensions, domain.Extension{Name: domain.ExtensionAliases, Value: aliases})
	}
}
