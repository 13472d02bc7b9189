package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metakb-transform/internal/domain"
)

func TestReconciler_PicksLexMinNameAndAliases(t *testing.T) {
	r := NewReconciler()
	r.Observe("civic.gid:1", "BRAF")
	r.Observe("civic.gid:1", "B-RAF1")
	r.Observe("civic.gid:1", "braf")

	concept := &domain.Concept{ID: "civic.gid:1"}
	r.Reconcile(concept)

	assert.Equal(t, "B-RAF1", concept.Name)
	assert.Len(t, concept.Extensions, 1)
	assert.Equal(t, domain.ExtensionAliases, concept.Extensions[0].Name)
	assert.ElementsMatch(t, []string{"BRAF", "braf"}, concept.Extensions[0].Value)
}

func TestReconciler_OrderInsensitive(t *testing.T) {
	first := NewReconciler()
	first.Observe("civic.gid:1", "zeta")
	first.Observe("civic.gid:1", "alpha")
	c1 := &domain.Concept{ID: "civic.gid:1"}
	first.Reconcile(c1)

	second := NewReconciler()
	second.Observe("civic.gid:1", "alpha")
	second.Observe("civic.gid:1", "zeta")
	c2 := &domain.Concept{ID: "civic.gid:1"}
	second.Reconcile(c2)

	assert.Equal(t, c1.Name, c2.Name, "observation order must not affect the reconciled name")
}

func TestReconciler_NoObservationsLeavesConceptUnchanged(t *testing.T) {
	r := NewReconciler()
	concept := &domain.Concept{ID: "civic.gid:9", Name: "Unobserved"}
	r.Reconcile(concept)
	assert.Equal(t, "Unobserved", concept.Name)
	assert.Empty(t, concept.Extensions)
}

func TestReconciler_ReplacesPriorAliasesExtension(t *testing.T) {
	r := NewReconciler()
	r.Observe("civic.gid:1", "BRAF")
	r.Observe("civic.gid:1", "B-RAF1")

	concept := &domain.Concept{
		ID:         "civic.gid:1",
		Extensions: []domain.Extension{{Name: domain.ExtensionAliases, Value: []string{"stale"}}},
	}
	r.Reconcile(concept)

	assert.Len(t, concept.Extensions, 1)
	assert.Equal(t, []string{"BRAF"}, concept.Extensions[0].Value)
}

func TestReconciler_EmptyLabelIsIgnored(t *testing.T) {
	r := NewReconciler()
	r.Observe("civic.gid:1", "")
	r.Observe("civic.gid:1", "BRAF")

	concept := &domain.Concept{ID: "civic.gid:1"}
	r.Reconcile(concept)

	assert.Equal(t, "BRAF", concept.Name)
	assert.Empty(t, concept.Extensions)
}
