package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
)

func TestCivicGroupKind(t *testing.T) {
	tests := []struct {
		name        string
		interaction InteractionType
		wantOp      domain.MembershipOperator
		wantPrefix  string
		wantOK      bool
	}{
		{"substitutes maps to OR", InteractionSubstitutes, domain.MembershipOR, "tsgid", true},
		{"combination maps to AND", InteractionCombination, domain.MembershipAND, "ctid", true},
		{"sequential unsupported", InteractionSequential, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, prefix, ok := CivicGroupKind(tt.interaction)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantOp, op)
				assert.Equal(t, tt.wantPrefix, prefix)
			}
		})
	}
}

func TestMoaGroupKind(t *testing.T) {
	tests := []struct {
		name         string
		therapyType  MoaTherapyType
		wantOK       bool
	}{
		{"combination supported", MoaCombinationTherapy, true},
		{"immunotherapy supported", MoaImmunotherapy, true},
		{"radiation supported", MoaRadiationTherapy, true},
		{"targeted supported", MoaTargetedTherapy, true},
		{"hormone unsupported", MoaHormoneTherapy, false},
		{"chemotherapy unsupported", MoaChemotherapy, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, prefix, ok := MoaGroupKind(tt.therapyType)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, domain.MembershipAND, op)
				assert.Equal(t, "ctid", prefix)
			}
		})
	}
}

func TestBuildTherapyGroup_OrderInsensitiveDigest(t *testing.T) {
	a := &domain.Concept{ID: "civic.tid:1", Name: "Trametinib"}
	b := &domain.Concept{ID: "civic.tid:2", Name: "Dabrafenib"}

	g1 := BuildTherapyGroup("civic", "ctid", domain.MembershipAND, []*domain.Concept{a, b})
	g2 := BuildTherapyGroup("civic", "ctid", domain.MembershipAND, []*domain.Concept{b, a})

	assert.Equal(t, g1.ID, g2.ID, "reordering members must not change the group digest")
	assert.False(t, g1.FailedToNormalize())
}

func TestBuildTherapyGroup_FailurePropagates(t *testing.T) {
	ok := &domain.Concept{ID: "civic.tid:1", Name: "Trametinib"}
	failed := &domain.Concept{
		ID:         "civic.tid:2",
		Name:       "Unknown",
		Extensions: []domain.Extension{{Name: domain.ExtensionNormalizerFailure, Value: true}},
	}

	g := BuildTherapyGroup("civic", "ctid", domain.MembershipAND, []*domain.Concept{ok, failed})
	assert.True(t, g.FailedToNormalize())
}

func TestBuildTherapyGroup_NilMemberPropagatesFailure(t *testing.T) {
	ok := &domain.Concept{ID: "civic.tid:1", Name: "Trametinib"}
	g := BuildTherapyGroup("civic", "ctid", domain.MembershipAND, []*domain.Concept{ok, nil})
	assert.True(t, g.FailedToNormalize())
}

func TestCacheTherapyGroup(t *testing.T) {
	c := cache.New()
	g := &domain.TherapyGroup{ID: "civic.ctid:abc", MembershipOperator: domain.MembershipAND}
	CacheTherapyGroup(c, g)

	got, ok := c.GetTherapyGroup(g.ID)
	assert.True(t, ok)
	assert.Equal(t, g.ID, got.ID)
}
