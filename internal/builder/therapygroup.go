package builder

import (
	"fmt"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/digest"
	"github.com/metakb-transform/internal/domain"
)

// InteractionType classifies how a source statement's multiple therapies
// combine.
type InteractionType string

const (
	InteractionSubstitutes  InteractionType = "SUBSTITUTES"
	InteractionCombination  InteractionType = "COMBINATION"
	InteractionSequential   InteractionType = "SEQUENTIAL" // CIViC: not supported
)

// MoaTherapyType classifies the free-text therapy_type string MOA supplies.
type MoaTherapyType string

const (
	MoaCombinationTherapy MoaTherapyType = "COMBINATION THERAPY"
	MoaImmunotherapy      MoaTherapyType = "IMMUNOTHERAPY"
	MoaRadiationTherapy   MoaTherapyType = "RADIATION THERAPY"
	MoaTargetedTherapy    MoaTherapyType = "TARGETED THERAPY"
	MoaHormoneTherapy     MoaTherapyType = "HORMONE THERAPY"   // not supported
	MoaChemotherapy       MoaTherapyType = "CHEMOTHERAPY"      // not supported
)

// CivicGroupKind maps a CIViC interaction type to an AND/OR group, per
// spec.md §4.5: SUBSTITUTES -> OR (tsgid), COMBINATION -> AND (ctid),
// SEQUENTIAL is not supported.
func CivicGroupKind(interaction InteractionType) (domain.MembershipOperator, string, bool) {
	switch interaction {
	case InteractionSubstitutes:
		return domain.MembershipOR, "tsgid", true
	case InteractionCombination:
		return domain.MembershipAND, "ctid", true
	default:
		return "", "", false
	}
}

// MoaGroupKind maps a MOA therapy_type string to an AND group; only
// combination/immuno/radiation/targeted are supported (spec.md §4.5).
// MOA never produces OR (substitute) groups.
func MoaGroupKind(therapyType MoaTherapyType) (domain.MembershipOperator, string, bool) {
	switch therapyType {
	case MoaCombinationTherapy, MoaImmunotherapy, MoaRadiationTherapy, MoaTargetedTherapy:
		return domain.MembershipAND, "ctid", true
	default:
		return "", "", false
	}
}

// BuildTherapyGroup assembles a TherapyGroup from already-built therapy
// concepts. If any member failed to normalize, the group itself fails to
// normalize (its ID is still computed so it is cacheable/referenceable, but
// FailedToNormalize() will report true and the reachability filter will
// exclude it). The digest is always computed over sorted member IDs
// (spec.md §4.2 tie-break / Open Question (b) decision, see DESIGN.md).
func BuildTherapyGroup(source, idPrefix string, op domain.MembershipOperator, therapies []*domain.Concept) *domain.TherapyGroup {
	concrete := make([]domain.Concept, 0, len(therapies))
	ids := make([]string, 0, len(therapies))
	anyFailed := false
	for _, t := range therapies {
		if t == nil {
			anyFailed = true
			continue
		}
		concrete = append(concrete, *t)
		ids = append(ids, t.ID)
		if t.FailedToNormalize() {
			anyFailed = true
		}
	}

	groupID := fmt.Sprintf("%s.%s:%s", source, idPrefix, digest.ForSortedStrings(ids))
	if anyFailed {
		concrete = append(concrete, domain.Concept{
			Extensions: []domain.Extension{{Name: domain.ExtensionNormalizerFailure, Value: true}},
		})
	}

	return &domain.TherapyGroup{
		ID:                 groupID,
		MembershipOperator: op,
		Therapies:          concrete,
	}
}

// CacheTherapyGroup stores the group for later lookup by statement
// assembly.
func CacheTherapyGroup(c *cache.Cache, g *domain.TherapyGroup) {
	c.PutTherapyGroup(g.ID, *g)
}
