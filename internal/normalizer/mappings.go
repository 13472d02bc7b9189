package normalizer

import "github.com/metakb-transform/internal/domain"

// priorityExtension tags a ConceptMapping as the normalizer's primary
// coding, so downstream consumers can distinguish it from the source's own
// cross-references without re-deriving the rule.
const priorityExtension = "priority"

// GetVICCNormalizerMappings returns the ordered list of ConceptMapping for a
// resolved concept: the normalizer's own ID is first and tagged
// priority=true; every other mapping the normalizer returned follows,
// tagged priority=false. Grounded on normalizers.py's mapping-construction
// logic as used throughout civic.py/moa.py's `_add_gene`/`_get_disease`/
// `_get_therapy`.
func GetVICCNormalizerMappings(kind ConceptKind, canonicalID string, resp *Concept) []domain.ConceptMapping {
	if resp == nil {
		return nil
	}

	out := make([]domain.ConceptMapping, 0, len(resp.Mappings)+1)
	out = append(out, domain.ConceptMapping{
		Coding: domain.Coding{
			ID:     resp.ID,
			Code:   canonicalID,
			System: "normalize." + string(kind),
			Name:   resp.Name,
		},
		Relation:   domain.RelationExactMatch,
		Extensions: []domain.Extension{{Name: priorityExtension, Value: true}},
	})

	for _, m := range resp.Mappings {
		m.Extensions = append(m.Extensions, domain.Extension{Name: priorityExtension, Value: false})
		out = append(out, m)
	}
	return out
}

// approvalRating enumerates the two regulatory-approval tiers the therapy
// normalizer's extensions can encode.
type approvalRating string

const (
	approvalFDA          approvalRating = "FDA"
	approvalChemblPhase4 approvalRating = "chembl_phase_4"
)

// GetRegulatoryApprovalExtension extracts a therapy's FDA/ChEMBL approval
// rating and matched indications from the normalizer response's own
// extensions, grounded on normalizers.py's
// `get_regulatory_approval_extension` (static method): FDA_PRESCRIPTION or
// FDA_OTC (unless FDA_DISCONTINUED without CHEMBL_4) yields FDA; CHEMBL_4
// alone yields chembl_phase_4; otherwise no extension is produced.
func GetRegulatoryApprovalExtension(resp *Concept) *domain.Extension {
	if resp == nil {
		return nil
	}

	var ratings []string
	var indications []interface{}
	for _, ext := range resp.Extensions {
		switch ext.Name {
		case "approval_ratings":
			if vs, ok := ext.Value.([]interface{}); ok {
				for _, v := range vs {
					if s, ok := v.(string); ok {
						ratings = append(ratings, s)
					}
				}
			}
		case "has_indications":
			if vs, ok := ext.Value.([]interface{}); ok {
				indications = vs
			}
		}
	}

	has := func(r string) bool {
		for _, v := range ratings {
			if v == r {
				return true
			}
		}
		return false
	}

	var rating approvalRating
	switch {
	case (has("FDA_PRESCRIPTION") || has("FDA_OTC")) && !(has("FDA_DISCONTINUED") && !has("CHEMBL_4")):
		rating = approvalFDA
	case has("CHEMBL_4"):
		rating = approvalChemblPhase4
	default:
		return nil
	}

	return &domain.Extension{
		Name: domain.ExtensionRegulatoryApproval,
		Value: map[string]interface{}{
			"approval_rating": rating,
			"has_indications": indications,
		},
	}
}
