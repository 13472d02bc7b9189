package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metakb-transform/internal/builder"
	"github.com/metakb-transform/internal/cdm"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/normalizer"
	"github.com/metakb-transform/internal/transform"
)

func TestCountsOf_ReflectsEveryTopLevelKey(t *testing.T) {
	doc := cdm.Document{
		Genes:              []domain.Concept{{ID: "g1"}},
		Conditions:         []domain.Concept{{ID: "d1"}, {ID: "d2"}},
		StatementsEvidence: []domain.Statement{{ID: "e1"}},
	}

	counts := countsOf(doc)
	assert.Equal(t, 1, counts.Genes)
	assert.Equal(t, 2, counts.Conditions)
	assert.Equal(t, 1, counts.StatementsEvidence)
	assert.Equal(t, 0, counts.Therapies)
}

// conceptFixture responds to the three synchronous concept normalizers (gene,
// disease, therapy) sharing one handler: each recognized query string gets a
// canned normalize() response, everything else gets match_type 0.
func conceptFixture(t *testing.T) *httptest.Server {
	t.Helper()
	responses := map[string]struct{ id, name string }{
		"ncbigene:1956": {"normalize.gene.hgnc:3236", "EGFR"},
		"DOID:3908":     {"normalize.disease.ncit:C2926", "Lung Non-small Cell Carcinoma"},
		"ncit:C66940":   {"normalize.therapy.rxcui:636525", "Afatinib"},
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		resp, ok := responses[q]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{"match_type": 0})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"match_type": 1,
			"concept": map[string]any{
				"id": resp.id, "name": resp.name,
				"mappings": []any{}, "extensions": []any{},
			},
		})
	}))
}

// variationFixture resolves the single "EGFR L858R" query to a defining
// allele; every other query is treated as unnormalizable.
func variationFixture(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "EGFR L858R" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.Variation{ID: "ga4gh:VA.test123", Type: "Allele"})
	}))
}

// TestRunCivic_TherapyNormalizesFromHarvestRecord feeds a realistic CIViC
// harvest (mirroring spec.md scenario S1) through the full RunCivic pipeline
// against real normalizer HTTP fixtures. It exercises the harvest's
// top-level therapies array end to end: CivicHarvest.Therapies must carry
// the therapy's NCIt ID and name for buildTherapeuticObject to look up,
// or the therapy never normalizes and the statement is dropped by the
// reachability filter.
func TestRunCivic_TherapyNormalizesFromHarvestRecord(t *testing.T) {
	concepts := conceptFixture(t)
	defer concepts.Close()
	variations := variationFixture(t)
	defer variations.Close()

	svc := domain.NormalizerServiceConfig{BaseURL: concepts.URL, Timeout: 2 * time.Second, RateLimit: 100}
	cfg := domain.NormalizerConfig{
		Gene: svc, Disease: svc, Therapy: svc,
		Variation: domain.NormalizerServiceConfig{BaseURL: variations.URL, Timeout: 2 * time.Second, RateLimit: 100},
	}
	gw, err := normalizer.New(cfg, domain.CacheConfig{LRUSize: 64}, logrus.New())
	require.NoError(t, err)
	defer gw.Close()

	harvest := CivicHarvest{
		Genes:     []builder.CivicGene{{ID: 1, Name: "EGFR", EntrezID: "1956"}},
		Variants:  []builder.CivicVariant{{ID: 12, Name: "L858R", GeneID: 1, EntrezName: "EGFR"}},
		Therapies: []builder.CivicTherapy{{ID: 33, Name: "Afatinib", NCItID: "C66940"}},
		MolecularProfiles: []transform.CivicMolecularProfile{
			{ID: 501, VariantIDs: []int{12}},
		},
		EvidenceItems: []transform.CivicEvidenceItem{
			{
				ID: 2997, Name: "EID2997", Status: "accepted", EvidenceType: "PREDICTIVE",
				EvidenceDirection: "SUPPORTS", EvidenceLevel: "A", Significance: "SENSITIVITYRESPONSE",
				Description: "EGFR L858R predicts sensitivity to afatinib.", MolecularProfileID: 501,
				VariantOrigin: "SOMATIC",
				Disease:       &transform.CivicDiseaseRef{ID: 7, DisplayName: "Lung Non-small Cell Carcinoma", DOID: "3908"},
				Therapies:     []transform.CivicTherapyRef{{ID: 33}},
				Source:        transform.CivicSource{ID: 1, SourceType: "PubMed", Citation: "Lin et al., 2018", CitationID: "29851279"},
			},
		},
	}

	doc, counts, err := RunCivic(context.Background(), gw, 1, harvest, logrus.New())
	require.NoError(t, err)
	require.Equal(t, 1, counts.StatementsEvidence, "therapy must normalize from the harvest's top-level record so the statement is admitted")

	s := doc.StatementsEvidence[0]
	require.NotNil(t, s.Proposition.ObjectTherapeutic)
	require.NotNil(t, s.Proposition.ObjectTherapeutic.Therapy)
	assert.Equal(t, "Afatinib", s.Proposition.ObjectTherapeutic.Therapy.Name)
	assert.Equal(t, "civic.rxcui:636525", s.Proposition.ObjectTherapeutic.Therapy.ID)
}
