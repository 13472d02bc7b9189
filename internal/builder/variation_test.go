package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupportedVariantQuery(t *testing.T) {
	tests := []struct {
		name     string
		variant  string
		expected bool
	}{
		{"simple substitution", "L858R", true},
		{"frameshift suffix", "T157fs", false},
		{"hyphenated range", "E746-A750del", false},
		{"slash", "p.A1/B2", false},
		{"fusion stoplist word", "BRCA1 fusion", false},
		{"exon stoplist word", "EXON 19 DELETION", false},
		{"amplification-like not in stoplist", "AMPLIFICATION", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSupportedVariantQuery(tt.variant))
		})
	}
}

func TestVariantName_CDNAForm(t *testing.T) {
	got := variantName("NM_005228.5:c.2573T>G (L858R)")
	assert.Equal(t, "L858R", got)
}

func TestVariantName_PlainForm(t *testing.T) {
	assert.Equal(t, "L858R", variantName("L858R"))
}

func TestQueryForm_ProteinChange(t *testing.T) {
	got := queryForm("EGFR", "L858R")
	assert.Equal(t, "EGFR L858R", got)
}

func TestQueryForm_CDNA(t *testing.T) {
	got := queryForm("PDGFRA", "c.2525A>T")
	assert.Equal(t, "PDGFRA c.2525A>T", got)
}
