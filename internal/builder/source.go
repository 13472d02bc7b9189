// Package builder implements C4 (Variation Builder) and C5 (Concept
// Builders): the construction of canonical Variation/CategoricalVariant,
// Gene/Disease/Therapy, and TherapyGroup entities from source records,
// against the Normalizer Gateway (C1), writing into the Entity Cache (C3).
package builder

// CivicVariant is a single CIViC variant record, as harvested.
type CivicVariant struct {
	ID               int               `json:"id"`
	Name             string            `json:"name"`
	GeneID           int               `json:"gene_id"`
	EntrezName       string            `json:"entrez_name"`
	HGVSExpressions  []string          `json:"hgvs_expressions"`
	AlleleRegistryID string            `json:"allele_registry_id"`
	ClinvarEntries   []string          `json:"clinvar_entries"`
	VariantAliases   []string          `json:"variant_aliases"`
	Coordinates      map[string]interface{} `json:"coordinates"`
	VariantTypes     []CivicVariantType `json:"variant_types"`
}

// CivicVariantType is a Sequence Ontology-coded variant type from CIViC.
type CivicVariantType struct {
	SOID string `json:"so_id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// CivicGene is a single CIViC gene record, as harvested.
type CivicGene struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	EntrezID    string   `json:"entrez_id"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases"`
}

// CivicDisease is a single CIViC disease record, as harvested.
type CivicDisease struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	DOID        string `json:"doid"`
}

// CivicTherapy is a single CIViC therapy record, as harvested.
type CivicTherapy struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	NCItID  string   `json:"ncit_id"`
	Aliases []string `json:"aliases"`
}

// MoaVariant is a single MOAlmanac "feature" protein-consequence record.
type MoaVariant struct {
	ID                int    `json:"id"`
	Gene              string `json:"gene"`
	Gene2             string `json:"gene2,omitempty"`
	ProteinChange     string `json:"protein_change"`
	FeatureType       string `json:"feature_type"`
	RearrangementType string `json:"rearrangement_type,omitempty"`

	Chromosome string `json:"chromosome,omitempty"`
	StartPos   string `json:"start_position,omitempty"`
	EndPos     string `json:"end_position,omitempty"`
	RefAllele  string `json:"reference_allele,omitempty"`
	AltAllele  string `json:"alternate_allele,omitempty"`
	CDSChange  string `json:"cdna_change,omitempty"`
	ProteinChangeType string `json:"variant_annotation,omitempty"`
	ExonNumber string `json:"exon,omitempty"`

	Locus string `json:"locus,omitempty"`
	RsID  string `json:"rsid,omitempty"`
}

// MoaDisease is the free-text disease shape MOA supplies per assertion; no
// stable ID exists so identity is digest-derived (internal/digest).
type MoaDisease struct {
	Name          string `json:"name"`
	OncotreeCode  string `json:"oncotree_code"`
	OncotreeTerm  string `json:"oncotree_term"`
}

// MoaSource is a single MOAlmanac citation/document record.
type MoaSource struct {
	ID       int    `json:"id"`
	Citation string `json:"citation"`
	URL      string `json:"url"`
	PMID     string `json:"pmid"`
	DOI      string `json:"doi"`
	NCTID    string `json:"nct"`
	SourceType string `json:"source_type"`
}
