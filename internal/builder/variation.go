package builder

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/digest"
	"github.com/metakb-transform/internal/domain"
	"github.com/metakb-transform/internal/normalizer"
)

// snpPattern matches a dbSNP rsID-style alias ("RS1234...", case-insensitive
// on the leading letters, per the original RS\d+ pattern applied to
// upper-cased aliases).
var snpPattern = regexp.MustCompile(`^RS\d+`)

// unsupportedVariantTokens is the stoplist of morphological terms the
// variation normalizer is known not to support, grounded on civic.py's
// UNABLE_TO_NORMALIZE_VAR_NAMES.
var unsupportedVariantTokens = map[string]bool{
	"mutation": true, "exon": true, "overexpression": true, "frameshift": true,
	"promoter": true, "deletion": true, "type": true, "insertion": true,
	"expression": true, "duplication": true, "copy": true, "underexpression": true,
	"number": true, "variation": true, "repeat": true, "rearrangement": true,
	"activation": true, "mislocalization": true, "translocation": true, "wild": true,
	"polymorphism": true, "frame": true, "shift": true, "loss": true, "function": true,
	"levels": true, "inactivation": true, "snp": true, "fusion": true, "dup": true,
	"truncation": true, "homozygosity": true, "gain": true, "phosphorylation": true,
}

// VariationBuilder implements C4: construction of canonical Variation and
// CategoricalVariant entities.
type VariationBuilder struct {
	gateway     *normalizer.Gateway
	cache       *cache.Cache
	concurrency int64
}

// NewVariationBuilder returns a VariationBuilder bounded by concurrency
// simultaneous in-flight variation-normalizer calls (default 1, per
// spec.md §5: sequential unless configured otherwise, to preserve
// determinism).
func NewVariationBuilder(gw *normalizer.Gateway, c *cache.Cache, concurrency int64) *VariationBuilder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &VariationBuilder{gateway: gw, cache: c, concurrency: concurrency}
}

// variantName applies civic.py's _get_variant_name: if the name contains a
// cDNA expression ("c."), strip parens and take the last whitespace-split
// token; otherwise use the name unchanged.
func variantName(name string) string {
	if strings.Contains(name, "c.") {
		stripped := strings.NewReplacer("(", "", ")", "").Replace(name)
		fields := strings.Fields(stripped)
		if len(fields) > 0 {
			return fields[len(fields)-1]
		}
	}
	return name
}

// IsSupportedVariantQuery applies civic.py's _is_supported_variant_query
// admissibility filter: queries ending in "fs", containing "-"/"/", or
// whose whitespace-split tokens intersect the stoplist are rejected.
func IsSupportedVariantQuery(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "fs") || strings.Contains(lower, "-") || strings.Contains(lower, "/") {
		return false
	}
	for _, tok := range strings.Fields(lower) {
		if unsupportedVariantTokens[tok] {
			return false
		}
	}
	return true
}

// queryForm builds the variation-normalizer query string per spec.md §4.4
// step 1, grounded on civic.py's _add_variations: variantName first resolves
// which form of the name to query with (cDNA-adjacent token when the raw
// name contains "c.", else the name as-is), then the query is always
// "<gene_symbol> <resolved_name>".
func queryForm(geneSymbol, name string) string {
	return fmt.Sprintf("%s %s", geneSymbol, variantName(name))
}

// BuildCivicVariants normalizes every CIViC variant record concurrently
// (bounded by the configured semaphore) and writes every CategoricalVariant
// (failure-marked ones included), the defining Variation of each one that
// normalized, and the referenced gene IDs into the cache. Results are sorted by source variant ID before being
// appended to the cache/CDM arrays, preserving per-source determinism
// (spec.md Design Notes §9, "Async variation normalization").
func (b *VariationBuilder) BuildCivicVariants(ctx context.Context, variants []CivicVariant) error {
	type outcome struct {
		id   int
		cv   *domain.CategoricalVariant
		geneID string
	}

	sem := semaphore.NewWeighted(b.concurrency)
	results := make([]outcome, len(variants))

	for i := range variants {
		if err := sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("acquiring variation concurrency slot: %w", err)
		}
		i := i
		go func() {
			defer sem.Release(1)
			cv, geneID := b.buildOneCivicVariant(ctx, variants[i])
			results[i] = outcome{id: variants[i].ID, cv: cv, geneID: geneID}
		}()
	}
	// Drain all slots to ensure every goroutine has completed.
	if err := sem.Acquire(ctx, b.concurrency); err != nil {
		return fmt.Errorf("draining variation concurrency pool: %w", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].id < results[j].id })

	for _, r := range results {
		if r.cv == nil {
			continue
		}
		variantID := fmt.Sprintf("civic.vid:%d", r.id)
		b.cache.PutCategoricalVariant(variantID, *r.cv)
		if len(r.cv.Constraints) == 1 {
			b.cache.PutVariation(r.cv.Constraints[0].Allele.ID, r.cv.Constraints[0].Allele)
		}
		b.cache.SetVariationGene(variantID, r.geneID)
	}
	return nil
}

func (b *VariationBuilder) buildOneCivicVariant(ctx context.Context, v CivicVariant) (*domain.CategoricalVariant, string) {
	geneID := fmt.Sprintf("civic.gid:%d", v.GeneID)
	name := variantName(v.Name)

	cv := &domain.CategoricalVariant{
		ID:   fmt.Sprintf("civic.vid:%d", v.ID),
		Name: v.Name,
	}
	cv.Mappings = append(cv.Mappings, domain.ConceptMapping{
		Coding: domain.Coding{
			ID:     cv.ID,
			Code:   fmt.Sprintf("%d", v.ID),
			System: "https://civicdb.org/variants/",
		},
		Relation: domain.RelationExactMatch,
	})
	if v.AlleleRegistryID != "" {
		cv.Mappings = append(cv.Mappings, domain.ConceptMapping{
			Coding: domain.Coding{
				Code:   v.AlleleRegistryID,
				System: "https://reg.clinicalgenome.org/redmine/projects/registry/genboree_registry/by_canonicalid?canonicalid=",
			},
			Relation: domain.RelationRelatedMatch,
		})
	}
	for _, ce := range v.ClinvarEntries {
		cv.Mappings = append(cv.Mappings, domain.ConceptMapping{
			Coding:   domain.Coding{Code: ce, System: "https://www.ncbi.nlm.nih.gov/clinvar/variation/"},
			Relation: domain.RelationRelatedMatch,
		})
	}

	var aliases []string
	for _, a := range v.VariantAliases {
		if snpPattern.MatchString(strings.ToUpper(a)) {
			cv.Mappings = append(cv.Mappings, domain.ConceptMapping{
				Coding:   domain.Coding{Code: strings.ToLower(a), System: "https://www.ncbi.nlm.nih.gov/snp/"},
				Relation: domain.RelationRelatedMatch,
			})
		} else {
			aliases = append(aliases, a)
		}
	}
	if len(aliases) > 0 {
		cv.Extensions = append(cv.Extensions, domain.Extension{Name: domain.ExtensionAliases, Value: aliases})
	}
	for _, vt := range v.VariantTypes {
		system := vt.URL
		if idx := strings.LastIndex(vt.URL, "/"); idx >= 0 {
			system = vt.URL[:idx+1]
		}
		cv.Mappings = append(cv.Mappings, domain.ConceptMapping{
			Coding:   domain.Coding{ID: vt.SOID, Code: vt.SOID, System: system, Name: vt.Name},
			Relation: domain.RelationRelatedMatch,
		})
	}

	if !IsSupportedVariantQuery(name) {
		cv.Extensions = append(cv.Extensions, domain.Extension{Name: domain.ExtensionNormalizerFailure, Value: true})
		return cv, geneID
	}

	query := queryForm(v.EntrezName, v.Name)
	allele, err := b.gateway.NormalizeVariation(ctx, query)
	if err != nil || allele == nil {
		cv.Extensions = append(cv.Extensions, domain.Extension{Name: domain.ExtensionNormalizerFailure, Value: true})
		return cv, geneID
	}
	allele.Label = v.Name

	if hgvsExprs := proteinExpressions(v.HGVSExpressions); len(hgvsExprs) > 0 {
		allele.Expressions = hgvsExprs
	}

	cv.Constraints = []domain.DefiningAlleleConstraint{{Allele: *allele}}
	cv.Members = b.buildMembers(ctx, v.HGVSExpressions)

	return cv, geneID
}

// proteinExpressions returns only the protein ("p.") HGVS expressions on a
// variant record, per civic.py's _get_expressions.
func proteinExpressions(hgvsExprs []string) []domain.Expression {
	var out []domain.Expression
	for _, e := range hgvsExprs {
		if e == "N/A" || !strings.Contains(e, ":p.") {
			continue
		}
		out = append(out, domain.Expression{Syntax: domain.SyntaxHGVSP, Value: e})
	}
	return out
}

// buildMembers normalizes each non-protein HGVS expression on a variant
// record as an auxiliary member Variation, per civic.py's
// _get_variation_members. Only genomic ("g.") and coding ("c.") syntaxes are
// attempted; "N/A" and protein expressions are skipped.
func (b *VariationBuilder) buildMembers(ctx context.Context, hgvsExprs []string) []domain.Variation {
	var members []domain.Variation
	for _, expr := range hgvsExprs {
		if expr == "N/A" || strings.Contains(expr, "p.") {
			continue
		}
		var syntax domain.Syntax
		switch {
		case strings.Contains(expr, "c."):
			syntax = domain.SyntaxHGVSC
		case strings.Contains(expr, "g."):
			syntax = domain.SyntaxHGVSG
		default:
			continue
		}
		v, err := b.gateway.NormalizeVariation(ctx, expr)
		if err != nil || v == nil {
			continue
		}
		v.Label = expr
		v.Expressions = []domain.Expression{{Syntax: syntax, Value: expr}}
		members = append(members, *v)
	}
	return members
}

// moaCoordinateFields names the MOA "representative coordinate" extension's
// source fields, grounded on moa.py's _add_categorical_variants.
var moaCoordinateFields = []struct {
	name string
	get  func(MoaVariant) string
}{
	{"chromosome", func(v MoaVariant) string { return v.Chromosome }},
	{"start_position", func(v MoaVariant) string { return v.StartPos }},
	{"end_position", func(v MoaVariant) string { return v.EndPos }},
	{"reference_allele", func(v MoaVariant) string { return v.RefAllele }},
	{"alternate_allele", func(v MoaVariant) string { return v.AltAllele }},
	{"cdna_change", func(v MoaVariant) string { return v.CDSChange }},
	{"protein_change", func(v MoaVariant) string { return v.ProteinChange }},
	{"exon", func(v MoaVariant) string { return v.ExonNumber }},
}

// BuildMoaVariants normalizes every MOA variant record and writes every
// CategoricalVariant (failure-marked ones included), the defining Variation
// of each one that normalized, and the referenced gene IDs into the cache,
// grounded on moa.py's
// _add_categorical_variants. Fusion records (gene2 present) and rearrangement
// records are not supported and are skipped entirely: unlike CIViC, MOA never
// emits a variation-normalizer-failure CategoricalVariant for these, since
// they carry no protein_change for a query in the first place.
func (b *VariationBuilder) BuildMoaVariants(ctx context.Context, variants []MoaVariant) error {
	for _, v := range variants {
		if v.Gene2 != "" || v.RearrangementType != "" {
			continue
		}
		cv, geneID := b.buildOneMoaVariant(ctx, v)
		if cv == nil {
			continue
		}
		variantID := fmt.Sprintf("moa.variant:%d", v.ID)
		b.cache.PutCategoricalVariant(variantID, *cv)
		if len(cv.Constraints) == 1 {
			b.cache.PutVariation(cv.Constraints[0].Allele.ID, cv.Constraints[0].Allele)
		}
		b.cache.SetVariationGene(variantID, geneID)
	}
	return nil
}

func (b *VariationBuilder) buildOneMoaVariant(ctx context.Context, v MoaVariant) (*domain.CategoricalVariant, string) {
	geneID := fmt.Sprintf("moa.gene:%s", v.Gene)

	cv := &domain.CategoricalVariant{
		ID:   fmt.Sprintf("moa.variant:%d", v.ID),
		Name: fmt.Sprintf("%s %s", v.Gene, v.ProteinChange),
	}
	cv.Mappings = append(cv.Mappings, domain.ConceptMapping{
		Coding:   domain.Coding{ID: cv.ID, Code: fmt.Sprintf("%d", v.ID), System: "https://moalmanac.org/api/features/"},
		Relation: domain.RelationExactMatch,
	})
	if v.RsID != "" {
		cv.Mappings = append(cv.Mappings, domain.ConceptMapping{
			Coding:   domain.Coding{Code: strings.ToLower(v.RsID), System: "https://www.ncbi.nlm.nih.gov/snp/"},
			Relation: domain.RelationRelatedMatch,
		})
	}

	var coords []domain.Extension
	for _, f := range moaCoordinateFields {
		if val := f.get(v); val != "" {
			coords = append(coords, domain.Extension{Name: f.name, Value: val})
		}
	}
	if len(coords) > 0 {
		cv.Extensions = append(cv.Extensions, domain.Extension{Name: "MOA representative coordinate", Value: coords})
	}
	if v.Locus != "" {
		cv.Extensions = append(cv.Extensions, domain.Extension{Name: "MOA locus", Value: v.Locus})
	}
	cv.Extensions = append(cv.Extensions, domain.Extension{Name: "moa_feature_type", Value: v.FeatureType})

	if v.ProteinChange == "" || v.Gene == "" {
		cv.Extensions = append(cv.Extensions, domain.Extension{Name: domain.ExtensionNormalizerFailure, Value: true})
		return cv, geneID
	}

	proteinSuffix := v.ProteinChange
	if strings.HasPrefix(proteinSuffix, "p.") {
		proteinSuffix = proteinSuffix[2:]
	}
	query := fmt.Sprintf("%s %s", v.Gene, proteinSuffix)
	allele, err := b.gateway.NormalizeVariation(ctx, query)
	if err != nil || allele == nil {
		cv.Extensions = append(cv.Extensions, domain.Extension{Name: domain.ExtensionNormalizerFailure, Value: true})
		return cv, geneID
	}
	allele.Label = v.ProteinChange
	cv.Constraints = []domain.DefiningAlleleConstraint{{Allele: *allele}}

	if v.Chromosome != "" && v.StartPos != "" && v.RefAllele != "" && v.AltAllele != "" &&
		v.RefAllele != "-" && v.AltAllele != "-" {
		gnomadQuery := fmt.Sprintf("%s-%s-%s-%s", v.Chromosome, v.StartPos, v.RefAllele, v.AltAllele)
		if member, err := b.gateway.NormalizeVariation(ctx, gnomadQuery); err == nil && member != nil {
			member.Label = gnomadQuery
			cv.Members = append(cv.Members, *member)
		}
	}

	return cv, geneID
}

// FinalizeAlleleDigest computes and assigns the VRS digest/ID for an allele
// from its canonicalized {location, state}, enforcing invariant 2 (spec.md
// §8): digest = sha512t24u(canonical(location, state)); id is derived from
// digest. Builders that construct an Allele directly (rather than receiving
// one pre-digested from the normalizer) must call this before caching it.
func FinalizeAlleleDigest(v *domain.Variation) error {
	canonical := struct {
		Location domain.Location `json:"location"`
		State    domain.State    `json:"state"`
	}{v.Location, v.State}

	d, err := digest.CanonicalJSON(canonical)
	if err != nil {
		return fmt.Errorf("computing allele digest: %w", err)
	}
	v.Digest = d
	v.ID = fmt.Sprintf("ga4gh:VA.%s", d)
	return nil
}
