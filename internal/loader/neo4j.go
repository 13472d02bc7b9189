// Package loader implements the Graph Loader Writer (C9): a thin Neo4j
// client that writes a completed CDM Document in the documented fixed order
// (variations -> documents -> methods -> genes/conditions -> therapies ->
// evidence statements -> assertion statements), one node type at a time,
// with a uniqueness constraint on each node's id. This package is outside
// the Transformer core's correctness surface (spec.md §6, "out of core
// scope") but is wired here as the documented downstream consumer of C8's
// output, grounded on the teacher's neo4j session/transaction idiom.
package loader

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/metakb-transform/internal/cdm"
	"github.com/metakb-transform/internal/domain"
)

// Writer writes a CDM Document to Neo4j.
type Writer struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logrus.Logger
}

// NewWriter opens a Neo4j driver against uri with basic auth and verifies
// connectivity before returning.
func NewWriter(ctx context.Context, uri, username, password, database string, logger *logrus.Logger) (*Writer, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("initializing neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}
	return &Writer{driver: driver, database: database, log: logger}, nil
}

// Close releases the underlying driver.
func (w *Writer) Close(ctx context.Context) error {
	if w == nil || w.driver == nil {
		return nil
	}
	return w.driver.Close(ctx)
}

var constraints = []string{
	`CREATE CONSTRAINT variation_id_unique IF NOT EXISTS FOR (v:Variation) REQUIRE v.id IS UNIQUE`,
	`CREATE CONSTRAINT categorical_variant_id_unique IF NOT EXISTS FOR (cv:CategoricalVariant) REQUIRE cv.id IS UNIQUE`,
	`CREATE CONSTRAINT document_id_unique IF NOT EXISTS FOR (d:Document) REQUIRE d.id IS UNIQUE`,
	`CREATE CONSTRAINT method_id_unique IF NOT EXISTS FOR (m:Method) REQUIRE m.id IS UNIQUE`,
	`CREATE CONSTRAINT gene_id_unique IF NOT EXISTS FOR (g:Gene) REQUIRE g.id IS UNIQUE`,
	`CREATE CONSTRAINT condition_id_unique IF NOT EXISTS FOR (c:Condition) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT therapy_id_unique IF NOT EXISTS FOR (t:Therapy) REQUIRE t.id IS UNIQUE`,
	`CREATE CONSTRAINT statement_id_unique IF NOT EXISTS FOR (s:Statement) REQUIRE s.id IS UNIQUE`,
}

// EnsureConstraints creates the uniqueness constraint for every node label,
// one per entity type named in spec.md §6. Safe to run on every startup.
func (w *Writer) EnsureConstraints(ctx context.Context) error {
	session := w.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: w.database})
	defer session.Close(ctx)

	for _, stmt := range constraints {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("creating constraint: %w", err)
		}
	}
	return nil
}

// Write persists a CDM Document to Neo4j in the documented fixed order:
// variations -> documents -> methods -> genes/conditions -> therapies ->
// evidence statements -> assertion statements.
func (w *Writer) Write(ctx context.Context, doc cdm.Document) error {
	session := w.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: w.database})
	defer session.Close(ctx)

	steps := []struct {
		name string
		fn   func(neo4j.ManagedTransaction) error
	}{
		{"variations", func(tx neo4j.ManagedTransaction) error { return writeVariations(ctx, tx, doc.Variations, doc.CategoricalVariants) }},
		{"documents", func(tx neo4j.ManagedTransaction) error { return writeDocuments(ctx, tx, doc.Documents) }},
		{"methods", func(tx neo4j.ManagedTransaction) error { return writeMethods(ctx, tx, doc.Methods) }},
		{"genes_conditions", func(tx neo4j.ManagedTransaction) error { return writeConcepts(ctx, tx, "Gene", doc.Genes) }},
		{"conditions", func(tx neo4j.ManagedTransaction) error { return writeConcepts(ctx, tx, "Condition", doc.Conditions) }},
		{"therapies", func(tx neo4j.ManagedTransaction) error { return writeConcepts(ctx, tx, "Therapy", doc.Therapies) }},
		{"statements_evidence", func(tx neo4j.ManagedTransaction) error { return writeStatements(ctx, tx, doc.StatementsEvidence) }},
		{"statements_assertions", func(tx neo4j.ManagedTransaction) error { return writeStatements(ctx, tx, doc.StatementsAssertions) }},
	}

	for _, step := range steps {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return nil, step.fn(tx)
		})
		if err != nil {
			return fmt.Errorf("writing %s: %w", step.name, err)
		}
		w.log.WithField("step", step.name).Debug("graph write step completed")
	}

	return nil
}

func writeVariations(ctx context.Context, tx neo4j.ManagedTransaction, variations []domain.Variation, cvs []domain.CategoricalVariant) error {
	rows := make([]map[string]any, 0, len(variations))
	for _, v := range variations {
		rows = append(rows, map[string]any{"id": v.ID, "digest": v.Digest, "type": v.Type, "label": v.Label})
	}
	if len(rows) > 0 {
		if _, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (v:Variation {id: row.id})
SET v.digest = row.digest, v.type = row.type, v.label = row.label
`, map[string]any{"rows": rows}); err != nil {
			return err
		}
	}

	cvRows := make([]map[string]any, 0, len(cvs))
	memberRows := make([]map[string]any, 0, len(cvs))
	for _, cv := range cvs {
		cvRows = append(cvRows, map[string]any{"id": cv.ID, "name": cv.Name, "description": cv.Description})
		for _, m := range cv.Members {
			memberRows = append(memberRows, map[string]any{"cv_id": cv.ID, "variation_id": m.ID})
		}
		for _, c := range cv.Constraints {
			memberRows = append(memberRows, map[string]any{"cv_id": cv.ID, "variation_id": c.Allele.ID})
		}
	}
	if len(cvRows) > 0 {
		if _, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (cv:CategoricalVariant {id: row.id})
SET cv.name = row.name, cv.description = row.description
`, map[string]any{"rows": cvRows}); err != nil {
			return err
		}
	}
	if len(memberRows) > 0 {
		if _, err := tx.Run(ctx, `
UNWIND $rows AS row
MATCH (cv:CategoricalVariant {id: row.cv_id})
MATCH (v:Variation {id: row.variation_id})
MERGE (cv)-[:HAS_MEMBER]->(v)
`, map[string]any{"rows": memberRows}); err != nil {
			return err
		}
	}
	return nil
}

func writeDocuments(ctx context.Context, tx neo4j.ManagedTransaction, documents []domain.Document) error {
	rows := make([]map[string]any, 0, len(documents))
	for _, d := range documents {
		rows = append(rows, map[string]any{"id": d.ID, "title": d.Title, "pmid": d.PMID, "doi": d.DOI})
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (d:Document {id: row.id})
SET d.title = row.title, d.pmid = row.pmid, d.doi = row.doi
`, map[string]any{"rows": rows})
	return err
}

func writeMethods(ctx context.Context, tx neo4j.ManagedTransaction, methods []domain.Method) error {
	rows := make([]map[string]any, 0, len(methods))
	for _, m := range methods {
		rows = append(rows, map[string]any{"id": m.ID, "name": m.Name, "method_type": m.MethodType})
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (m:Method {id: row.id})
SET m.name = row.name, m.method_type = row.method_type
`, map[string]any{"rows": rows})
	return err
}

func writeConcepts(ctx context.Context, tx neo4j.ManagedTransaction, label string, concepts []domain.Concept) error {
	rows := make([]map[string]any, 0, len(concepts))
	for _, c := range concepts {
		rows = append(rows, map[string]any{"id": c.ID, "name": c.Name, "concept_type": string(c.ConceptType)})
	}
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
UNWIND $rows AS row
MERGE (n:%s {id: row.id})
SET n.name = row.name, n.concept_type = row.concept_type
`, label)
	_, err := tx.Run(ctx, query, map[string]any{"rows": rows})
	return err
}

// statementRows builds the per-statement node property rows.
func statementRows(statements []domain.Statement) []map[string]any {
	rows := make([]map[string]any, 0, len(statements))
	for _, s := range statements {
		rows = append(rows, map[string]any{
			"id": s.ID, "type": string(s.Type), "direction": string(s.Direction),
			"predicate": s.Proposition.Predicate(),
		})
	}
	return rows
}

// statementLinkRows builds one row per statement-to-entity relationship,
// tagged with its relationship label, skipping qualifiers that are absent
// or that failed normalization (a failed gene context, e.g., was never
// admitted past the reachability filter and so has no node to link to).
func statementLinkRows(statements []domain.Statement) []map[string]any {
	linkRows := make([]map[string]any, 0, len(statements))
	for _, s := range statements {
		p := s.Proposition
		linkRows = append(linkRows, map[string]any{
			"statement_id": s.ID, "rel": "HAS_SUBJECT_VARIANT", "target_id": p.SubjectVariant.ID,
		})
		if !p.GeneContextQualifier.FailedToNormalize() && p.GeneContextQualifier.ID != "" {
			linkRows = append(linkRows, map[string]any{
				"statement_id": s.ID, "rel": "HAS_GENE_CONTEXT", "target_id": p.GeneContextQualifier.ID,
			})
		}
		if p.ConditionQualifier != nil {
			linkRows = append(linkRows, map[string]any{"statement_id": s.ID, "rel": "HAS_CONDITION", "target_id": p.ConditionQualifier.ID})
		}
		if p.ObjectCondition != nil {
			linkRows = append(linkRows, map[string]any{"statement_id": s.ID, "rel": "HAS_OBJECT_CONDITION", "target_id": p.ObjectCondition.ID})
		}
		if p.ObjectTherapeutic != nil {
			for _, id := range p.ObjectTherapeutic.IDs() {
				linkRows = append(linkRows, map[string]any{"statement_id": s.ID, "rel": "HAS_OBJECT_THERAPEUTIC", "target_id": id})
			}
		}
		if s.SpecifiedBy.ID != "" {
			linkRows = append(linkRows, map[string]any{"statement_id": s.ID, "rel": "IS_SPECIFIED_BY", "target_id": s.SpecifiedBy.ID})
		}
		for _, doc := range s.ReportedIn {
			linkRows = append(linkRows, map[string]any{"statement_id": s.ID, "rel": "IS_REPORTED_IN", "target_id": doc.ID})
		}
	}
	return linkRows
}

func writeStatements(ctx context.Context, tx neo4j.ManagedTransaction, statements []domain.Statement) error {
	rows := statementRows(statements)
	linkRows := statementLinkRows(statements)

	if len(rows) == 0 {
		return nil
	}
	if _, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (s:Statement {id: row.id})
SET s.type = row.type, s.direction = row.direction, s.predicate = row.predicate
`, map[string]any{"rows": rows}); err != nil {
		return err
	}

	for _, rel := range []string{
		"HAS_SUBJECT_VARIANT", "HAS_GENE_CONTEXT", "HAS_CONDITION",
		"HAS_OBJECT_CONDITION", "HAS_OBJECT_THERAPEUTIC", "IS_SPECIFIED_BY", "IS_REPORTED_IN",
	} {
		filtered := make([]map[string]any, 0)
		for _, r := range linkRows {
			if r["rel"] == rel {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) == 0 {
			continue
		}
		query := fmt.Sprintf(`
UNWIND $rows AS row
MATCH (s:Statement {id: row.statement_id})
MATCH (n {id: row.target_id})
MERGE (s)-[:%s]->(n)
`, rel)
		if _, err := tx.Run(ctx, query, map[string]any{"rows": filtered}); err != nil {
			return err
		}
	}

	return nil
}
