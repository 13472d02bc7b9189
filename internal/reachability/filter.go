// Package reachability implements the Reachability Filter & Loader
// Projection (C7): the admission predicate that decides which statements,
// and which entities they reference, survive into the persisted graph.
package reachability

import "github.com/metakb-transform/internal/domain"

// Result is the outcome of filtering a source's assembled statements: the
// admitted evidence/assertion statements (in their original emission
// order), and the full set of entity IDs the loader may persist.
type Result struct {
	Evidence    []domain.Statement
	Assertions  []domain.Statement
	ProjectedIDs map[string]bool
}

// Filter computes the admitted statement set and its transitive ID closure,
// per spec.md §4.7.
func Filter(evidence, assertions []domain.Statement) Result {
	ids := make(map[string]bool)

	var admittedEvidence []domain.Statement
	admittedEvidenceIDs := make(map[string]bool)
	for _, s := range evidence {
		if !admitted(&s) {
			continue
		}
		admittedEvidence = append(admittedEvidence, s)
		admittedEvidenceIDs[s.ID] = true
		collectIDs(&s, ids)
	}

	var admittedAssertions []domain.Statement
	for _, s := range assertions {
		if !admitted(&s) {
			continue
		}
		s.HasEvidenceLines = filterEvidenceLines(s.HasEvidenceLines, admittedEvidenceIDs)
		if len(s.HasEvidenceLines) == 0 {
			continue
		}
		admittedAssertions = append(admittedAssertions, s)
		collectIDs(&s, ids)
	}

	return Result{Evidence: admittedEvidence, Assertions: admittedAssertions, ProjectedIDs: ids}
}

// admitted reports whether every entity a statement's proposition requires
// — the subject variant's defining allele, its gene, its disease/condition,
// and (for a therapeutic-response proposition) its therapy or therapy
// group — successfully normalized. This is the one place gene-normalization
// failure becomes an admission blocker; the assembler itself never checked
// it (spec.md §4.6 step 5 / DESIGN.md Open Question (d)).
func admitted(s *domain.Statement) bool {
	p := &s.Proposition
	if !p.SubjectVariant.HasDefiningAllele() {
		return false
	}
	if p.GeneContextQualifier.FailedToNormalize() {
		return false
	}

	switch p.Kind {
	case domain.PropositionTherapeuticResponse:
		if p.ConditionQualifier == nil || p.ConditionQualifier.FailedToNormalize() {
			return false
		}
		if p.ObjectTherapeutic == nil || p.ObjectTherapeutic.FailedToNormalize() {
			return false
		}
	case domain.PropositionPrognostic, domain.PropositionDiagnostic:
		if p.ObjectCondition == nil || p.ObjectCondition.FailedToNormalize() {
			return false
		}
	}
	return true
}

// filterEvidenceLines drops evidence-line references to statements that did
// not themselves survive admission, keeping the line if any reference
// remains; a line with zero surviving references is dropped entirely. An
// assertion left with zero evidence lines afterward is itself dropped by
// the caller (spec.md §4.7 step 2, Open Question (a): resolved to require
// at least one surviving evidence line for admission).
func filterEvidenceLines(lines []domain.EvidenceLine, admittedEvidenceIDs map[string]bool) []domain.EvidenceLine {
	var out []domain.EvidenceLine
	for _, line := range lines {
		var kept []string
		for _, id := range line.HasEvidenceItems {
			if admittedEvidenceIDs[id] {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			continue
		}
		line.HasEvidenceItems = kept
		out = append(out, line)
	}
	return out
}

// collectIDs adds every entity ID a statement references into the closure
// set: the statement itself, its subject variant, gene, condition,
// therapeutic object (therapy or group, plus group members), method, and
// reported-in documents.
func collectIDs(s *domain.Statement, ids map[string]bool) {
	ids[s.ID] = true

	p := &s.Proposition
	ids[p.SubjectVariant.ID] = true
	if len(p.SubjectVariant.Constraints) == 1 {
		ids[p.SubjectVariant.Constraints[0].Allele.ID] = true
	}
	for _, m := range p.SubjectVariant.Members {
		ids[m.ID] = true
	}
	if p.GeneContextQualifier.ID != "" {
		ids[p.GeneContextQualifier.ID] = true
	}
	if p.ConditionQualifier != nil {
		ids[p.ConditionQualifier.ID] = true
	}
	if p.ObjectCondition != nil {
		ids[p.ObjectCondition.ID] = true
	}
	if p.ObjectTherapeutic != nil {
		for _, id := range p.ObjectTherapeutic.IDs() {
			ids[id] = true
		}
	}

	if s.SpecifiedBy.ID != "" {
		ids[s.SpecifiedBy.ID] = true
	}
	for _, d := range s.ReportedIn {
		ids[d.ID] = true
	}
}
