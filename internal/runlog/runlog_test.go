package runlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatOutcome_OK(t *testing.T) {
	assert.Equal(t, "ok", formatOutcome(OutcomeOK, ""))
}

func TestFormatOutcome_AbortedWithClass(t *testing.T) {
	assert.Equal(t, "aborted:CredentialFailure", formatOutcome(OutcomeAborted, "CredentialFailure"))
}

func TestFormatOutcome_AbortedWithoutClass(t *testing.T) {
	assert.Equal(t, "aborted", formatOutcome(OutcomeAborted, ""))
}

func TestSchema_DeclaresCountColumnsForEveryCDMKey(t *testing.T) {
	for _, col := range []string{
		"categorical_variants", "variations", "genes", "conditions",
		"therapies", "documents", "methods", "statements_evidence", "statements_assertions",
	} {
		assert.True(t, strings.Contains(Schema, col), "schema missing column %q", col)
	}
}
