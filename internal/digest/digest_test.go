package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSha512t24u_Length(t *testing.T) {
	got := Sha512t24u([]byte(`["a","b"]`))
	require.NotEmpty(t, got)
	// 24 bytes, base64url without padding -> 32 chars.
	assert.Len(t, got, 32)
}

func TestForSortedStrings_OrderInsensitive(t *testing.T) {
	a := ForSortedStrings([]string{"moa.therapy:encorafenib", "moa.therapy:cetuximab"})
	b := ForSortedStrings([]string{"moa.therapy:cetuximab", "moa.therapy:encorafenib"})
	assert.Equal(t, a, b, "reordering members must yield the same digest")
}

func TestForSortedStrings_Deterministic(t *testing.T) {
	keys := []string{"civic.tid:1", "civic.tid:2"}
	assert.Equal(t, ForSortedStrings(keys), ForSortedStrings(keys))
}

func TestForSortedStrings_DistinctInputsDiffer(t *testing.T) {
	a := ForSortedStrings([]string{"x:1"})
	b := ForSortedStrings([]string{"x:2"})
	assert.NotEqual(t, a, b)
}
