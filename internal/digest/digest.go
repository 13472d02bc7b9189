// Package digest implements the content-addressed identifier scheme (C2):
// sha512t24u, a SHA-512 digest truncated to 24 bytes and base64url-encoded
// without padding. Used to derive deterministic IDs for composite entities
// (therapy groups, MOA disease identities) from an ordered list of string keys.
package digest

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"sort"
)

// Sha512t24u computes the sha512t24u digest of blob: SHA-512, truncated to
// the first 24 bytes, base64url-encoded with no padding.
func Sha512t24u(blob []byte) string {
	sum := sha512.Sum512(blob)
	return base64.RawURLEncoding.EncodeToString(sum[:24])
}

// ForSortedStrings sorts keys lexicographically, JSON-encodes the sorted
// slice with stable separators, and returns the sha512t24u digest. This is
// the construction used for therapy-group IDs (sorted member therapy IDs)
// and MOA disease identity keys (sorted "{field}:{value}" pairs).
//
// Sorting is used unconditionally per spec.md §4.2's tie-break rule: no
// current source (CIViC, MOA) supplies a semantically meaningful ordering
// for these key sets, so digests are always order-insensitive.
func ForSortedStrings(keys []string) string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	blob, err := json.Marshal(sorted)
	if err != nil {
		// Marshaling a []string cannot fail.
		panic(err)
	}
	return Sha512t24u(canonicalizeJSON(blob))
}

// CanonicalJSON marshals v to JSON and returns the sha512t24u digest of the
// result. Used by the Variation Builder (C4) to derive an Allele's digest
// from its canonicalized {location, state} pair (spec.md invariant 2).
func CanonicalJSON(v interface{}) (string, error) {
	blob, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Sha512t24u(canonicalizeJSON(blob)), nil
}

// canonicalizeJSON re-encodes compactly with sorted object keys, matching
// the original system's json.dumps(..., separators=(",", ":"), sort_keys=True).
// For a []string input (ForSortedStrings) this is simply the compact form;
// for the objects CanonicalJSON receives, decoding into generic maps and
// re-encoding sorts their keys.
func canonicalizeJSON(blob []byte) []byte {
	var v interface{}
	if err := json.Unmarshal(blob, &v); err != nil {
		return blob
	}
	out, err := json.Marshal(v)
	if err != nil {
		return blob
	}
	return out
}
