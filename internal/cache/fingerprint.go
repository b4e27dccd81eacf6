// Package cache provides content fingerprints and an in-process memo that
// computes each key at most once.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
)

// Fingerprint returns a content-derived key for a project. Tag order and
// duplicate tags do not change the result; any change to title, description
// or the set of tags does.
func Fingerprint(title, description string, tags []string) string {
	h := sha256.New()
	writeField(h, title)
	writeField(h, description)
	set := tagSet(tags)
	fmt.Fprintf(h, "%d#", len(set))
	for _, tag := range set {
		writeField(h, tag)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Derive extends a fingerprint with extra inputs, e.g. the owner name and
// tone for a summary.
func Derive(fingerprint string, parts ...string) string {
	h := sha256.New()
	writeField(h, fingerprint)
	for _, p := range parts {
		writeField(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes s so that field boundaries are unambiguous.
func writeField(h hash.Hash, s string) {
	fmt.Fprintf(h, "%d:%s", len(s), s)
}

func tagSet(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
