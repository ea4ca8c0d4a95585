// Package dedup assigns stable, content-addressed references to
// (dataset, row-filter) pairs so that items sharing a filtered view of the
// same data compute it once.
//
// The key is a SHA-256 over the dataset identity and the normalized
// filter text. Normalization is purely syntactic (whitespace collapsed),
// so textually-identical filters collapse even when authored
// independently on different items. Generated identifiers embed a
// truncated hash prefix for readability; the full hash is kept internally
// so a prefix collision can never cause false reuse.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/vk/chartbook/internal/book"
)

// refPrefixLen is the number of hex digits of the key embedded in a
// generated reference. Extended per-entry when two keys share a prefix.
const refPrefixLen = 8

// View is one deduplicated filtered view of a dataset.
type View struct {
	// Ref is the generated, human-readable reference, unique within the
	// cache, e.g. "survey-v-3fa9c2d1".
	Ref string
	// Dataset is the committed dataset name the view reads from.
	Dataset string
	// Filter is the normalized row-filter expression.
	Filter string
	// Key is the full content-address of (dataset identity, filter).
	Key string
}

// Cache maps (dataset, filter) keys to views. Not safe for concurrent
// use; compilation is single-threaded.
type Cache struct {
	byKey map[string]*View
	byRef map[string]*View
	order []*View
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		byKey: make(map[string]*View),
		byRef: make(map[string]*View),
	}
}

// DuplicateReferenceError reports two distinct keys resolving to the same
// generated reference. The construction below makes this impossible, so
// observing one is an internal invariant violation, not a user error.
type DuplicateReferenceError struct {
	Ref string
}

func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("internal error: duplicate generated reference %q", e.Ref)
}

// NormalizeFilter collapses all whitespace runs in a filter expression to
// single spaces and trims the ends. It is idempotent.
func NormalizeFilter(filter string) string {
	return strings.Join(strings.Fields(filter), " ")
}

// Resolve returns the view for the given dataset and filter, creating it
// on first use. Identical (dataset identity, normalized filter) pairs
// always return the same view. An empty filter is not cached: unfiltered
// items reference the raw dataset directly.
func (c *Cache) Resolve(ds book.Dataset, filter string) (View, error) {
	normalized := NormalizeFilter(filter)
	if normalized == "" {
		return View{Ref: ds.Name, Dataset: ds.Name}, nil
	}

	key := viewKey(ds, normalized)
	if v, ok := c.byKey[key]; ok {
		return *v, nil
	}

	ref, err := c.newRef(ds.Name, key)
	if err != nil {
		return View{}, err
	}
	v := &View{Ref: ref, Dataset: ds.Name, Filter: normalized, Key: key}
	c.byKey[key] = v
	c.byRef[ref] = v
	c.order = append(c.order, v)
	return *v, nil
}

// Views returns the distinct filtered views in first-resolved order.
// Each one is computed exactly once by the caller.
func (c *Cache) Views() []View {
	out := make([]View, len(c.order))
	for i, v := range c.order {
		out[i] = *v
	}
	return out
}

// viewKey computes the full content-address for a (dataset, filter) pair.
func viewKey(ds book.Dataset, normalizedFilter string) string {
	h := sha256.New()
	h.Write([]byte(ds.Name))
	h.Write([]byte{0})
	h.Write([]byte(ds.Fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(normalizedFilter))
	return hex.EncodeToString(h.Sum(nil))
}

// newRef derives a readable reference from the dataset name and a key
// prefix, lengthening the prefix while it collides with a reference
// already issued for a different key.
func (c *Cache) newRef(dataset, key string) (string, error) {
	for n := refPrefixLen; n <= len(key); n++ {
		ref := fmt.Sprintf("%s-v-%s", dataset, key[:n])
		existing, ok := c.byRef[ref]
		if !ok {
			return ref, nil
		}
		if existing.Key == key {
			// Resolve already handles key hits; reaching here means the
			// byKey and byRef indexes disagree.
			return "", &DuplicateReferenceError{Ref: ref}
		}
	}
	return "", &DuplicateReferenceError{Ref: key}
}
