// Package attrparse decodes the upstream base64+gzip binary attribute
// blob and locates the ExtraAttributes subtree within it (spec §4.B).
package attrparse

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
	"reflect"

	"auctionintel/internal/nbt"
)

// Parse decodes itemBytes and returns the ExtraAttributes subtree, or
// an empty map if decoding fails or no such subtree is found. Callers
// never need to handle an error: a malformed payload degrades to an
// empty attribute set per spec §4.B/§7.
func Parse(itemBytes string) map[string]any {
	if itemBytes == "" {
		return map[string]any{}
	}
	raw, err := base64.StdEncoding.DecodeString(itemBytes)
	if err != nil {
		return map[string]any{}
	}

	payload := raw
	if gr, err := gzip.NewReader(bytes.NewReader(raw)); err == nil {
		if decompressed, err := io.ReadAll(gr); err == nil {
			payload = decompressed
		}
	}

	tree, err := nbt.DecodeBytes(payload)
	if err != nil {
		return map[string]any{}
	}

	if extra, ok := findExtraAttributes(tree, map[uintptr]bool{}); ok {
		return extra
	}
	return map[string]any{}
}

// findExtraAttributes performs a depth-first search for the first node
// containing a child named "ExtraAttributes" or "tag.ExtraAttributes",
// avoiding cycles via a visited set keyed by each map's pointer (slices
// are walked without being recorded).
func findExtraAttributes(node any, visited map[uintptr]bool) (map[string]any, bool) {
	switch n := node.(type) {
	case map[string]any:
		ptr := reflect.ValueOf(n).Pointer()
		if visited[ptr] {
			return nil, false
		}
		visited[ptr] = true

		if extra, ok := n["ExtraAttributes"]; ok {
			if m, ok := extra.(map[string]any); ok {
				return m, true
			}
		}
		if extra, ok := n["tag.ExtraAttributes"]; ok {
			if m, ok := extra.(map[string]any); ok {
				return m, true
			}
		}
		for _, v := range n {
			if m, ok := findExtraAttributes(v, visited); ok {
				return m, true
			}
		}
	case []any:
		for _, v := range n {
			if m, ok := findExtraAttributes(v, visited); ok {
				return m, true
			}
		}
	}
	return nil, false
}
