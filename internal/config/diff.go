// SPDX-License-Identifier: MIT

package config

import (
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/confplane/expconf/internal/document"
)

// Diff compares two resolved documents and returns the sorted key paths
// whose values differ. Mappings are descended so the reported paths point
// at the leaf-most change; any other change is reported at the level it
// occurs, sequences included.
func Diff(old, next *document.Document) []string {
	changed := diffValue("", old.Root(), next.Root(), nil)
	sort.Strings(changed)
	return changed
}

func diffValue(path string, old, next any, acc []string) []string {
	oldMap, oldIsMap := old.(map[string]any)
	nextMap, nextIsMap := next.(map[string]any)
	if oldIsMap && nextIsMap {
		return diffMapping(path, oldMap, nextMap, acc)
	}
	if !cmp.Equal(old, next) {
		acc = append(acc, path)
	}
	return acc
}

func diffMapping(path string, old, next map[string]any, acc []string) []string {
	seen := make(map[string]struct{}, len(old))
	for key, oldVal := range old {
		seen[key] = struct{}{}
		childPath := document.JoinPath(path, key)
		nextVal, ok := next[key]
		if !ok {
			acc = append(acc, childPath)
			continue
		}
		acc = diffValue(childPath, oldVal, nextVal, acc)
	}
	for key := range next {
		if _, ok := seen[key]; !ok {
			acc = append(acc, document.JoinPath(path, key))
		}
	}
	return acc
}
