// Package pathorder sorts repository paths the way a printed listing reads
// best: inside every directory its files come first, then its
// subdirectories, each group in case-sensitive order.
package pathorder

import (
	"slices"
	"sort"
	"strings"
)

const (
	// filePrefix sorts below every printable character, so a directory's
	// own files come before its subdirectories.
	filePrefix = " "
	// dirPrefix keeps directory names that start with a space from
	// sorting among files.
	dirPrefix = "z"
)

// Key returns the comparison key for path.
func Key(path string) []string {
	parts := strings.FieldsFunc(strings.TrimLeft(path, `/\`), isSeparator)
	if len(parts) == 0 {
		return []string{filePrefix}
	}
	key := make([]string, len(parts))
	for i, part := range parts[:len(parts)-1] {
		key[i] = dirPrefix + part
	}
	key[len(parts)-1] = filePrefix + parts[len(parts)-1]
	return key
}

// Order returns a sorted copy of paths. Equal keys keep their input order.
func Order(paths []string) []string {
	type keyed struct {
		path string
		key  []string
	}
	items := make([]keyed, len(paths))
	for i, p := range paths {
		items[i] = keyed{path: p, key: Key(p)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return slices.Compare(items[i].key, items[j].key) < 0
	})

	ordered := make([]string, len(items))
	for i, item := range items {
		ordered[i] = item.path
	}
	return ordered
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
