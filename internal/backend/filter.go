package backend

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// filterLocal returns the names matching pattern, best match first. An empty
// pattern keeps every name in its original order.
func filterLocal(pattern string, names []string) []string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return names
	}
	matches := fuzzy.Find(pattern, names)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}
