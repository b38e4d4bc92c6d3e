// Package interpolation shields runtime placeholders in UI strings from the
// translation service and puts them back afterwards.
package interpolation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mapping stores the original placeholder and its safe replacement.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

type varMatch struct {
	start, end int
	value      string
}

// patterns lists placeholder syntaxes found in front-end and Python copy.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\{\{\s*[^{}]+?\s*\}\}`),           // {{ name }} (Vue, Handlebars)
	regexp.MustCompile(`\$\{[^}]+\}`),                     // ${name}
	regexp.MustCompile(`\{[a-zA-Z0-9_]+\}`),               // {name}, {0}
	regexp.MustCompile(`%\([a-zA-Z_][a-zA-Z0-9_]*\)[sd]`), // %(name)s
	regexp.MustCompile(`%[-+0-9]*\.?[0-9]*[sdfi]`),        // %s, %d, %.2f
	regexp.MustCompile(`%%`),                              // escaped percent literal
}

// Protect replaces placeholders with numbered {{var_N}} markers. It returns
// the safe string and the mapping needed by Restore.
func Protect(text string) (string, []Mapping) {
	var all []varMatch
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			all = append(all, varMatch{start: loc[0], end: loc[1], value: text[loc[0]:loc[1]]})
		}
	}
	if len(all) == 0 {
		return text, nil
	}

	// Earliest first; on equal start the longer match wins.
	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end-all[i].start > all[j].end-all[j].start
	})

	var kept []varMatch
	lastEnd := -1
	for _, m := range all {
		if m.start >= lastEnd {
			kept = append(kept, m)
			lastEnd = m.end
		}
	}

	var sb strings.Builder
	mappings := make([]Mapping, 0, len(kept))
	prev := 0
	for i, m := range kept {
		placeholder := Marker(i + 1)
		sb.WriteString(text[prev:m.start])
		sb.WriteString(placeholder)
		prev = m.end
		mappings = append(mappings, Mapping{Original: m.value, Placeholder: placeholder, Index: i + 1})
	}
	sb.WriteString(text[prev:])

	return sb.String(), mappings
}

// Marker returns the placeholder marker for index n.
func Marker(n int) string {
	return fmt.Sprintf("{{var_%d}}", n)
}

// Restore replaces markers with the original placeholders. Markers the
// translation dropped are left out.
func Restore(translated string, mappings []Mapping) string {
	result := translated
	for _, m := range mappings {
		result = strings.Replace(result, m.Placeholder, m.Original, 1)
	}
	return result
}

// HasPlaceholders reports whether any mapping was produced.
func HasPlaceholders(mappings []Mapping) bool {
	return len(mappings) > 0
}
