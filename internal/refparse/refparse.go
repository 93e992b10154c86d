// Package refparse extracts inline cell references from query text.
// A reference is a double-brace marker wrapping a cell id, e.g. {{sql-1}}.
package refparse

import (
	"regexp"
	"strings"
)

// markerRe matches a dependency marker: double braces around an
// alphanumeric-or-hyphen token, with optional inner whitespace.
var markerRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_-]+)\s*\}\}`)

// Extract scans query text for dependency markers and returns the referenced
// cell ids in first-occurrence order with duplicates removed, plus a rewritten
// copy of the text in which every marker is replaced by the relation name for
// its id. Malformed markers are left untouched and not extracted. Extract is
// pure and never fails.
func Extract(sql string) (refs []string, rewritten string) {
	seen := make(map[string]struct{})
	rewritten = markerRe.ReplaceAllStringFunc(sql, func(marker string) string {
		id := markerRe.FindStringSubmatch(marker)[1]
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			refs = append(refs, id)
		}
		return RelationName(id)
	})
	return refs, rewritten
}

// RelationName derives the materialization-safe relation name for a cell id.
// Relation names must not contain hyphens, so they are replaced with
// underscores.
func RelationName(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}
