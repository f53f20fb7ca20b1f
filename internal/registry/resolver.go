package registry

import (
	"strings"
)

// nameQualifier is the trailing word spoken phrases tend to add or drop
// ("pasta" vs "pasta timer").
const nameQualifier = "timer"

// stopWords are tokens too generic to identify a timer on their own.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "my": {}, "for": {}, "to": {},
	"of": {}, "and": {}, "please": {}, nameQualifier: {},
}

// ResolveByName maps an imprecise spoken or typed name onto a stored timer id.
// Strategies run in order, first hit wins; ties within a strategy go to the
// earliest-created timer:
//
//  1. exact case-insensitive match
//  2. match tolerating a trailing qualifier word added or removed
//  3. single significant keyword contained in the stored name
//  4. bidirectional substring containment
func (r *Registry) ResolveByName(query string) (string, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return "", false
	}

	type entry struct{ id, name string }
	var entries []entry
	for _, snap := range r.GetAll() {
		entries = append(entries, entry{id: snap.ID, name: strings.ToLower(snap.Name)})
	}
	if len(entries) == 0 {
		return "", false
	}

	// 1: exact
	for _, e := range entries {
		if e.name == query {
			return e.id, true
		}
	}

	// 2: qualifier tolerance, both directions
	qStripped := stripQualifier(query)
	for _, e := range entries {
		if query+" "+nameQualifier == e.name || qStripped == e.name ||
			e.name+" "+nameQualifier == query || stripQualifier(e.name) == query {
			return e.id, true
		}
	}

	// 3: significant keyword containment
	for _, token := range significantTokens(query) {
		for _, e := range entries {
			if strings.Contains(e.name, token) {
				return e.id, true
			}
		}
	}

	// 4: bidirectional substring
	for _, e := range entries {
		if strings.Contains(e.name, query) || strings.Contains(query, e.name) {
			return e.id, true
		}
	}

	return "", false
}

func stripQualifier(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(s, " "+nameQualifier))
}

// significantTokens returns the query words worth matching on: stop-words and
// short tokens are skipped.
func significantTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, ".,!?;:\"'")
		if len(tok) < 3 {
			continue
		}
		if _, skip := stopWords[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}
