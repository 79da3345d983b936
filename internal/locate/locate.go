// Package locate turns a raw user utterance into a location candidate.
// It is total: every input produces a Hit, and no external service is
// ever consulted. A gazetteer match carries coordinates; a prepositional
// match only names a place and leaves resolution to the language model.
package locate

import (
	"regexp"
	"strings"

	"wander/internal/gazetteer"
	"wander/pkg/geo"
)

// DefaultZoom is the fallback map zoom when no location is recognized.
const DefaultZoom = 11

type Hit struct {
	Location string
	Center   *geo.LngLat
	Zoom     float64
}

var (
	prepositionRe = regexp.MustCompile(`(?:in|at|to|from|near)\s+([a-z][a-z\s]*)`)
	searchRe      = regexp.MustCompile(`(?:search|find|show|where is|locate)\s+([a-z][a-z\s]*)`)
)

// Extract scans the utterance for a known place, then for a
// prepositional phrase naming one.
func Extract(utterance string) Hit {
	lower := strings.ToLower(utterance)

	if e, ok := gazetteer.Lookup(lower); ok {
		center := e.Center
		return Hit{Location: e.Name, Center: &center, Zoom: e.Zoom}
	}

	if m := prepositionRe.FindStringSubmatch(lower); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return Hit{Location: name, Zoom: DefaultZoom}
		}
	}

	return Hit{Zoom: DefaultZoom}
}

// SearchQuery reports whether the utterance is an explicit place search
// ("find X", "where is X", ...) and returns the queried place name.
// Only this flow is allowed to reach the geocoding API.
func SearchQuery(utterance string) (string, bool) {
	m := searchRe.FindStringSubmatch(strings.ToLower(utterance))
	if m == nil {
		return "", false
	}
	q := strings.TrimSpace(m[1])
	return q, q != ""
}
