// Package offline answers a small set of intents locally when the
// network is down. Utterances are scanned with an Aho-Corasick
// automaton over all trigger phrases at once; only matches sitting on
// word boundaries count, so "hi" inside "this" does not greet.
package offline

import (
	"fmt"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"wander/internal/gazetteer"
)

type intent int

const (
	intentNone intent = iota
	intentGreeting
	intentThanks
	intentHelp
	intentWhereIs
)

var triggers = map[string]intent{
	"hello":     intentGreeting,
	"hi":        intentGreeting,
	"hey":       intentGreeting,
	"salam":     intentGreeting,
	"hala":      intentGreeting,
	"thank":     intentThanks,
	"thanks":    intentThanks,
	"shukran":   intentThanks,
	"help":      intentHelp,
	"what can":  intentHelp,
	"where is":   intentWhereIs,
	"take me":    intentWhereIs,
	"show me":    intentWhereIs,
	"go to":      intentWhereIs,
	"direction":  intentWhereIs,
	"directions": intentWhereIs,
}

type Responder struct {
	matcher *goahocorasick.Machine
}

// New builds the automaton over trigger phrases and every known place
// name. A place name anywhere in the utterance counts as a where-is
// intent regardless of phrasing.
func New() (*Responder, error) {
	patterns := make([][]rune, 0, len(triggers)+len(gazetteer.Entries()))
	for phrase := range triggers {
		patterns = append(patterns, []rune(phrase))
	}
	for _, e := range gazetteer.Entries() {
		patterns = append(patterns, []rune(e.Name))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build offline matcher: %w", err)
	}
	return &Responder{matcher: m}, nil
}

// Reply produces a canned answer for the utterance. The entry is
// non-nil when a known place was mentioned so the caller can retarget
// the map even without network. ok is false when no intent matched.
func (r *Responder) Reply(utterance string) (reply string, entry *gazetteer.Entry, ok bool) {
	normalized := []rune(strings.ToLower(utterance))
	terms := r.matcher.MultiPatternSearch(normalized, false)
	if len(terms) == 0 {
		return "", nil, false
	}

	best := intentNone
	var place *gazetteer.Entry
	for _, term := range terms {
		if !onWordBoundary(normalized, term.Pos, len(term.Word)) {
			continue
		}
		word := string(term.Word)
		if it, isTrigger := triggers[word]; isTrigger {
			if it > best {
				best = it
			}
			continue
		}
		if e, found := gazetteer.Lookup(word); found && place == nil {
			p := e
			place = &p
		}
	}

	// a recognized place wins over any conversational trigger
	if place != nil {
		return fmt.Sprintf("I'm offline right now, but I can still point you there. Moving the map to %s.", title(place.Name)), place, true
	}

	switch best {
	case intentWhereIs:
		return "I don't recognize that place while offline. I can still move the map to spots I know, like Kuwait City or Salmiya.", nil, true
	case intentGreeting:
		return "Hala! I'm offline at the moment, but I can still move the map to places I know. Try asking about Salmiya or Kuwait City.", nil, true
	case intentThanks:
		return "You're welcome! I'll have full answers again once the connection is back.", nil, true
	case intentHelp:
		return "While offline I can move the map to places I already know, like Kuwait City, Salmiya or Hawally. Full answers need a connection.", nil, true
	default:
		return "", nil, false
	}
}

// onWordBoundary reports whether the match at pos neither starts nor
// ends in the middle of a longer word ("hala" inside "inhalation").
func onWordBoundary(text []rune, pos, length int) bool {
	if pos > 0 && isWordRune(text[pos-1]) {
		return false
	}
	if end := pos + length; end < len(text) && isWordRune(text[end]) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
