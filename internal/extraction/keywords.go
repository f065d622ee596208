package extraction

import (
	"strings"
)

// Keywords is a label matcher: a label matches when it contains every term
// of at least one phrase and none of the excluded terms. Matching is
// case-insensitive substring search.
type Keywords struct {
	Phrases [][]string
	Exclude []string
}

// AnyOf matches labels containing any one of the terms.
func AnyOf(terms ...string) Keywords {
	phrases := make([][]string, 0, len(terms))
	for _, t := range terms {
		phrases = append(phrases, []string{strings.ToUpper(t)})
	}
	return Keywords{Phrases: phrases}
}

// AllOf matches labels containing all of the terms.
func AllOf(terms ...string) Keywords {
	phrase := make([]string, 0, len(terms))
	for _, t := range terms {
		phrase = append(phrase, strings.ToUpper(t))
	}
	return Keywords{Phrases: [][]string{phrase}}
}

// Or returns a matcher accepting labels matched by either k or other.
// Exclusions of both sides apply.
func (k Keywords) Or(other Keywords) Keywords {
	out := Keywords{
		Phrases: make([][]string, 0, len(k.Phrases)+len(other.Phrases)),
		Exclude: make([]string, 0, len(k.Exclude)+len(other.Exclude)),
	}
	out.Phrases = append(append(out.Phrases, k.Phrases...), other.Phrases...)
	out.Exclude = append(append(out.Exclude, k.Exclude...), other.Exclude...)
	return out
}

// Without returns a copy of k that rejects labels containing any of terms.
func (k Keywords) Without(terms ...string) Keywords {
	out := Keywords{
		Phrases: k.Phrases,
		Exclude: append([]string(nil), k.Exclude...),
	}
	for _, t := range terms {
		out.Exclude = append(out.Exclude, strings.ToUpper(t))
	}
	return out
}

// IsZero reports whether k can never match.
func (k Keywords) IsZero() bool {
	return len(k.Phrases) == 0
}

// Match reports whether label satisfies k.
func (k Keywords) Match(label string) bool {
	if label == "" {
		return false
	}
	upper := strings.ToUpper(label)
	for _, ex := range k.Exclude {
		if strings.Contains(upper, ex) {
			return false
		}
	}
	for _, phrase := range k.Phrases {
		if len(phrase) > 0 && containsAll(upper, phrase) {
			return true
		}
	}
	return false
}

func containsAll(s string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}
