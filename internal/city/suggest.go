package city

import (
	"strings"

	"github.com/i474232898/city-dashboard/internal/common"
)

// MaxSuggestions bounds the result of Suggest.
const MaxSuggestions = 5

var known = []string{
	"Vancouver", "Toronto", "Montreal", "Calgary", "Edmonton",
	"London", "Paris", "Tokyo", "New York", "Los Angeles",
	"Sydney", "Dubai", "Singapore", "Bangkok", "Delhi",
	"Mumbai", "Beijing", "Shanghai", "Mexico City", "Berlin",
}

// Known returns a copy of the cities offered for selection.
func Known() []string {
	return append([]string(nil), known...)
}

// Suggest returns up to MaxSuggestions known cities starting with prefix,
// ignoring case, in Known order. A blank prefix yields nothing.
func Suggest(prefix string) []string {
	return suggestFrom(known, prefix)
}

func suggestFrom(cities []string, prefix string) []string {
	if common.IsBlank(prefix) {
		return []string{}
	}

	p := strings.ToLower(prefix)
	out := make([]string, 0, MaxSuggestions)
	for _, c := range cities {
		if strings.HasPrefix(strings.ToLower(c), p) {
			out = append(out, c)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}
