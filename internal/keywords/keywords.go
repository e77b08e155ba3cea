// Package keywords pulls candidate keyword tokens out of free text.
package keywords

import (
	"regexp"
	"strings"
)

var (
	nonWord         = regexp.MustCompile(`[^\w]`)
	capitalizedRuns = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
)

// minLength is exclusive: tokens must be longer than this.
const minLength = 2

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for of with by from as
		is was are were been be have has had do does did will would should could may might
		must can this that these those i you he she it we they what which who whom whose
		where when why how all each every both few more most other some such no nor not
		only own same so than too very just now`) {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether w (lowercase) is in the stopword list.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// Extract returns the keywords found in text, in first-seen order and
// without duplicates. Lowercase tokens come first, followed by any
// capitalized runs (likely names and technologies) not already present.
func Extract(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	for _, word := range strings.Fields(strings.ToLower(text)) {
		cleaned := nonWord.ReplaceAllString(word, "")
		if len(cleaned) > minLength && !IsStopword(cleaned) {
			add(cleaned)
		}
	}

	for _, term := range capitalizedRuns.FindAllString(text, -1) {
		cleaned := strings.ToLower(term)
		if len(cleaned) > minLength {
			add(cleaned)
		}
	}

	return out
}

// Normalize lowercases and trims each entry, dropping empties and
// duplicates while keeping first-seen order.
func Normalize(groups ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, k := range group {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
