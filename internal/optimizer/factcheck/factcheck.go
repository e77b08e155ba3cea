// Package factcheck flags named entities in rewritten resumes that do not
// appear anywhere in the source material.
package factcheck

import (
	"regexp"
	"strings"
	"unicode"

	"atsmatch/internal/keywords"
	"atsmatch/internal/types"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9+#.\-/]*`)

// Technology names commonly written in lowercase. They are checked
// regardless of capitalization.
var techTerms = toSet(`kubernetes k8s docker python java golang rust terraform aws gcp azure
	react vue angular kafka redis postgresql postgres mysql mongodb graphql grpc spark hadoop
	tensorflow pytorch kotlin swift scala typescript javascript node.js django flask spring
	jenkins ansible elasticsearch snowflake airflow dbt linux rabbitmq cassandra dynamodb
	bigquery helm prometheus grafana nginx`)

// Words that are capitalized for layout reasons rather than because they
// name something.
var ignored = toSet(`jan feb mar apr may jun jul aug sep sept oct nov dec january february
	march april june july august september october november december present current
	summary professional experience work education skills projects project achievements
	achievement technologies technology link gpa location duration languages tools other
	highlights certifications awards contact profile objective additional responsibilities
	email phone linkedin github website portfolio`)

// Check returns the entities in output that none of sources mention.
// Checked counts the distinct candidates examined.
func Check(output string, sources ...string) types.FactCheckReport {
	corpus := strings.ToLower(strings.Join(sources, "\n"))
	vocab := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(corpus, -1) {
		vocab[trimToken(tok)] = struct{}{}
	}

	report := types.FactCheckReport{Violations: []string{}}
	for _, candidate := range Candidates(output) {
		report.Checked++
		if !supported(candidate, corpus, vocab) {
			report.Violations = append(report.Violations, candidate)
		}
	}
	return report
}

// Candidates returns the likely named entities in text, in order of first
// appearance: runs of capitalized words plus known technology names. A
// capitalized word opening a sentence or bullet only counts when it looks
// technical, such as "PostgreSQL" or "C++".
func Candidates(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(c string) {
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}

	var run []string
	flush := func() {
		if len(run) > 0 {
			add(strings.Join(run, " "))
			run = nil
		}
	}

	locs := tokenPattern.FindAllStringIndex(text, -1)
	prevEnd := 0
	prevRaw := ""
	for _, loc := range locs {
		raw := text[loc[0]:loc[1]]
		tok := trimToken(raw)
		gap := text[prevEnd:loc[0]]
		boundary := prevEnd == 0 || strings.HasSuffix(prevRaw, ".") || strings.ContainsAny(gap, ".!?:;|\n()[]*#,\"")
		prevEnd, prevRaw = loc[1], raw

		lower := strings.ToLower(tok)
		if tok == "" || isIgnored(lower) {
			flush()
			continue
		}

		if !isCapitalized(tok) {
			flush()
			if _, ok := techTerms[lower]; ok {
				add(tok)
			}
			continue
		}

		if strings.Trim(gap, " \t") != "" || boundary {
			flush()
		}
		if boundary && len(run) == 0 && !looksTechnical(tok) {
			if _, ok := techTerms[lower]; !ok {
				continue
			}
		}
		run = append(run, tok)
	}
	flush()

	return out
}

func supported(candidate, corpus string, vocab map[string]struct{}) bool {
	lower := strings.ToLower(candidate)
	if strings.Contains(corpus, lower) {
		return true
	}
	for _, word := range strings.Fields(lower) {
		if len(word) <= 2 || keywords.IsStopword(word) || isIgnored(word) {
			continue
		}
		if _, ok := vocab[word]; !ok {
			return false
		}
	}
	return true
}

func isIgnored(lower string) bool {
	_, ok := ignored[lower]
	return ok || keywords.IsStopword(lower)
}

func isCapitalized(tok string) bool {
	for _, r := range tok {
		return unicode.IsUpper(r)
	}
	return false
}

// looksTechnical reports tokens with digits, symbols or inner capitals.
func looksTechnical(tok string) bool {
	for i, r := range tok {
		if unicode.IsDigit(r) || strings.ContainsRune("+#.", r) {
			return true
		}
		if i > 0 && unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func trimToken(tok string) string {
	return strings.TrimRight(tok, ".-/")
}

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}
