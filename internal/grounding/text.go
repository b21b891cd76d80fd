package grounding

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

var punctuationReplacer = strings.NewReplacer(
	"’", "'", "‘", "'", "“", `"`, "”", `"`,
	"–", "-", "—", "-", " ", " ",
)

// skillAliases maps common spelling variants onto one canonical token so a
// draft saying "k8s" is grounded by a profile saying "Kubernetes".
var skillAliases = map[string]string{
	"golang":              "go",
	"js":                  "javascript",
	"ts":                  "typescript",
	"k8s":                 "kubernetes",
	"reactjs":             "react",
	"react.js":            "react",
	"vuejs":               "vue",
	"vue.js":              "vue",
	"nodejs":              "node.js",
	"postgres":            "postgresql",
	"gcp":                 "google cloud",
	"amazon web services": "aws",
}

// stopwords are ignored when measuring paraphrase overlap.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "to": true, "in": true,
	"on": true, "for": true, "with": true, "by": true, "at": true, "as": true, "or": true,
	"from": true, "into": true, "via": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "that": true, "this": true, "these": true, "those": true,
	"it": true, "its": true, "my": true, "our": true, "their": true, "i": true, "we": true,
	"me": true, "us": true, "have": true, "has": true, "had": true, "using": true, "over": true,
	"across": true, "per": true, "while": true, "which": true, "who": true,
}

// normalize lowercases s, folds typographic punctuation and collapses whitespace.
func normalize(s string) string {
	s = punctuationReplacer.Replace(strings.ToLower(s))
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// tokenize splits s into lowercase word tokens. Characters that commonly
// appear inside technology names (+ # . /) are kept when interior.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(normalize(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("+#./'-", r))
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "./'-")
		if f == "" {
			continue
		}
		out = append(out, f)
		// "10tb/day" and "ci/cd" also contribute their parts
		if strings.ContainsAny(f, "/-") {
			for _, part := range strings.FieldsFunc(f, func(r rune) bool { return r == '/' || r == '-' }) {
				if part != "" && part != f {
					out = append(out, part)
				}
			}
		}
	}
	return out
}

// stem strips common English inflections so "pipelines" matches "pipeline"
// and "processing" matches "processes". A trailing e is dropped last.
func stem(token string) string {
	strip := func(suffix string) bool {
		if strings.HasSuffix(token, suffix) && len(token)-len(suffix) >= 3 {
			token = strings.TrimSuffix(token, suffix)
			return true
		}
		return false
	}
	switch {
	case strip("ing"), strip("ed"):
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		token = strings.TrimSuffix(token, "ies") + "y"
	case strings.HasSuffix(token, "sses"), strings.HasSuffix(token, "xes"),
		strings.HasSuffix(token, "ches"), strings.HasSuffix(token, "shes"):
		strip("es")
	case !strings.HasSuffix(token, "ss"):
		strip("s")
	}
	if len(token) > 3 {
		token = strings.TrimSuffix(token, "e")
	}
	return token
}

// canonical returns the alias target for token, or token itself.
func canonical(token string) string {
	if c, ok := skillAliases[token]; ok {
		return c
	}
	return token
}

// numberWords maps spelled-out numbers onto digits. "one" is left out: it is
// far more often a pronoun than a count.
var numberWords = map[string]string{
	"two": "2", "three": "3", "four": "4", "five": "5", "six": "6", "seven": "7",
	"eight": "8", "nine": "9", "ten": "10", "eleven": "11", "twelve": "12",
	"thirteen": "13", "fourteen": "14", "fifteen": "15", "sixteen": "16",
	"seventeen": "17", "eighteen": "18", "nineteen": "19", "twenty": "20",
	"hundred": "100", "thousand": "1000",
}

// numbers returns the numeric cores of s with thousands separators removed,
// so "$120,000" and "120000" compare equal. Spelled-out numbers are returned
// as digits.
func numbers(s string) []string {
	matches := numberPattern.FindAllString(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.ReplaceAll(m, ",", ""))
	}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !unicode.IsLetter(r) }) {
		if n, ok := numberWords[w]; ok {
			out = append(out, n)
		}
	}
	return out
}

// contentTokens returns the non-stopword tokens of s.
func contentTokens(s string) []string {
	var out []string
	for _, t := range tokenize(s) {
		if stopwords[t] || len([]rune(t)) < 2 && !isDigits(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// Terms returns the distinct canonical stems of the content words in s, in
// order of first appearance. Track scoring compares these.
func Terms(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range contentTokens(s) {
		term := stem(canonical(t))
		if !seen[term] {
			seen[term] = true
			out = append(out, term)
		}
	}
	return out
}
