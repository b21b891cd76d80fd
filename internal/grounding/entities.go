package grounding

import (
	"regexp"
	"strings"
	"unicode"
)

// allowlist holds capitalized words that routinely open letters and answers
// without naming a fact.
var allowlist = map[string]bool{
	"i": true, "dear": true, "hiring": true, "manager": true, "team": true,
	"sincerely": true, "regards": true, "best": true, "thank": true, "thanks": true,
	"yours": true, "application": true, "position": true, "role": true,
	"cover": true, "letter": true, "hello": true, "hi": true, "kind": true,
	"warm": true, "respectfully": true, "faithfully": true, "cheers": true,
	"mr": true, "ms": true, "mrs": true, "dr": true, "re": true, "subject": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
}

var placeholderPattern = regexp.MustCompile(`\[[^\]]*\]`)

var sentenceEnd = regexp.MustCompile(`[.!?:;]["')\]]*$`)

// openers are words that commonly start a sentence without naming anything.
// A capitalized sentence-initial word outside this set, the corpus and the
// text's own lowercase vocabulary is treated as a name.
var openers = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "our": true, "your": true, "their": true,
	"this": true, "that": true, "these": true, "those": true, "there": true, "here": true,
	"it": true, "we": true, "you": true, "they": true, "he": true, "she": true, "me": true,
	"what": true, "why": true, "how": true, "when": true, "where": true, "which": true, "who": true,
	"while": true, "although": true, "though": true, "because": true, "since": true, "if": true,
	"as": true, "after": true, "before": true, "during": true, "over": true, "under": true,
	"with": true, "without": true, "within": true, "through": true, "throughout": true,
	"from": true, "for": true, "in": true, "on": true, "at": true, "by": true, "to": true,
	"of": true, "and": true, "but": true, "or": true, "so": true, "yet": true, "also": true,
	"both": true, "each": true, "every": true, "many": true, "most": true, "some": true,
	"such": true, "all": true, "any": true, "no": true, "not": true, "one": true,
	"please": true, "let": true, "should": true, "would": true, "could": true, "can": true,
	"will": true, "may": true, "might": true, "do": true, "does": true, "did": true,
	"am": true, "is": true, "are": true, "was": true, "were": true, "have": true, "has": true,
	"once": true, "then": true, "now": true, "today": true, "beyond": true, "outside": true,
	"together": true, "overall": true, "however": true, "therefore": true, "moreover": true,
	"furthermore": true, "besides": true, "above": true, "again": true, "just": true,
	"passionate": true, "eager": true, "happy": true, "glad": true, "confident": true,
	"open": true, "flexible": true, "strong": true, "proven": true, "deep": true,
	"solid": true, "extensive": true, "key": true, "relevant": true, "new": true,
	"great": true, "good": true, "ready": true, "able": true, "given": true, "based": true,
}

// candidate is one fact-bearing word found in text. opener marks a plain
// capitalized word that starts a sentence, which may or may not be a name.
type candidate struct {
	word   string
	opener bool
}

// ExtractEntities returns the fact-bearing tokens of text: numbers (spelled
// out or not), capitalized words that do not open a sentence, and acronyms or
// mixed-case names anywhere. Bracketed placeholders such as [Company] are
// ignored. Results are in order of first appearance without duplicates.
func ExtractEntities(text string) []string {
	var out []string
	for _, c := range scan(text) {
		if !c.opener {
			out = append(out, c.word)
		}
	}
	return out
}

func scan(text string) []candidate {
	text = placeholderPattern.ReplaceAllString(punctuationReplacer.Replace(text), " ")

	var out []candidate
	seen := make(map[string]int)
	add := func(word string, opener bool) {
		key := strings.ToLower(word)
		i, ok := seen[key]
		if !ok {
			seen[key] = len(out)
			out = append(out, candidate{word: word, opener: opener})
			return
		}
		// a name seen mid-sentence later is a name where it opened a sentence too
		if out[i].opener && !opener {
			out[i].opener = false
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		// a line break after a salutation or list item starts a new sentence
		sentenceStart := true
		for _, raw := range strings.Fields(line) {
			startsSentence := sentenceStart
			sentenceStart = sentenceEnd.MatchString(raw) || strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "•")

			for _, n := range numbers(raw) {
				add(n, false)
			}
			for _, word := range splitWord(raw) {
				switch {
				case isEntityWord(word, startsSentence):
					add(word, false)
				case startsSentence && isOpenerCandidate(word):
					add(word, true)
				}
				startsSentence = false
			}
		}
	}
	return out
}

// isOpenerCandidate reports a capitalized sentence-initial word that is not
// obviously a function word, an adverb or a verb form.
func isOpenerCandidate(word string) bool {
	runes := []rune(word)
	if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
		return false
	}
	lower := strings.ToLower(word)
	if allowlist[lower] || openers[lower] || stopwords[lower] || numberWords[lower] != "" {
		return false
	}
	if len(runes) > 4 {
		for _, suffix := range []string{"ly", "ing", "ed"} {
			if strings.HasSuffix(lower, suffix) {
				return false
			}
		}
	}
	return true
}

// lowercaseVocabulary returns the words texts use in lowercase. A
// sentence-initial word the text also writes in lowercase is not a name.
func lowercaseVocabulary(texts []string) map[string]bool {
	vocab := make(map[string]bool)
	for _, t := range texts {
		for _, raw := range strings.Fields(punctuationReplacer.Replace(t)) {
			for _, word := range splitWord(raw) {
				if r := []rune(word); unicode.IsLower(r[0]) {
					vocab[word] = true
				}
			}
		}
	}
	return vocab
}

// splitWord trims punctuation from a whitespace field and splits it on
// apostrophes and slashes, so "Acme's" yields "Acme".
func splitWord(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\'' || r == '/' || r == '(' || r == ')' || r == '"' || r == ','
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimFunc(p, func(r rune) bool {
			return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#')
		})
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isEntityWord(word string, startsSentence bool) bool {
	runes := []rune(word)
	if !unicode.IsLetter(runes[0]) {
		return false
	}
	if allowlist[strings.ToLower(word)] {
		return false
	}
	if len(runes) == 1 {
		return false
	}
	if hasInnerUpper(runes) {
		return true
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	return !startsSentence
}

// hasInnerUpper reports acronyms (AWS) and mixed-case names (PySpark, iOS).
func hasInnerUpper(runes []rune) bool {
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
