// Package grounding checks generated text against the source material it was
// derived from. A Corpus holds the source; Traceable and NovelEntities report
// what a model added that the source does not support.
package grounding

import (
	"strings"
	"unicode"
)

// MinCoverage is the share of a statement's content words that must appear in
// the corpus for a paraphrase to count as traceable.
const MinCoverage = 0.75

// prefixMinLen is the shortest token allowed to match by prefix: an entity
// "Corp" is grounded by a source "Corporation", never the other way round.
const prefixMinLen = 4

// Corpus is an indexed body of source text. The zero value is an empty corpus.
type Corpus struct {
	text    string
	tokens  map[string]bool
	stems   map[string]bool
	numbers map[string]bool
}

// NewCorpus indexes texts. Blank texts are ignored.
func NewCorpus(texts ...string) *Corpus {
	c := &Corpus{
		tokens:  make(map[string]bool),
		stems:   make(map[string]bool),
		numbers: make(map[string]bool),
	}
	var b strings.Builder
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		n := normalize(t)
		b.WriteString(n)
		b.WriteString("\n")
		for _, tok := range tokenize(t) {
			c.addToken(tok)
		}
		for _, num := range numbers(t) {
			c.numbers[num] = true
		}
	}
	c.text = b.String()
	for phrase, target := range skillAliases {
		if strings.Contains(phrase, " ") && strings.Contains(c.text, phrase) {
			c.addToken(target)
		}
		if strings.Contains(target, " ") && strings.Contains(c.text, target) {
			c.addToken(target)
		}
	}
	return c
}

func (c *Corpus) addToken(tok string) {
	tok = canonical(tok)
	c.tokens[tok] = true
	c.stems[stem(tok)] = true
}

// Empty reports whether the corpus has no text.
func (c *Corpus) Empty() bool {
	return c == nil || c.text == ""
}

// Contains reports whether phrase occurs in the corpus after normalization.
func (c *Corpus) Contains(phrase string) bool {
	if c.Empty() {
		return false
	}
	p := normalize(phrase)
	return p != "" && strings.Contains(c.text, p)
}

// Traceable reports whether statement is supported by the corpus: either it
// occurs verbatim (after normalization), or at least MinCoverage of its
// content words occur and every entity it names is grounded.
func (c *Corpus) Traceable(statement string) bool {
	if strings.TrimSpace(statement) == "" {
		return true
	}
	if c.Empty() {
		return false
	}
	if c.Contains(statement) {
		return true
	}

	words := contentTokens(statement)
	if len(words) == 0 {
		return true
	}
	hits := 0
	for _, w := range words {
		if c.hasWord(w) {
			hits++
		}
	}
	if float64(hits)/float64(len(words)) < MinCoverage {
		return false
	}
	return len(c.NovelEntities(statement)) == 0
}

// Untraceable returns the items that are not Traceable, in input order.
func (c *Corpus) Untraceable(items []string) []string {
	var out []string
	for _, item := range items {
		if !c.Traceable(item) {
			out = append(out, item)
		}
	}
	return out
}

// Grounded reports whether a single entity from ExtractEntities is supported.
func (c *Corpus) Grounded(entity string) bool {
	if c.Empty() {
		return false
	}
	if nums := numbers(entity); len(nums) > 0 && isNumeric(entity) {
		for _, n := range nums {
			if !c.numbers[n] {
				return false
			}
		}
		return true
	}
	for _, tok := range tokenize(entity) {
		if !c.hasWord(tok) && !c.hasPrefix(tok) {
			return false
		}
	}
	return true
}

// NovelEntities returns entities named in texts that the corpus does not
// support, in order of first appearance. A capitalized word opening a
// sentence counts unless it is a common opener, occurs in the corpus, or is
// also written in lowercase somewhere in texts.
func (c *Corpus) NovelEntities(texts ...string) []string {
	return c.novel(texts, true)
}

// Unstated is NovelEntities without sentence-initial words: it reports only
// unambiguous names and numbers. Use it when checking that a rewrite kept the
// facts of an earlier text, where rewording alone changes sentence openers.
func (c *Corpus) Unstated(texts ...string) []string {
	return c.novel(texts, false)
}

func (c *Corpus) novel(texts []string, withOpeners bool) []string {
	var vocab map[string]bool
	if withOpeners {
		vocab = lowercaseVocabulary(texts)
	}
	var out []string
	seen := make(map[string]bool)
	for _, t := range texts {
		for _, e := range scan(t) {
			if e.opener && (!withOpeners || vocab[strings.ToLower(e.word)]) {
				continue
			}
			key := strings.ToLower(e.word)
			if seen[key] {
				continue
			}
			seen[key] = true
			if !c.Grounded(e.word) {
				out = append(out, e.word)
			}
		}
	}
	return out
}

func (c *Corpus) hasWord(tok string) bool {
	tok = canonical(strings.ToLower(tok))
	if c.tokens[tok] || c.stems[stem(tok)] {
		return true
	}
	if n := numbers(tok); len(n) == 1 && isNumeric(tok) {
		return c.numbers[n[0]]
	}
	return false
}

func (c *Corpus) hasPrefix(tok string) bool {
	tok = canonical(strings.ToLower(tok))
	if len([]rune(tok)) < prefixMinLen {
		return false
	}
	for known := range c.tokens {
		if len([]rune(known)) < prefixMinLen {
			continue
		}
		if strings.HasPrefix(known, tok) {
			return true
		}
	}
	return false
}

// isNumeric reports whether s is a number with optional currency, unit or
// separator decoration ("$120,000", "40%", "3x").
func isNumeric(s string) bool {
	s = strings.TrimLeft(s, "$€£~+-")
	if s == "" || !unicode.IsDigit([]rune(s)[0]) {
		return false
	}
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters <= 2
}
