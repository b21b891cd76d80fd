package drafting

import (
	"regexp"
	"strings"

	"github.com/jonathan/job-agent/internal/grounding"
)

// Topic is a question subject the applicant must answer personally.
type Topic string

// Sensitive topics
const (
	TopicCompensation Topic = "compensation"
	TopicStartDate    Topic = "start-date"
	TopicNoticePeriod Topic = "notice-period"
	TopicRelocation   Topic = "relocation"
	TopicVisa         Topic = "visa"
)

type topicRule struct {
	topic    Topic
	question *regexp.Regexp
	evidence []string
}

// Order matters: a question about notice is not a start date question.
var topicRules = []topicRule{
	{
		topic:    TopicCompensation,
		question: regexp.MustCompile(`(?i)\b(salary|compensation|pay|wages?|remuneration|ctc|hourly rate|day rate)\b`),
		evidence: []string{"salary", "compensation", "pay range", "base pay", "per year", "per hour"},
	},
	{
		topic:    TopicNoticePeriod,
		question: regexp.MustCompile(`(?i)\bnotice\b`),
		evidence: []string{"notice period", "weeks notice", "weeks' notice"},
	},
	{
		topic:    TopicStartDate,
		question: regexp.MustCompile(`(?i)(start date|when (can|could|would) you (start|join|begin)|available to start|availability|earliest start)`),
		evidence: []string{"available from", "available to start", "start date", "can start"},
	},
	{
		topic:    TopicRelocation,
		question: regexp.MustCompile(`(?i)\b(relocat\w*|move to|willing to move)\b`),
		evidence: []string{"relocate", "relocation", "willing to move"},
	},
	{
		topic:    TopicVisa,
		question: regexp.MustCompile(`(?i)\b(visa|sponsor\w*|work authori[sz]ation|right to work|work permit|citizen\w*)\b`),
		evidence: []string{"visa", "sponsorship", "work authorization", "right to work", "citizen", "green card"},
	},
}

// MissingSensitiveTopic reports the first sensitive topic the question asks
// about that the corpus has no information on.
func MissingSensitiveTopic(question string, corpus *grounding.Corpus) (Topic, bool) {
	for _, rule := range topicRules {
		if !rule.question.MatchString(question) {
			continue
		}
		known := false
		for _, e := range rule.evidence {
			if corpus.Contains(e) {
				known = true
				break
			}
		}
		if !known {
			return rule.topic, true
		}
	}
	return "", false
}

// FirstQuestion trims a follow-up to its first question. Blank input is nil.
func FirstQuestion(followUp *string) *string {
	if followUp == nil {
		return nil
	}
	s := strings.TrimSpace(*followUp)
	if s == "" {
		return nil
	}
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i+1]
	} else if i := strings.IndexAny(s, ".!\n"); i >= 0 {
		s = s[:i+1]
	}
	s = strings.TrimSpace(s)
	return &s
}
