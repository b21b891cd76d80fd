// Package critique proposes advisory improvements for a draft without
// changing it.
package critique

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/metrics"
	"github.com/jonathan/job-agent/internal/prompts"
	"github.com/jonathan/job-agent/internal/schemas"
	"github.com/jonathan/job-agent/internal/types"
	"github.com/jonathan/job-agent/internal/validation"
	embedded "github.com/jonathan/job-agent/schemas"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const stage = apperrors.StageCritique

// DefaultMaxItems caps the number of suggestions per critique.
const DefaultMaxItems = 6

var tracer = otel.Tracer("github.com/jonathan/job-agent/internal/critique")

// Stage reviews drafts.
type Stage struct {
	invoker  *llm.Invoker
	logger   *zap.Logger
	maxItems int
}

// NewStage creates a critique stage. maxItems <= 0 uses DefaultMaxItems.
func NewStage(invoker *llm.Invoker, logger *zap.Logger, maxItems int) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Stage{
		invoker:  invoker,
		logger:   logger.With(zap.String("stage", string(stage))),
		maxItems: maxItems,
	}
}

// MaxItems returns the configured cap.
func (s *Stage) MaxItems() int {
	return s.maxItems
}

type critiqueOutput struct {
	Feedback []types.FeedbackItem `json:"feedback"`
}

// Critique returns up to MaxItems distinct one-sentence suggestions for
// content. An empty, non-nil slice means the model found nothing to improve.
func (s *Stage) Critique(ctx context.Context, content types.GeneratedContent, job *types.JobSummary, fp *types.FilteredProfile) (items []types.FeedbackItem, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(stage, start, err) }()

	if err := content.Validate(); err != nil {
		return nil, apperrors.NewInputError(stage, "content cannot be critiqued", err)
	}

	ctx, span := tracer.Start(ctx, "critique.review")
	defer span.End()

	prompt := prompts.Render(prompts.CritiqueFile, "review", map[string]string{
		"Content":         validation.QuoteExternalContentWithLabel(content.Format(), "draft"),
		"JobSummary":      validation.QuoteExternalContentWithLabel(job.Format(), "job"),
		"FilteredProfile": validation.QuoteExternalContentWithLabel(fp.Format(), "profile"),
		"MaxItems":        strconv.Itoa(s.maxItems),
	})

	var out critiqueOutput
	if err := s.invoker.Invoke(ctx, llm.Call{
		Stage:  stage,
		Prompt: prompt,
		Schema: schemas.MustLoad(embedded.Feedback),
		Tier:   llm.TierStandard,
	}, &out); err != nil {
		return nil, err
	}

	items = Normalize(out.Feedback, s.maxItems)
	if dropped := len(out.Feedback) - len(items); dropped > 0 {
		s.logger.Debug("dropped duplicate or surplus suggestions", zap.Int("dropped", dropped))
	}
	span.SetAttributes(attribute.Int("items", len(items)))
	return items, nil
}

// Normalize trims each suggestion to its first sentence and drops unknown
// types, blanks and duplicates, keeping at most max items in model order.
func Normalize(raw []types.FeedbackItem, max int) []types.FeedbackItem {
	items := make([]types.FeedbackItem, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, item := range raw {
		if len(items) == max {
			break
		}
		item.Suggestion = FirstSentence(item.Suggestion)
		if !item.Type.Valid() || item.Suggestion == "" || seen[item.Key()] {
			continue
		}
		seen[item.Key()] = true
		items = append(items, item)
	}
	return items
}

var abbreviations = map[string]bool{"e.g": true, "i.e": true, "etc": true, "vs": true, "mr": true, "ms": true, "dr": true}

// FirstSentence returns s up to and including its first sentence terminator,
// with whitespace collapsed.
func FirstSentence(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(string(runes[:i])) {
			continue
		}
		return string(runes[:i+1])
	}
	return s
}

func isAbbreviation(prefix string) bool {
	word := prefix
	if i := strings.LastIndex(prefix, " "); i >= 0 {
		word = prefix[i+1:]
	}
	word = strings.ToLower(strings.TrimLeft(word, "(\"'"))
	return abbreviations[word]
}
