// Package filtering selects the career track most relevant to a job and
// extracts the job-related parts of it into a FilteredProfile.
package filtering

import (
	"context"
	"strings"
	"time"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/grounding"
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

const stage = apperrors.StageFilter

var tracer = otel.Tracer("github.com/jonathan/job-agent/internal/filtering")

// Stage produces a FilteredProfile from a job and a multi-track profile.
type Stage struct {
	invoker *llm.Invoker
	logger  *zap.Logger
}

// NewStage creates a filtering stage.
func NewStage(invoker *llm.Invoker, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{invoker: invoker, logger: logger.With(zap.String("stage", string(stage)))}
}

// Filter selects the best track deterministically, asks the model for the
// job-relevant phrases of that track and checks that every phrase is
// traceable to the profile. One retry names the rejected phrases; a second
// violation is a grounding error.
func (s *Stage) Filter(ctx context.Context, job *types.JobSummary, profile *types.Profile) (fp *types.FilteredProfile, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(stage, start, err) }()

	if job.IsEmpty() {
		return nil, apperrors.NewInputError(apperrors.StageInput, "job summary has no role summary, responsibilities or requirements", nil)
	}
	if !profile.HasContent() {
		return nil, apperrors.NewEmptyProfileError()
	}

	track, score, ok := SelectTrack(job, profile)
	if !ok {
		return nil, apperrors.NewEmptyProfileError()
	}

	ctx, span := tracer.Start(ctx, "filtering.filter")
	defer span.End()
	span.SetAttributes(
		attribute.String("track", track.Name),
		attribute.Float64("score", score.Score),
	)
	s.logger.Debug("selected career track",
		zap.String("track", track.Name),
		zap.Float64("score", score.Score),
		zap.Strings("matched_terms", score.MatchedTerms))

	source := trackSource(track, profile)
	sourceCorpus := grounding.NewCorpus(source...)
	contextCorpus := grounding.NewCorpus(append(profile.Texts(), job.Texts()...)...)

	basePrompt := prompts.Render(prompts.FilteringFile, "extract-filtered-profile", map[string]string{
		"TrackName":      track.Name,
		"ProfileContent": validation.QuoteExternalContentWithLabel(strings.Join(source, "\n\n"), "profile"),
		"JobSummary":     validation.QuoteExternalContentWithLabel(validation.Screen(s.logger, "job_summary", job.Format()), "job"),
	})

	prompt := basePrompt
	var rejected []string
	for attempt := 0; attempt < 2; attempt++ {
		var out types.FilteredProfile
		if err := s.invoker.Invoke(ctx, llm.Call{
			Stage:  stage,
			Prompt: prompt,
			Schema: schemas.MustLoad(embedded.FilteredProfile),
			Tier:   llm.TierStandard,
		}, &out); err != nil {
			return nil, err
		}

		out.SelectedTrack = track.Name
		out.ContentGuidance = strings.TrimSpace(track.ContentGuidance)
		out.RelevantSkills = clean(out.RelevantSkills)
		out.RelevantExperience = clean(out.RelevantExperience)
		out.RelevantEducation = clean(out.RelevantEducation)
		out.MotivationalAlignment = strings.TrimSpace(out.MotivationalAlignment)

		rejected = untraceable(&out, sourceCorpus, contextCorpus)
		if len(rejected) == 0 {
			return &out, nil
		}

		metrics.StageRetries.WithLabelValues(string(stage), "grounding").Inc()
		s.logger.Warn("filtered profile contains untraceable entries",
			zap.Int("attempt", attempt+1),
			zap.Strings("rejected", rejected))
		prompt = basePrompt + "\n\n" + prompts.Render(prompts.FilteringFile, "grounding-retry", map[string]string{
			"Rejected": prompts.QuoteList(rejected),
		})
	}
	return nil, apperrors.NewGroundingViolation(stage, rejected)
}

// trackSource is the text the model may copy from: the selected track's
// narrative plus the profile-wide education and motivation.
func trackSource(track types.Track, profile *types.Profile) []string {
	source := track.Texts()
	for _, extra := range []string{profile.EducationBackground, profile.Motivation} {
		if strings.TrimSpace(extra) != "" {
			source = append(source, strings.TrimSpace(extra))
		}
	}
	return source
}

// untraceable returns the list entries not traceable to the source and the
// motivational entities found in neither the profile nor the job.
func untraceable(fp *types.FilteredProfile, source, known *grounding.Corpus) []string {
	var items []string
	items = append(items, fp.RelevantSkills...)
	items = append(items, fp.RelevantExperience...)
	items = append(items, fp.RelevantEducation...)

	rejected := source.Untraceable(items)
	rejected = append(rejected, known.NovelEntities(fp.MotivationalAlignment)...)
	return rejected
}

// clean trims entries and drops blanks and case-insensitive duplicates.
func clean(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
