// Package jobsource turns a posting URL or pasted posting text into a
// JobSummary. Pages are fetched over HTTP with a headless-browser fallback
// for script-rendered boards, then summarized by the model when one is
// configured or by a section-heading parser otherwise.
package jobsource

import (
	"context"
	"net/http"
	"strings"
	"time"

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

var tracer = otel.Tracer("github.com/jonathan/job-agent/internal/jobsource")

// Provider produces a JobSummary from a posting URL or the posting text itself.
type Provider interface {
	FetchJobDescription(ctx context.Context, urlOrText string) (*types.JobSummary, error)
}

// Options configures a Source. Zero values are usable.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string
	// Renderer re-renders pages whose plain fetch yields too little text.
	// Nil disables the browser fallback.
	Renderer Renderer
	// Invoker summarizes postings with the model. Nil selects the
	// section-heading parser.
	Invoker *llm.Invoker
	Logger  *zap.Logger
}

// Source is the default Provider.
type Source struct {
	client    *http.Client
	userAgent string
	renderer  Renderer
	invoker   *llm.Invoker
	logger    *zap.Logger
}

// New creates a Source.
func New(opts Options) *Source {
	s := &Source{
		client:    opts.HTTPClient,
		userAgent: opts.UserAgent,
		renderer:  opts.Renderer,
		invoker:   opts.Invoker,
		logger:    opts.Logger,
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: DefaultTimeout}
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("stage", string(apperrors.StageJobSource)))
	return s
}

// FetchJobDescription implements Provider. Failures are *FetchError, except
// context cancellation which is returned as-is.
func (s *Source) FetchJobDescription(ctx context.Context, urlOrText string) (_ *types.JobSummary, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(apperrors.StageJobSource, start, err) }()

	input := strings.TrimSpace(urlOrText)
	if input == "" {
		return nil, &FetchError{Kind: FetchParseFailed, Message: "no job description given"}
	}

	ctx, span := tracer.Start(ctx, "jobsource.fetch")
	defer span.End()

	var sourceURL, text string
	if IsURL(input) {
		sourceURL = input
		span.SetAttributes(attribute.String("url", sourceURL))
		if text, err = s.pageText(ctx, sourceURL); err != nil {
			return nil, err
		}
	} else {
		text = CleanText(input)
	}
	text = validation.Screen(s.logger, "job_posting", text)

	job, err := s.summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	job.URL = sourceURL
	job.Responsibilities = trimAll(job.Responsibilities)
	job.Requirements = trimAll(job.Requirements)
	if job.IsEmpty() {
		return nil, &FetchError{Kind: FetchParseFailed, URL: sourceURL, Message: "no role summary, responsibilities or requirements found"}
	}

	s.logger.Info("job description extracted",
		zap.String("url", sourceURL),
		zap.String("title", job.Title),
		zap.Int("responsibilities", len(job.Responsibilities)),
		zap.Int("requirements", len(job.Requirements)))
	return job, nil
}

// pageText fetches a posting page and extracts its text, re-rendering it in
// the browser when the plain fetch looks script-rendered.
func (s *Source) pageText(ctx context.Context, rawURL string) (string, error) {
	platform := DetectPlatform(rawURL)
	page, err := fetchPage(ctx, s.client, rawURL, s.userAgent)
	if err != nil {
		return "", err
	}

	text, err := ExtractMainText(page.HTML, platform.ContentSelectors(), platform.NoiseSelectors()...)
	if err != nil {
		return "", &FetchError{Kind: FetchParseFailed, URL: rawURL, Message: "failed to extract posting text", Cause: err}
	}

	if s.renderer != nil && NeedsBrowser(text) {
		s.logger.Debug("posting text too short, rendering in browser",
			zap.String("platform", string(platform)),
			zap.Int("chars", len(text)))
		html, renderErr := s.renderer.Render(ctx, rawURL)
		switch {
		case renderErr != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.logger.Warn("browser rendering failed, using fetched page", zap.Error(renderErr))
		default:
			if rendered, err := ExtractMainText(html, platform.ContentSelectors(), platform.NoiseSelectors()...); err == nil && len(rendered) > len(text) {
				text = rendered
			}
		}
	}

	if text == "" {
		return "", &FetchError{Kind: FetchParseFailed, URL: rawURL, Message: "failed to extract posting text", Cause: errEmptyPage}
	}
	return text, nil
}

type summaryOutput struct {
	Title            *string  `json:"title"`
	RoleSummary      string   `json:"role_summary"`
	CompanyContext   string   `json:"company_context"`
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
}

// summarize asks the model for a JobSummary, falling back to the section
// parser when no model is configured or the model call fails.
func (s *Source) summarize(ctx context.Context, text string) (*types.JobSummary, error) {
	if s.invoker == nil {
		return ParseSections(text), nil
	}

	prompt := prompts.Render(prompts.JobSourceFile, "extract-job-summary", map[string]string{
		"Posting": validation.QuoteExternalContentWithLabel(text, "job posting"),
	})
	var out summaryOutput
	err := s.invoker.Invoke(ctx, llm.Call{
		Stage:  apperrors.StageJobSource,
		Prompt: prompt,
		Schema: schemas.MustLoad(embedded.JobSummary),
		Tier:   llm.TierLite,
	}, &out)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("model extraction failed, using section parser", zap.Error(err))
		return ParseSections(text), nil
	}

	job := &types.JobSummary{
		RoleSummary:      strings.TrimSpace(out.RoleSummary),
		CompanyContext:   strings.TrimSpace(out.CompanyContext),
		Responsibilities: out.Responsibilities,
		Requirements:     out.Requirements,
	}
	if out.Title != nil {
		job.Title = strings.TrimSpace(*out.Title)
	}
	return job, nil
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
