package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/metrics"
	"github.com/jonathan/job-agent/internal/prompts"
	"github.com/jonathan/job-agent/internal/schemas"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const tracerName = "github.com/jonathan/job-agent/internal/llm"

// InvokerConfig is the invocation policy shared by every stage.
type InvokerConfig struct {
	// MaxConcurrent bounds simultaneous provider calls across all requests.
	MaxConcurrent int64
	// CallTimeout applies to each provider call, not to the whole invocation.
	CallTimeout time.Duration
	// MaxAttempts bounds provider calls per invocation for transient failures.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// SchemaRetries is the number of stricter re-prompts after malformed output.
	SchemaRetries int
}

// DefaultInvokerConfig returns the default policy.
func DefaultInvokerConfig() InvokerConfig {
	return InvokerConfig{
		MaxConcurrent: 4,
		CallTimeout:   60 * time.Second,
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		SchemaRetries: 2,
	}
}

// Call is one structured model invocation.
type Call struct {
	Stage  apperrors.Stage
	Prompt string
	Schema *schemas.Schema
	Tier   ModelTier
}

// Invoker wraps a Client with admission control, timeouts, backoff and
// schema validation. It is safe for concurrent use.
type Invoker struct {
	client Client
	cfg    InvokerConfig
	sem    *semaphore.Weighted
	logger *zap.Logger
	tracer trace.Tracer
	sleep  func(ctx context.Context, d time.Duration) error
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithLogger sets the invoker's logger.
func WithLogger(l *zap.Logger) InvokerOption {
	return func(inv *Invoker) {
		if l != nil {
			inv.logger = l
		}
	}
}

// WithTracerProvider sets the provider used for invocation spans.
func WithTracerProvider(tp trace.TracerProvider) InvokerOption {
	return func(inv *Invoker) {
		if tp != nil {
			inv.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewInvoker creates an Invoker. Zero fields in cfg take their defaults.
func NewInvoker(client Client, cfg InvokerConfig, opts ...InvokerOption) *Invoker {
	def := DefaultInvokerConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.SchemaRetries < 0 {
		cfg.SchemaRetries = 0
	}

	inv := &Invoker{
		client: client,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke sends call.Prompt to the model and decodes the schema-valid JSON
// reply into out. Malformed replies are re-prompted up to SchemaRetries times
// before a schema_validation error. Transient provider failures are retried
// with backoff before a model_provider error. Cancellation of ctx is returned
// as-is and never retried. out is only written on success.
func (inv *Invoker) Invoke(ctx context.Context, call Call, out any) error {
	ctx, span := inv.tracer.Start(ctx, "llm.invoke", trace.WithAttributes(
		attribute.String("stage", string(call.Stage)),
		attribute.String("schema", call.Schema.Name),
		attribute.String("tier", string(call.Tier)),
	))
	defer span.End()

	logger := inv.logger.With(zap.String("stage", string(call.Stage)))
	prompt := call.Prompt

	var lastErr error
	for attempt := 0; attempt <= inv.cfg.SchemaRetries; attempt++ {
		raw, err := inv.generate(ctx, call, prompt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "provider call failed")
			return err
		}

		text := CleanJSONBlock(raw)
		if err := call.Schema.Validate(text); err != nil {
			lastErr = err
			metrics.ModelCalls.WithLabelValues(string(call.Stage), string(ReasonMalformedOutput)).Inc()
			logger.Warn("model output failed schema validation",
				zap.String("schema", call.Schema.Name),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			prompt = call.Prompt + "\n\n" + prompts.Render(prompts.CommonFile, "schema-retry", map[string]string{
				"Errors": schemaSummary(err),
			})
			continue
		}

		if err := call.Schema.Decode(text, out); err != nil {
			lastErr = err
			continue
		}
		span.SetAttributes(attribute.Int("schema_attempts", attempt+1))
		return nil
	}

	span.SetStatus(codes.Error, "malformed output")
	return apperrors.NewSchemaValidation(call.Stage, &ModelError{
		Reason:   ReasonMalformedOutput,
		Attempts: inv.cfg.SchemaRetries + 1,
		Cause:    lastErr,
	})
}

// generate performs one provider call with admission, timeout and backoff.
func (inv *Invoker) generate(ctx context.Context, call Call, prompt string) (string, error) {
	stage := string(call.Stage)
	var lastErr error
	var reason ErrorReason

	for attempt := 1; attempt <= inv.cfg.MaxAttempts; attempt++ {
		if err := inv.sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
		metrics.ModelCallsInFlight.Inc()

		callCtx, cancel := context.WithTimeout(ctx, inv.cfg.CallTimeout)
		start := time.Now()
		raw, err := inv.client.GenerateJSON(callCtx, prompt, call.Tier)
		elapsed := time.Since(start)
		cancel()

		metrics.ModelCallsInFlight.Dec()
		inv.sem.Release(1)
		metrics.ModelCallDuration.WithLabelValues(stage).Observe(elapsed.Seconds())

		if err == nil {
			metrics.ModelCalls.WithLabelValues(stage, "success").Inc()
			return raw, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		reason = Classify(err)
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		metrics.ModelCalls.WithLabelValues(stage, string(reason)).Inc()

		if !reason.Transient() || attempt == inv.cfg.MaxAttempts {
			break
		}

		delay := inv.backoff(attempt)
		inv.logger.Warn("model call failed, backing off",
			zap.String("stage", stage),
			zap.String("reason", string(reason)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := inv.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	modelErr := &ModelError{Reason: reason, Attempts: inv.cfg.MaxAttempts, Cause: lastErr}
	if !reason.Transient() {
		modelErr.Attempts = 1
		provErr := apperrors.NewModelProvider(call.Stage, "the model provider rejected the request", modelErr)
		provErr.Retryable = false
		return "", provErr
	}
	return "", apperrors.NewModelProvider(call.Stage, "the model provider is "+describe(reason), modelErr)
}

// backoff returns the delay before retry number attempt (1-based): exponential
// from BaseDelay, capped at MaxDelay, with up to 50% jitter removed.
func (inv *Invoker) backoff(attempt int) time.Duration {
	d := inv.cfg.BaseDelay << (attempt - 1)
	if d > inv.cfg.MaxDelay || d <= 0 {
		d = inv.cfg.MaxDelay
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}

func describe(r ErrorReason) string {
	switch r {
	case ReasonTimeout:
		return "timing out"
	case ReasonRateLimited:
		return "rate limiting requests"
	default:
		return "unavailable"
	}
}

func schemaSummary(err error) string {
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		return ve.Summary()
	}
	return err.Error()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
