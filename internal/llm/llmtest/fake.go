// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jonathan/job-agent/internal/llm"
)

// ErrNoResponse is returned when the script runs out.
var ErrNoResponse = errors.New("llmtest: no scripted response left")

// Response is one scripted reply.
type Response struct {
	Text  string
	Err   error
	Delay time.Duration
}

// JSON returns a Response whose text is v marshaled to JSON.
func JSON(v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Response{Text: string(data)}
}

// Text returns a Response with the given raw text.
func Text(s string) Response {
	return Response{Text: s}
}

// Fail returns a Response that fails with err.
func Fail(err error) Response {
	return Response{Err: err}
}

// Client replays scripted responses in order and records every prompt.
// When Handler is set it is used instead of the script.
type Client struct {
	Handler func(prompt string) Response

	mu        sync.Mutex
	responses []Response
	prompts   []string
	tiers     []llm.ModelTier
}

// New returns a Client that replays responses in order.
func New(responses ...Response) *Client {
	return &Client{responses: responses}
}

// Push appends responses to the script.
func (c *Client) Push(responses ...Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, responses...)
}

// GenerateJSON implements llm.Client.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.tiers = append(c.tiers, tier)
	var resp Response
	switch {
	case c.Handler != nil:
		c.mu.Unlock()
		resp = c.Handler(prompt)
		c.mu.Lock()
	case len(c.responses) == 0:
		c.mu.Unlock()
		return "", ErrNoResponse
	default:
		resp = c.responses[0]
		c.responses = c.responses[1:]
	}
	c.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(resp.Delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return resp.Text, resp.Err
}

// GenerateContent implements llm.Client.
func (c *Client) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateJSON(ctx, prompt, tier)
}

// GetModel implements llm.Client.
func (c *Client) GetModel(tier llm.ModelTier) string {
	return "fake-" + string(tier)
}

// Close implements llm.Client.
func (c *Client) Close() error {
	return nil
}

// Prompts returns every prompt received so far.
func (c *Client) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Calls returns the number of calls received.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// Tiers returns the tier of every call received so far.
func (c *Client) Tiers() []llm.ModelTier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.ModelTier(nil), c.tiers...)
}

// Remaining returns how many scripted responses are left.
func (c *Client) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.responses)
}

// Invoker returns an llm.Invoker over c with no backoff delay, for stage tests.
func (c *Client) Invoker() *llm.Invoker {
	return llm.NewInvoker(c, llm.InvokerConfig{
		MaxConcurrent: 2,
		CallTimeout:   5 * time.Second,
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		SchemaRetries: 2,
	})
}
