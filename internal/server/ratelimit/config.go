package ratelimit

import (
	"time"

	"github.com/jonathan/job-agent/internal/config"
)

// Rule limits one route. A Path ending in "/" matches by prefix, and every
// path under it shares the same bucket.
type Rule struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	// Burst is the bucket capacity; zero means Limit.
	Burst int
}

// key identifies the bucket shared by every request the rule matches.
func (r Rule) key() string {
	return r.Method + " " + r.Path
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused bucket is kept.
	IdleTTL   time.Duration
	Allowlist map[string]bool
	Rules     []Rule
}

// FromConfig builds the limiter configuration from the service config.
func FromConfig(cfg config.RateLimitConfig) *Config {
	allow := make(map[string]bool, len(cfg.Allowlist))
	for _, ip := range cfg.Allowlist {
		if ip != "" {
			allow[ip] = true
		}
	}
	return &Config{
		Enabled:         cfg.Enabled,
		DefaultLimit:    cfg.DefaultLimit,
		DefaultWindow:   cfg.DefaultWindow,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Allowlist:       allow,
		Rules:           DefaultRules(),
	}
}

// DefaultRules returns the built-in per-route limits. Routes that call the
// model are the strictest.
func DefaultRules() []Rule {
	return []Rule{
		{Path: "/generate/", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/modify", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},
		{Path: "/jobs/fetch", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},

		{Path: "/sessions", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/profile", Method: "PUT", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/profile", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
	}
}
