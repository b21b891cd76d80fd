package ratelimit

import "strings"

// unlimited routes are never throttled.
var unlimited = map[string]bool{
	"GET /health":  true,
	"GET /metrics": true,
}

// Match returns the rule for a request. Exact paths win over prefixes. ok is
// false when no rule applies and the default limit should be used. A matched
// rule with Limit 0 means the route is unlimited.
func Match(path, method string, rules []Rule) (rule Rule, ok bool) {
	if unlimited[method+" "+path] {
		return Rule{Path: path, Method: method}, true
	}

	for _, r := range rules {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}

	for _, r := range rules {
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r, true
		}
	}
	return Rule{}, false
}
