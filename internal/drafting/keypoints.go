package drafting

import (
	"sort"
	"strings"
)

// OrderKeyPoints drops blank and case-insensitive duplicate points and orders
// the rest by where they first appear in body. Points that cannot be located
// follow the located ones in their original order.
func OrderKeyPoints(points []string, body string) []string {
	type located struct {
		point string
		pos   int
	}
	lowerBody := strings.ToLower(body)
	seen := make(map[string]bool, len(points))
	var found []located
	var missing []string

	for _, p := range points {
		p = strings.TrimSpace(p)
		key := strings.ToLower(p)
		if p == "" || seen[key] {
			continue
		}
		seen[key] = true
		if pos := strings.Index(lowerBody, key); pos >= 0 {
			found = append(found, located{point: p, pos: pos})
		} else {
			missing = append(missing, p)
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	out := make([]string, 0, len(found)+len(missing))
	for _, f := range found {
		out = append(out, f.point)
	}
	return append(out, missing...)
}
