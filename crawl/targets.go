package crawl

import (
	"log/slog"
	"strings"
)

// Target is a normalized target URL and its position in the caller's list.
type Target struct {
	Index int
	URL   string
}

// PrepareTargets trims targets and drops blank entries and repeats, keeping
// the first occurrence of each URL in its original order. Each kept target
// carries its index in the input list.
func PrepareTargets(targets []string, logger *slog.Logger) []Target {
	seen := make(map[string]struct{}, len(targets))
	out := make([]Target, 0, len(targets))

	for i, raw := range targets {
		target := strings.TrimSpace(raw)
		if target == "" {
			logger.Warn("skipping blank target", "index", i)
			continue
		}
		if _, dup := seen[target]; dup {
			logger.Warn("skipping duplicate target", "index", i, "url", target)
			continue
		}
		seen[target] = struct{}{}
		out = append(out, Target{Index: i, URL: target})
	}
	return out
}
