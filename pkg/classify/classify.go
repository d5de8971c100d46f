// Package classify buckets releases by their stream label.
package classify

import (
	"strings"

	"github.com/paulstuart/gollm/unityrel/pkg/model"
)

// Category returns the bucket for a stream label. The first match wins in
// the order LTS, BETA, ALPHA, TECH; ok is false when nothing matches.
func Category(stream string) (model.Category, bool) {
	lower := strings.ToLower(stream)
	switch {
	case strings.Contains(stream, "LTS"):
		return model.LTS, true
	case strings.Contains(stream, "BETA") || strings.Contains(lower, "beta"):
		return model.BETA, true
	case strings.Contains(stream, "ALPHA") || strings.Contains(lower, "alpha"):
		return model.ALPHA, true
	case strings.Contains(stream, "TECH"):
		return model.TECH, true
	}
	return "", false
}

// Classify groups releases that carry a hub deep link by category, keeping
// encounter order. Categories without hits are absent from the result.
func Classify(releases []model.Release) model.Classified {
	out := make(model.Classified)
	for _, r := range releases {
		if r.HubDeepLink == "" {
			continue
		}
		c, ok := Category(r.Stream)
		if !ok {
			continue
		}
		out[c] = append(out[c], model.Link{Version: r.Version, URL: r.HubDeepLink})
	}
	return out
}
