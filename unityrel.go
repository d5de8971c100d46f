// Package unityrel collects Unity Hub deep links for each release stream by
// querying the Unity release GraphQL service.
package unityrel

import (
	"fmt"
	"net/http"
	"time"

	"github.com/paulstuart/gollm/unityrel/pkg/classify"
	"github.com/paulstuart/gollm/unityrel/pkg/model"
	"github.com/paulstuart/gollm/unityrel/pkg/output"
	"github.com/paulstuart/gollm/unityrel/pkg/scraper"
	"github.com/paulstuart/gollm/unityrel/pkg/store"
)

// DefaultPrefixes are the major release lines queried, newest first.
var DefaultPrefixes = []string{"6000", "2023", "2022", "2021", "2020", "2019", "2018", "2017", "5"}

// DefaultDelay is the pause between consecutive queries.
const DefaultDelay = 3 * time.Second

// Config controls a collection run.
type Config struct {
	Endpoint  string
	Prefixes  []string
	Limit     int
	Delay     time.Duration
	Timeout   time.Duration
	OutputDir string

	// Transport overrides the HTTP transport; nil uses the default.
	Transport http.RoundTripper
	// Sleep waits between queries; nil uses time.Sleep.
	Sleep func(time.Duration)
}

// DefaultConfig returns the settings used by the command. OutputDir is left
// empty and resolved to the executable's directory by Run.
func DefaultConfig() Config {
	return Config{
		Endpoint: scraper.DefaultEndpoint,
		Prefixes: DefaultPrefixes,
		Limit:    scraper.DefaultLimit,
		Delay:    DefaultDelay,
		Timeout:  scraper.DefaultTimeout,
	}
}

// Collect queries every prefix in order and returns the aggregated links.
// A prefix whose query fails is logged and contributes nothing.
func Collect(cfg Config) (*model.Aggregate, error) {
	client, err := scraper.NewClient(
		scraper.WithEndpoint(cfg.Endpoint),
		scraper.WithLimit(cfg.Limit),
		scraper.WithTimeout(cfg.Timeout),
		scraper.WithTransport(cfg.Transport),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	agg := model.NewAggregate()
	for i, prefix := range cfg.Prefixes {
		output.Info("Querying Unity releases", "version", prefix)

		page, err := client.Releases(prefix)
		if err != nil {
			output.Warn("Skipping prefix", "version", prefix, "err", err)
		} else {
			merge(agg, prefix, classify.Classify(page.Releases))
		}

		if i < len(cfg.Prefixes)-1 && cfg.Delay > 0 {
			sleep(cfg.Delay)
		}
	}
	return agg, nil
}

func merge(agg *model.Aggregate, prefix string, classified model.Classified) {
	counts := agg.Merge(prefix, classified)
	for _, c := range model.Categories {
		if counts[c] == 0 {
			continue
		}
		output.Infof("%s releases (%d)", c, counts[c])
		for _, l := range classified[c] {
			output.Info(l.URL, "release", l.Version)
		}
	}
}

// Run collects links and writes one JSON file per category to
// cfg.OutputDir. It returns the paths written.
func Run(cfg Config) ([]string, error) {
	dir := cfg.OutputDir
	if dir == "" {
		var err error
		if dir, err = store.DefaultDir(); err != nil {
			return nil, err
		}
	}

	agg, err := Collect(cfg)
	if err != nil {
		return nil, err
	}

	paths, err := store.WriteAll(dir, agg)
	if err != nil {
		return paths, fmt.Errorf("failed to save results: %w", err)
	}
	for i, p := range paths {
		output.Info("Saved releases", "category", model.Categories[i], "file", p)
	}
	return paths, nil
}
