package gias

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/RogerHowellDfE/gias-data/internal/fetcher"
)

// DefaultBaseURL is the production GIAS public downloads endpoint.
const DefaultBaseURL = "https://ea-edubase-api-prod.azurewebsites.net/edubase/downloads/public"

// Config holds the per-run fetcher settings. SizeAlertPercent is a pointer
// so an explicit zero threshold stays distinguishable from "use the default".
type Config struct {
	OutputDir        string
	SizeAlertPercent *float64
	BaseURL          string
	DateFormat       string
}

// DefaultConfig returns the standard run configuration.
func DefaultConfig() Config {
	threshold := 20.0
	return Config{
		OutputDir:        "data",
		SizeAlertPercent: &threshold,
		BaseURL:          DefaultBaseURL,
		DateFormat:       "20060102",
	}
}

// Options configures one batch run. Zero-valued fields fall back to their
// defaults: the current date, DefaultConfig, the built-in catalog, and an
// HTTP fetcher with default options.
type Options struct {
	Date      time.Time
	Config    *Config
	Templates []Template
	Fetcher   fetcher.Fetcher
}

// BatchResult aggregates the outcome of a whole run.
type BatchResult struct {
	Downloaded []string // final paths written this run
	Skipped    []string // logical filenames that failed
	Warnings   []string // size-change advisories
}

// Summary renders the human-readable run report.
func (r *BatchResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Downloaded %d file(s), skipped %d\n", len(r.Downloaded), len(r.Skipped))
	for _, path := range r.Downloaded {
		fmt.Fprintf(&b, "  ok      %s\n", path)
	}
	for _, name := range r.Skipped {
		fmt.Fprintf(&b, "  skipped %s\n", name)
	}
	if len(r.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}
	return b.String()
}

// Run downloads every extract in the catalog for the given date. Templates
// are processed sequentially and in order; one file's failure never aborts
// the rest. The only failure Run itself reports is being unable to create
// the output directory, without which no file can be processed.
func Run(ctx context.Context, opts Options) (*BatchResult, error) {
	cfg := mergeConfig(opts.Config)

	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}
	templates := opts.Templates
	if len(templates) == 0 {
		templates = Catalog()
	}
	f := opts.Fetcher
	if f == nil {
		f = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "gias: create output dir %s", cfg.OutputDir)
	}

	token := date.Format(cfg.DateFormat)
	log := zap.L().With(zap.String("component", "gias.run"), zap.String("date", token))
	log.Info("starting run", zap.Int("templates", len(templates)))

	result := &BatchResult{}
	for _, tpl := range templates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		url := ExpandURL(tpl.URLPattern, cfg.BaseURL, token)
		finalPath := filepath.Join(cfg.OutputDir, tpl.OutputFile)
		tempPath := finalPath + ".tmp"

		r := FetchFile(ctx, f, url, finalPath, tempPath, *cfg.SizeAlertPercent)
		if !r.Success {
			result.Skipped = append(result.Skipped, tpl.OutputFile)
			continue
		}
		result.Downloaded = append(result.Downloaded, finalPath)
		if r.Warning != "" {
			result.Warnings = append(result.Warnings, r.Warning)
		}
	}

	log.Info("run complete",
		zap.Int("downloaded", len(result.Downloaded)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// mergeConfig overlays a caller-supplied config onto the defaults. Empty and
// nil fields keep their default value; nothing mutates between runs.
func mergeConfig(override *Config) Config {
	cfg := DefaultConfig()
	if override == nil {
		return cfg
	}
	if override.OutputDir != "" {
		cfg.OutputDir = override.OutputDir
	}
	if override.SizeAlertPercent != nil {
		cfg.SizeAlertPercent = override.SizeAlertPercent
	}
	if override.BaseURL != "" {
		cfg.BaseURL = override.BaseURL
	}
	if override.DateFormat != "" {
		cfg.DateFormat = override.DateFormat
	}
	return cfg
}
