package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RogerHowellDfE/gias-data/internal/config"
	"github.com/RogerHowellDfE/gias-data/internal/fetcher"
	"github.com/RogerHowellDfE/gias-data/internal/gias"
	"github.com/RogerHowellDfE/gias-data/internal/history"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download all GIAS extracts for a date",
	Long: `Download every extract in the catalog for the given date (default: today).

Individual files that fail to download or validate are skipped and reported;
the command still exits 0. A non-zero exit only means the run itself could
not proceed, e.g. the output directory could not be created.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "download"))

		date, err := parseDateFlag(cmd, cfg.Gias.DateFormat)
		if err != nil {
			return err
		}

		templates, err := resolveTemplates(cfg.Gias)
		if err != nil {
			return err
		}

		opts := gias.Options{
			Date: date,
			Config: &gias.Config{
				OutputDir:        cfg.Gias.OutputDir,
				SizeAlertPercent: &cfg.Gias.SizeAlertPercent,
				BaseURL:          cfg.Gias.BaseURL,
				DateFormat:       cfg.Gias.DateFormat,
			},
			Templates: templates,
			Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent:         cfg.Gias.UserAgent,
				Timeout:           time.Duration(cfg.Gias.TimeoutSecs) * time.Second,
				RequestsPerSecond: cfg.Gias.RequestsPerSecond,
			}),
		}

		if out, _ := cmd.Flags().GetString("output"); out != "" {
			opts.Config.OutputDir = out
		}

		token := date.Format(cfg.Gias.DateFormat)
		log.Info("starting download", zap.String("date", token))

		var hist *history.Log
		var runID string
		if cfg.Gias.HistoryDB != "" {
			hist, err = history.Open(cfg.Gias.HistoryDB)
			if err != nil {
				return eris.Wrap(err, "download: open history db")
			}
			defer hist.Close() //nolint:errcheck
			if err := hist.Migrate(ctx); err != nil {
				return eris.Wrap(err, "download: migrate history db")
			}
			if runID, err = hist.Start(ctx, token); err != nil {
				return eris.Wrap(err, "download: record run start")
			}
		}

		result, err := gias.Run(ctx, opts)
		if err != nil {
			if hist != nil {
				if logErr := hist.Fail(ctx, runID, err.Error()); logErr != nil {
					log.Error("failed to record run failure", zap.Error(logErr))
				}
			}
			return eris.Wrap(err, "download")
		}

		if hist != nil {
			if err := hist.Complete(ctx, runID, result); err != nil {
				log.Error("failed to record run completion", zap.Error(err))
			}
		}

		fmt.Print(result.Summary())
		return nil
	},
}

func init() {
	downloadCmd.Flags().String("date", "", "date token to download (per configured date format, default today)")
	downloadCmd.Flags().String("output", "", "override the output directory")
	rootCmd.AddCommand(downloadCmd)
}

// parseDateFlag resolves the --date flag against the configured date layout.
// An empty flag means the current date.
func parseDateFlag(cmd *cobra.Command, layout string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "download: parse date %q with layout %q", raw, layout)
	}
	return date, nil
}

// resolveTemplates returns the catalog override from the templates file, or
// nil so the built-in catalog is used.
func resolveTemplates(gcfg config.GiasConfig) ([]gias.Template, error) {
	if gcfg.TemplatesFile == "" {
		return nil, nil
	}
	templates, err := gias.LoadTemplates(gcfg.TemplatesFile)
	if err != nil {
		return nil, eris.Wrap(err, "download: load templates")
	}
	return templates, nil
}
