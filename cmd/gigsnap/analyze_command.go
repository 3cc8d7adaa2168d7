package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gigsnap/internal/analysis"
	"gigsnap/internal/catalog"
	"gigsnap/internal/config"
	"gigsnap/internal/library"
	"gigsnap/internal/logging"
	"gigsnap/internal/matching"
	"gigsnap/internal/media/ffmpeg"
	"gigsnap/internal/storage"
	"gigsnap/internal/vision"
)

// newAnalyzeCommand runs the full pipeline for one media item in-process,
// without the daemon. Useful for reprocessing a single failed item.
func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <media-id>",
		Short: "Run analysis for one media item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				logger, err := logging.New(logging.Options{
					Level:  cfg.Logging.Level,
					Format: cfg.Logging.Format,
				})
				if err != nil {
					return err
				}

				objects, err := storage.New(cmd.Context(), cfg.Storage, logger)
				if err != nil {
					return err
				}
				sampler := ffmpeg.NewSampler(
					cfg.FFmpeg.FFmpegBinary,
					cfg.FFmpeg.FFprobeBinary,
					time.Duration(cfg.FFmpeg.TimeoutSeconds)*time.Second,
					logger,
				)
				visionClient := vision.NewClient(vision.Config{
					APIKey:         cfg.Vision.APIKey,
					BaseURL:        cfg.Vision.BaseURL,
					Model:          cfg.Vision.Model,
					Referer:        cfg.Vision.Referer,
					Title:          cfg.Vision.Title,
					TimeoutSeconds: cfg.Vision.TimeoutSeconds,
				}, logger)
				matcher := matching.NewEngine(matching.Policy{
					GPSRadiusKM:         cfg.Matcher.GPSRadiusKM,
					MinDateBufferDays:   cfg.Matcher.MinDateBufferDays,
					SuggestionThreshold: cfg.Matcher.SuggestionThreshold,
					AutoMatchThreshold:  cfg.Matcher.AutoMatchThreshold,
				}, logger)

				var artistCatalog analysis.ArtistCatalog
				if cfg.Catalog.Enabled {
					artistCatalog = cliCatalog{client: catalog.New(cfg.Catalog, logger)}
				}

				orchestrator := analysis.NewOrchestrator(analysis.Options{
					Store:               store,
					Objects:             objects,
					Sampler:             sampler,
					Vision:              visionClient,
					Matcher:             matcher,
					Catalog:             artistCatalog,
					CandidateWindowDays: cfg.Matcher.CandidateWindowDays,
					StageTimeout:        time.Duration(cfg.Workflow.StageTimeoutSeconds) * time.Second,
					Logger:              logger,
				})

				if err := orchestrator.Analyze(cmd.Context(), args[0]); err != nil {
					return err
				}
				item, err := store.GetMediaItem(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Analysis %s: %s\n", item.ID, item.AnalysisStatus)
				if item.ConcertID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Matched concert: %s\n", item.ConcertID)
				}
				return nil
			})
		},
	}
}

type cliCatalog struct {
	client *catalog.Client
}

func (c cliCatalog) SearchArtist(ctx context.Context, name string) (analysis.CatalogArtist, error) {
	hit, err := c.client.SearchArtist(ctx, name)
	if err != nil {
		return analysis.CatalogArtist{}, err
	}
	return analysis.CatalogArtist{MBID: hit.MBID, Name: hit.Name}, nil
}
