package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gigsnap/internal/analysis"
	"gigsnap/internal/config"
	"gigsnap/internal/library"
)

func newMediaCommand(ctx *commandContext) *cobra.Command {
	mediaCmd := &cobra.Command{
		Use:   "media",
		Short: "Inspect media items and their analysis state",
	}
	mediaCmd.AddCommand(newMediaListCommand(ctx))
	mediaCmd.AddCommand(newMediaShowCommand(ctx))
	return mediaCmd
}

func newMediaListCommand(ctx *commandContext) *cobra.Command {
	var userFlag string
	var statusFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List media items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				var items []*library.MediaItem
				var err error
				switch {
				case strings.TrimSpace(userFlag) != "":
					items, err = store.ListMediaForUser(cmd.Context(), userFlag, limitFlag)
				case strings.TrimSpace(statusFlag) != "":
					status, ok := library.ParseStatus(statusFlag)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFlag)
					}
					items, err = store.ListMediaByStatus(cmd.Context(), status, limitFlag)
				default:
					items, err = store.ListMediaByStatus(cmd.Context(), library.StatusPending, limitFlag)
				}
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No media items found")
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderMediaTable(items))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "List media for one user")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by analysis status")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum rows to show")
	return cmd
}

func newMediaShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <media-id>",
		Short: "Show one media item including its analysis payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				item, err := store.GetMediaItem(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:        %s\n", item.ID)
				fmt.Fprintf(out, "User:      %s\n", item.UserID)
				fmt.Fprintf(out, "Type:      %s\n", item.MediaType)
				fmt.Fprintf(out, "File:      %s\n", item.OriginalFilename)
				fmt.Fprintf(out, "Status:    %s\n", item.AnalysisStatus)
				if item.AnalysisStatus == library.StatusProcessing {
					hint := analysis.RetryAfter(time.Since(item.UpdatedAt), item.MediaType)
					fmt.Fprintf(out, "Poll in:   %dms\n", hint)
				}
				if item.AnalysisError != "" {
					fmt.Fprintf(out, "Error:     %s\n", item.AnalysisError)
				}
				fmt.Fprintf(out, "Taken at:  %s\n", formatTakenAt(item.TakenAt))
				if item.LocationLat != nil && item.LocationLng != nil {
					fmt.Fprintf(out, "Location:  %.5f, %.5f\n", *item.LocationLat, *item.LocationLng)
				}
				if item.ThumbnailKey != "" {
					fmt.Fprintf(out, "Thumbnail: %s\n", item.ThumbnailKey)
				}
				fmt.Fprintf(out, "Concert:   %s\n", formatConcert(item.ConcertID))
				if item.AIAnalysisJSON != "" {
					fmt.Fprintln(out, "Analysis:")
					fmt.Fprintln(out, indentJSON(item.AIAnalysisJSON))
				}
				return nil
			})
		},
	}
}

func formatTakenAt(takenAt *time.Time) string {
	if takenAt == nil {
		return "-"
	}
	return takenAt.UTC().Format("2006-01-02 15:04")
}

func formatConcert(concertID string) string {
	if concertID == "" {
		return "-"
	}
	return concertID
}

func indentJSON(raw string) string {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	pretty, err := json.MarshalIndent(decoded, "  ", "  ")
	if err != nil {
		return raw
	}
	return "  " + string(pretty)
}
