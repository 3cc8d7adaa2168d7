package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gigsnap/internal/config"
	"gigsnap/internal/library"
)

func newConcertsCommand(ctx *commandContext) *cobra.Command {
	concertsCmd := &cobra.Command{
		Use:   "concerts",
		Short: "Manage a user's concert history",
	}
	concertsCmd.AddCommand(newConcertsListCommand(ctx))
	concertsCmd.AddCommand(newConcertsAddCommand(ctx))
	return concertsCmd
}

func newConcertsListCommand(ctx *commandContext) *cobra.Command {
	var userFlag string
	var fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List concerts in a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userFlag) == "" {
				return fmt.Errorf("--user is required")
			}
			from, to, err := parseWindow(fromFlag, toFlag)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				concerts, err := store.ConcertsInWindow(cmd.Context(), userFlag, from, to)
				if err != nil {
					return err
				}
				if len(concerts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No concerts in window")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderConcertTable(concerts))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "User whose concerts to list")
	cmd.Flags().StringVar(&fromFlag, "from", "", "Window start (YYYY-MM-DD, default one year ago)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Window end (YYYY-MM-DD, default today)")
	return cmd
}

func newConcertsAddCommand(ctx *commandContext) *cobra.Command {
	var userFlag, dateFlag, endDateFlag, artistFlag, venueFlag, cityFlag, tourFlag string
	var latFlag, lngFlag float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a concert to a user's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userFlag) == "" || strings.TrimSpace(artistFlag) == "" {
				return fmt.Errorf("--user and --artist are required")
			}
			date, err := time.Parse("2006-01-02", dateFlag)
			if err != nil {
				return fmt.Errorf("parse --date: %w", err)
			}
			concert := &library.Concert{
				UserID:   userFlag,
				Date:     date,
				TourName: strings.TrimSpace(tourFlag),
				Artists: []library.ConcertArtist{
					{Name: strings.TrimSpace(artistFlag), Headliner: true, Position: 0},
				},
			}
			if endDateFlag != "" {
				endDate, err := time.Parse("2006-01-02", endDateFlag)
				if err != nil {
					return fmt.Errorf("parse --end-date: %w", err)
				}
				concert.EndDate = &endDate
			}
			if strings.TrimSpace(venueFlag) != "" {
				venue := &library.Venue{Name: strings.TrimSpace(venueFlag), City: strings.TrimSpace(cityFlag)}
				if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
					venue.Lat = &latFlag
					venue.Lng = &lngFlag
				}
				concert.Venue = venue
			}
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				saved, err := store.SaveConcert(cmd.Context(), concert)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added concert %s\n", saved.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "Owning user")
	cmd.Flags().StringVar(&dateFlag, "date", time.Now().Format("2006-01-02"), "Concert date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDateFlag, "end-date", "", "Festival end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&artistFlag, "artist", "", "Headliner name")
	cmd.Flags().StringVar(&venueFlag, "venue", "", "Venue name")
	cmd.Flags().StringVar(&cityFlag, "city", "", "Venue city")
	cmd.Flags().Float64Var(&latFlag, "lat", 0, "Venue latitude")
	cmd.Flags().Float64Var(&lngFlag, "lng", 0, "Venue longitude")
	cmd.Flags().StringVar(&tourFlag, "tour", "", "Tour name")
	return cmd
}

func parseWindow(fromValue, toValue string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.AddDate(-1, 0, 0)
	if strings.TrimSpace(fromValue) != "" {
		parsed, err := time.Parse("2006-01-02", fromValue)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --from: %w", err)
		}
		from = parsed
	}
	if strings.TrimSpace(toValue) != "" {
		parsed, err := time.Parse("2006-01-02", toValue)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --to: %w", err)
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
	}
	return from, to, nil
}
