package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gigsnap/internal/config"
	"gigsnap/internal/library"
	"gigsnap/internal/logging"
	"gigsnap/internal/storage"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage per-user data",
	}
	userCmd.AddCommand(newUserPurgeCommand(ctx))
	return userCmd
}

// purgeListLimit bounds how many media objects one purge run will remove.
// The row deletion is all-or-nothing, so an overflowing listing aborts the
// purge instead of orphaning objects.
const purgeListLimit = 10000

func newUserPurgeCommand(ctx *commandContext) *cobra.Command {
	var yesFlag bool

	cmd := &cobra.Command{
		Use:   "purge <user-id>",
		Short: "Delete all of a user's media, concerts, and stored objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yesFlag {
				return fmt.Errorf("purge deletes all data for the user; pass --yes to confirm")
			}
			userID := args[0]
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

				items, err := store.ListMediaForUser(cmd.Context(), userID, purgeListLimit)
				if err != nil {
					return err
				}
				if len(items) == purgeListLimit {
					return fmt.Errorf("user has %d or more media items, above the purge limit", purgeListLimit)
				}
				for _, item := range items {
					if err := objects.Remove(cmd.Context(), item.StorageKey); err != nil {
						logger.Warn("media object removal failed",
							logging.String("key", item.StorageKey),
							logging.Error(err))
					}
					if item.ThumbnailKey == "" {
						continue
					}
					if err := objects.Remove(cmd.Context(), item.ThumbnailKey); err != nil {
						logger.Warn("thumbnail removal failed",
							logging.String("key", item.ThumbnailKey),
							logging.Error(err))
					}
				}

				if err := store.DeleteUserData(cmd.Context(), userID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d media items and all concerts for %s\n", len(items), userID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yesFlag, "yes", false, "Confirm the deletion")
	return cmd
}
