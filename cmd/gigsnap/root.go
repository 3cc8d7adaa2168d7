package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "gigsnap",
		Short:         "Concert media identification",
		Long:          "gigsnap links uploaded concert photos and videos to entries in a user's concert history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file")

	ctx := newCommandContext(&configFlag)
	rootCmd.AddCommand(newMediaCommand(ctx))
	rootCmd.AddCommand(newConcertsCommand(ctx))
	rootCmd.AddCommand(newUserCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	return rootCmd
}
