package main

import (
	"github.com/prperemyshlev/page-manager/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:   "server",
		Short: "Facebook Page manager",
		Long: `Manage the posts, comments and insights of connected Facebook Pages.

Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before the environment (default .env)")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		return config.Load(cmd.Context(), envFiles...)
	}

	serve := newServeCmd(load)
	root.RunE = serve.RunE
	root.AddCommand(serve, newMigrateCmd(load))

	return root
}
