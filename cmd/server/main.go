package main

import (
	"os"

	"github.com/dfryer1193/spacetraveling/shared/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env")
	}

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:           "spacetraveling",
		Short:         "Pre-generates and serves the blog's list and post pages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			if store, _ := cmd.Flags().GetString("store"); store != "" {
				loaded.PageStore = store
				if err := loaded.Validate(); err != nil {
					return err
				}
			}
			*cfg = *loaded
			setupLogging(cfg)
			return nil
		},
	}

	root.PersistentFlags().String("store", "", "page store backend (sqlite or redis); overrides PAGE_STORE")

	root.AddCommand(
		newServeCmd(cfg),
		newBuildCmd(cfg),
		newPostsCmd(cfg),
	)

	return root
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
