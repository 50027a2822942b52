package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/docktree/docktree/internal/config"
	"github.com/docktree/docktree/internal/initialization"
	"github.com/docktree/docktree/internal/server"
)

func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the docktree service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return runStart()
		},
	}

	return cmd
}

func runStart() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	deps, err := initialization.BuildDependencies(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build dependencies")
	}
	defer deps.Close()

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		TreeController:     deps.TreeController,
		ActivityController: deps.ActivityController,
		AuthSecret:         []byte(cfg.AuthSecret),
	})

	log.Info().Str("address", cfg.HTTPAddress).Msg("Starting docktree service")

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	log.Info().Msg("Docktree service stopped")
	return nil
}
