package main

import (
	"os/signal"
	"syscall"

	"github.com/danmuck/converge/internal/auth"
	"github.com/danmuck/converge/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent and its admin API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, ag, err := loadAgent(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var validator auth.Validator
			if cfg.AdminToken != "" {
				validator = auth.StaticToken{Token: cfg.AdminToken}
			}
			srv := server.New(ag, cfg.AdminAddr, cfg.CorsOrigins, validator)
			serveErr := make(chan error, 1)
			go func() {
				serveErr <- srv.Serve(ctx)
			}()
			agentErr := make(chan error, 1)
			go func() {
				agentErr <- ag.Start(ctx)
			}()

			log.Info().Str("agent", cfg.ID).Str("admin_addr", cfg.AdminAddr).Msg("convergectl serve")
			select {
			case err := <-serveErr:
				stop()
				<-agentErr
				return err
			case err := <-agentErr:
				stop()
				if serr := <-serveErr; err == nil {
					err = serr
				}
				return err
			}
		},
	}
}

