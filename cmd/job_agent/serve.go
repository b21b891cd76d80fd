package main

import (
	"fmt"

	"github.com/jonathan/job-agent/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: "Start an HTTP server exposing sessions, profile storage, job fetching, generation " +
			"(plain and streamed) and feedback revision.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			store, err := a.profileStore(ctx)
			if err != nil {
				return err
			}
			cache, err := a.sessionCache(ctx)
			if err != nil {
				return err
			}

			srv, err := server.New(a.cfg, server.Deps{
				Orchestrator: a.orch,
				Jobs:         a.jobs,
				Profiles:     store,
				Sessions:     cache,
				Logger:       a.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			a.logger.Info("starting server",
				zap.Int("port", a.cfg.Server.Port),
				zap.String("provider", a.cfg.LLM.Provider),
				zap.Bool("postgres", a.cfg.Database.URL != ""),
				zap.Bool("redis", a.cfg.Session.RedisURL != ""))
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (overrides server.port)")
	return cmd
}
