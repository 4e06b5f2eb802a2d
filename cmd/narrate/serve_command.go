package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"narrate/internal/deps"
	"narrate/internal/logging"
	"narrate/internal/preflight"
	"narrate/internal/studio"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the studio HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := ctx.openRuntime(runCtx, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			serverCfg := rt.cfg.Server
			if b := strings.TrimSpace(bind); b != "" {
				serverCfg.Bind = b
			}

			for _, failed := range preflight.Failed(preflight.RunAll(runCtx, rt.cfg, preflight.Options{Store: rt.store.Store})) {
				logging.WarnWithContext(rt.logger, "preflight check failed", "preflight_failed",
					logging.String("check", failed.Name),
					logging.String("detail", failed.Detail),
					logging.String(logging.FieldErrorHint, "run 'narrate status' for details"),
				)
			}
			if !rt.tts {
				logging.WarnWithContext(rt.logger, "tts api key not configured; generation requests will fail", "tts_unconfigured",
					logging.String(logging.FieldErrorHint, "set ELEVENLABS_API_KEY or tts.api_key"),
				)
			}

			srv, err := studio.New(studio.Options{
				Workflows:  rt.svc,
				Server:     serverCfg,
				Backend:    rt.store.Name,
				TTSEnabled: rt.tts,
				Dependencies: func() []deps.Status {
					return preflight.CheckSystemDeps(rt.cfg)
				},
				Logger: rt.logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Studio API listening on %s (backend %s)\n", serverCfg.Bind, rt.store.Name)
			return srv.ListenAndServe(runCtx)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind")
	return cmd
}
