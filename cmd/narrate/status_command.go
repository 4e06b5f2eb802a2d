package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"narrate/internal/api"
	"narrate/internal/preflight"
	"narrate/internal/store/backend"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check that the store, speech provider and ffmpeg are ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := withRequestID(cmd.Context())

			var opts preflight.Options
			var openErr error
			opened, err := backend.Open(runCtx, cfg)
			if err != nil {
				openErr = err
			} else {
				defer opened.Close()
				opts.Store = opened.Store
			}

			results := preflight.RunAll(runCtx, cfg, opts)
			if openErr != nil {
				for i := range results {
					if results[i].Name == "Store ("+cfg.Store.Backend+")" {
						results[i].Detail = openErr.Error()
					}
				}
			}
			summary := api.FromPreflightResults(cfg.Store.Backend, results)

			if jsonOut {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				fmt.Fprintln(out, "narrate status")
				for _, r := range results {
					kind := statusError
					switch {
					case r.Passed:
						kind = statusOK
					case r.Skipped:
						kind = statusInfo
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if !summary.Ready {
				return fmt.Errorf("%d readiness checks failed", len(preflight.Failed(results)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
