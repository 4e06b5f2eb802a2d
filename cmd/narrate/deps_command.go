package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"narrate/internal/api"
	"narrate/internal/deps"
	"narrate/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries narrate relies on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cfg)
			if jsonOut {
				return writeJSON(cmd, api.FromDependencyStatuses(statuses))
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				detail := s.Detail
				if s.Available {
					detail = s.Command
				}
				rows = append(rows, []string{s.Name, yesNo(s.Available), detail, s.Description})
			}
			fmt.Fprintln(out, renderTable([]string{"Dependency", "Available", "Detail", "Used for"}, rows, nil, !isTerminal(out)))
			if missing := deps.Missing(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, m := range missing {
					names = append(names, m.Name)
				}
				return fmt.Errorf("missing dependencies: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
