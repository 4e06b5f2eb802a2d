package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"narrate/internal/api"
)

const narrationPreviewRunes = 60

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list [deck]",
		Short: "Show narration and audio status for decks or one deck's slides",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := withRequestID(cmd.Context())
			rt, err := ctx.openRuntime(runCtx, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			plain := !isTerminal(out)

			if len(args) == 0 {
				modules, err := rt.svc.ListModules(runCtx)
				if err != nil {
					return describeError(err)
				}
				resp := api.FromModuleSummaries(modules)
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				if len(resp.Modules) == 0 {
					fmt.Fprintln(out, "No decks found")
					return nil
				}
				rows := make([][]string, 0, len(resp.Modules))
				for _, m := range resp.Modules {
					rows = append(rows, []string{
						m.Module,
						strconv.Itoa(m.Slides),
						strconv.Itoa(m.WithNarration),
						strconv.Itoa(m.WithAudio),
						strconv.Itoa(m.Current),
						strconv.Itoa(m.Outdated),
						strconv.Itoa(m.Unverified),
						strconv.Itoa(m.None),
					})
				}
				headers := []string{"Deck", "Slides", "Narrated", "Audio", "Current", "Outdated", "Unverified", "None"}
				aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
				fmt.Fprintln(out, renderTable(headers, rows, aligns, plain))
				return nil
			}

			id, err := parseDeckArg(args[0])
			if err != nil {
				return err
			}
			slides, err := rt.svc.ListSlides(runCtx, id.String())
			if err != nil {
				return describeError(err)
			}
			resp := api.FromSlideStatuses(id.String(), slides)
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			rows := make([][]string, 0, len(resp.Slides))
			for _, s := range resp.Slides {
				origin := s.Origin
				if origin == "" {
					origin = "-"
				}
				rows = append(rows, []string{
					strconv.Itoa(s.Index),
					s.Status,
					origin,
					yesNo(s.AudioExists),
					preview(s.Narration),
				})
			}
			headers := []string{"Slide", "Status", "Origin", "Audio", "Narration"}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns, plain))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= narrationPreviewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:narrationPreviewRunes-3]) + "..."
}
