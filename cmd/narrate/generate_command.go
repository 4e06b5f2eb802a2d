package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"narrate/internal/api"
	"narrate/internal/deck"
	"narrate/internal/store"
	"narrate/internal/workflow"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var slide int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "generate [module]",
		Short: "Generate speech for narrated slides whose audio is missing or stale",
		Long: "Generate speech for one module (\"5\" or \"module-05\") or, with --all, for\n" +
			"modules 1 through batch.module_count. Custom recordings are never replaced\n" +
			"and unchanged slides are skipped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("specify a module number or --all")
			}
			if all && slide > 0 {
				return errors.New("--slide requires a single module")
			}

			runCtx := withRequestID(cmd.Context())
			rt, err := ctx.openRuntime(runCtx, runtimeOptions{requireTTS: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			unlock, err := acquireBatchLock(rt.cfg.Batch.LockPath)
			if err != nil {
				return err
			}
			defer unlock()

			var decks []deck.ID
			if all {
				for n := 1; n <= rt.cfg.Batch.ModuleCount; n++ {
					id, err := deck.FromNumber(n)
					if err != nil {
						return err
					}
					decks = append(decks, id)
				}
			} else {
				id, err := parseDeckArg(args[0])
				if err != nil {
					return err
				}
				decks = []deck.ID{id}
			}

			out := cmd.OutOrStdout()
			progress := out
			if jsonOut {
				progress = io.Discard
			}
			fmt.Fprintf(progress, "Using voice: %s\n", rt.voiceID)

			if slide > 0 {
				return runSingleSlide(runCtx, cmd, rt, decks[0], slide, jsonOut)
			}

			var batches []api.BatchView
			var total workflow.BatchSummary
			for _, id := range decks {
				summary, err := rt.svc.GenerateDeck(runCtx, id.String())
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						fmt.Fprintf(progress, "%s not found, skipping\n", filepath.Base(rt.svc.Layout().DocumentPath(id)))
						continue
					}
					return describeError(err)
				}
				fmt.Fprintf(progress, "\nProcessing %s...\n", id)
				for _, result := range summary.Slides {
					fmt.Fprintln(progress, "  "+describeResult(result))
				}
				total.Generated += summary.Generated
				total.Unchanged += summary.Unchanged
				total.Protected += summary.Protected
				total.NoNarration += summary.NoNarration
				total.Failed += summary.Failed
				batches = append(batches, api.FromBatchSummary(summary))
			}

			if jsonOut {
				if batches == nil {
					batches = []api.BatchView{}
				}
				if err := writeJSON(cmd, batches); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "----------------------------------------")
				fmt.Fprintf(out, "Done: %d generated, %d unchanged, %d no narration, %d protected, %d failed\n",
					total.Generated, total.Unchanged, total.NoNarration, total.Protected, total.Failed)
			}
			if total.Failed > 0 {
				return fmt.Errorf("%d slide(s) failed; re-run to retry", total.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Generate every module from 1 to batch.module_count")
	cmd.Flags().IntVar(&slide, "slide", 0, "Generate a single slide of the module")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func runSingleSlide(runCtx context.Context, cmd *cobra.Command, rt *commandRuntime, id deck.ID, slide int, jsonOut bool) error {
	slides, err := rt.svc.ListSlides(runCtx, id.String())
	if err != nil {
		return describeError(err)
	}
	if slide > len(slides) {
		return fmt.Errorf("slide %d not found in %s (%d slides)", slide, id, len(slides))
	}
	var text string
	found := false
	for _, s := range slides {
		if s.Index == slide {
			text, found = s.Narration, s.HasNarration
			break
		}
	}
	key := rt.svc.Layout().Key(id, slide)
	var result workflow.GenerateResult
	if !found || text == "" {
		result = workflow.GenerateResult{Key: key, Status: workflow.StatusNoNarration}
	} else {
		result, err = rt.svc.GenerateAudio(runCtx, id.String(), slide, text)
		if err != nil {
			return describeError(err)
		}
	}
	if jsonOut {
		return writeJSON(cmd, api.FromGenerateResult(result))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "  "+describeResult(result))
	if result.Warning != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  warning: %s\n", result.Warning)
	}
	return nil
}

func describeResult(result workflow.GenerateResult) string {
	name := result.Key.FileName()
	switch result.Status {
	case workflow.StatusGenerated:
		return fmt.Sprintf("✓ %s (generated)", name)
	case workflow.StatusUnchanged:
		return fmt.Sprintf("○ %s (unchanged)", name)
	case workflow.StatusProtected:
		return fmt.Sprintf("⊘ %s (custom recording - skipped)", name)
	case workflow.StatusNoNarration:
		return fmt.Sprintf("○ %s (no narration)", name)
	case workflow.StatusFailed:
		return fmt.Sprintf("✗ %s (error: %s)", name, result.Error)
	default:
		return fmt.Sprintf("? %s (%s)", name, result.Status)
	}
}

// acquireBatchLock takes the single-instance generate lock without waiting.
func acquireBatchLock(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire generate lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another generate run holds %s", path)
	}
	return func() { _ = lock.Unlock() }, nil
}
