package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"narrate/internal/api"
	"narrate/internal/config"
	"narrate/internal/workflow"
)

func newSaveTextCommand(ctx *commandContext) *cobra.Command {
	var textFlag string
	var fileFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "save-text <deck> <slide>",
		Short: "Replace one slide's narration in the deck document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDeckArg(args[0])
			if err != nil {
				return err
			}
			slide, err := parseSlideArg(args[1])
			if err != nil {
				return err
			}
			textSet := cmd.Flags().Changed("text")
			if textSet == (fileFlag != "") {
				return errors.New("specify exactly one of --text or --file")
			}
			text := textFlag
			if fileFlag != "" {
				text, err = readTextSource(cmd.InOrStdin(), fileFlag)
				if err != nil {
					return err
				}
			}

			runCtx := withRequestID(cmd.Context())
			rt, err := ctx.openRuntime(runCtx, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.svc.SaveNarrationText(runCtx, id.String(), slide, text)
			if err != nil {
				return describeError(err)
			}
			resp := api.FromTextResult(result)
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Message)
			if result.Changed && result.ManifestUpdated {
				fmt.Fprintln(out, "Existing audio is now outdated until it is regenerated or re-recorded")
			}
			if resp.Warning != "" {
				fmt.Fprintf(out, "warning: %s\n", resp.Warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&textFlag, "text", "", "New narration text")
	cmd.Flags().StringVar(&fileFlag, "file", "", "Read narration from a file (- for stdin)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newSaveAudioCommand(ctx *commandContext) *cobra.Command {
	var narration string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "save-audio <deck> <slide> <file>",
		Short: "Store a recording for one slide and protect it from generation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDeckArg(args[0])
			if err != nil {
				return err
			}
			slide, err := parseSlideArg(args[1])
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[2])
			if err != nil {
				return err
			}
			audio, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read recording: %w", err)
			}

			runCtx := withRequestID(cmd.Context())
			rt, err := ctx.openRuntime(runCtx, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			req := workflow.RecordingRequest{Deck: id.String(), Slide: slide, Audio: audio}
			if cmd.Flags().Changed("narration") {
				req.Narration = &narration
			}
			result, err := rt.svc.SaveRecording(runCtx, req)
			if err != nil {
				return describeError(err)
			}
			resp := api.FromRecordingResult(result)
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d bytes at %s)\n", resp.Message, resp.Bytes, resp.Path)
			if resp.Warning != "" {
				fmt.Fprintf(out, "warning: %s\n", resp.Warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&narration, "narration", "", "Narration text the recording was made against")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func readTextSource(stdin io.Reader, source string) (string, error) {
	var data []byte
	var err error
	if strings.TrimSpace(source) == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		var path string
		path, err = config.ExpandPath(source)
		if err != nil {
			return "", err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read narration: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
