// Package main hosts the narrate CLI entrypoint and command graph.
//
// The Cobra-based command tree lists deck status, runs batch generation,
// saves narration edits and recordings, and serves the studio HTTP API. It
// centralizes configuration resolution, store backend selection and
// structured logging setup so subcommands only translate flags into workflow
// calls and render the results.
//
// Keep this package lean: behaviour belongs in internal/workflow, and
// commands here should stay declarative.
package main
