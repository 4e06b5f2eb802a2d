// Package api defines wire-format types and converters shared by the studio
// HTTP API and the CLI's --json output. It translates workflow results into
// transport-friendly DTOs that the browser studio can render without coupling
// to internal types.
//
// # Key Types
//
// SlideView: one slide's narration plus its derived audio status.
//
// ModuleView: per-deck counts of narrated, recorded and stale slides.
//
// RecordingResponse, TextResponse, GenerateResponse: results of the three
// write workflows.
//
// BatchView: per-slide outcomes and totals of a deck generation run.
//
// ErrorEnvelope: the error body returned for every failed request.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Enums are exposed as
// lowercase strings. Timestamps use RFC3339 with milliseconds in UTC.
package api
