// Package logging builds the slog loggers used by the narrate CLI and studio.
//
// A logger writes either a compact console format or JSON to stdout, and can
// tee a JSON copy of every record into a file. Context helpers attach the
// request id, workflow name and slide key carried by services contexts so
// workflow code does not repeat them at each call site.
package logging
