// Package config loads, normalizes, and validates narrate configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as GITHUB_TOKEN and ELEVENLABS_API_KEY. The Config type
// centralizes every knob the CLI and studio server need, so store backends and
// the speech provider are configured in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
