// Package config loads, normalizes, and validates Podmill configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WHISPER_API_KEY and ART19_API_TOKEN, including values loaded from a .env
// file beside the config. The Config type centralizes every knob the daemon
// and CLI need, allowing inbox/staging directories and platform credentials to
// be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
