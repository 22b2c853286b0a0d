// Package config loads, normalizes, and validates crchecker configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI needs: decoder backend and location, scan extensions, worker pool size,
// report encoding, and the history database.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
