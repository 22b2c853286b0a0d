// Package services defines shared utilities consumed by the verification
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and track positions
//     for logging.
//   - The error catalogue: one sentinel per fatal verification condition plus
//     the Wrap helper that adds stage context without hiding the sentinel.
//
// Use these helpers when wiring new pipeline steps so error classification
// and observability stay uniform.
package services
