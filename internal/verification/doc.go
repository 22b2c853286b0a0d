// Package verification runs an album check end to end.
//
// A Verifier discovers the audio files and extraction log of a directory,
// parses the expected checksums, resolves every file's track position,
// decodes and checksums each file, and aggregates the outcome into a Run.
// Rendering and saving the report are separate steps (RenderReport,
// SaveReport) so callers decide whether a report is persisted.
//
// Every position is resolved before any file is decoded, so tag problems
// fail fast and duplicate or out-of-range positions never reach the
// decoder. Per-track mismatches are recorded as StatusFailed and are not
// errors.
package verification
