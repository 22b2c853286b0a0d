// Package main hosts the crchecker CLI entrypoint and command graph.
//
// The root command verifies one album directory: it parses the extraction
// log, decodes every FLAC file, compares checksums, prints the report, and
// optionally saves it next to the audio. Subcommands inspect past runs
// (history), check the environment (doctor), and scaffold configuration.
//
// Keep this package lean: verification logic lives in internal/verification
// and its collaborators; commands here only wire configuration, logging, and
// terminal interaction around it.
package main
