package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crchecker/internal/deps"
	"crchecker/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration, decoder and writable directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failed := false

			lines := renderSectionHeader("Configuration", colorize)
			source := ctx.configPath
			if !ctx.configExists {
				source += " (not found; defaults in use)"
			}
			lines = append(lines,
				renderStatusLine("Config file", statusInfo, source, colorize),
				renderStatusLine("Decoder backend", statusInfo, cfg.Decoder.Backend, colorize),
				renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d", cfg.Workers()), colorize),
			)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			statuses := preflight.CheckSystemDeps(cfg)
			if len(statuses) == 0 {
				lines = append(lines, renderStatusLine("Decoder", statusOK, "built-in FLAC decoder", colorize))
			}
			depLines, missing := dependencyLines(statuses, colorize)
			lines = append(lines, depLines...)
			failed = failed || missing

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed = true
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failed {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}

// dependencyLines renders one status line per dependency and reports whether
// a required one is missing.
func dependencyLines(statuses []deps.Status, colorize bool) ([]string, bool) {
	lines := make([]string, 0, len(statuses)+1)
	var missing []string
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		} else {
			missing = append(missing, dep.Name)
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn,
			fmt.Sprintf("%s (install flac or set decoder.backend = \"native\")", strings.Join(missing, ", ")), colorize))
	}
	return lines, len(missing) > 0
}
