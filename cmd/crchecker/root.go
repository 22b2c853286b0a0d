package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var verbose bool
	var overrides configOverrides
	var albumPath string
	var save bool

	ctx := newCommandContext(&configFlag, &verbose, &overrides)

	rootCmd := &cobra.Command{
		Use:   "crchecker --path DIR [--save]",
		Short: "Verify FLAC rips against the CRCs in their extraction log",
		Long: "crchecker decodes every FLAC file in an album directory, computes the CRC-32\n" +
			"of the raw audio, and compares it with the \"Copy CRC\" lines of the ripping\n" +
			"tool's extraction log.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, ctx, albumPath, save)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror debug logs to stderr")

	flags := rootCmd.Flags()
	flags.StringVarP(&albumPath, "path", "p", "", "Path to the FLAC files and extraction log")
	flags.BoolVarP(&save, "save", "s", false, "Save the verification report next to the audio files")
	flags.IntVar(&overrides.workers, "workers", -1, "Concurrent decodes (0 = one per CPU; default from config)")
	flags.StringVar(&overrides.backend, "backend", "", "Decoder backend: external or native (default from config)")
	flags.BoolVar(&overrides.noHistory, "no-history", false, "Do not record this run in the history database")
	_ = rootCmd.MarkFlagRequired("path")

	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
