package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"crchecker/internal/history"
)

const shortIDLength = 8

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent verification runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No verification runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 = all)")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show the tracks of one verification run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, history.ErrNotFound) || errors.Is(err, history.ErrAmbiguous) {
					return fmt.Errorf("run %q: %w", args[0], err)
				}
				return err
			}
			tracks, err := store.Tracks(cmd.Context(), entry.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeEntryDetails(out, entry)
			if len(tracks) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(tracks))
			for _, track := range tracks {
				rows = append(rows, []string{
					strconv.Itoa(track.Position),
					track.FileName,
					track.ExpectedChecksum,
					track.ActualChecksum,
					string(track.Status),
				})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable([]column{
				{header: "#", align: alignRight},
				{header: "File"},
				{header: "Expected"},
				{header: "Actual"},
				{header: "Status"},
			}, rows))
			return nil
		},
	}
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errors.New("history is disabled in the configuration")
	}
	return history.Open(cfg.History.Path)
}

func renderHistoryTable(entries []history.Entry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		tracks := "-"
		if entry.Tracks > 0 {
			tracks = fmt.Sprintf("%d/%d", entry.Tracks-entry.Failed, entry.Tracks)
		}
		rows = append(rows, []string{
			shortID(entry.ID),
			humanize.RelTime(entry.CreatedAt, now, "ago", "from now"),
			filepath.Base(entry.AlbumPath),
			entry.Status,
			tracks,
			formatDuration(entry.Duration),
		})
	}
	return renderTable([]column{
		{header: "ID"},
		{header: "When"},
		{header: "Album"},
		{header: "Status"},
		{header: "Tracks OK", align: alignRight},
		{header: "Duration", align: alignRight},
	}, rows)
}

func writeEntryDetails(out io.Writer, entry *history.Entry) {
	colorize := shouldColorize(out)
	fmt.Fprintf(out, "Run:       %s\n", entry.ID)
	fmt.Fprintf(out, "Album:     %s\n", entry.AlbumPath)
	if entry.LogFile != "" {
		fmt.Fprintf(out, "Log file:  %s\n", entry.LogFile)
	}
	fmt.Fprintf(out, "Status:    %s\n", paint(entry.Status, statusKindColor(runStatusKind(entry.Status)), colorize))
	fmt.Fprintf(out, "When:      %s\n", entry.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Duration:  %s\n", formatDuration(entry.Duration))
	if entry.ErrorKind != "" {
		fmt.Fprintf(out, "Error:     %s\n", entry.ErrorKind)
	}
	if msg := strings.TrimSpace(entry.ErrorMessage); msg != "" {
		fmt.Fprintf(out, "Message:   %s\n", msg)
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
