package verification

import (
	"fmt"
	"strings"
)

const (
	// DefaultReportName is the file a saved report is written to.
	DefaultReportName = "crchecker.log"
	// Version heads every report.
	Version = "CRChecker v0.0.2"

	reportTimeLayout = "02/01/2006 15:04:05"
	separatorWidth   = 50
)

// RenderReport formats run as the plain-text report. The layout is fixed:
// existing saved reports are compared against it byte for byte.
func RenderReport(run *Run, version string) string {
	if version == "" {
		version = Version
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nFiles verified on %s\n\n", version, run.Timestamp.Format(reportTimeLayout))
	fmt.Fprintf(&b, "Status: %s\n\n%s\n\n", run.Status, strings.Repeat("-", separatorWidth))
	for _, t := range run.Tracks {
		fmt.Fprintf(&b, "Track %d: %s\n", t.Position, t.FileName)
		fmt.Fprintf(&b, "Copy CRC: %s | Verified CRC: %s | Status: %s\n", t.ExpectedChecksum, t.ActualChecksum, t.Status)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
