package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDecoder()
	c.normalizeScan()
	c.normalizeReport()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if strings.TrimSpace(c.Paths.ToolsDir) == "" {
		c.Paths.ToolsDir = defaultToolsDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ToolsDir, err = expandPath(c.Paths.ToolsDir); err != nil {
		return fmt.Errorf("paths.tools_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDecoder() {
	c.Decoder.Backend = strings.ToLower(strings.TrimSpace(c.Decoder.Backend))
	if c.Decoder.Backend == "" {
		c.Decoder.Backend = defaultDecoderBackend
	}
	c.Decoder.Binary = strings.TrimSpace(c.Decoder.Binary)
	c.Decoder.DownloadURL = strings.TrimSpace(c.Decoder.DownloadURL)
	if c.Decoder.DownloadURL == "" {
		c.Decoder.DownloadURL = defaultDecoderDownloadURL
	}
}

func (c *Config) normalizeScan() {
	c.Scan.AudioExtension = normalizeExtension(c.Scan.AudioExtension, defaultAudioExtension)
	c.Scan.LogExtension = normalizeExtension(c.Scan.LogExtension, defaultLogExtension)
	if strings.TrimSpace(c.Scan.CRCMarker) == "" {
		c.Scan.CRCMarker = defaultCRCMarker
	}
}

func normalizeExtension(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, ".") {
		value = "." + value
	}
	return value
}

func (c *Config) normalizeReport() {
	c.Report.FileName = strings.TrimSpace(c.Report.FileName)
	if c.Report.FileName == "" {
		c.Report.FileName = defaultReportFileName
	}
	c.Report.Encoding = strings.ToLower(strings.TrimSpace(c.Report.Encoding))
	if c.Report.Encoding == "" {
		c.Report.Encoding = defaultReportEncoding
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, "history.db")
		return nil
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
