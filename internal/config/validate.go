package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDecoder(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateVerify(); err != nil {
		return err
	}
	if err := c.validateReport(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDecoder() error {
	switch c.Decoder.Backend {
	case BackendExternal, BackendNative:
	default:
		return fmt.Errorf("decoder.backend: unsupported value %q (want %q or %q)", c.Decoder.Backend, BackendExternal, BackendNative)
	}
	if err := ensurePositiveMap(map[string]int{
		"decoder.download_timeout": c.Decoder.DownloadTimeout,
	}); err != nil {
		return err
	}
	if c.Decoder.TimeoutSeconds < 0 {
		return errors.New("decoder.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateScan() error {
	if strings.EqualFold(c.Scan.AudioExtension, c.Scan.LogExtension) {
		return errors.New("scan.audio_extension and scan.log_extension must differ")
	}
	return nil
}

func (c *Config) validateVerify() error {
	if c.Verify.Workers < 0 {
		return errors.New("verify.workers must be zero (one per CPU) or positive")
	}
	return nil
}

func (c *Config) validateReport() error {
	if filepath.Base(c.Report.FileName) != c.Report.FileName {
		return fmt.Errorf("report.file_name must be a bare file name, got %q", c.Report.FileName)
	}
	if _, err := htmlindex.Get(c.Report.Encoding); err != nil {
		return fmt.Errorf("report.encoding: unknown encoding %q", c.Report.Encoding)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
