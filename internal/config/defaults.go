package config

const (
	defaultStateDir               = "~/.local/share/crchecker"
	defaultLogDir                 = "~/.local/share/crchecker/logs"
	defaultToolsDir               = "~/.local/share/crchecker/tools"
	defaultHistoryPath            = "~/.local/share/crchecker/history.db"
	defaultDecoderBackend         = BackendExternal
	defaultDecoderDownloadURL     = "https://ftp.osuosl.org/pub/xiph/releases/flac/flac-1.4.3-win.zip"
	defaultDecoderDownloadTimeout = 300
	defaultAudioExtension         = ".flac"
	defaultLogExtension           = ".log"
	defaultCRCMarker              = "Copy CRC"
	defaultWorkers                = 1
	defaultReportFileName         = "crchecker.log"
	defaultReportEncoding         = "windows-1252"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Decoder backends.
const (
	BackendExternal = "external"
	BackendNative   = "native"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			ToolsDir: defaultToolsDir,
		},
		Decoder: Decoder{
			Backend:         defaultDecoderBackend,
			DownloadURL:     defaultDecoderDownloadURL,
			DownloadTimeout: defaultDecoderDownloadTimeout,
		},
		Scan: Scan{
			AudioExtension: defaultAudioExtension,
			LogExtension:   defaultLogExtension,
			CRCMarker:      defaultCRCMarker,
		},
		Verify: Verify{
			Workers: defaultWorkers,
		},
		Report: Report{
			FileName: defaultReportFileName,
			Encoding: defaultReportEncoding,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
