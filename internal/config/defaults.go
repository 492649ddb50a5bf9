package config

const (
	defaultInputDir            = "~/.local/share/autolib/input"
	defaultLibraryDir          = "~/audiobooks"
	defaultManualDir           = "~/.local/share/autolib/manual"
	defaultLogDir              = "~/.local/share/autolib/logs"
	defaultAPIBind             = "127.0.0.1:8139"
	defaultDebounceWindow      = 30
	defaultRegroupPolicy       = "fresh"
	defaultProbableThreshold   = 75.0
	defaultMatchingTimeout     = 10
	defaultFFmpegPath          = "ffmpeg"
	defaultFFprobePath         = "ffprobe"
	defaultBitrate             = "128k"
	defaultCodec               = "aac"
	defaultMaxWorkers          = 4
	defaultMaxOrganizeAttempts = 3
	defaultTickInterval        = 1
	defaultErrorRetryInterval  = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultNotifyTimeout       = 10
)

// RegroupFresh and RegroupMerge are the accepted ingest regroup policies.
const (
	RegroupFresh = "fresh"
	RegroupMerge = "merge"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:   defaultInputDir,
			LibraryDir: defaultLibraryDir,
			ManualDir:  defaultManualDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Ingest: Ingest{
			DebounceWindowSeconds: defaultDebounceWindow,
			AllowedExtensions:     []string{".mp3", ".m4a", ".m4b", ".flac", ".ogg", ".zip"},
			RegroupPolicy:         defaultRegroupPolicy,
		},
		Matching: Matching{
			Providers:         []string{"openlibrary", "googlebooks"},
			ProbableThreshold: defaultProbableThreshold,
			RequestTimeout:    defaultMatchingTimeout,
		},
		Conversion: Conversion{
			FFmpegPath:  defaultFFmpegPath,
			FFprobePath: defaultFFprobePath,
			Bitrate:     defaultBitrate,
			Codec:       defaultCodec,
		},
		Review: Review{
			Enabled: true,
		},
		Workers: Workers{
			Max:                 defaultMaxWorkers,
			MaxOrganizeAttempts: defaultMaxOrganizeAttempts,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Identification: true,
			Review:         true,
			Organization:   true,
			Errors:         true,
		},
		Workflow: Workflow{
			TickInterval:       defaultTickInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
