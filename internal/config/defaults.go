package config

const (
	defaultDataDir               = "~/.local/share/gigsnap"
	defaultLogDir                = "~/.local/share/gigsnap/logs"
	defaultLogFormat             = ""
	defaultLogLevel              = "info"
	defaultStorageBucket         = "gigsnap-media"
	defaultPresignExpiryMinutes  = 60
	defaultVisionBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultVisionModel           = "google/gemini-3-flash-preview"
	defaultVisionTimeoutSeconds  = 60
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultFFmpegTimeoutSeconds  = 60
	defaultGPSRadiusKM           = 3.0
	defaultMinDateBufferDays     = 1
	defaultSuggestionThreshold   = 0.40
	defaultAutoMatchThreshold    = 0.80
	defaultCandidateWindowDays   = 10
	defaultCatalogBaseURL        = "https://musicbrainz.org/ws/2"
	defaultCatalogTimeoutSeconds = 15
	defaultPollIntervalSeconds   = 5
	defaultMaxConcurrent         = 4
	defaultStageTimeoutSeconds   = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Storage: Storage{
			Bucket:               defaultStorageBucket,
			PresignExpiryMinutes: defaultPresignExpiryMinutes,
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			Model:          defaultVisionModel,
			TimeoutSeconds: defaultVisionTimeoutSeconds,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultFFmpegTimeoutSeconds,
		},
		Matcher: Matcher{
			GPSRadiusKM:         defaultGPSRadiusKM,
			MinDateBufferDays:   defaultMinDateBufferDays,
			SuggestionThreshold: defaultSuggestionThreshold,
			AutoMatchThreshold:  defaultAutoMatchThreshold,
			CandidateWindowDays: defaultCandidateWindowDays,
		},
		Catalog: Catalog{
			BaseURL:        defaultCatalogBaseURL,
			TimeoutSeconds: defaultCatalogTimeoutSeconds,
		},
		Workflow: Workflow{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxConcurrent:       defaultMaxConcurrent,
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
