package config

const (
	defaultDataDir            = "~/.local/share/clipchimp"
	defaultMediaDir           = "~/.local/share/clipchimp/media"
	defaultLogDir             = "~/.local/share/clipchimp/logs"
	defaultHost               = "127.0.0.1"
	defaultBasePort           = 4600
	defaultPortSpan           = 50
	defaultProxyBind          = "127.0.0.1:4545"
	defaultHealthAttempts     = 8
	defaultHealthBaseDelayMS  = 250
	defaultHealthMaxDelayMS   = 5000
	defaultLockStaleSeconds   = 30
	defaultShutdownGraceSecs  = 5
	defaultMaxConcurrent      = 2
	defaultStartsPerMinute    = 6.0
	defaultOutputTemplate     = "%(title)s.%(ext)s"
	defaultWhisperModel       = "base"
	defaultWhisperLanguage    = "en"
	defaultOllamaEndpoint     = "http://127.0.0.1:11434"
	defaultOllamaModel        = "qwen2.5:7b"
	defaultChunkMinutes       = 5
	defaultAnalysisTimeoutSec = 120
	defaultPollInterval       = 3
	defaultErrorRetryInterval = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			MediaDir: defaultMediaDir,
			LogDir:   defaultLogDir,
		},
		Server: Server{
			Host:               defaultHost,
			BasePort:           defaultBasePort,
			PortSpan:           defaultPortSpan,
			ProxyBind:          defaultProxyBind,
			HealthAttempts:     defaultHealthAttempts,
			HealthBaseDelayMS:  defaultHealthBaseDelayMS,
			HealthMaxDelayMS:   defaultHealthMaxDelayMS,
			LockStaleSeconds:   defaultLockStaleSeconds,
			ShutdownGraceSecs:  defaultShutdownGraceSecs,
			CompanionLogToFile: true,
		},
		Downloads: Downloads{
			MaxConcurrent:  defaultMaxConcurrent,
			StartsPerMin:   defaultStartsPerMinute,
			OutputTemplate: defaultOutputTemplate,
		},
		Transcription: Transcription{
			Model:    defaultWhisperModel,
			Language: defaultWhisperLanguage,
		},
		Analysis: Analysis{
			OllamaEndpoint: defaultOllamaEndpoint,
			Model:          defaultOllamaModel,
			ChunkMinutes:   defaultChunkMinutes,
			TimeoutSeconds: defaultAnalysisTimeoutSec,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
