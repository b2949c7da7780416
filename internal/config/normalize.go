package config

import "strings"

func (c *Config) normalize() error {
	var err error

	for _, field := range []*string{
		&c.Paths.DataDir,
		&c.Paths.MediaDir,
		&c.Paths.LogDir,
		&c.Paths.StaticDir,
	} {
		if strings.TrimSpace(*field) == "" {
			continue
		}
		*field, err = expandPath(*field)
		if err != nil {
			return err
		}
	}

	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	c.Server.ProxyBind = strings.TrimSpace(c.Server.ProxyBind)
	c.Server.CompanionBinary = strings.TrimSpace(c.Server.CompanionBinary)

	if c.Server.BasePort <= 0 {
		c.Server.BasePort = defaultBasePort
	}
	if c.Server.PortSpan <= 0 {
		c.Server.PortSpan = defaultPortSpan
	}
	if c.Server.HealthAttempts <= 0 {
		c.Server.HealthAttempts = defaultHealthAttempts
	}
	if c.Server.HealthBaseDelayMS <= 0 {
		c.Server.HealthBaseDelayMS = defaultHealthBaseDelayMS
	}
	if c.Server.HealthMaxDelayMS <= 0 {
		c.Server.HealthMaxDelayMS = defaultHealthMaxDelayMS
	}
	if c.Server.LockStaleSeconds <= 0 {
		c.Server.LockStaleSeconds = defaultLockStaleSeconds
	}
	if c.Server.ShutdownGraceSecs <= 0 {
		c.Server.ShutdownGraceSecs = defaultShutdownGraceSecs
	}

	if c.Downloads.MaxConcurrent <= 0 {
		c.Downloads.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Downloads.StartsPerMin <= 0 {
		c.Downloads.StartsPerMin = defaultStartsPerMinute
	}
	if strings.TrimSpace(c.Downloads.OutputTemplate) == "" {
		c.Downloads.OutputTemplate = defaultOutputTemplate
	}

	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultWhisperLanguage
	}

	c.Analysis.OllamaEndpoint = strings.TrimRight(strings.TrimSpace(c.Analysis.OllamaEndpoint), "/")
	if c.Analysis.OllamaEndpoint == "" {
		c.Analysis.OllamaEndpoint = defaultOllamaEndpoint
	}
	c.Analysis.Model = strings.TrimSpace(c.Analysis.Model)
	if c.Analysis.Model == "" {
		c.Analysis.Model = defaultOllamaModel
	}
	if c.Analysis.ChunkMinutes <= 0 {
		c.Analysis.ChunkMinutes = defaultChunkMinutes
	}
	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = defaultAnalysisTimeoutSec
	}

	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaultPollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
