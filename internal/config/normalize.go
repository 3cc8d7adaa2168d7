package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeVision()
	c.normalizeFFmpeg()
	c.normalizeMatcher()
	c.normalizeCatalog()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() {
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = defaultStorageBucket
	}
	c.Storage.AccessKey = strings.TrimSpace(c.Storage.AccessKey)
	if c.Storage.AccessKey == "" {
		if value, ok := os.LookupEnv("GIGSNAP_STORAGE_ACCESS_KEY"); ok {
			c.Storage.AccessKey = strings.TrimSpace(value)
		}
	}
	c.Storage.SecretKey = strings.TrimSpace(c.Storage.SecretKey)
	if c.Storage.SecretKey == "" {
		if value, ok := os.LookupEnv("GIGSNAP_STORAGE_SECRET_KEY"); ok {
			c.Storage.SecretKey = strings.TrimSpace(value)
		}
	}
	if c.Storage.PresignExpiryMinutes <= 0 {
		c.Storage.PresignExpiryMinutes = defaultPresignExpiryMinutes
	}
}

func (c *Config) normalizeVision() {
	c.Vision.BaseURL = strings.TrimSpace(c.Vision.BaseURL)
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = defaultVisionBaseURL
	}
	c.Vision.Model = strings.TrimSpace(c.Vision.Model)
	if c.Vision.Model == "" {
		c.Vision.Model = defaultVisionModel
	}
	c.Vision.Referer = strings.TrimSpace(c.Vision.Referer)
	c.Vision.Title = strings.TrimSpace(c.Vision.Title)
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeoutSeconds
	}
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	if c.Vision.APIKey == "" {
		if value, ok := os.LookupEnv("GIGSNAP_VISION_API_KEY"); ok {
			c.Vision.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Vision.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.FFmpegBinary = strings.TrimSpace(c.FFmpeg.FFmpegBinary)
	if c.FFmpeg.FFmpegBinary == "" {
		c.FFmpeg.FFmpegBinary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	if c.FFmpeg.TimeoutSeconds <= 0 {
		c.FFmpeg.TimeoutSeconds = defaultFFmpegTimeoutSeconds
	}
}

func (c *Config) normalizeMatcher() {
	if c.Matcher.GPSRadiusKM <= 0 {
		c.Matcher.GPSRadiusKM = defaultGPSRadiusKM
	}
	if c.Matcher.MinDateBufferDays <= 0 {
		c.Matcher.MinDateBufferDays = defaultMinDateBufferDays
	}
	if c.Matcher.SuggestionThreshold <= 0 {
		c.Matcher.SuggestionThreshold = defaultSuggestionThreshold
	}
	if c.Matcher.AutoMatchThreshold <= 0 {
		c.Matcher.AutoMatchThreshold = defaultAutoMatchThreshold
	}
	if c.Matcher.CandidateWindowDays <= 0 {
		c.Matcher.CandidateWindowDays = defaultCandidateWindowDays
	}
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = strings.TrimSpace(c.Catalog.BaseURL)
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	c.Catalog.TokenURL = strings.TrimSpace(c.Catalog.TokenURL)
	c.Catalog.ClientID = strings.TrimSpace(c.Catalog.ClientID)
	c.Catalog.ClientSecret = strings.TrimSpace(c.Catalog.ClientSecret)
	if c.Catalog.ClientSecret == "" {
		if value, ok := os.LookupEnv("GIGSNAP_CATALOG_CLIENT_SECRET"); ok {
			c.Catalog.ClientSecret = strings.TrimSpace(value)
		}
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Workflow.MaxConcurrent <= 0 {
		c.Workflow.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Workflow.StageTimeoutSeconds <= 0 {
		c.Workflow.StageTimeoutSeconds = defaultStageTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		c.Logging.Format = ""
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
