package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Endpoint == "" {
		return errors.New("storage.endpoint must be set (MinIO or S3-compatible host:port)")
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return errors.New("storage credentials are required; set storage.access_key/secret_key or GIGSNAP_STORAGE_ACCESS_KEY/GIGSNAP_STORAGE_SECRET_KEY")
	}
	return nil
}

func (c *Config) validateMatcher() error {
	if c.Matcher.SuggestionThreshold < 0 || c.Matcher.SuggestionThreshold > 1 {
		return errors.New("matcher.suggestion_threshold must be between 0 and 1")
	}
	if c.Matcher.AutoMatchThreshold < 0 || c.Matcher.AutoMatchThreshold > 1 {
		return errors.New("matcher.auto_match_threshold must be between 0 and 1")
	}
	if c.Matcher.AutoMatchThreshold < c.Matcher.SuggestionThreshold {
		return fmt.Errorf(
			"matcher.auto_match_threshold (%.2f) must be >= matcher.suggestion_threshold (%.2f)",
			c.Matcher.AutoMatchThreshold, c.Matcher.SuggestionThreshold,
		)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if !c.Catalog.Enabled {
		return nil
	}
	if c.Catalog.TokenURL == "" {
		return errors.New("catalog.token_url must be set when catalog.enabled is true")
	}
	if c.Catalog.ClientID == "" || c.Catalog.ClientSecret == "" {
		return errors.New("catalog client credentials are required when catalog.enabled is true")
	}
	return nil
}
