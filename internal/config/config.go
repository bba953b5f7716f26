// Package config loads the server configuration from JSON. All fields are
// optional pointers so a partial file only overrides what it names; the Get*
// methods supply the defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults match the Onsala site the simulators are modelled on.
const (
	defaultListenAddr       = ":8080"
	defaultDatabasePath     = "observations.db"
	defaultSiteLongitudeDeg = 11.9186
	defaultSiteLatitudeDeg  = 57.3937
)

var defaultTelescopes = []string{"vale", "brage"}

// ServerConfig is the root configuration.
type ServerConfig struct {
	ListenAddr   *string `json:"listen_addr,omitempty"`
	DatabasePath *string `json:"database_path,omitempty"`

	// Site of the telescopes, in degrees.
	SiteLongitudeDeg *float64 `json:"site_longitude_deg,omitempty"`
	SiteLatitudeDeg  *float64 `json:"site_latitude_deg,omitempty"`

	// Telescope IDs to instantiate.
	Telescopes []string `json:"telescopes,omitempty"`

	// UpdateInterval is a duration string like "1s".
	UpdateInterval *string `json:"update_interval,omitempty"`
}

// EmptyServerConfig returns a ServerConfig with all fields unset.
func EmptyServerConfig() *ServerConfig {
	return &ServerConfig{}
}

// LoadServerConfig loads a ServerConfig from a JSON file. The path must end
// in .json and the file must be under 1MB. Fields omitted from the file keep
// their defaults, so partial configs are safe.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyServerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ServerConfig) Validate() error {
	if c.SiteLatitudeDeg != nil {
		if *c.SiteLatitudeDeg < -90 || *c.SiteLatitudeDeg > 90 {
			return fmt.Errorf("site_latitude_deg must be between -90 and 90, got %f", *c.SiteLatitudeDeg)
		}
	}
	if c.SiteLongitudeDeg != nil {
		if *c.SiteLongitudeDeg < -180 || *c.SiteLongitudeDeg > 180 {
			return fmt.Errorf("site_longitude_deg must be between -180 and 180, got %f", *c.SiteLongitudeDeg)
		}
	}
	if c.UpdateInterval != nil && *c.UpdateInterval != "" {
		if _, err := time.ParseDuration(*c.UpdateInterval); err != nil {
			return fmt.Errorf("invalid update_interval '%s': %w", *c.UpdateInterval, err)
		}
	}
	for _, id := range c.Telescopes {
		if id == "" {
			return fmt.Errorf("telescope ids must not be empty")
		}
	}
	return nil
}

// GetListenAddr returns the listen address or the default.
func (c *ServerConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return defaultListenAddr
	}
	return *c.ListenAddr
}

// GetDatabasePath returns the sqlite path or the default.
func (c *ServerConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return defaultDatabasePath
	}
	return *c.DatabasePath
}

// GetSiteLongitudeDeg returns the site longitude in degrees or the default.
func (c *ServerConfig) GetSiteLongitudeDeg() float64 {
	if c.SiteLongitudeDeg == nil {
		return defaultSiteLongitudeDeg
	}
	return *c.SiteLongitudeDeg
}

// GetSiteLatitudeDeg returns the site latitude in degrees or the default.
func (c *ServerConfig) GetSiteLatitudeDeg() float64 {
	if c.SiteLatitudeDeg == nil {
		return defaultSiteLatitudeDeg
	}
	return *c.SiteLatitudeDeg
}

// GetTelescopes returns the telescope IDs or the defaults.
func (c *ServerConfig) GetTelescopes() []string {
	if len(c.Telescopes) == 0 {
		return defaultTelescopes
	}
	return c.Telescopes
}

// GetUpdateInterval parses and returns the update interval, defaulting to 1s.
func (c *ServerConfig) GetUpdateInterval() time.Duration {
	if c.UpdateInterval == nil || *c.UpdateInterval == "" {
		return time.Second
	}
	d, err := time.ParseDuration(*c.UpdateInterval)
	if err != nil {
		return time.Second
	}
	return d
}
