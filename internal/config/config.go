// Package config loads the calhub configuration file.
//
// The configuration lives in a TOML file, looked up first in the current
// directory and then in $HOME/.config/calhub/. Every section has working
// defaults so a missing file only disables the providers that need
// credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is the configuration file name looked up on disk.
const DefaultFileName = "calhub.toml"

// Config is the top-level calhub configuration.
type Config struct {
	Google  GoogleConfig  `toml:"google"`
	Outlook OutlookConfig `toml:"outlook"`
	Device  DeviceConfig  `toml:"device"`
	SMS     SMSConfig     `toml:"sms"`
	Sync    SyncConfig    `toml:"sync"`
}

// GoogleConfig holds the OAuth client for the Google provider.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// OutlookConfig holds the OAuth client for the Microsoft Graph provider.
// The authorization-code flow runs against
// login.microsoftonline.com/{tenant}/oauth2/v2.0.
type OutlookConfig struct {
	ClientID    string `toml:"client_id"`
	TenantID    string `toml:"tenant_id"`
	RedirectURI string `toml:"redirect_uri"`
}

// DeviceConfig configures the local device calendar store.
type DeviceConfig struct {
	// StorePath is the directory holding the local calendar store.
	// Defaults to $HOME/.local/share/calhub/calendars.
	StorePath string `toml:"store_path"`

	// AppCalendar is the display name of the app-owned calendar.
	AppCalendar string `toml:"app_calendar"`
}

// SMSConfig configures the SMS invite gateway.
type SMSConfig struct {
	// Command is the gateway binary used to send messages.
	Command string `toml:"command"`
}

// SyncConfig configures the sync cycle.
type SyncConfig struct {
	// WindowDays bounds the fetch window; 0 means one year.
	WindowDays int `toml:"window_days"`

	// ProviderTimeout caps how long one provider may delay the merge.
	ProviderTimeout duration `toml:"provider_timeout"`

	// WatchSchedule is a cron expression driving watch mode
	// (e.g. "*/15 * * * *").
	WatchSchedule string `toml:"watch_schedule"`
}

// duration lets TOML carry Go duration strings like "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns a configuration with all defaults applied and no
// provider credentials.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration from path. An empty path triggers the
// standard lookup: ./calhub.toml, then $HOME/.config/calhub/calhub.toml.
// A missing file in the standard lookup is not an error; defaults apply.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil && !explicit {
		path = filepath.Join(os.Getenv("HOME"), ".config", "calhub", DefaultFileName)
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if explicit {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return Default(), nil
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Device.StorePath == "" {
		c.Device.StorePath = filepath.Join(os.Getenv("HOME"), ".local", "share", "calhub", "calendars")
	}
	if c.Device.AppCalendar == "" {
		c.Device.AppCalendar = "Calhub"
	}
	if c.SMS.Command == "" {
		c.SMS.Command = "termux-sms-send"
	}
	if c.Sync.WindowDays <= 0 {
		c.Sync.WindowDays = 365
	}
	if c.Sync.ProviderTimeout.Duration <= 0 {
		c.Sync.ProviderTimeout.Duration = 30 * time.Second
	}
	if c.Sync.WatchSchedule == "" {
		c.Sync.WatchSchedule = "*/15 * * * *"
	}
	if c.Outlook.TenantID == "" {
		c.Outlook.TenantID = "common"
	}
}

// ProviderTimeoutDuration returns the per-provider fetch timeout.
func (c *Config) ProviderTimeoutDuration() time.Duration {
	return c.Sync.ProviderTimeout.Duration
}
