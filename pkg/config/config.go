package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"

	EnvHubSpotAccessToken = "HUBSPOT_ACCESS_TOKEN"
	EnvXeroClientID       = "XERO_CLIENT_ID"
	EnvXeroClientSecret   = "XERO_CLIENT_SECRET"
)

var ErrMissingCredentials = errors.New("credentials not set in configuration")

type HubSpotOptions struct {
	AccessToken string `yaml:"accessToken"`
	// BaseURL overrides the public API host, e.g. for a sandbox
	BaseURL string `yaml:"baseUrl,omitempty"`
	// Currency deal amounts are displayed in
	Currency string `yaml:"currency,omitempty"`
}

type XeroOptions struct {
	ClientID       string `yaml:"clientId"`
	ClientSecret   string `yaml:"clientSecret"`
	TokenURL       string `yaml:"tokenUrl,omitempty"`
	ConnectionsURL string `yaml:"connectionsUrl,omitempty"`
	APIBaseURL     string `yaml:"apiBaseUrl,omitempty"`
}

// Config holds the application configuration
type Config struct {
	HubSpot HubSpotOptions `yaml:"hubspot"`
	Xero    XeroOptions    `yaml:"xero"`
}

var (
	// Global configuration instance
	globalConfig *Config
	// Path the global configuration was loaded from
	globalConfigPath = DefaultConfigPath
	// Mutex to ensure thread-safe access to the global configuration
	configMutex sync.RWMutex
	// Flag to track if the configuration has been loaded
	configLoaded bool
)

// LoadConfig loads the configuration from the specified YAML file and applies
// environment overrides on top of it
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.ApplyEnv(os.LookupEnv)
	return &config, nil
}

// ApplyEnv overrides credentials with any that are present in the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvHubSpotAccessToken); ok && v != "" {
		c.HubSpot.AccessToken = v
	}
	if v, ok := lookup(EnvXeroClientID); ok && v != "" {
		c.Xero.ClientID = v
	}
	if v, ok := lookup(EnvXeroClientSecret); ok && v != "" {
		c.Xero.ClientSecret = v
	}
}

// InitGlobalConfig initializes the global configuration from the specified file
func InitGlobalConfig(configPath string) error {
	configMutex.Lock()
	globalConfigPath = configPath
	configMutex.Unlock()

	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = config
	configLoaded = true
	return nil
}

// GetConfig returns the global configuration instance.
// If the configuration hasn't been loaded yet, it is loaded from the last path
// given to InitGlobalConfig (./config.yaml by default), and a default file is
// written when none exists.
func GetConfig() (*Config, error) {
	configMutex.RLock()
	if configLoaded {
		defer configMutex.RUnlock()
		return globalConfig, nil
	}
	configPath := globalConfigPath
	configMutex.RUnlock()

	err := InitGlobalConfig(configPath)
	if err == nil {
		configMutex.RLock()
		defer configMutex.RUnlock()
		return globalConfig, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	defaultConfig, err := writeDefaultConfig(configPath)
	if err != nil {
		return nil, err
	}
	defaultConfig.ApplyEnv(os.LookupEnv)

	configMutex.Lock()
	globalConfig = defaultConfig
	configLoaded = true
	configMutex.Unlock()

	return defaultConfig, nil
}

func writeDefaultConfig(configPath string) (*Config, error) {
	dir := filepath.Dir(configPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("error creating config directory: %w", err)
		}
	}

	defaultConfig := &Config{
		HubSpot: HubSpotOptions{Currency: "USD"},
	}

	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating default config: %w", err)
	}

	// Credentials end up in this file, keep it private
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return nil, fmt.Errorf("error writing default config: %w", err)
	}
	return defaultConfig, nil
}

// GetHubSpotOptions returns the CRM options, failing when no access token is set
func GetHubSpotOptions() (HubSpotOptions, error) {
	config, err := GetConfig()
	if err != nil {
		return HubSpotOptions{}, err
	}

	if config.HubSpot.AccessToken == "" {
		return HubSpotOptions{}, fmt.Errorf("hubspot access token (%s): %w", EnvHubSpotAccessToken, ErrMissingCredentials)
	}

	return config.HubSpot, nil
}

// GetXeroOptions returns the accounting options, failing when the client
// id/secret pair is incomplete
func GetXeroOptions() (XeroOptions, error) {
	config, err := GetConfig()
	if err != nil {
		return XeroOptions{}, err
	}

	if config.Xero.ClientID == "" || config.Xero.ClientSecret == "" {
		return XeroOptions{}, fmt.Errorf("xero client id/secret (%s, %s): %w",
			EnvXeroClientID, EnvXeroClientSecret, ErrMissingCredentials)
	}

	return config.Xero, nil
}
