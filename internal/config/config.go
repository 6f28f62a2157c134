package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/jfmyers9/jellyctl/pkg/jellyfin"
)

// Config holds application configuration
type Config struct {
	// Server address, e.g. "http://jellyfin.local:8096"
	Server string

	// Device identity reported to the server. DeviceID is generated on
	// first login and persisted so the server sees one device.
	DeviceName string
	DeviceID   string

	// Path to the stored credentials file
	// Default: <config dir>/credentials.json
	CredentialsFile string

	// Path to the offline playback report queue
	// Default: <config dir>/reports.db
	QueuePath string

	// Skip TLS certificate verification
	Insecure bool

	// Request timeout in seconds
	Timeout int
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "jellyctl"
	}

	// Set defaults
	v.SetDefault("device_name", hostname)
	v.SetDefault("credentials_file", filepath.Join(configDir, "credentials.json"))
	v.SetDefault("queue_path", filepath.Join(configDir, "reports.db"))
	v.SetDefault("timeout", 30)

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables
	v.SetEnvPrefix("JELLYCTL")
	v.AutomaticEnv()

	cfg := &Config{
		Server:          v.GetString("server"),
		DeviceName:      v.GetString("device_name"),
		DeviceID:        v.GetString("device_id"),
		CredentialsFile: v.GetString("credentials_file"),
		QueuePath:       v.GetString("queue_path"),
		Insecure:        v.GetBool("insecure"),
		Timeout:         v.GetInt("timeout"),
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "jellyctl")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// Save writes configuration to file
func (c *Config) Save() error {
	v := viper.New()

	configDir := getConfigDir()
	configFile := filepath.Join(configDir, "config.yaml")

	v.Set("server", c.Server)
	v.Set("device_name", c.DeviceName)
	v.Set("device_id", c.DeviceID)
	v.Set("credentials_file", c.CredentialsFile)
	v.Set("queue_path", c.QueuePath)
	v.Set("insecure", c.Insecure)
	v.Set("timeout", c.Timeout)

	return v.WriteConfigAs(configFile)
}

// ReadCredentials loads stored server credentials from the credentials
// file. A missing file yields empty credentials, not an error.
func (c *Config) ReadCredentials() (jellyfin.Credentials, error) {
	var creds jellyfin.Credentials

	data, err := os.ReadFile(c.CredentialsFile)
	if os.IsNotExist(err) {
		return creds, nil
	}
	if err != nil {
		return creds, fmt.Errorf("failed to read credentials file: %w", err)
	}

	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return creds, nil
}

// WriteCredentials persists server credentials to the credentials file.
// The file is written with owner-only permissions since it holds access
// tokens.
func (c *Config) WriteCredentials(creds jellyfin.Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if dir := filepath.Dir(c.CredentialsFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}

	if err := os.WriteFile(c.CredentialsFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}
