package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "klipmi"
	configFile = "config.yaml"
	envPrefix  = "KLIPMI"
)

// fileMutex serialises writes from this process.
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/klipmi or $HOME/.config/klipmi
//   - macOS: $HOME/.config/klipmi
//   - Windows: %LOCALAPPDATA%\klipmi
func GetConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil
	}

	if runtime.GOOS != "darwin" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration. An empty path means the default location.
// A missing file is not an error: defaults and KLIPMI_* environment
// variables still apply (e.g., KLIPMI_MOONRAKER_HOST).
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys the
// file never mentions.
func setDefaults(v *viper.Viper) {
	d := New()
	v.SetDefault("version", d.Version)
	v.SetDefault("display.device", d.Display.Device)
	v.SetDefault("display.baud", d.Display.Baud)
	v.SetDefault("display.timeout", d.Display.Timeout)
	v.SetDefault("moonraker.host", d.Moonraker.Host)
	v.SetDefault("moonraker.port", d.Moonraker.Port)
	v.SetDefault("moonraker.api_key", "")
	v.SetDefault("moonraker.reconnect_interval", d.Moonraker.ReconnectInterval)
	v.SetDefault("ui.initial_page", d.UI.InitialPage)
	v.SetDefault("ui.on_complete_page", "")
	v.SetDefault("api.listen", "")
	v.SetDefault("log.level", "")
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Display.Device == "" {
		errs = append(errs, errors.New("display.device must be set"))
	}
	if c.Display.Baud <= 0 {
		errs = append(errs, fmt.Errorf("display.baud must be positive, got %d", c.Display.Baud))
	}
	if c.Display.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("display.timeout must be positive, got %s", c.Display.Timeout))
	}
	if c.Moonraker.Host == "" {
		errs = append(errs, errors.New("moonraker.host must be set"))
	}
	if c.Moonraker.Port <= 0 || c.Moonraker.Port > 65535 {
		errs = append(errs, fmt.Errorf("moonraker.port out of range: %d", c.Moonraker.Port))
	}
	if c.Moonraker.ReconnectInterval <= 0 {
		errs = append(errs, fmt.Errorf("moonraker.reconnect_interval must be positive, got %s", c.Moonraker.ReconnectInterval))
	}
	if c.UI.InitialPage == "" {
		errs = append(errs, errors.New("ui.initial_page must be set"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	return errors.Join(errs...)
}

// fileView is the on-disk shape; durations are written as strings so the
// file stays hand-editable.
type fileView struct {
	Version   int           `yaml:"version"`
	Display   displayView   `yaml:"display"`
	Moonraker moonrakerView `yaml:"moonraker"`
	UI        UIConfig      `yaml:"ui"`
	API       APIConfig     `yaml:"api,omitempty"`
	Log       LogConfig     `yaml:"log,omitempty"`
}

type displayView struct {
	Device  string `yaml:"device"`
	Baud    int    `yaml:"baud"`
	Timeout string `yaml:"timeout"`
}

type moonrakerView struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	APIKey            string `yaml:"api_key,omitempty"`
	ReconnectInterval string `yaml:"reconnect_interval"`
}

func (c *Config) view() fileView {
	var f fileView
	f.Version = c.Version
	f.Display.Device = c.Display.Device
	f.Display.Baud = c.Display.Baud
	f.Display.Timeout = c.Display.Timeout.String()
	f.Moonraker.Host = c.Moonraker.Host
	f.Moonraker.Port = c.Moonraker.Port
	f.Moonraker.APIKey = c.Moonraker.APIKey
	f.Moonraker.ReconnectInterval = c.Moonraker.ReconnectInterval.String()
	f.UI = c.UI
	f.API = c.API
	f.Log = c.Log
	return f
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c.view())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path (the default location when empty).
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	header := []byte(`# klipmi configuration file
# Every key can be overridden with a KLIPMI_ environment variable,
# e.g. KLIPMI_MOONRAKER_HOST=printer.local
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
