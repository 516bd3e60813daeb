package config

import "time"

// Config is the whole klipmi configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	Display   DisplayConfig   `yaml:"display" mapstructure:"display"`
	Moonraker MoonrakerConfig `yaml:"moonraker" mapstructure:"moonraker"`
	UI        UIConfig        `yaml:"ui" mapstructure:"ui"`
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DisplayConfig describes the serial link to the touchscreen.
type DisplayConfig struct {
	Device  string        `yaml:"device" mapstructure:"device"`   // Serial device path (e.g., "/dev/ttyS1")
	Baud    int           `yaml:"baud" mapstructure:"baud"`       // Line speed
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // How long a field read may take
}

// MoonrakerConfig locates the printer API.
type MoonrakerConfig struct {
	Host              string        `yaml:"host" mapstructure:"host"`
	Port              int           `yaml:"port" mapstructure:"port"`
	APIKey            string        `yaml:"api_key,omitempty" mapstructure:"api_key"` // Only needed when trusted_clients excludes this host
	ReconnectInterval time.Duration `yaml:"reconnect_interval" mapstructure:"reconnect_interval"`
}

// UIConfig tunes the page state machine.
type UIConfig struct {
	// InitialPage is a page name or id shown before Klipper reports.
	InitialPage string `yaml:"initial_page" mapstructure:"initial_page"`

	// OnCompletePage is entered when a print completes; empty stays on Printing.
	OnCompletePage string `yaml:"on_complete_page,omitempty" mapstructure:"on_complete_page"`
}

// APIConfig enables the HTTP debug API when Listen is set.
type APIConfig struct {
	Listen string `yaml:"listen,omitempty" mapstructure:"listen"`
}

// LogConfig sets the log level; empty keeps logging silent.
type LogConfig struct {
	Level string `yaml:"level,omitempty" mapstructure:"level"`
}

// Defaults for a stock OpenP4 printer.
const (
	DefaultDevice            = "/dev/ttyS1"
	DefaultBaud              = 115200
	DefaultDisplayTimeout    = 500 * time.Millisecond
	DefaultHost              = "localhost"
	DefaultPort              = 7125
	DefaultReconnectInterval = 5 * time.Second
	DefaultInitialPage       = "logo"
)

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Version: 1,
		Display: DisplayConfig{
			Device:  DefaultDevice,
			Baud:    DefaultBaud,
			Timeout: DefaultDisplayTimeout,
		},
		Moonraker: MoonrakerConfig{
			Host:              DefaultHost,
			Port:              DefaultPort,
			ReconnectInterval: DefaultReconnectInterval,
		},
		UI: UIConfig{
			InitialPage: DefaultInitialPage,
		},
	}
}
