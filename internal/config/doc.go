// Package config loads and saves the klipmi configuration file.
//
// The file is YAML and lives in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/klipmi/config.yaml or $HOME/.config/klipmi/config.yaml
//   - macOS: $HOME/.config/klipmi/config.yaml
//   - Windows: %LOCALAPPDATA%\klipmi\config.yaml
//
// Values resolve in this order: KLIPMI_* environment variables, the file,
// then built-in defaults. Nested keys use an underscore in the variable
// name, so moonraker.host becomes KLIPMI_MOONRAKER_HOST.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Security
//
// moonraker.api_key is stored in plain text; the file is written with
// user-only permissions (0600).
package config
