package serial

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyS1")
	if cfg.Device != "/dev/ttyS1" {
		t.Errorf("Device = %q, want /dev/ttyS1", cfg.Device)
	}
	if cfg.Baud != DefaultBaud {
		t.Errorf("Baud = %d, want %d", cfg.Baud, DefaultBaud)
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"no device", &Config{Baud: DefaultBaud}},
		{"missing device", DefaultConfig(filepath.Join(t.TempDir(), "ttyNONE"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, err := Open(tt.cfg)
			if err == nil {
				port.Close()
				t.Fatal("Open() error = nil, want error")
			}
		})
	}
}
