package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muurk/klipmi/internal/app"
	"github.com/muurk/klipmi/internal/config"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.txt")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestReplayFile(t *testing.T) {
	pages, err := app.ResolveUI(config.New().UI, nil)
	if err != nil {
		t.Fatalf("ResolveUI() error = %v", err)
	}

	tests := []struct {
		name    string
		script  string
		wantCmd string
		wantErr string
	}{
		{
			name:    "bed heater",
			script:  "expect page main\ntouch 5\ninput input.txt 60\ntouch 31\nexpect page main\n",
			wantCmd: "SET_HEATER_TEMPERATURE HEATER=heater_bed TARGET=60",
		},
		{
			name:    "failed expectation",
			script:  "expect page control\n",
			wantErr: "expected page",
		},
		{
			name:    "syntax error",
			script:  "wiggle 3\n",
			wantErr: "line 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := replayFile(context.Background(), pages, writeScript(t, tt.script))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("replayFile() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("replayFile() error = %v", err)
			}
			found := false
			for _, c := range cmds {
				if c == tt.wantCmd {
					found = true
				}
			}
			if !found {
				t.Errorf("commands = %v, want %q", cmds, tt.wantCmd)
			}
		})
	}
}

func TestReplayFileMissing(t *testing.T) {
	pages, _ := app.ResolveUI(config.New().UI, nil)
	if _, err := replayFile(context.Background(), pages, filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("replayFile() error = nil, want error for missing file")
	}
}

func TestFormatMetadata(t *testing.T) {
	got := formatMetadata(map[string]string{"version": "v0.9", "api": "1"})
	if got != "api=1 version=v0.9" {
		t.Errorf("formatMetadata() = %q, want sorted pairs", got)
	}
	if got := formatMetadata(nil); got != "" {
		t.Errorf("formatMetadata(nil) = %q, want empty", got)
	}
}
