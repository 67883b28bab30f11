package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/jukebox.db",
			expected: filepath.Join(home, "jukebox.db"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/var/lib/jukebox/jukebox.db",
			expected: "/var/lib/jukebox/jukebox.db",
		},
		{
			name:     "relative path unchanged",
			input:    "data/jukebox.db",
			expected: "data/jukebox.db",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Spotify.DeviceName != "Jukebox" {
		t.Errorf("Spotify.DeviceName = %q, want Jukebox", cfg.Spotify.DeviceName)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB <= 0 {
		t.Errorf("Log.MaxSizeMB = %d, want positive", cfg.Log.MaxSizeMB)
	}
}
