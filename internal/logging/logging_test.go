package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gregLibert/sle4442/pkg/config"
	"github.com/rs/zerolog"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantLevel zerolog.Level
		wantDebug bool
	}{
		{"Info", false, zerolog.InfoLevel, false},
		{"Debug", true, zerolog.DebugLevel, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "logs", "sle4442.log")

			logger, closer, err := Init(config.LogConfig{File: path, Debug: tc.debug})
			if err != nil {
				t.Fatalf("Init failed: %v", err)
			}

			if logger.GetLevel() != tc.wantLevel {
				t.Errorf("level = %s, want %s", logger.GetLevel(), tc.wantLevel)
			}

			logger.Debug().Msg("debug line")
			logger.Info().Str("reader", "r0").Msg("info line")
			if err := closer.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("log file not written: %v", err)
			}
			out := string(raw)

			if !strings.Contains(out, `"message":"info line"`) {
				t.Errorf("missing info line in %q", out)
			}
			if got := strings.Contains(out, "debug line"); got != tc.wantDebug {
				t.Errorf("debug line present = %v, want %v", got, tc.wantDebug)
			}
		})
	}
}
