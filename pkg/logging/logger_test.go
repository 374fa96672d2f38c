package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelWarn {
		t.Errorf("Expected default level to be warn, got %s", cfg.Level)
	}
	if cfg.Format != FormatConsole {
		t.Errorf("Expected default format to be console, got %s", cfg.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"json info", Config{Level: "info", Format: "json"}, ""},
		{"empty values", Config{}, ""},
		{"upper case", Config{Level: "DEBUG", Format: "Console"}, ""},
		{"bad level", Config{Level: "chatty"}, `unknown log level "chatty"`},
		{"bad format", Config{Level: "info", Format: "xml"}, `unknown log format "xml" (want json or console)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
		write  func(zerolog.Logger)
		want   string
	}{
		{"info json", LevelInfo, FormatJSON, func(l zerolog.Logger) { l.Info().Msg("info message") }, `"message":"info message"`},
		{"debug json", LevelDebug, FormatJSON, func(l zerolog.Logger) { l.Debug().Msg("debug message") }, `"level":"debug"`},
		{"warn console", LevelWarn, FormatConsole, func(l zerolog.Logger) { l.Warn().Msg("warn message") }, "warn message"},
		{"error json", LevelError, FormatJSON, func(l zerolog.Logger) { l.Error().Msg("error message") }, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Format: tt.format, Output: buf})

			tt.write(logger)

			if output := buf.String(); !strings.Contains(output, tt.want) {
				t.Errorf("Expected output to contain %q, got %q", tt.want, output)
			}
		})
	}
}

func TestSetup_UnknownLevelFallsBackToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: "chatty", Format: FormatJSON, Output: buf})

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("GlobalLevel() = %v, want info", zerolog.GlobalLevel())
	}
	logger.Debug().Msg("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug output should be filtered at info")
	}
	if !strings.Contains(buf.String(), "Unknown log level") {
		t.Errorf("expected a warning about the level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
		wantErr  bool
	}{
		{LevelDebug, zerolog.DebugLevel, false},
		{LevelInfo, zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{LevelError, zerolog.ErrorLevel, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Format: FormatJSON, Output: buf})

	logger := NewLogger("test-component")
	logger.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test-component") {
		t.Errorf("Expected output to contain 'test-component', got %q", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected output to contain 'test message', got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Format: FormatJSON, Output: buf})

	logger := NewLogger("test")

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")
	logger.Error().Msg("error message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at Warn level")
	}
	if strings.Contains(output, "info message") {
		t.Error("Info message should be filtered out at Warn level")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("Warn message should be included at Warn level")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Error message should be included at Warn level")
	}
}
