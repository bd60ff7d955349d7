package log

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/sitepush/sitepush/pkg/log/internal/testutil"
)

func TestZapLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		expected string
	}{
		{"debug level", LevelDebug, "debug"},
		{"info level", LevelInfo, "info"},
		{"progress level", LevelProgress, "info"},
		{"minimal level", LevelMinimal, "warn"},
		{"warn level", LevelWarn, "warn"},
		{"error level", LevelError, "error"},
		{"unknown level defaults to info", Level("unknown"), "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := zapLevel(tt.level); got.String() != tt.expected {
				t.Errorf("zapLevel() = %v, want %v", got.String(), tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"progress", LevelProgress, false},
		{"minimal", LevelMinimal, false},
		{"", LevelProgress, false},
		{"verbose", "", true},
		{"DEBUG", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitWithConfig(t *testing.T) {
	Reset()
	defer Reset()

	levels := []Level{
		LevelDebug,
		LevelInfo,
		LevelProgress,
		LevelMinimal,
		LevelWarn,
		LevelError,
	}

	for _, level := range levels {
		t.Run(string(level), func(t *testing.T) {
			Reset()
			cfg := Config{
				Level:  level,
				Format: "console",
			}
			if err := Init(cfg); err != nil {
				t.Errorf("Init() error = %v", err)
			}

			if Get() == nil {
				t.Error("Get() returned nil logger")
			}
		})
	}
}

func TestInitRejectsUnknownFormat(t *testing.T) {
	Reset()
	defer Reset()

	err := Init(Config{Level: LevelInfo, Format: "yaml"})
	if err == nil {
		t.Fatal("Init() accepted unknown format")
	}
}

func TestInitJSONFormat(t *testing.T) {
	Reset()
	defer Reset()

	if err := Init(Config{Level: LevelInfo, Format: "json"}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if Get() == nil {
		t.Error("Get() returned nil logger")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelProgress {
		t.Errorf("DefaultConfig().Level = %v, want %v", cfg.Level, LevelProgress)
	}
	if cfg.Format != "console" {
		t.Errorf("DefaultConfig().Format = %v, want %v", cfg.Format, "console")
	}
}

func TestGetInitializesDefaultLogger(t *testing.T) {
	Reset()
	defer Reset()

	logger := Get()
	if logger == nil {
		t.Error("Get() returned nil logger")
	}

	if logger != Get() {
		t.Error("Get() returned different logger instances")
	}
}

func TestReplaceCapturesEntries(t *testing.T) {
	Reset()
	defer Reset()

	observed, logs := testutil.NewObserved(zapcore.DebugLevel)
	undo := Replace(observed)
	defer undo()

	Info("building site", "generator", "hugo")
	Warnf("skipping %d drafts", 2)
	Error("push failed", "remote", "origin")

	if got := logs.Len(); got != 3 {
		t.Fatalf("observed %d entries, want 3", got)
	}

	entries := logs.All()
	if entries[0].Message != "building site" {
		t.Errorf("first message = %q, want %q", entries[0].Message, "building site")
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("second entry level = %v, want warn", entries[1].Level)
	}
	if entries[2].Level != zapcore.ErrorLevel {
		t.Errorf("third entry level = %v, want error", entries[2].Level)
	}
}

func TestReplaceRestoresPrevious(t *testing.T) {
	Reset()
	defer Reset()

	if err := Init(DefaultConfig()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	before := Get()

	observed, _ := testutil.NewObserved(zapcore.DebugLevel)
	undo := Replace(observed)
	if Get() != observed {
		t.Error("Replace() did not install the new logger")
	}

	undo()
	if Get() != before {
		t.Error("undo did not restore the previous logger")
	}
}

func TestWith(t *testing.T) {
	Reset()
	defer Reset()

	if err := Init(Config{Level: LevelDebug, Format: "console"}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if With("step", "build") == nil {
		t.Error("With() returned nil logger")
	}
}

func TestSync(t *testing.T) {
	Reset()
	defer Reset()

	if err := Init(Config{Level: LevelDebug, Format: "console"}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// Syncing stderr can fail on some platforms; it must not panic.
	_ = Sync()
}
