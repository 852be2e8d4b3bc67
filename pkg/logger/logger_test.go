package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInit_HonorsConfiguredLevel(t *testing.T) {
	cfg := &Config{
		Level:       "warn",
		ServiceName: "logger-test",
		Development: false,
	}
	if err := Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	core := Get().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info enabled, want suppressed at warn level")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn suppressed, want enabled at warn level")
	}
}

func TestInit_UnparsableLevelFallsBack(t *testing.T) {
	cfg := &Config{
		Level:       "development",
		ServiceName: "logger-test",
		Development: false,
	}
	if err := Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// Unknown level strings keep the profile default instead of failing
	if !Get().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info suppressed, want production default when level is unparsable")
	}
}
