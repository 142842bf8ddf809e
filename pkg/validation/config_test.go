package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_CollectsAll(t *testing.T) {
	err := NewConfigValidator("Config").
		Required("Source", "").
		URL("EmulatorURL", "localhost:8080").
		RangeInt("Channel", 50, 0, 39).
		Positive("Attempts", 0).
		NonNegative("BaseChannel", -1).
		MinDuration("Timeout", 0, time.Millisecond).
		OneOf("LogLevel", "loud", []string{"debug", "info"}).
		Validate()

	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{
		"Config.Source", "Config.EmulatorURL", "Config.Channel", "Config.Attempts",
		"Config.BaseChannel", "Config.Timeout", "Config.LogLevel",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %s in %v", want, err)
		}
	}
}

func TestConfigValidator_Valid(t *testing.T) {
	cv := NewConfigValidator("Config").
		Required("Source", "emulator").
		URL("EmulatorURL", "http://localhost:8080").
		URL("ControllerURL", "https://onos.local/onos/v1/network/configuration").
		RangeInt("Channel", 39, 0, 39).
		OneOf("LogLevel", "info", []string{"debug", "info"})

	if err := cv.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cv.Errors()) != 0 {
		t.Errorf("Errors() = %v", cv.Errors())
	}
}

func TestConfigValidator_CustomAndWhen(t *testing.T) {
	sentinel := errors.New("min above max")

	err := NewConfigValidator("Config").
		Custom("Channels", func() error { return sentinel }).
		When(false, func(cv *ConfigValidator) { cv.Required("Skipped", "") }).
		Validate()

	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want wrapped sentinel", err)
	}
	if strings.Contains(err.Error(), "Skipped") {
		t.Errorf("When(false) applied validations: %v", err)
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr("", "1"); got != "1" {
		t.Errorf("DefaultOr(\"\") = %q", got)
	}
	if got := DefaultOr(3, 1); got != 3 {
		t.Errorf("DefaultOr(3) = %d", got)
	}
}
