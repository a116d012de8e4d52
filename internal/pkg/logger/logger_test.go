package logger

import (
	"testing"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"empty level defaults to info", ""},
		{"invalid level defaults to info", "verbose"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.level)
			if err != nil {
				t.Errorf("Expected no error for level '%s', got %v", tc.level, err)
			}
			if logger == nil {
				t.Error("Expected non-nil logger")
			}
		})
	}
}
