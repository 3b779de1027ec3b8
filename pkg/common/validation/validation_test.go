package validation

import (
	"errors"
	"testing"

	rferrors "github.com/vnykmshr/reqflow/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"positive", 1, false},
		{"large", 100, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("test", "field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePositive(%d) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, rferrors.ErrInvalidConfiguration) {
				t.Error("validation errors should wrap ErrInvalidConfiguration")
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"min", 1, false},
		{"max", 8, false},
		{"middle", 4, false},
		{"below", 0, true},
		{"above", 9, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange("test", "field", tt.value, 1, 8)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRange(%d) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	if err := ValidateNotNil("test", "field", 42); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateNotNil("test", "field", nil); err == nil {
		t.Error("expected error for nil value")
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("test", "field", "value"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateNotEmpty("test", "field", ""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{"http", "http://example.com/path", false},
		{"https", "https://example.com", false},
		{"ws", "ws://example.com/socket", false},
		{"wss", "wss://example.com:8443/socket", false},
		{"with query", "https://example.com/q?x=1&y=2", false},
		{"empty", "", true},
		{"no scheme", "example.com/path", true},
		{"unsupported scheme", "ftp://example.com/file", true},
		{"missing host", "http://", true},
		{"malformed", "http://exa mple.com/%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTarget("test", "target", tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTarget(%q) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			}
			if got := IsValidTarget(tt.target); got == tt.wantErr {
				t.Errorf("IsValidTarget(%q) = %v, want %v", tt.target, got, !tt.wantErr)
			}
		})
	}
}
