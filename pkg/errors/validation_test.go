package errors

import (
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "checkout", false},
		{"spaces", "Order flow", false},
		{"emoji", "🛒 cart", false},
		{"dots", "v1.2..3", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxKeyLength+1), true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"control", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey("entity", tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateKey(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("code = %q, want INVALID_INPUT", GetCode(err))
			}
		})
	}
}

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		ns      string
		wantErr bool
	}{
		{"", false},
		{"flowspace", false},
		{"team-a.v2", false},
		{"Upper", true},
		{"has space", true},
		{"a:b", true},
		{"-lead", true},
		{strings.Repeat("a", 65), true},
	}
	for _, tt := range tests {
		err := ValidateNamespace(tt.ns)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateNamespace(%q) = %v, wantErr %v", tt.ns, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidConfig) {
			t.Errorf("ValidateNamespace(%q) code = %q", tt.ns, GetCode(err))
		}
	}
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat("svg", "dot", "svg"); err != nil {
		t.Errorf("svg should be allowed: %v", err)
	}
	err := ValidateFormat("png", "dot", "svg")
	if !Is(err, ErrCodeInvalidFormat) {
		t.Errorf("png error = %v, want INVALID_FORMAT", err)
	}
	if !strings.Contains(err.Error(), "dot, svg") {
		t.Errorf("error should list allowed formats: %v", err)
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeUnresolvedReference, ErrCodeCyclicMembership, ErrCodeMalformedSource,
		ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidFormat,
		ErrCodeNotFound, ErrCodeFileNotFound,
		ErrCodeNetwork, ErrCodeTimeout,
		ErrCodeInternal,
	}
	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
