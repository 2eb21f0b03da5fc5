// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid http", "http://example.com", []string{"http", "https"}, false},
		{"valid https", "https://example.com", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
		{"with port", "http://example.com:8080", []string{"http"}, false},
		{"with path", "http://example.com/c", []string{"http"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("testURL", tt.value, tt.allowedSchemes)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_MAC(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"mag prefix", "00:1A:79:AB:CD:EF", false},
		{"lowercase", "00:1a:79:ab:cd:ef", false},
		{"empty", "", true},
		{"dash notation", "00-1A-79-AB-CD-EF", true},
		{"too short", "00:1A:79:AB:CD", true},
		{"garbage", "not-a-mac", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.MAC("MAC", tt.value)
			if got := !v.IsValid(); got != tt.wantErr {
				t.Errorf("MAC(%q) error = %v, want %v (%v)", tt.value, got, tt.wantErr, v.Err())
			}
		})
	}
}

func TestValidator_Ranges(t *testing.T) {
	v := New()
	v.Range("Retries", 3, 0, 10)
	v.DurationRange("Timeout", 10*time.Second, time.Second, time.Minute)
	v.FloatRange("RPS", 2, 0.1, 50)
	if !v.IsValid() {
		t.Fatalf("unexpected errors: %v", v.Err())
	}

	v.Range("Retries", 11, 0, 10)
	v.DurationRange("Timeout", 0, time.Second, time.Minute)
	v.FloatRange("RPS", 0, 0.1, 50)
	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(v.Errors()), v.Err())
	}
}

func TestValidator_Pattern(t *testing.T) {
	re := regexp.MustCompile(`^[a-z]+$`)
	v := New()
	v.Pattern("Label", "abc", re, "lowercase letters")
	v.Pattern("Label", "a/b", re, "lowercase letters")
	if len(v.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(v.Errors()))
	}
	if !strings.Contains(v.Errors()[0].Message, "lowercase letters") {
		t.Errorf("message = %q", v.Errors()[0].Message)
	}
}

func TestValidationError_Aggregates(t *testing.T) {
	v := New()
	v.NotEmpty("A", " ")
	v.Range("B", 0, 1, 10)
	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}

	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(ve.Errors()))
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("multi-error message should be joined: %q", err.Error())
	}
}

func TestParseLogLevel(t *testing.T) {
	if lvl, err := ParseLogLevel(" DEBUG "); err != nil || lvl != LogLevelDebug {
		t.Fatalf("ParseLogLevel(DEBUG) = %q, %v", lvl, err)
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
