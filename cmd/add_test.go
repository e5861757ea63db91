package cmd

import (
	"testing"
	"time"
)

func TestParseEventTime(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "2025-06-01 09:30", want: time.Date(2025, 6, 1, 9, 30, 0, 0, time.Local)},
		{input: "2025-06-01", want: time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)},
		{input: "2025-06-01T09:30:00Z", want: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)},
		{input: "June 1st", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseEventTime(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseEventTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && !got.Equal(tt.want) {
			t.Errorf("parseEventTime(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseProviderArg(t *testing.T) {
	for _, valid := range []string{"google", "outlook", "apple"} {
		if _, err := parseProviderArg(valid); err != nil {
			t.Errorf("parseProviderArg(%q) unexpected error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"device", "icloud", ""} {
		if _, err := parseProviderArg(invalid); err == nil {
			t.Errorf("parseProviderArg(%q) expected error", invalid)
		}
	}
}
