package cmd

import (
	"errors"
	"testing"

	"github.com/hansbonini/mdtools/pkg/netmd"
)

func TestParseTrackNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"1", 0, false},
		{"12", 11, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"70000", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTrackNumber(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTrackNumber(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseTrackNumber(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input   string
		want    netmd.Time
		wantErr bool
	}{
		{"25", netmd.Time{Second: 25}, false},
		{"1:25", netmd.Time{Minute: 1, Second: 25}, false},
		{"1:02:03.10", netmd.Time{Hour: 1, Minute: 2, Second: 3, Frame: 10}, false},
		{"1:60", netmd.Time{}, true},
		{"1:2:3:4", netmd.Time{}, true},
		{"x:10", netmd.Time{}, true},
		{"10.-1", netmd.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTime(tt.input)
			if tt.wantErr {
				if !errors.Is(err, netmd.ErrValidation) {
					t.Errorf("parseTime(%q) error = %v, want ErrValidation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTime(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseTime(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSector(t *testing.T) {
	if got, err := parseSector("2"); err != nil || got != 2 {
		t.Errorf("parseSector(\"2\") = %d, %v", got, err)
	}
	if _, err := parseSector("-1"); !errors.Is(err, netmd.ErrValidation) {
		t.Errorf("parseSector(\"-1\") error = %v, want ErrValidation", err)
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input   string
		want    uint32
		wantErr bool
	}{
		{"0x03802040", 0x03802040, false},
		{"ff", 0xff, false},
		{"0X10", 0x10, false},
		{"zz", 0, true},
		{"100000000", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAddress(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseAddress(%q) = %x, want %x", tt.input, got, tt.want)
			}
		})
	}
}
