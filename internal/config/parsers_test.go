package config

import "testing"

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"512", 512, false},
		{"64k", 64 * 1024, false},
		{"64kb", 64 * 1024, false},
		{"500m", 500 * 1024 * 1024, false},
		{"500MB", 500 * 1024 * 1024, false},
		{"2g", 2 * 1024 * 1024 * 1024, false},
		{"1t", 1 << 40, false},
		{"100b", 100, false},
		{"1.5k", 1536, false},
		{" 64k ", 64 * 1024, false},
		{"0", 0, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-5m", 0, true},
		{"12x", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseByteSize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseByteSize(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseByteSize(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseByteSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatByteSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512"},
		{64 * 1024, "64k"},
		{500 * 1024 * 1024, "500m"},
		{2 * 1024 * 1024 * 1024, "2g"},
		{1 << 40, "1t"},
		{1536, "1536"},
	}
	for _, tt := range tests {
		if got := FormatByteSize(tt.in); got != tt.want {
			t.Errorf("FormatByteSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
