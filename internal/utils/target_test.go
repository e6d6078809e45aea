package utils

import "testing"

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare domain gets https", "example.com", "https://example.com", false},
		{"existing scheme kept", "http://example.com", "http://example.com", false},
		{"trailing slash stripped", "https://example.com/", "https://example.com", false},
		{"path preserved", "example.com/wp-admin", "https://example.com/wp-admin", false},
		{"whitespace trimmed", "  example.com  ", "https://example.com", false},
		{"empty target", "", "", true},
		{"scheme only", "https://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTarget(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeTarget(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractHost(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare domain", "example.com", "example.com", false},
		{"scheme stripped", "https://example.com", "example.com", false},
		{"www stripped", "https://www.example.com", "example.com", false},
		{"port stripped", "example.com:8443", "example.com", false},
		{"path stripped", "example.com/wp-login.php", "example.com", false},
		{"everything at once", "https://www.example.com:8443/blog", "example.com", false},
		{"empty target", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractHost(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractHost(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
