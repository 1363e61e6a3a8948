package webdoc

import (
	"net"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "valid https URL",
			url:     "https://go.dev/doc/effective_go",
			wantErr: false,
		},
		{
			name:    "http URL rejected",
			url:     "http://example.com",
			wantErr: true,
		},
		{
			name:    "localhost rejected",
			url:     "https://localhost:8080",
			wantErr: true,
		},
		{
			name:    "127.0.0.1 rejected",
			url:     "https://127.0.0.1/path",
			wantErr: true,
		},
		{
			name:    ".local domain rejected",
			url:     "https://myserver.local/api",
			wantErr: true,
		},
		{
			name:    ".internal domain rejected",
			url:     "https://app.internal/api",
			wantErr: true,
		},
		{
			name:    "private IP 192.168.x.x rejected",
			url:     "https://192.168.1.1/path",
			wantErr: true,
		},
		{
			name:    "private IP 10.x.x.x rejected",
			url:     "https://10.0.0.1/path",
			wantErr: true,
		},
		{
			name:    "private IP 172.16.x.x rejected",
			url:     "https://172.16.0.1/path",
			wantErr: true,
		},
		{
			name:    "invalid URL",
			url:     "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url, false)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL_AllowPrivate(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://requirements.corp.internal/specs", false},
		{"https://192.168.1.10/specs", false},
		// HTTPS is still required.
		{"http://192.168.1.10/specs", true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url, true)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q, allowPrivate) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		// IPv4 private ranges
		{"192.168.1.1", true},
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"127.0.0.1", true},
		{"169.254.1.1", true},  // IPv4 link-local
		{"100.64.0.1", true},   // CGNAT
		{"100.127.255.255", true},

		// IPv4 public
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"100.128.0.1", false}, // just past CGNAT

		// IPv6
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true},
		{"2001:4860:4860::8888", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("failed to parse IP %q", tt.ip)
			}
			if got := IsPrivateIP(ip); got != tt.expected {
				t.Errorf("IsPrivateIP(%q) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
}

func TestUnitPath(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "host and path",
			url:  "https://docs.example.com/specs/auth",
			want: "web:docs-example-com-specs-auth",
		},
		{
			name: "bare host",
			url:  "https://example.com",
			want: "web:example-com",
		},
		{
			name: "trailing slash",
			url:  "https://example.com/specs/",
			want: "web:example-com-specs",
		},
		{
			name: "unsafe characters collapse",
			url:  "https://example.com/a%20b/c_d",
			want: "web:example-com-a-b-c-d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnitPath(tt.url); got != tt.want {
				t.Errorf("UnitPath(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestUnitPathLength(t *testing.T) {
	long := "https://example.com/"
	for i := 0; i < 30; i++ {
		long += "segment/"
	}
	got := UnitPath(long)
	if len(got) > len("web:")+80 {
		t.Errorf("UnitPath length = %d, want at most %d", len(got), len("web:")+80)
	}
}
