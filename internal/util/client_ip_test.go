package util

import (
	"net/http/httptest"
	"testing"
)

func TestNewTrustedProxiesParsing(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.10 ", ""})
	if err != nil {
		t.Fatalf("NewTrustedProxies: %v", err)
	}
	if trusted == nil {
		t.Fatal("expected a non-nil proxy set")
	}
	if _, err := NewTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Fatal("expected parse error")
	}
	empty, err := NewTrustedProxies(nil)
	if err != nil || empty != nil {
		t.Fatalf("empty input should trust nothing: %v %v", empty, err)
	}
}

func TestClientIPResolution(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("NewTrustedProxies: %v", err)
	}

	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		trusted    *TrustedProxies
		want       string
	}{
		{"direct peer, no proxies configured", "198.51.100.10:4431", "203.0.113.5", "203.0.113.6", nil, "198.51.100.10"},
		{"untrusted peer ignores forwarded headers", "198.51.100.10:4431", "203.0.113.5", "", trusted, "198.51.100.10"},
		{"trusted proxy surfaces the forwarded client", "10.0.0.20:4431", "203.0.113.5", "", trusted, "203.0.113.5"},
		{"rightmost untrusted hop wins", "10.0.0.20:4431", "203.0.113.5, 10.0.0.10", "", trusted, "203.0.113.5"},
		{"fully trusted chain returns the origin", "10.0.0.20:4431", "10.0.0.5, 10.0.0.10", "", trusted, "10.0.0.5"},
		{"x-real-ip fallback when xff is garbage", "10.0.0.20:4431", "garbage", "203.0.113.7", trusted, "203.0.113.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(req, tc.trusted); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
