package ratelimit

import (
	"net/http/httptest"
	"testing"
)

func TestClientID_ForwardedForTakesPriority(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/portfolio", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("CF-Connecting-IP", "198.51.100.2")
	r.Header.Set("X-Real-IP", "192.0.2.9")
	r.RemoteAddr = "10.0.0.1:9999"

	if got := ClientID(r); got != "203.0.113.7" {
		t.Errorf("expected first forwarded-for hop, got %q", got)
	}
}

func TestClientID_CDNHeaderFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/portfolio", nil)
	r.Header.Set("CF-Connecting-IP", "198.51.100.2")
	r.RemoteAddr = "10.0.0.1:9999"

	if got := ClientID(r); got != "198.51.100.2" {
		t.Errorf("expected CDN header value, got %q", got)
	}
}

func TestClientID_RealIPFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/portfolio", nil)
	r.Header.Set("X-Real-IP", "192.0.2.9")
	r.RemoteAddr = "10.0.0.1:9999"

	if got := ClientID(r); got != "192.0.2.9" {
		t.Errorf("expected real-ip header value, got %q", got)
	}
}

func TestClientID_RemoteAddrFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/portfolio", nil)
	r.RemoteAddr = "192.0.2.44:51000"

	if got := ClientID(r); got != "192.0.2.44" {
		t.Errorf("expected remote addr host, got %q", got)
	}
}

func TestClientID_UnknownWhenNothingResolves(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/portfolio", nil)
	r.RemoteAddr = ""

	if got := ClientID(r); got != UnknownClient {
		t.Errorf("expected %q, got %q", UnknownClient, got)
	}
}
