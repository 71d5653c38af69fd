package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndReset(t *testing.T) {
	l := New(2, time.Minute)

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("k") {
		t.Error("third request in the window should be blocked")
	}
	if l.Allow("other") != true {
		t.Error("a different key has its own window")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("Remaining(k) = %d, want 0", got)
	}

	l.Reset("k")
	if !l.Allow("k") {
		t.Error("request after Reset should be allowed")
	}
}

func TestLoginLimiter_EmailLimit(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)

	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.0.0.1:4000"

	for i := 0; i < 2; i++ {
		if ok, reason := ll.Check(r, "a@example.com"); !ok {
			t.Fatalf("attempt %d blocked: %s", i+1, reason)
		}
	}
	if ok, _ := ll.Check(r, "a@example.com"); ok {
		t.Error("third attempt for the same email should be blocked")
	}
	if ok, _ := ll.Check(r, "b@example.com"); !ok {
		t.Error("a different email should still be allowed")
	}

	ll.ResetEmail("a@example.com")
	if ok, _ := ll.Check(r, "a@example.com"); !ok {
		t.Error("attempt after ResetEmail should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"

	if got := ClientIP(r); got != "192.0.2.7" {
		t.Errorf("ClientIP = %q, want RemoteAddr host", got)
	}

	r.Header.Set("X-Real-IP", "198.51.100.9")
	if got := ClientIP(r); got != "198.51.100.9" {
		t.Errorf("ClientIP = %q, want X-Real-IP", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 198.51.100.9")
	if got := ClientIP(r); got != "203.0.113.5" {
		t.Errorf("ClientIP = %q, want first X-Forwarded-For entry", got)
	}
}
