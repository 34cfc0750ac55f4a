package main

import (
	"bytes"
	"crypto/tls"
	"net/http/httptest"
	"testing"
)

func TestJoinURL(t *testing.T) {
	r := httptest.NewRequest("GET", "/join/abc.png", nil)
	r.Host = "game.local:8080"
	if got := JoinURL("", r, "abc"); got != "http://game.local:8080/abc" {
		t.Errorf("derived = %q", got)
	}

	r.Header.Set("X-Forwarded-Proto", "https")
	if got := JoinURL("", r, "abc"); got != "https://game.local:8080/abc" {
		t.Errorf("forwarded = %q", got)
	}

	r2 := httptest.NewRequest("GET", "/join/abc.png", nil)
	r2.TLS = &tls.ConnectionState{}
	r2.Host = "secure.local"
	if got := JoinURL("", r2, "abc"); got != "https://secure.local/abc" {
		t.Errorf("tls = %q", got)
	}

	if got := JoinURL("https://faces.example/", r, "abc"); got != "https://faces.example/abc" {
		t.Errorf("configured = %q", got)
	}
}

func TestJoinQR(t *testing.T) {
	png, err := JoinQR("https://faces.example/abc", 128)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("not a PNG")
	}
}
