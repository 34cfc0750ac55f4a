package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	qrDefaultSize = 256
	qrMaxSize     = 1024
)

// JoinURL is the link a phone opens to attach to session sid. base is the
// configured public URL; when empty it is derived from r.
func JoinURL(base string, r *http.Request, sid string) string {
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimRight(base, "/") + "/" + sid
}

// JoinQR renders url as a PNG QR code of size×size pixels.
func JoinQR(url string, size int) ([]byte, error) {
	return qrcode.Encode(url, qrcode.Medium, size)
}

// handleJoinQR serves /join/{sid}.png
func (h *Hub) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	sid := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/join/"), ".png")
	if h.sessions.GetSession(sid) == nil {
		http.Error(w, ErrSessionNotFound.Error(), http.StatusNotFound)
		return
	}
	size := qrDefaultSize
	if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && s > 0 {
		size = min(s, qrMaxSize)
	}
	png, err := JoinQR(JoinURL(h.PublicURL(), r, sid), size)
	if err != nil {
		h.log.Error("qr encode failed", "session", sid, "err", err)
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
