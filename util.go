package main

import "strings"

// clipName trims s, falls back to def when empty and cuts it to max bytes
// without splitting a rune.
func clipName(s, def string, max int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if len(s) <= max {
		return s
	}
	cut := 0
	for i := range s {
		if i > max {
			break
		}
		cut = i
	}
	return s[:cut]
}
