package main

import (
	"encoding/json"
	"strings"

	"github.com/toddllm/face-controls/internal/spectate"
)

// announcement turns a server event envelope into a banner line. Messages
// that are not events yield an empty banner.
func announcement(m *spectate.Message) string {
	if m == nil || m.T != "event" {
		return ""
	}
	var ev struct {
		Type string `json:"type"`
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(m.D, &ev); err != nil {
		return ""
	}
	switch ev.Type {
	case "boss_spawned":
		return strings.ToUpper(ev.Kind) + " approaches!"
	case "boss_defeated":
		return strings.ToUpper(ev.Kind) + " defeated"
	case "dimension_entered":
		return "Entering the " + ev.Kind + " dimension"
	case "dimension_left":
		return "Back to the normal dimension"
	case "mega_transform":
		return "MEGA GARY"
	case "antagonist_arrived":
		return "Gary has arrived"
	case "victory":
		return "Victory!"
	}
	return ""
}
