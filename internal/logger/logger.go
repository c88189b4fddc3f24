package logger

import (
	"log"
	"time"
)

// Debug logs a debug message with consistent format
// Format: [DEBUG] timestamp=... user=... action=... details=...
func Debug(user, action, details string) {
	if user == "" {
		user = "-"
	}
	timestamp := time.Now().Format(time.RFC3339)
	log.Printf("[DEBUG] timestamp=%s user=%s action=%s details=%s", timestamp, user, action, details)
}
