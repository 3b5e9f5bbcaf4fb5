package config

import (
	"os"
	"strings"
)

func envBool(key string) (value bool, set bool) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	}
	return false, false
}

// ReminderSchedulerEnabled controls the in-process daily generation scheduler.
// Default: on. Disable when generation runs as a separate job.
//
// Set via env:
// - REMINDER_SCHEDULER_ENABLED=false
func ReminderSchedulerEnabled() bool {
	if v, set := envBool("REMINDER_SCHEDULER_ENABLED"); set {
		return v
	}
	return true
}

// AutoSendProcessingEnabled controls the background sender for scheduled
// drafts. Default: on. Per-business opt-in still applies (auto_send_enabled);
// this flag is the deployment-level kill switch.
//
// Set via env:
// - AUTO_SEND_PROCESSING_ENABLED=false
func AutoSendProcessingEnabled() bool {
	if v, set := envBool("AUTO_SEND_PROCESSING_ENABLED"); set {
		return v
	}
	return true
}
