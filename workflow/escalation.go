package workflow

import (
	"bitbucket.org/mmdatafocus/reminders_backend/models"
)

// StageFor maps days overdue onto an escalation stage using the business
// thresholds. Every overdue invoice is at minimum stage 1, even below the
// first threshold.
func StageFor(daysOverdue int, settings *models.ReminderSettings) int {
	thresholds := settings.Thresholds()
	stage := 1
	for i, threshold := range thresholds {
		if daysOverdue >= threshold {
			stage = i + 1
		}
	}
	return stage
}

// ToneForStage is the fixed stage-to-voice mapping. Stages and tones move
// together; there is no per-business override.
func ToneForStage(stage int) models.ReminderTone {
	switch stage {
	case 1:
		return models.ReminderToneFriendly
	case 2:
		return models.ReminderToneProfessional
	case 3:
		return models.ReminderToneFirm
	default:
		return models.ReminderToneFormal
	}
}
