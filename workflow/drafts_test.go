package workflow

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/reminders_backend/models"
)

func TestGenerateDrafts_NoDatabaseHandle(t *testing.T) {
	engine := NewDraftEngine(nil, nil, nil)
	if _, err := engine.GenerateDrafts(context.Background(), "biz-1", 10, true); err == nil {
		t.Fatal("expected an error when the engine has no database handle")
	}
}

func TestScheduledRunAllowed(t *testing.T) {
	optedOut := &models.ReminderSettings{AutoSendEnabled: false}
	optedIn := &models.ReminderSettings{AutoSendEnabled: true}

	if scheduledRunAllowed(optedOut, false) {
		t.Error("scheduled run should be gated when auto-send is disabled")
	}
	if !scheduledRunAllowed(optedOut, true) {
		t.Error("manual run should proceed regardless of auto-send flag")
	}
	if !scheduledRunAllowed(optedIn, false) {
		t.Error("scheduled run should proceed when auto-send is enabled")
	}
}

func TestApplyAutoSchedule_StageOneCarveOut(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	settings := &models.ReminderSettings{AutoSendEnabled: true, AutoApproveStage1: true}
	draft := &models.ReminderDraft{Stage: 1, Status: models.ReminderStatusPending}

	applyAutoSchedule(draft, settings, now)

	if draft.Status != models.ReminderStatusScheduled {
		t.Fatalf("expected scheduled status, got %s", draft.Status)
	}
	if draft.ApprovedAt == nil || !draft.ApprovedAt.Equal(now) {
		t.Error("expected approval timestamp set to now")
	}
	if draft.AutoSendAt == nil {
		t.Fatal("expected auto-send timestamp")
	}
	if want := now.Add(24 * time.Hour); !draft.AutoSendAt.Equal(want) {
		t.Errorf("auto-send at %v, want %v", draft.AutoSendAt, want)
	}
}

func TestApplyAutoSchedule_CeilingAtStageOne(t *testing.T) {
	now := time.Now().UTC()
	settings := &models.ReminderSettings{AutoSendEnabled: true, AutoApproveStage1: true}

	for stage := 2; stage <= 4; stage++ {
		draft := &models.ReminderDraft{Stage: stage, Status: models.ReminderStatusPending}
		applyAutoSchedule(draft, settings, now)
		if draft.Status != models.ReminderStatusPending {
			t.Errorf("stage %d must stay pending even with both flags on, got %s", stage, draft.Status)
		}
		if draft.AutoSendAt != nil {
			t.Errorf("stage %d must not get an auto-send time", stage)
		}
	}
}

func TestApplyAutoSchedule_RequiresBothFlags(t *testing.T) {
	now := time.Now().UTC()
	cases := []*models.ReminderSettings{
		{AutoSendEnabled: true, AutoApproveStage1: false},
		{AutoSendEnabled: false, AutoApproveStage1: true},
		{AutoSendEnabled: false, AutoApproveStage1: false},
	}
	for _, settings := range cases {
		draft := &models.ReminderDraft{Stage: 1, Status: models.ReminderStatusPending}
		applyAutoSchedule(draft, settings, now)
		if draft.Status != models.ReminderStatusPending {
			t.Errorf("auto_send=%v auto_approve=%v: expected pending, got %s",
				settings.AutoSendEnabled, settings.AutoApproveStage1, draft.Status)
		}
	}
}
