package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/reminders_backend/models"
)

type recordingSender struct {
	calls int
}

func (s *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	s.calls++
	return nil
}

func TestSendDraft_RejectsUnapprovedBeforeDelivery(t *testing.T) {
	statuses := []models.ReminderStatus{
		models.ReminderStatusPending,
		models.ReminderStatusSent,
		models.ReminderStatusFailed,
	}
	for _, status := range statuses {
		sender := &recordingSender{}
		draft := &models.ReminderDraft{
			ID:     "draft-1",
			Status: status,
			Client: &models.Client{Email: "jordan@freshmart.example"},
		}
		err := SendDraft(context.Background(), nil, sender, draft, time.Now().UTC())
		if !errors.Is(err, models.ErrInvalidDraftTransition) {
			t.Errorf("status %s: expected transition error, got %v", status, err)
		}
		if sender.calls != 0 {
			t.Errorf("status %s: no mail may leave for an unsendable draft", status)
		}
	}
}
