package models

import (
	"testing"
	"time"
)

func TestReminderStatus_IsActive(t *testing.T) {
	active := []ReminderStatus{ReminderStatusPending, ReminderStatusApproved, ReminderStatusScheduled}
	for _, s := range active {
		if !s.IsActive() {
			t.Errorf("%s should be active", s)
		}
	}
	terminal := []ReminderStatus{ReminderStatusSent, ReminderStatusFailed}
	for _, s := range terminal {
		if s.IsActive() {
			t.Errorf("%s should not be active", s)
		}
	}
}

func TestSyncActiveKey(t *testing.T) {
	draft := &ReminderDraft{InvoiceId: "inv-1", Status: ReminderStatusPending}
	draft.syncActiveKey()
	if draft.ActiveKey == nil || *draft.ActiveKey != "inv-1" {
		t.Fatal("active draft should carry its invoice id as active key")
	}

	draft.Status = ReminderStatusSent
	draft.syncActiveKey()
	if draft.ActiveKey != nil {
		t.Fatal("sent draft must clear its active key so the invoice frees up")
	}

	draft.Status = ReminderStatusFailed
	draft.syncActiveKey()
	if draft.ActiveKey != nil {
		t.Fatal("failed draft must clear its active key")
	}
}

func TestInvoiceDaysOverdue(t *testing.T) {
	inv := &Invoice{DueDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}

	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 8, 2, 0, 30, 0, 0, time.UTC), 1},
		{time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC), 30},
		{time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range cases {
		if got := inv.DaysOverdueAsOf(tc.now, "UTC"); got != tc.want {
			t.Errorf("DaysOverdueAsOf(%v) = %d, want %d", tc.now, got, tc.want)
		}
	}
}

func TestInvoiceDaysOverdue_DateNotInstant(t *testing.T) {
	// Due 23:59, checked 00:01 the next day: one calendar day apart.
	inv := &Invoice{DueDate: time.Date(2026, 8, 1, 23, 59, 0, 0, time.UTC)}
	now := time.Date(2026, 8, 2, 0, 1, 0, 0, time.UTC)
	if got := inv.DaysOverdueAsOf(now, "UTC"); got != 1 {
		t.Errorf("expected 1 day overdue across midnight, got %d", got)
	}
}
