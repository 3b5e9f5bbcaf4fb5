package models

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func intPtr(v int) *int { return &v }

func currentSettings() *ReminderSettings {
	return &ReminderSettings{
		Stage1Days: DefaultStage1Days,
		Stage2Days: DefaultStage2Days,
		Stage3Days: DefaultStage3Days,
		Stage4Days: DefaultStage4Days,
	}
}

func TestSettingsValidate_AscendingAccepted(t *testing.T) {
	input := UpdateReminderSettingsInput{
		Stage1Days: intPtr(7),
		Stage2Days: intPtr(14),
		Stage3Days: intPtr(30),
		Stage4Days: intPtr(60),
	}
	if err := input.validate(currentSettings()); err != nil {
		t.Fatalf("ascending thresholds rejected: %v", err)
	}
}

func TestSettingsValidate_NonAscendingRejected(t *testing.T) {
	input := UpdateReminderSettingsInput{
		Stage1Days: intPtr(7),
		Stage2Days: intPtr(14),
		Stage3Days: intPtr(10),
		Stage4Days: intPtr(60),
	}
	if err := input.validate(currentSettings()); err == nil {
		t.Fatal("non-ascending thresholds accepted")
	}
}

func TestSettingsValidate_PartialUpdateCheckedAgainstCurrent(t *testing.T) {
	// Raising stage 2 past stage 3 must be caught even though stage 3 is not
	// in the update.
	input := UpdateReminderSettingsInput{Stage2Days: intPtr(35)}
	if err := input.validate(currentSettings()); err == nil {
		t.Fatal("expected rejection against current stage 3 threshold")
	}

	input = UpdateReminderSettingsInput{Stage2Days: intPtr(20)}
	if err := input.validate(currentSettings()); err != nil {
		t.Fatalf("valid partial update rejected: %v", err)
	}
}

func TestSettingsValidate_EqualThresholdsRejected(t *testing.T) {
	input := UpdateReminderSettingsInput{
		Stage1Days: intPtr(14),
		Stage2Days: intPtr(14),
	}
	if err := input.validate(currentSettings()); err == nil {
		t.Fatal("equal thresholds accepted; ordering must be strict")
	}
}

func TestSettingsValidate_BadEmailRejected(t *testing.T) {
	bad := "not-an-email"
	input := UpdateReminderSettingsInput{ReplyToEmail: &bad}
	if err := input.validate(currentSettings()); err == nil {
		t.Fatal("invalid reply-to email accepted")
	}
}

// Pins the column names UpdateReminderSettings writes by map key against the
// migrated schema. AutoApproveStage1 migrates as auto_approve_stage1, not
// auto_approve_stage_1.
func TestUpdateReminderSettings_ColumnNamesExist(t *testing.T) {
	parsed, err := schema.Parse(&ReminderSettings{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}
	columns := []string{
		"auto_send_enabled",
		"auto_approve_stage1",
		"stage1_days",
		"stage2_days",
		"stage3_days",
		"stage4_days",
		"sender_name",
		"reply_to_email",
	}
	for _, col := range columns {
		if _, ok := parsed.FieldsByDBName[col]; !ok {
			t.Errorf("reminder_settings has no column %q", col)
		}
	}
	if _, ok := parsed.FieldsByDBName["auto_approve_stage_1"]; ok {
		t.Error("unexpected column auto_approve_stage_1")
	}
}
