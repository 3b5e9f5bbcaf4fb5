package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/reminders_backend/models"
)

func defaultSettings() *models.ReminderSettings {
	return &models.ReminderSettings{
		Stage1Days: 7,
		Stage2Days: 14,
		Stage3Days: 30,
		Stage4Days: 60,
	}
}

func TestStageFor_Boundaries(t *testing.T) {
	settings := defaultSettings()

	cases := []struct {
		days int
		want int
	}{
		{0, 1},
		{6, 1},
		{7, 1},
		{13, 1},
		{14, 2},
		{29, 2},
		{30, 3},
		{35, 3},
		{59, 3},
		{60, 4},
		{365, 4},
	}
	for _, tc := range cases {
		if got := StageFor(tc.days, settings); got != tc.want {
			t.Errorf("StageFor(%d) = %d, want %d", tc.days, got, tc.want)
		}
	}
}

func TestStageFor_CustomThresholds(t *testing.T) {
	settings := &models.ReminderSettings{
		Stage1Days: 3,
		Stage2Days: 10,
		Stage3Days: 21,
		Stage4Days: 45,
	}
	if got := StageFor(2, settings); got != 1 {
		t.Errorf("expected stage 1 below first threshold, got %d", got)
	}
	if got := StageFor(10, settings); got != 2 {
		t.Errorf("expected stage 2 at second threshold, got %d", got)
	}
	if got := StageFor(1000, settings); got != 4 {
		t.Errorf("expected stage 4 far past last threshold, got %d", got)
	}
}

func TestToneForStage_FixedMapping(t *testing.T) {
	want := map[int]models.ReminderTone{
		1: models.ReminderToneFriendly,
		2: models.ReminderToneProfessional,
		3: models.ReminderToneFirm,
		4: models.ReminderToneFormal,
	}
	for stage, tone := range want {
		if got := ToneForStage(stage); got != tone {
			t.Errorf("ToneForStage(%d) = %s, want %s", stage, got, tone)
		}
	}
}

func TestStageThreeScenario(t *testing.T) {
	// Invoice 35 days overdue against 7/14/30/60 thresholds lands in stage 3
	// with the firm tone.
	settings := defaultSettings()
	stage := StageFor(35, settings)
	if stage != 3 {
		t.Fatalf("expected stage 3, got %d", stage)
	}
	if tone := ToneForStage(stage); tone != models.ReminderToneFirm {
		t.Fatalf("expected firm tone, got %s", tone)
	}
}
