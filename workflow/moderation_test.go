package workflow

import (
	"strings"
	"testing"
)

func TestModerateContent_RejectsDenylistAnyCase(t *testing.T) {
	bodies := []string{
		"This is your FINAL NOTICE before we escalate.",
		"We may pursue a Lawsuit if payment is not received.",
		"Our legal team has been informed.",
		"You must pay immediately or face Penalties.",
		"This account will be sent to Collections.",
		"we will take action against your company",
		"We will SUE if this remains unpaid.",
		"You could be sued over this balance.",
	}
	for _, body := range bodies {
		if ok, violation := ModerateContent("Payment reminder", body); ok {
			t.Errorf("expected rejection for %q", body)
		} else if violation == "" {
			t.Errorf("expected a named violation for %q", body)
		}
	}
}

func TestModerateContent_RejectsDenylistInSubject(t *testing.T) {
	if ok, _ := ModerateContent("FINAL NOTICE: invoice overdue", "Please pay when you can."); ok {
		t.Error("expected subject denylist hit to reject")
	}
}

func TestModerateContent_RejectsEmpty(t *testing.T) {
	if ok, _ := ModerateContent("", "body"); ok {
		t.Error("expected empty subject to reject")
	}
	if ok, _ := ModerateContent("subject", "   "); ok {
		t.Error("expected blank body to reject")
	}
}

func TestModerateContent_PassesCleanText(t *testing.T) {
	subject := "Reminder: invoice INV-1001"
	body := "Hi Jordan, invoice INV-1001 for 500.00 USD was due last week. Could you arrange payment at your convenience? Thanks!"
	if ok, violation := ModerateContent(subject, body); !ok {
		t.Errorf("expected clean text to pass, got violation %q", violation)
	}
}

func TestModerateContent_WholeWordsOnly(t *testing.T) {
	bodies := []string{
		"If there's an issue with the invoice, let us know.",
		"We would rather not pursue other arrangements.",
		"Payment issues are easy to sort out together.",
	}
	for _, body := range bodies {
		if ok, violation := ModerateContent("Payment reminder", body); !ok {
			t.Errorf("expected %q to pass, got violation %q", body, violation)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	short := "one two three"
	if got := TruncateWords(short, 100); got != short {
		t.Errorf("short text should be unchanged, got %q", got)
	}

	words := make([]string, 150)
	for i := range words {
		words[i] = "word"
	}
	long := strings.Join(words, " ")
	got := TruncateWords(long, 100)
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated text should end with ellipsis")
	}
	if n := len(strings.Fields(got)); n != 100 {
		t.Errorf("expected 100 words after truncation, got %d", n)
	}
}
