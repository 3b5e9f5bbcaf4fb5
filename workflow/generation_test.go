package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/reminders_backend/models"
)

type fakeGenerator struct {
	subject string
	body    string
	err     error
	calls   int
}

func (g *fakeGenerator) GenerateReminder(ctx context.Context, req GenerationRequest) (string, string, error) {
	g.calls++
	return g.subject, g.body, g.err
}

func sampleRequest(stage int) GenerationRequest {
	return GenerationRequest{
		BusinessName:  "Acme Design Studio",
		ClientName:    "Jordan Lee",
		InvoiceNumber: "INV-1001",
		Amount:        decimal.NewFromInt(500),
		Currency:      "USD",
		DueDate:       time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		DaysOverdue:   20,
		Stage:         stage,
		Tone:          ToneForStage(stage),
	}
}

func TestGenerate_PassesCleanContentThrough(t *testing.T) {
	gen := &fakeGenerator{
		subject: "Reminder: invoice INV-1001",
		body:    "Hi Jordan, invoice INV-1001 is overdue. Could you arrange payment this week? Thanks!",
	}
	cg := NewContentGenerator(gen, nil)

	content := cg.Generate(context.Background(), sampleRequest(2))
	if content.Source != models.GeneratorSourceAI {
		t.Fatalf("expected ai source, got %s", content.Source)
	}
	if content.Subject != gen.subject {
		t.Errorf("subject mangled: %q", content.Subject)
	}
	if gen.calls != 1 {
		t.Errorf("expected 1 generator call, got %d", gen.calls)
	}
}

func TestGenerate_PolicyViolationRetriesThenFallsBack(t *testing.T) {
	gen := &fakeGenerator{
		subject: "FINAL NOTICE",
		body:    "Pay now or face legal action.",
	}
	cg := NewContentGenerator(gen, nil)

	content := cg.Generate(context.Background(), sampleRequest(3))
	if gen.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", gen.calls)
	}
	if content.Source != models.GeneratorSourceFallback {
		t.Fatalf("expected fallback source, got %s", content.Source)
	}
	if ok, violation := ModerateContent(content.Subject, content.Body); !ok {
		t.Fatalf("fallback content failed moderation: %s", violation)
	}
}

func TestGenerate_GeneratorErrorFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("timeout")}
	cg := NewContentGenerator(gen, nil)

	content := cg.Generate(context.Background(), sampleRequest(1))
	if gen.calls != 3 {
		t.Fatalf("expected 3 attempts before fallback, got %d", gen.calls)
	}
	if content.Source != models.GeneratorSourceFallback {
		t.Fatalf("expected fallback source, got %s", content.Source)
	}
}

func TestGenerate_NilGeneratorUsesFallback(t *testing.T) {
	cg := NewContentGenerator(nil, nil)
	content := cg.Generate(context.Background(), sampleRequest(4))
	if content.Source != models.GeneratorSourceFallback {
		t.Fatalf("expected fallback source, got %s", content.Source)
	}
}

func TestGenerate_LongBodyTruncated(t *testing.T) {
	words := make([]string, 200)
	for i := range words {
		words[i] = "payment"
	}
	gen := &fakeGenerator{
		subject: "Reminder: invoice INV-1001",
		body:    strings.Join(words, " "),
	}
	cg := NewContentGenerator(gen, nil)

	content := cg.Generate(context.Background(), sampleRequest(2))
	if n := len(strings.Fields(content.Body)); n > 101 {
		t.Errorf("body not truncated: %d words", n)
	}
	if !strings.HasSuffix(content.Body, "...") {
		t.Error("truncated body should end with ellipsis")
	}
}

func TestFallbackContent_AllStagesArePolicySafe(t *testing.T) {
	for stage := 1; stage <= 4; stage++ {
		content := FallbackContent(sampleRequest(stage))
		if content.Subject == "" || content.Body == "" {
			t.Fatalf("stage %d fallback produced empty content", stage)
		}
		if ok, violation := ModerateContent(content.Subject, content.Body); !ok {
			t.Errorf("stage %d fallback violates policy: %s", stage, violation)
		}
		if !strings.Contains(content.Body, "INV-1001") {
			t.Errorf("stage %d fallback missing invoice number", stage)
		}
		if !strings.Contains(content.Body, "Jordan Lee") {
			t.Errorf("stage %d fallback missing client name", stage)
		}
	}
}

func TestFallbackContent_StagesDiffer(t *testing.T) {
	seen := map[string]int{}
	for stage := 1; stage <= 4; stage++ {
		content := FallbackContent(sampleRequest(stage))
		if prev, dup := seen[content.Subject]; dup {
			t.Errorf("stage %d and %d share subject %q", prev, stage, content.Subject)
		}
		seen[content.Subject] = stage
	}
}

func TestBuildPrompt_IncludesToneAndContext(t *testing.T) {
	req := sampleRequest(3)
	req.ClientNotes = "prefers email over phone"
	req.PriorSent = 2
	prompt := BuildPrompt(req)

	for _, want := range []string{"INV-1001", "Jordan Lee", "500.00 USD", "firm", "prefers email over phone", "Reminders already sent for this invoice: 2"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
