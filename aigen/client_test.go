package aigen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/reminders_backend/workflow"
)

func TestParseReminder_PlainJSON(t *testing.T) {
	subject, body, err := parseReminder(`{"subject": "Reminder", "body": "Please pay."}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Reminder" || body != "Please pay." {
		t.Errorf("got %q / %q", subject, body)
	}
}

func TestParseReminder_FencedJSON(t *testing.T) {
	text := "```json\n{\"subject\": \"Reminder\", \"body\": \"Please pay.\"}\n```"
	subject, body, err := parseReminder(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Reminder" || body != "Please pay." {
		t.Errorf("got %q / %q", subject, body)
	}
}

func TestParseReminder_SurroundingProse(t *testing.T) {
	text := "Here is the reminder:\n{\"subject\": \"Hi\", \"body\": \"Invoice due.\"}\nLet me know if you need changes."
	subject, _, err := parseReminder(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Hi" {
		t.Errorf("got subject %q", subject)
	}
}

func TestParseReminder_MissingFields(t *testing.T) {
	if _, _, err := parseReminder(`{"subject": "only subject"}`); err == nil {
		t.Error("expected error for missing body")
	}
	if _, _, err := parseReminder("not json at all"); err == nil {
		t.Error("expected error for non-JSON text")
	}
}

func TestGenerateReminder_CallsAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing version header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "{\"subject\": \"Reminder: INV-1\", \"body\": \"Please arrange payment.\"}"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	req := workflow.GenerationRequest{
		BusinessName:  "Acme",
		ClientName:    "Jordan",
		InvoiceNumber: "INV-1",
		Amount:        decimal.NewFromInt(100),
		Currency:      "USD",
	}
	subject, body, err := c.GenerateReminder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(subject, "INV-1") || body == "" {
		t.Errorf("unexpected content: %q / %q", subject, body)
	}
}

func TestGenerateReminder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"type": "overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	if _, _, err := c.GenerateReminder(context.Background(), workflow.GenerationRequest{}); err == nil {
		t.Fatal("expected error on 5xx response")
	}
}
