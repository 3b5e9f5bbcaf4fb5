package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/reminders_backend/models"
)

// GenerationRequest carries everything the content generator needs to write
// one reminder.
type GenerationRequest struct {
	BusinessName  string
	SenderName    string
	ClientName    string
	CompanyName   string
	ClientNotes   string
	InvoiceNumber string
	Amount        decimal.Decimal
	Currency      string
	DueDate       time.Time
	DaysOverdue   int
	Stage         int
	Tone          models.ReminderTone
	PriorSent     int
}

// Generator produces reminder copy from a request. The production
// implementation calls the hosted model API; tests substitute fakes.
type Generator interface {
	GenerateReminder(ctx context.Context, req GenerationRequest) (subject string, body string, err error)
}

// DraftContent is the outcome of a generation attempt chain. Source records
// whether the copy came from the generator or the static fallback, so the
// distinction survives into the persisted draft.
type DraftContent struct {
	Subject string
	Body    string
	Source  models.GeneratorSource
}

var toneInstructions = map[models.ReminderTone]string{
	models.ReminderToneFriendly:     "Warm and understanding. Assume the missed payment is an oversight. No pressure.",
	models.ReminderToneProfessional: "Polite but direct. State the facts of the overdue invoice and ask for payment.",
	models.ReminderToneFirm:         "Direct and assertive. Make clear the invoice is significantly overdue and payment is expected promptly. Never threaten.",
	models.ReminderToneFormal:       "Serious, formal register conveying urgency. Request immediate payment or contact. No threats, no mention of lawyers, courts or consequences.",
}

// BuildPrompt renders the generation request into the instruction text sent
// to the model.
func BuildPrompt(req GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a payment reminder email from %s to their client.\n\n", req.BusinessName)
	fmt.Fprintf(&b, "Client name: %s\n", req.ClientName)
	if req.CompanyName != "" {
		fmt.Fprintf(&b, "Client company: %s\n", req.CompanyName)
	}
	fmt.Fprintf(&b, "Invoice number: %s\n", req.InvoiceNumber)
	fmt.Fprintf(&b, "Amount due: %s %s\n", req.Amount.StringFixed(2), req.Currency)
	fmt.Fprintf(&b, "Due date: %s\n", req.DueDate.Format("January 2, 2006"))
	fmt.Fprintf(&b, "Days overdue: %d\n", req.DaysOverdue)
	fmt.Fprintf(&b, "Reminders already sent for this invoice: %d\n", req.PriorSent)
	if req.ClientNotes != "" {
		fmt.Fprintf(&b, "Relationship notes: %s\n", req.ClientNotes)
	}
	fmt.Fprintf(&b, "\nTone: %s. %s\n", req.Tone, toneInstructions[req.Tone])
	if req.SenderName != "" {
		fmt.Fprintf(&b, "Sign off as %s.\n", req.SenderName)
	}
	b.WriteString("\nNever use threatening or legal language of any kind.\n")
	b.WriteString(`Respond with a JSON object: {"subject": "...", "body": "..."}` + "\n")
	return b.String()
}

// ContentGenerator wraps a Generator with bounded retries, moderation gating
// and the static fallback. Generation never fails outright: after
// MaxAttempts rejected or errored attempts the per-stage template is used.
type ContentGenerator struct {
	Generator   Generator
	Logger      *logrus.Logger
	MaxAttempts int
}

func NewContentGenerator(generator Generator, logger *logrus.Logger) *ContentGenerator {
	return &ContentGenerator{
		Generator:   generator,
		Logger:      logger,
		MaxAttempts: 3,
	}
}

// Generate runs the attempt chain for one invoice. A moderation rejection
// triggers full regeneration rather than editing the text; rewording a
// rejected draft risks keeping the violation in a form the filter misses.
func (g *ContentGenerator) Generate(ctx context.Context, req GenerationRequest) DraftContent {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if g.Generator == nil {
			break
		}
		subject, body, err := g.Generator.GenerateReminder(ctx, req)
		if err != nil {
			g.logAttempt(req, attempt, "generator error: "+err.Error())
			continue
		}
		if ok, violation := ModerateContent(subject, body); !ok {
			g.logAttempt(req, attempt, "moderation rejected: "+violation)
			continue
		}
		return DraftContent{
			Subject: strings.TrimSpace(subject),
			Body:    TruncateWords(strings.TrimSpace(body), maxBodyWords),
			Source:  models.GeneratorSourceAI,
		}
	}
	return FallbackContent(req)
}

func (g *ContentGenerator) logAttempt(req GenerationRequest, attempt int, reason string) {
	if g.Logger == nil {
		return
	}
	g.Logger.WithFields(logrus.Fields{
		"invoice_number": req.InvoiceNumber,
		"stage":          req.Stage,
		"attempt":        attempt,
	}).Warn("reminder generation attempt discarded: " + reason)
}

// FallbackContent renders the deterministic per-stage template. Templates
// are policy-safe by construction and never fail.
func FallbackContent(req GenerationRequest) DraftContent {
	amount := fmt.Sprintf("%s %s", req.Amount.StringFixed(2), req.Currency)
	due := req.DueDate.Format("January 2, 2006")
	signoff := req.SenderName
	if signoff == "" {
		signoff = req.BusinessName
	}

	var subject, body string
	switch req.Stage {
	case 1:
		subject = fmt.Sprintf("Friendly reminder: invoice %s", req.InvoiceNumber)
		body = fmt.Sprintf(
			"Hi %s,\n\nJust a quick note that invoice %s for %s was due on %s. "+
				"These things are easy to miss! If you've already sent payment, please disregard this message.\n\n"+
				"Thanks,\n%s",
			req.ClientName, req.InvoiceNumber, amount, due, signoff)
	case 2:
		subject = fmt.Sprintf("Payment reminder: invoice %s is overdue", req.InvoiceNumber)
		body = fmt.Sprintf(
			"Hello %s,\n\nInvoice %s for %s was due on %s and is now %d days overdue. "+
				"Could you let us know when we can expect payment? If there's a problem with the invoice, we're happy to discuss.\n\n"+
				"Best regards,\n%s",
			req.ClientName, req.InvoiceNumber, amount, due, req.DaysOverdue, signoff)
	case 3:
		subject = fmt.Sprintf("Invoice %s is now %d days overdue", req.InvoiceNumber, req.DaysOverdue)
		body = fmt.Sprintf(
			"Hello %s,\n\nInvoice %s for %s remains unpaid %d days past its due date of %s. "+
				"We ask that you arrange payment promptly, or contact us right away if something is preventing it.\n\n"+
				"Regards,\n%s",
			req.ClientName, req.InvoiceNumber, amount, req.DaysOverdue, due, signoff)
	default:
		subject = fmt.Sprintf("Urgent: invoice %s requires immediate attention", req.InvoiceNumber)
		body = fmt.Sprintf(
			"Dear %s,\n\nDespite previous reminders, invoice %s for %s remains unpaid %d days after its due date of %s. "+
				"We request immediate payment, or that you contact us today to discuss the account.\n\n"+
				"Sincerely,\n%s",
			req.ClientName, req.InvoiceNumber, amount, req.DaysOverdue, due, signoff)
	}

	return DraftContent{
		Subject: subject,
		Body:    TruncateWords(body, maxBodyWords),
		Source:  models.GeneratorSourceFallback,
	}
}
