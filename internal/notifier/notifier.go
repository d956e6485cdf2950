package notifier

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/xtop/internal/config"
	"github.com/ibeckermayer/xtop/internal/notifier/providers"
	"github.com/ibeckermayer/xtop/internal/report"
	"github.com/ibeckermayer/xtop/internal/types"
)

// ErrNoRecipients means the email section lists nobody to send to
var ErrNoRecipients = errors.New("no email recipients configured")

// Notifier handles sending ranking reports
type Notifier struct {
	sender  Sender
	to      []string
	builder *report.Builder
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to []string, subject, htmlBody, plainBody string) error
}

// New creates a new notifier with the given sender
func New(sender Sender, to []string) (*Notifier, error) {
	if len(to) == 0 {
		return nil, ErrNoRecipients
	}
	builder, err := report.New()
	if err != nil {
		return nil, err
	}
	return &Notifier{sender: sender, to: to, builder: builder}, nil
}

// NewFromConfig creates a notifier based on configuration
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	var sender Sender

	switch cfg.Provider {
	case "smtp", "":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("email: smtp_host is required")
		}
		sender = providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.Password(),
			cfg.FromAddr,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return New(sender, cfg.To)
}

// SendReport mails the rankings of one run as HTML with a plain-text part
func (n *Notifier) SendReport(results []types.Result, topN int, window time.Duration, now time.Time) error {
	html, err := n.builder.BuildHTML(results, window, now)
	if err != nil {
		return err
	}

	var plain bytes.Buffer
	if _, err := report.WriteResults(&plain, results, topN, window); err != nil {
		return err
	}

	return n.sender.Send(n.to, Subject(results, window), html, plain.String())
}

// Subject names the accounts of a run, e.g. "Top posts (24h): @jack, @nasa"
func Subject(results []types.Result, window time.Duration) string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = "@" + r.Username
	}
	return fmt.Sprintf("Top posts (%s): %s", report.FormatWindow(window), strings.Join(names, ", "))
}
