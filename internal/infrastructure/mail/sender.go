// Package mail delivers notification mail through SMTP or the application log.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Transport hands a validated message to a delivery mechanism
type Transport interface {
	Deliver(ctx context.Context, msg contract.MailMessage) error
}

// Sender implements contract.MailSender on top of a Transport
type Sender struct {
	transport   Transport
	templates   *TemplateRegistry
	from        contract.Recipient
	redirectAll string
	logger      *zap.Logger
}

// NewSender creates a sender for the configured provider
func NewSender(cfg config.MailConfig, templates *TemplateRegistry, logger *zap.Logger) (*Sender, error) {
	logger = logger.Named("mail")

	var transport Transport
	switch cfg.Provider {
	case "", "log":
		transport = NewLogTransport(logger)
	case "smtp":
		transport = NewSMTPTransport(cfg)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
	return NewSenderWithTransport(transport, templates, cfg, logger), nil
}

// NewSenderWithTransport creates a sender with an explicit transport
func NewSenderWithTransport(transport Transport, templates *TemplateRegistry, cfg config.MailConfig, logger *zap.Logger) *Sender {
	if templates == nil {
		templates = NewTemplateRegistry()
	}
	return &Sender{
		transport:   transport,
		templates:   templates,
		from:        contract.Recipient{Email: cfg.FromAddress, Name: cfg.FromName},
		redirectAll: strings.TrimSpace(cfg.RedirectAll),
		logger:      logger,
	}
}

// Templates returns the template registry
func (s *Sender) Templates() *TemplateRegistry {
	return s.templates
}

// Send validates and delivers a rendered message
func (s *Sender) Send(ctx context.Context, message contract.MailMessage) ([]contract.MailResult, error) {
	if err := validateRecipients(message.Recipients); err != nil {
		return nil, err
	}
	if strings.TrimSpace(message.Subject) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Mail subject is required")
	}
	if message.Sender.Email == "" {
		message.Sender = s.from
	}
	if !contract.ValidEmail(message.Sender.Email) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid sender address")
	}

	original := message.Recipients.All()
	if s.redirectAll != "" {
		message.Recipients = contract.Recipients{To: []contract.Recipient{{Email: s.redirectAll}}}
		message.Subject = fmt.Sprintf("%s [redirected from %s]", message.Subject, joinEmails(original))
	}

	if err := s.transport.Deliver(ctx, message); err != nil {
		s.logger.Error("mail delivery failed",
			zap.String("subject", message.Subject),
			zap.Int("recipients", len(original)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("deliver mail: %w", err)
	}

	results := make([]contract.MailResult, 0, len(original))
	for _, r := range original {
		results = append(results, contract.MailResult{Email: r.Email, Status: contract.MailStatusSent})
	}
	return results, nil
}

// SendTemplated renders the registered template and sends it
func (s *Sender) SendTemplated(ctx context.Context, message contract.TemplatedMailMessage) ([]contract.MailResult, error) {
	if err := validateRecipients(message.Recipients); err != nil {
		return nil, err
	}
	rendered, err := s.templates.Render(message.TemplateIdentifier, message.Placeholders)
	if err != nil {
		return nil, err
	}
	subject := message.Subject
	if subject == "" {
		subject = rendered.Subject
	}
	return s.Send(ctx, contract.MailMessage{
		Sender:     message.Sender,
		Recipients: message.Recipients,
		Subject:    subject,
		TextBody:   rendered.Text,
		HTMLBody:   rendered.HTML,
	})
}

func validateRecipients(r contract.Recipients) error {
	all := r.All()
	if len(all) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "At least one recipient is required")
	}
	if len(r.To) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "At least one To recipient is required")
	}
	for _, rc := range all {
		if strings.TrimSpace(rc.Email) == "" {
			return shared.NewDomainError("INVALID_INPUT", "Recipient has no e-mail address").
				WithDetails(map[string]any{"recipient": rc.Name})
		}
		if !contract.ValidEmail(rc.Email) {
			return shared.NewDomainError("INVALID_INPUT", "Invalid recipient e-mail address").
				WithDetails(map[string]any{"recipient": rc.Email})
		}
	}
	return nil
}

func joinEmails(rs []contract.Recipient) string {
	emails := make([]string, len(rs))
	for i, r := range rs {
		emails[i] = r.Email
	}
	return strings.Join(emails, ", ")
}

var _ contract.MailSender = (*Sender)(nil)
