package contract

import (
	"context"
	"strings"
)

// Recipient is a mail address with an optional display name
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Recipients groups addresses by header
type Recipients struct {
	To  []Recipient `json:"to"`
	Cc  []Recipient `json:"cc,omitempty"`
	Bcc []Recipient `json:"bcc,omitempty"`
}

// All returns every recipient regardless of header
func (r Recipients) All() []Recipient {
	all := make([]Recipient, 0, len(r.To)+len(r.Cc)+len(r.Bcc))
	all = append(all, r.To...)
	all = append(all, r.Cc...)
	return append(all, r.Bcc...)
}

// Attachment is a file attached to a mail
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}

// MailMessage is a fully rendered mail
type MailMessage struct {
	Sender      Recipient    `json:"sender"`
	Recipients  Recipients   `json:"recipients"`
	Subject     string       `json:"subject"`
	TextBody    string       `json:"text_body,omitempty"`
	HTMLBody    string       `json:"html_body,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// TemplatedMailMessage is rendered from a registered template before sending
type TemplatedMailMessage struct {
	TemplateIdentifier string         `json:"template_identifier"`
	Placeholders       map[string]any `json:"placeholders"`
	Sender             Recipient      `json:"sender"`
	Recipients         Recipients     `json:"recipients"`
	Subject            string         `json:"subject"`
}

// MailStatus is the delivery outcome for one recipient
type MailStatus string

const (
	MailStatusSent     MailStatus = "sent"
	MailStatusRejected MailStatus = "rejected"
)

// MailResult reports delivery for one recipient
type MailResult struct {
	Email  string     `json:"email"`
	Status MailStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// MailSender delivers mail through a provider
type MailSender interface {
	Send(ctx context.Context, message MailMessage) ([]MailResult, error)
	SendTemplated(ctx context.Context, message TemplatedMailMessage) ([]MailResult, error)
}

// ValidEmail performs a minimal syntactic check of an e-mail address
func ValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}
