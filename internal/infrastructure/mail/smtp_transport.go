package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
)

// SMTPTransport sends MIME mail through an SMTP relay
type SMTPTransport struct {
	addr     string
	host     string
	username string
	password string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPTransport creates a transport for cfg.Host:cfg.Port
func NewSMTPTransport(cfg config.MailConfig) *SMTPTransport {
	return &SMTPTransport{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:     cfg.Host,
		username: cfg.Username,
		password: cfg.Password,
		send:     smtp.SendMail,
	}
}

// Deliver builds the MIME message and sends it to every recipient, Bcc included
func (t *SMTPTransport) Deliver(ctx context.Context, msg contract.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := BuildMIME(msg, time.Now())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if t.username != "" {
		auth = smtp.PlainAuth("", t.username, t.password, t.host)
	}

	all := msg.Recipients.All()
	to := make([]string, len(all))
	for i, r := range all {
		to[i] = r.Email
	}
	if err := t.send(t.addr, auth, msg.Sender.Email, to, raw); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func formatAddress(r contract.Recipient) string {
	return (&mail.Address{Name: r.Name, Address: r.Email}).String()
}

func formatAddressList(rs []contract.Recipient) string {
	var buf bytes.Buffer
	for i, r := range rs {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(formatAddress(r))
	}
	return buf.String()
}

// BuildMIME renders msg as an RFC 5322 message. Bcc is never written to the headers.
func BuildMIME(msg contract.MailMessage, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}

	header("From", formatAddress(msg.Sender))
	header("To", formatAddressList(msg.Recipients.To))
	if len(msg.Recipients.Cc) > 0 {
		header("Cc", formatAddressList(msg.Recipients.Cc))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@valtimo>", uuid.NewString()))
	header("MIME-Version", "1.0")

	mixed := multipart.NewWriter(&buf)
	header("Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	buf.WriteString("\r\n")

	if err := writeBody(mixed, msg); err != nil {
		return nil, err
	}
	for _, a := range msg.Attachments {
		if err := writeAttachment(mixed, a); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBody(mixed *multipart.Writer, msg contract.MailMessage) error {
	var alt bytes.Buffer
	altWriter := multipart.NewWriter(&alt)

	parts := []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", msg.TextBody},
		{"text/html; charset=utf-8", msg.HTMLBody},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		w, err := altWriter.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return err
		}
		if err := qp.Close(); err != nil {
			return err
		}
	}
	if err := altWriter.Close(); err != nil {
		return err
	}

	w, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/alternative; boundary=" + altWriter.Boundary()},
	})
	if err != nil {
		return err
	}
	_, err = w.Write(alt.Bytes())
	return err
}

func writeAttachment(mixed *multipart.Writer, a contract.Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Name})},
	})
	if err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString(a.Content)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err = w.Write([]byte(encoded + "\r\n"))
	return err
}
