package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/notification"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
	"go.uber.org/zap"
)

type recordingTransport struct {
	sent []contract.MailMessage
	err  error
}

func (r *recordingTransport) Deliver(ctx context.Context, msg contract.MailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func newTestSender(transport Transport, redirect string) *Sender {
	cfg := config.MailConfig{FromAddress: "no-reply@valtimo.local", FromName: "Valtimo", RedirectAll: redirect}
	return NewSenderWithTransport(transport, nil, cfg, zap.NewNop())
}

func to(emails ...string) contract.Recipients {
	var r contract.Recipients
	for _, e := range emails {
		r.To = append(r.To, contract.Recipient{Email: e})
	}
	return r
}

func TestSender_Send(t *testing.T) {
	tr := &recordingTransport{}
	s := newTestSender(tr, "")

	results, err := s.Send(context.Background(), contract.MailMessage{
		Recipients: contract.Recipients{
			To:  []contract.Recipient{{Email: "a@example.com"}},
			Bcc: []contract.Recipient{{Email: "b@example.com"}},
		},
		Subject:  "Hello",
		TextBody: "body",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, contract.MailStatusSent, results[1].Status)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, "no-reply@valtimo.local", tr.sent[0].Sender.Email)
}

func TestSender_RejectsInvalidRecipients(t *testing.T) {
	s := newTestSender(&recordingTransport{}, "")
	ctx := context.Background()

	_, err := s.Send(ctx, contract.MailMessage{Subject: "x"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = s.Send(ctx, contract.MailMessage{Subject: "x", Recipients: contract.Recipients{
		To: []contract.Recipient{{Name: "No Address"}},
	}})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = s.Send(ctx, contract.MailMessage{Subject: "x", Recipients: to("broken")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = s.Send(ctx, contract.MailMessage{Recipients: to("a@example.com")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestSender_RedirectAll(t *testing.T) {
	tr := &recordingTransport{}
	s := newTestSender(tr, "dev@example.com")

	results, err := s.Send(context.Background(), contract.MailMessage{
		Recipients: to("real@example.com", "other@example.com"),
		Subject:    "Hello",
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, []contract.Recipient{{Email: "dev@example.com"}}, tr.sent[0].Recipients.To)
	assert.Contains(t, tr.sent[0].Subject, "real@example.com, other@example.com")
}

func TestSender_TransportFailure(t *testing.T) {
	s := newTestSender(&recordingTransport{err: errors.New("relay down")}, "")
	_, err := s.Send(context.Background(), contract.MailMessage{Recipients: to("a@example.com"), Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
}

func TestSender_SendTemplated(t *testing.T) {
	tr := &recordingTransport{}
	s := newTestSender(tr, "")

	_, err := s.SendTemplated(context.Background(), contract.TemplatedMailMessage{
		TemplateIdentifier: notification.TemplateDocumentAssigned,
		Placeholders: map[string]any{
			"assigneeName":   "Jane",
			"assignedBy":     "john",
			"documentId":     "doc-1",
			"definitionName": "<loan>",
		},
		Recipients: to("jane@example.com"),
	})
	require.NoError(t, err)
	require.Len(t, tr.sent, 1)
	msg := tr.sent[0]
	assert.Equal(t, "Case doc-1 has been assigned to you", msg.Subject)
	assert.Contains(t, msg.TextBody, "john assigned case doc-1 (<loan>)")
	assert.Contains(t, msg.HTMLBody, "(&lt;loan&gt;)")

	_, err = s.SendTemplated(context.Background(), contract.TemplatedMailMessage{
		TemplateIdentifier: "unknown",
		Recipients:         to("jane@example.com"),
	})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateRegistry_Register(t *testing.T) {
	r := NewTemplateRegistry()
	assert.Error(t, r.Register("", "s", "", ""))
	assert.Error(t, r.Register("bad", "{{.unclosed", "", ""))

	require.NoError(t, r.Register("greeting", "Hi {{.name}}", "Dear {{.name}}", ""))
	out, err := r.Render("greeting", map[string]any{"name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ann", out.Subject)
	assert.Equal(t, "Dear Ann", out.Text)
	assert.Empty(t, out.HTML)
}

func TestBuildMIME(t *testing.T) {
	raw, err := BuildMIME(contract.MailMessage{
		Sender: contract.Recipient{Email: "from@example.com", Name: "Valtimo"},
		Recipients: contract.Recipients{
			To:  []contract.Recipient{{Email: "to@example.com"}},
			Cc:  []contract.Recipient{{Email: "cc@example.com"}},
			Bcc: []contract.Recipient{{Email: "secret@example.com"}},
		},
		Subject:     "Zaak toegewezen ✓",
		TextBody:    "plain",
		HTMLBody:    "<p>html</p>",
		Attachments: []contract.Attachment{{Name: "a.txt", ContentType: "text/plain", Content: []byte("hello")}},
	}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, `From: "Valtimo" <from@example.com>`)
	assert.Contains(t, s, "Cc: <cc@example.com>")
	assert.NotContains(t, s, "secret@example.com")
	assert.Contains(t, s, "Subject: =?utf-8?q?")
	assert.Contains(t, s, "multipart/alternative")
	assert.Contains(t, s, `attachment; filename=a.txt`)
	assert.Contains(t, s, "aGVsbG8=")
}

func TestSMTPTransport_Deliver(t *testing.T) {
	tr := NewSMTPTransport(config.MailConfig{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p"})

	var gotAddr, gotFrom string
	var gotTo []string
	tr.send = func(addr string, a smtp.Auth, from string, rcpt []string, msg []byte) error {
		gotAddr, gotFrom, gotTo = addr, from, rcpt
		assert.NotNil(t, a)
		assert.True(t, strings.Contains(string(msg), "Subject: hi"))
		return nil
	}

	err := tr.Deliver(context.Background(), contract.MailMessage{
		Sender: contract.Recipient{Email: "from@example.com"},
		Recipients: contract.Recipients{
			To:  []contract.Recipient{{Email: "to@example.com"}},
			Bcc: []contract.Recipient{{Email: "bcc@example.com"}},
		},
		Subject:  "hi",
		TextBody: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, "from@example.com", gotFrom)
	assert.Equal(t, []string{"to@example.com", "bcc@example.com"}, gotTo)
}

func TestNewSender_Providers(t *testing.T) {
	_, err := NewSender(config.MailConfig{Provider: "pigeon"}, nil, zap.NewNop())
	assert.Error(t, err)

	s, err := NewSender(config.MailConfig{Provider: "log", FromAddress: "a@b.c"}, nil, zap.NewNop())
	require.NoError(t, err)
	_, err = s.Send(context.Background(), contract.MailMessage{Recipients: to("x@example.com"), Subject: "s"})
	assert.NoError(t, err)
}
