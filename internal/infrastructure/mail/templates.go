package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"sync"
	"text/template"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/notification"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// ErrTemplateNotFound is returned for an unregistered template identifier
var ErrTemplateNotFound = shared.NewDomainError("MAIL_TEMPLATE_NOT_FOUND", "Mail template not found")

type mailTemplate struct {
	subject *template.Template
	text    *template.Template
	html    *htmltemplate.Template
}

// Rendered is the output of a template
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// TemplateRegistry holds named mail templates using {{.placeholder}} syntax
type TemplateRegistry struct {
	mu        sync.RWMutex
	templates map[string]mailTemplate
}

// NewTemplateRegistry creates a registry with the built-in templates
func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{templates: make(map[string]mailTemplate)}
	r.MustRegister(notification.TemplateDocumentAssigned,
		"Case {{.documentId}} has been assigned to you",
		"Hello {{.assigneeName}},\n\n{{.assignedBy}} assigned case {{.documentId}} ({{.definitionName}}) to you.\n",
		`<p>Hello {{.assigneeName}},</p><p>{{.assignedBy}} assigned case <b>{{.documentId}}</b> ({{.definitionName}}) to you.</p>`,
	)
	return r
}

// Register parses and stores a template. Empty bodies are skipped.
func (r *TemplateRegistry) Register(id, subject, text, html string) error {
	if id == "" {
		return shared.NewDomainError("INVALID_INPUT", "Template identifier is required")
	}
	var t mailTemplate
	var err error
	if t.subject, err = template.New(id + ".subject").Option("missingkey=zero").Parse(subject); err != nil {
		return fmt.Errorf("invalid subject template %s: %w", id, err)
	}
	if text != "" {
		if t.text, err = template.New(id + ".text").Option("missingkey=zero").Parse(text); err != nil {
			return fmt.Errorf("invalid text template %s: %w", id, err)
		}
	}
	if html != "" {
		if t.html, err = htmltemplate.New(id + ".html").Option("missingkey=zero").Parse(html); err != nil {
			return fmt.Errorf("invalid html template %s: %w", id, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[id] = t
	return nil
}

// MustRegister panics on an invalid template
func (r *TemplateRegistry) MustRegister(id, subject, text, html string) {
	if err := r.Register(id, subject, text, html); err != nil {
		panic(err)
	}
}

// Render executes the template with placeholders
func (r *TemplateRegistry) Render(id string, placeholders map[string]any) (*Rendered, error) {
	r.mu.RLock()
	t, ok := r.templates[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrTemplateNotFound.WithDetails(map[string]any{"template": id})
	}
	if placeholders == nil {
		placeholders = map[string]any{}
	}

	var out Rendered
	var buf bytes.Buffer
	if err := t.subject.Execute(&buf, placeholders); err != nil {
		return nil, fmt.Errorf("render subject %s: %w", id, err)
	}
	out.Subject = buf.String()
	if t.text != nil {
		buf.Reset()
		if err := t.text.Execute(&buf, placeholders); err != nil {
			return nil, fmt.Errorf("render text %s: %w", id, err)
		}
		out.Text = buf.String()
	}
	if t.html != nil {
		buf.Reset()
		if err := t.html.Execute(&buf, placeholders); err != nil {
			return nil, fmt.Errorf("render html %s: %w", id, err)
		}
		out.HTML = buf.String()
	}
	return &out, nil
}
