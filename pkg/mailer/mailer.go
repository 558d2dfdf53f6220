package mailer

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.uber.org/zap"
)

// TemplateKind identifies an email template.
type TemplateKind string

const (
	TemplateSessionApproved TemplateKind = "session_approved"
	TemplateSessionRejected TemplateKind = "session_rejected"
)

// Message is a single outbound email.
type Message struct {
	To     string
	Kind   TemplateKind
	Params map[string]string
}

// Mailer delivers an email. Delivery itself is an external collaborator; callers in the
// session workflow treat every error as non-fatal.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type rendered struct {
	Subject string
	Body    string
}

var templates = map[TemplateKind]struct {
	subject *template.Template
	body    *template.Template
}{
	TemplateSessionApproved: {
		subject: template.Must(template.New("approved_subject").Option("missingkey=zero").Parse(`Your session "{{.title}}" has been approved`)),
		body: template.Must(template.New("approved_body").Option("missingkey=zero").Parse(`Hello {{.name}},

Your session request "{{.title}}" was approved and scheduled for {{.date}} at {{.time}} in {{.venue}}.
{{if .link}}Details: {{.link}}
{{end}}`)),
	},
	TemplateSessionRejected: {
		subject: template.Must(template.New("rejected_subject").Option("missingkey=zero").Parse(`Your session "{{.title}}" was not approved`)),
		body: template.Must(template.New("rejected_body").Option("missingkey=zero").Parse(`Hello {{.name}},

Your session request "{{.title}}" was not approved.{{if .reason}}
Reason: {{.reason}}{{end}}
`)),
	},
}

// Render resolves the subject and body for a message.
func Render(msg Message) (subject, body string, err error) {
	tpl, ok := templates[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", msg.Kind)
	}
	var s, b bytes.Buffer
	if err := tpl.subject.Execute(&s, msg.Params); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := tpl.body.Execute(&b, msg.Params); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return s.String(), b.String(), nil
}

// LogMailer renders messages and writes them to the structured log instead of an SMTP relay.
type LogMailer struct {
	from   string
	logger *zap.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(from string, logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{from: from, logger: logger}
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient address required")
	}
	subject, body, err := Render(msg)
	if err != nil {
		return err
	}
	m.logger.Info("email dispatched",
		zap.String("from", m.from),
		zap.String("to", msg.To),
		zap.String("template", string(msg.Kind)),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}

// Nop discards every message.
type Nop struct{}

// Send implements Mailer.
func (Nop) Send(context.Context, Message) error { return nil }
