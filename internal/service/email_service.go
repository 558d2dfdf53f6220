package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-connect-api/pkg/jobs"
	"github.com/noah-isme/alumni-connect-api/pkg/mailer"
)

// JobTypeEmail tags outbound email jobs.
const JobTypeEmail = "email.send"

// EmailService hands emails to the mailer off the request path. Delivery failures are
// logged and never reach the caller.
type EmailService struct {
	mailer mailer.Mailer
	queue  jobEnqueuer
	logger *zap.Logger
}

// NewEmailService constructs the service. A nil mailer disables email; a nil queue sends inline.
func NewEmailService(m mailer.Mailer, queue jobEnqueuer, logger *zap.Logger) *EmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = mailer.Nop{}
	}
	return &EmailService{mailer: m, queue: queue, logger: logger}
}

// Send schedules an email.
func (s *EmailService) Send(ctx context.Context, msg mailer.Message) {
	if strings.TrimSpace(msg.To) == "" {
		return
	}
	if s.queue != nil {
		err := s.queue.TryEnqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeEmail, Payload: msg})
		if err == nil {
			return
		}
		s.logger.Warn("email queue unavailable, dropping message", zap.String("template", string(msg.Kind)), zap.Error(err))
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("email delivery failed", zap.String("template", string(msg.Kind)), zap.Error(err))
	}
}

// Handle delivers one queued email.
func (s *EmailService) Handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	return s.mailer.Send(ctx, msg)
}
