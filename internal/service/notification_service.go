package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	appErrors "github.com/noah-isme/alumni-connect-api/pkg/errors"
	"github.com/noah-isme/alumni-connect-api/pkg/jobs"
)

// JobTypeNotificationFanout tags fan-out jobs.
const JobTypeNotificationFanout = "notification.fanout"

type notificationStore interface {
	BulkInsert(ctx context.Context, recipients []string, payload models.NotificationPayload, at time.Time) (int64, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type fanoutMetrics interface {
	RecordNotificationFanout(recipients int)
	RecordNotificationFailure()
}

type fanoutJob struct {
	Recipients []string
	Payload    models.NotificationPayload
	CreatedAt  time.Time
}

// NotificationService creates one notification per recipient for an event and serves the
// recipient's inbox. Fan-out is best-effort and never reports failure to the caller.
type NotificationService struct {
	store   notificationStore
	queue   jobEnqueuer
	metrics fanoutMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NotificationServiceOption configures the service.
type NotificationServiceOption func(*NotificationService)

// WithNotificationMetrics attaches fan-out counters.
func WithNotificationMetrics(metrics fanoutMetrics) NotificationServiceOption {
	return func(s *NotificationService) {
		s.metrics = metrics
	}
}

// NewNotificationService constructs the service. With a nil queue, fan-out inserts inline.
func NewNotificationService(store notificationStore, queue jobEnqueuer, logger *zap.Logger, opts ...NotificationServiceOption) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{store: store, queue: queue, logger: logger, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Notify fans the payload out to the distinct non-empty recipients.
func (s *NotificationService) Notify(ctx context.Context, recipients []string, payload models.NotificationPayload) {
	unique := dedupeRecipients(recipients)
	if len(unique) == 0 {
		return
	}
	job := fanoutJob{Recipients: unique, Payload: payload, CreatedAt: s.now().UTC()}

	if s.queue != nil {
		err := s.queue.TryEnqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    JobTypeNotificationFanout,
			Payload: job,
		})
		if err == nil {
			return
		}
		s.logger.Warn("notification queue unavailable, inserting inline",
			zap.String("category", string(payload.Category)), zap.Error(err))
	}

	if err := s.insert(ctx, job); err != nil {
		s.Failed(len(unique), payload.Category, err)
	}
}

// Handle processes a queued fan-out job.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(fanoutJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	return s.insert(ctx, payload)
}

// OnExhausted records a fan-out job that ran out of retries.
func (s *NotificationService) OnExhausted(job jobs.Job, err error) {
	payload, _ := job.Payload.(fanoutJob)
	s.Failed(len(payload.Recipients), payload.Payload.Category, err)
}

// Failed logs and counts a lost fan-out batch.
func (s *NotificationService) Failed(recipients int, category models.NotificationCategory, err error) {
	if s.metrics != nil {
		s.metrics.RecordNotificationFailure()
	}
	s.logger.Warn("notification fan-out failed",
		zap.Int("recipients", recipients),
		zap.String("category", string(category)),
		zap.Error(err))
}

func (s *NotificationService) insert(ctx context.Context, job fanoutJob) error {
	inserted, err := s.store.BulkInsert(ctx, job.Recipients, job.Payload, job.CreatedAt)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordNotificationFanout(int(inserted))
	}
	return nil
}

// List returns the caller's notifications.
func (s *NotificationService) List(ctx context.Context, recipientID string, query dto.NotificationQuery) ([]models.Notification, *models.Pagination, error) {
	filter := models.NotificationFilter{
		RecipientID: recipientID,
		UnreadOnly:  query.Unread,
		Page:        query.Page,
		PageSize:    query.PageSize,
	}
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, pagination(query.Page, query.PageSize, total), nil
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, id string) error {
	if err := s.store.MarkRead(ctx, id, recipientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	updated, err := s.store.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notifications")
	}
	return updated, nil
}

func dedupeRecipients(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func pagination(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
