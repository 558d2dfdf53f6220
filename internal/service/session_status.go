package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/pkg/config"
	"github.com/noah-isme/alumni-connect-api/pkg/jobs"
)

// JobTypeStatusWriteBack tags status write-back jobs.
const JobTypeStatusWriteBack = "session.status.writeback"

// StatusInput holds the stored fields status derivation depends on.
type StatusInput struct {
	Stored            models.SessionStatus
	ManuallyCompleted bool
	Date              time.Time
	Time              string
}

// DeriveSessionStatus computes the effective status of a session at now. Date is read as a
// calendar day; now is converted to loc before comparing days and minutes. The second
// result reports whether the stored status should be refreshed, which is only the case
// for time-derived results.
func DeriveSessionStatus(in StatusInput, now time.Time, loc *time.Location) (models.SessionStatus, bool) {
	if in.ManuallyCompleted {
		return models.SessionStatusCompleted, false
	}
	if in.Stored == models.SessionStatusCancelled {
		return models.SessionStatusCancelled, false
	}
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)
	today := civilDay(local.Year(), local.Month(), local.Day())
	sessionDay := civilDay(in.Date.Year(), in.Date.Month(), in.Date.Day())

	var derived models.SessionStatus
	switch {
	case sessionDay > today:
		derived = models.SessionStatusUpcoming
	case sessionDay < today:
		derived = models.SessionStatusCompleted
	default:
		start := secondsSinceMidnight(in.Time)
		current := local.Hour()*3600 + local.Minute()*60 + local.Second()
		switch {
		case current < start:
			derived = models.SessionStatusUpcoming
		case current <= start+config.SessionWindowMinutes*60:
			derived = models.SessionStatusOngoing
		default:
			derived = models.SessionStatusCompleted
		}
	}
	return derived, derived != in.Stored
}

func civilDay(year int, month time.Month, day int) int {
	return year*10000 + int(month)*100 + day
}

// secondsSinceMidnight parses HH:MM; anything unparseable counts as midnight.
func secondsSinceMidnight(raw string) int {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Hour()*3600 + t.Minute()*60 + t.Second()
		}
	}
	return 0
}

type sessionStatusWriter interface {
	WriteBackStatus(ctx context.Context, id string, from, to models.SessionStatus) (bool, error)
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

type statusMetrics interface {
	RecordStatusWriteBack(result string)
}

type statusWriteBack struct {
	SessionID string
	From      models.SessionStatus
	To        models.SessionStatus
}

// StatusRefresher applies derived statuses to sessions on read and schedules best-effort
// persistence of the stale ones. The read path never waits for or fails on the write.
type StatusRefresher struct {
	store   sessionStatusWriter
	queue   jobEnqueuer
	metrics statusMetrics
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// StatusRefresherOption configures the refresher.
type StatusRefresherOption func(*StatusRefresher)

// WithStatusClock overrides the clock.
func WithStatusClock(now func() time.Time) StatusRefresherOption {
	return func(r *StatusRefresher) {
		if now != nil {
			r.now = now
		}
	}
}

// WithStatusMetrics attaches write-back counters.
func WithStatusMetrics(metrics statusMetrics) StatusRefresherOption {
	return func(r *StatusRefresher) {
		r.metrics = metrics
	}
}

// NewStatusRefresher constructs the refresher. A nil queue disables write-back.
func NewStatusRefresher(store sessionStatusWriter, queue jobEnqueuer, loc *time.Location, logger *zap.Logger, opts ...StatusRefresherOption) *StatusRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	r := &StatusRefresher{
		store:  store,
		queue:  queue,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Now returns the refresher clock, shared with callers that gate on effective status.
func (r *StatusRefresher) Now() time.Time {
	return r.now()
}

// Apply replaces each session's status with its effective status.
func (r *StatusRefresher) Apply(ctx context.Context, sessions ...*models.Session) {
	now := r.now()
	for _, session := range sessions {
		if session == nil {
			continue
		}
		derived, stale := DeriveSessionStatus(StatusInput{
			Stored:            session.Status,
			ManuallyCompleted: session.ManuallyCompleted,
			Date:              session.Date,
			Time:              session.Time,
		}, now, r.loc)
		if stale {
			r.schedule(statusWriteBack{SessionID: session.ID, From: session.Status, To: derived})
		}
		session.Status = derived
	}
}

// ApplyAll is Apply over a slice.
func (r *StatusRefresher) ApplyAll(ctx context.Context, sessions []models.Session) {
	for i := range sessions {
		r.Apply(ctx, &sessions[i])
	}
}

func (r *StatusRefresher) schedule(wb statusWriteBack) {
	if r.queue == nil {
		return
	}
	err := r.queue.TryEnqueue(jobs.Job{
		ID:      fmt.Sprintf("%s:%s", wb.SessionID, wb.To),
		Type:    JobTypeStatusWriteBack,
		Payload: wb,
	})
	if err != nil {
		r.record("dropped")
		r.logger.Debug("status write-back not scheduled", zap.String("session_id", wb.SessionID), zap.Error(err))
	}
}

// Handle persists one status write-back job.
func (r *StatusRefresher) Handle(ctx context.Context, job jobs.Job) error {
	wb, ok := job.Payload.(statusWriteBack)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	changed, err := r.store.WriteBackStatus(ctx, wb.SessionID, wb.From, wb.To)
	if err != nil {
		r.record("error")
		return err
	}
	if changed {
		r.record("written")
	} else {
		r.record("skipped")
	}
	return nil
}

func (r *StatusRefresher) record(result string) {
	if r.metrics != nil {
		r.metrics.RecordStatusWriteBack(result)
	}
}
