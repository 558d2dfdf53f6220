package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingMailer struct {
	sent []Message
}

func (m *recordingMailer) Send(ctx context.Context, msg Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type counterLimiter struct {
	counts map[string]int
	err    error
}

func (l *counterLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func TestRenderApproved(t *testing.T) {
	subject, body, err := Render(Message{Kind: TemplateSessionApproved, Params: map[string]string{
		"name": "Meera", "title": "Resume clinic", "date": "2026-10-17", "time": "10:00", "venue": "Hall A",
	}})
	require.NoError(t, err)
	assert.Equal(t, `Your session "Resume clinic" has been approved`, subject)
	assert.Contains(t, body, "2026-10-17 at 10:00 in Hall A")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render(Message{Kind: "otp"})
	require.Error(t, err)
}

func TestLogMailerRequiresRecipient(t *testing.T) {
	m := NewLogMailer("noreply@example.edu", zap.NewNop())
	require.Error(t, m.Send(context.Background(), Message{Kind: TemplateSessionRejected}))
	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.edu", Kind: TemplateSessionRejected, Params: map[string]string{"title": "x"}}))
}

func TestRateLimitedDropsOverLimit(t *testing.T) {
	next := &recordingMailer{}
	dropped := 0
	m := NewRateLimited(next, &counterLimiter{}, 2, time.Hour, zap.NewNop(), WithDropHook(func(Message) { dropped++ }))

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Send(context.Background(), Message{To: "Alum@Example.edu", Kind: TemplateSessionApproved}))
	}
	assert.Len(t, next.sent, 2)
	assert.Equal(t, 1, dropped)
}

func TestRateLimitedFailsOpen(t *testing.T) {
	next := &recordingMailer{}
	m := NewRateLimited(next, &counterLimiter{err: errors.New("redis down")}, 1, time.Hour, zap.NewNop())

	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.edu", Kind: TemplateSessionApproved}))
	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.edu", Kind: TemplateSessionApproved}))
	assert.Len(t, next.sent, 2)
}
