package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/pkg/database"
)

// notificationBatchSize keeps each multi-row INSERT under the Postgres parameter limit.
const notificationBatchSize = 1000

const notificationColumns = `id, recipient_id, title, message, category, link, is_read, created_at`

// NotificationRepository persists in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// BulkInsert writes one notification per recipient using multi-row inserts in a single
// transaction.
func (r *NotificationRepository) BulkInsert(ctx context.Context, recipients []string, payload models.NotificationPayload, at time.Time) (int64, error) {
	if len(recipients) == 0 {
		return 0, nil
	}
	var link *string
	if payload.Link != "" {
		link = &payload.Link
	}

	var inserted int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for start := 0; start < len(recipients); start += notificationBatchSize {
			end := start + notificationBatchSize
			if end > len(recipients) {
				end = len(recipients)
			}
			batch := recipients[start:end]

			const perRow = 7
			values := make([]string, len(batch))
			args := make([]interface{}, 0, len(batch)*perRow)
			for i, recipient := range batch {
				base := i * perRow
				values[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, FALSE, $%d)",
					base+1, base+2, base+3, base+4, base+5, base+6, base+7)
				args = append(args, uuid.NewString(), recipient, payload.Title, payload.Message, payload.Category, link, at)
			}
			query := `INSERT INTO notifications (id, recipient_id, title, message, category, link, is_read, created_at) VALUES ` +
				strings.Join(values, ", ")
			result, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("insert notifications: %w", err)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("check notification rows: %w", err)
			}
			inserted += rows
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// List returns a recipient's notifications, newest first, plus the total count.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	where := " WHERE recipient_id = $1"
	if filter.UnreadOnly {
		where += " AND is_read = FALSE"
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM notifications%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		notificationColumns, where, pageSize, (page-1)*pageSize)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, listQuery, filter.RecipientID); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications"+where, filter.RecipientID); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkRead flags one notification of the recipient as read. Notifications owned by someone
// else are reported as sql.ErrNoRows.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireAffected(result, "mark notification read")
}

// MarkAllRead flags every unread notification of the recipient as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	const query = `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check notification rows: %w", err)
	}
	return rows, nil
}
