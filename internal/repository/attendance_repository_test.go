package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var attendanceRowColumns = []string{"id", "session_id", "student_id", "will_attend", "responded_at", "feedback", "rating",
	"feedback_submitted", "feedback_at", "created_at", "updated_at"}

func TestAttendanceRepositoryUpsertIntentTwiceKeepsOneRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	first := time.Now()
	second := first.Add(time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (session_id, student_id) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "sess-1", "stu-1", true, first).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).
			AddRow("att-1", "sess-1", "stu-1", true, first, nil, nil, false, nil, first, first))
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (session_id, student_id) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "sess-1", "stu-1", false, second).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).
			AddRow("att-1", "sess-1", "stu-1", false, second, nil, nil, false, nil, first, second))

	rec1, err := repo.UpsertIntent(context.Background(), "sess-1", "stu-1", true, first)
	require.NoError(t, err)
	rec2, err := repo.UpsertIntent(context.Background(), "sess-1", "stu-1", false, second)
	require.NoError(t, err)

	assert.Equal(t, rec1.ID, rec2.ID)
	require.NotNil(t, rec2.WillAttend)
	assert.False(t, *rec2.WillAttend)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertFeedback(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	rating := 4
	mock.ExpectQuery(regexp.QuoteMeta("feedback_submitted = TRUE")).
		WithArgs(sqlmock.AnyArg(), "sess-1", "stu-1", "great", 4, now).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).
			AddRow("att-1", "sess-1", "stu-1", nil, nil, "great", 4, true, now, now, now))

	rec, err := repo.UpsertFeedback(context.Background(), "sess-1", "stu-1", "great", &rating, now)
	require.NoError(t, err)
	assert.True(t, rec.FeedbackSubmitted)
	assert.Nil(t, rec.WillAttend)
	require.NotNil(t, rec.Rating)
	assert.Equal(t, 4, *rec.Rating)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM session_attendance WHERE session_id = $1 AND student_id = $2")).
		WithArgs("sess-1", "stu-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "sess-1", "stu-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListBySession(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM session_attendance WHERE session_id = $1")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).
			AddRow("att-1", "sess-1", "stu-1", true, now, nil, nil, false, nil, now, now).
			AddRow("att-2", "sess-1", "stu-2", nil, nil, "ok", nil, true, now, now, now))

	records, err := repo.ListBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
