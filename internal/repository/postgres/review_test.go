package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/pkg/database"
	apperrors "github.com/utafrali/review-service/pkg/errors"
)

var reviewCols = []string{
	"id", "product_id", "author_id", "rating", "text", "status",
	"is_violation", "reports_count", "created_at", "updated_at", "deleted_at",
}

var t0 = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleReview() domain.Review {
	return domain.Review{
		ID:        "6f1c2b7e-46f5-4a53-9a43-0d0f7b1b7a01",
		ProductID: "prod-1",
		AuthorID:  "user-1",
		Rating:    5,
		Text:      "great",
		State:     domain.StateActive,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

func reviewRow(rv domain.Review) *pgxmock.Rows {
	return pgxmock.NewRows(reviewCols).AddRow(
		rv.ID, rv.ProductID, rv.AuthorID, rv.Rating, rv.Text, string(rv.State),
		rv.IsViolation, rv.ReportsCount, rv.CreatedAt, rv.UpdatedAt, rv.DeletedAt,
	)
}

func TestReviewRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)
	rv := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.ProductID, rv.AuthorID, rv.Rating, rv.Text, "active", false, 0, rv.CreatedAt, rv.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &rv))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_Error(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)
	rv := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.ProductID, rv.AuthorID, rv.Rating, rv.Text, "active", false, 0, rv.CreatedAt, rv.UpdatedAt).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &rv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert review")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	deletedAt := t0.Add(time.Hour)
	rv.State = domain.StateDeletedByModerator
	rv.DeletedAt = &deletedAt
	rv.IsViolation = true
	rv.ReportsCount = 2

	mock.ExpectQuery("SELECT .+ FROM reviews WHERE id").
		WithArgs(rv.ID).
		WillReturnRows(reviewRow(rv))

	got, err := repo.GetByID(context.Background(), rv.ID)
	require.NoError(t, err)
	assert.Equal(t, rv, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM reviews WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID_UnknownStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	rv.State = "archived"
	mock.ExpectQuery("SELECT .+ FROM reviews WHERE id").
		WithArgs(rv.ID).
		WillReturnRows(reviewRow(rv))

	_, err := repo.GetByID(context.Background(), rv.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListActiveByProduct(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	newer := sampleReview()
	newer.ID = "b0000000-0000-0000-0000-000000000002"
	newer.CreatedAt = t0.Add(time.Hour)
	older := sampleReview()
	older.IsViolation = true

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("prod-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT .+ FROM reviews WHERE product_id = .+ ORDER BY created_at DESC").
		WithArgs("prod-1", 2, 0).
		WillReturnRows(pgxmock.NewRows(reviewCols).
			AddRow(newer.ID, newer.ProductID, newer.AuthorID, newer.Rating, newer.Text, "active",
				false, 0, newer.CreatedAt, newer.UpdatedAt, newer.DeletedAt).
			AddRow(older.ID, older.ProductID, older.AuthorID, older.Rating, older.Text, "active",
				true, 0, older.CreatedAt, older.UpdatedAt, older.DeletedAt))

	reviews, total, err := repo.ListActiveByProduct(context.Background(), "prod-1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, reviews, 2)
	assert.Equal(t, newer.ID, reviews[0].ID)
	assert.True(t, reviews[1].IsViolation, "flagged reviews stay listed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListActiveByProduct_PastEnd(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("prod-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	reviews, total, err := repo.ListActiveByProduct(context.Background(), "prod-1", 20, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Mutate(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)
	rv := sampleReview()
	later := t0.Add(time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM reviews WHERE id = .+ FOR UPDATE").
		WithArgs(rv.ID).
		WillReturnRows(reviewRow(rv))
	mock.ExpectExec("UPDATE reviews SET rating").
		WithArgs(rv.ID, 3, "changed my mind", "active", later, (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	rating, text := 3, "changed my mind"
	got, err := repo.Mutate(context.Background(), rv.ID, func(r *domain.Review) error {
		return r.Edit("user-1", &rating, &text, later)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rating)
	assert.Equal(t, later, got.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Mutate_Delete(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)
	rv := sampleReview()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(rv.ID).WillReturnRows(reviewRow(rv))
	mock.ExpectExec("UPDATE reviews SET rating").
		WithArgs(rv.ID, rv.Rating, rv.Text, "deleted_by_moderator", t0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	got, err := repo.Mutate(context.Background(), rv.ID, func(r *domain.Review) error {
		return r.DeleteByModerator(t0)
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateDeletedByModerator, got.State)
	require.NotNil(t, got.DeletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Mutate_FnErrorRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)
	rv := sampleReview()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(rv.ID).WillReturnRows(reviewRow(rv))
	mock.ExpectRollback()

	_, err := repo.Mutate(context.Background(), rv.ID, func(r *domain.Review) error {
		return r.DeleteByAuthor("someone-else", t0)
	})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Mutate_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	called := false
	_, err := repo.Mutate(context.Background(), "missing", func(*domain.Review) error {
		called = true
		return nil
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Mutate_BeginError(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := repo.Mutate(context.Background(), "id", func(*domain.Review) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin review transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Report(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	rep := &domain.Report{
		ID:         "c0000000-0000-0000-0000-000000000009",
		ReviewID:   rv.ID,
		ReporterID: "user-7",
		Reason:     "off-topic",
		CreatedAt:  t0.Add(time.Hour),
	}
	flagged := rv
	flagged.IsViolation = true
	flagged.ReportsCount = 1
	flagged.UpdatedAt = rep.CreatedAt

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE reviews SET reports_count = reports_count \\+ 1").
		WithArgs(rv.ID, rep.CreatedAt).
		WillReturnRows(reviewRow(flagged))
	mock.ExpectExec("INSERT INTO review_reports").
		WithArgs(rep.ID, rep.ReviewID, rep.ReporterID, rep.Reason, rep.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	got, err := repo.Report(context.Background(), rep)
	require.NoError(t, err)
	assert.True(t, got.IsViolation)
	assert.Equal(t, 1, got.ReportsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Report_DeletedIsNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE reviews SET reports_count .+ WHERE id = .+ AND status = 'active'").
		WithArgs("gone", t0).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Report(context.Background(), &domain.Report{ID: "r", ReviewID: "gone", CreatedAt: t0})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Report_AuditInsertFails(t *testing.T) {
	mock := newMock(t)
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE reviews SET reports_count").
		WithArgs(rv.ID, t0).
		WillReturnRows(reviewRow(rv))
	mock.ExpectExec("INSERT INTO review_reports").
		WithArgs("r", rv.ID, "user-7", "spam", t0).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Report(context.Background(), &domain.Report{ID: "r", ReviewID: rv.ID, ReporterID: "user-7", Reason: "spam", CreatedAt: t0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert review report")
	assert.NoError(t, mock.ExpectationsWereMet())
}
