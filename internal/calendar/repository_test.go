package calendar

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/yourusername/healing-board/internal/apperr"
)

func setupRepoMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestCreateRecord(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO healing_calendar (user_id, place, record_date, emotion_prev, emotion_next)`)).
		WithArgs(int64(7), "海辺", "2025-06-01", "不安", "安らぎ").
		WillReturnRows(sqlmock.NewRows([]string{"pk"}).AddRow(int64(3)))

	id, err := repo.Create(context.Background(), 7, "海辺", "2025-06-01", "不安", "安らぎ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 3 {
		t.Errorf("id = %d, want 3", id)
	}
}

func TestFindByUserFormatsDate(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"pk", "user_id", "place", "record_date", "emotion_prev", "emotion_next"}).
		AddRow(int64(1), int64(7), "海辺", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "不安", "安らぎ").
		AddRow(int64(2), int64(7), "森", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), "疲れ", "回復")
	mock.ExpectQuery(`SELECT pk, user_id, place, record_date`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	records, err := repo.FindByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].RecordDate != "2025-06-01" {
		t.Errorf("record_date = %q, want 2025-06-01", records[0].RecordDate)
	}
	if records[1].RecordDate != "2025-06-15" {
		t.Errorf("record_date = %q, want 2025-06-15", records[1].RecordDate)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT pk, user_id, place, record_date`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"pk", "user_id", "place", "record_date", "emotion_prev", "emotion_next"}))

	_, err := repo.FindByID(context.Background(), 99)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateRecord(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE healing_calendar`)).
		WithArgs("森", "2025-06-15", "疲れ", "回復", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), 2, "森", "2025-06-15", "疲れ", "回復"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
