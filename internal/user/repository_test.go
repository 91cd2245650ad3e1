package user

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

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

func TestRegister(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (iduser, userpw, email, name) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("user1", "hashed", "a@x.com", "テスト").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Register(context.Background(), "user1", "hashed", "a@x.com", "テスト")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Errorf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRegisterDuplicateHandle(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("user1", "hashed", "a@x.com", "テスト").
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	_, err := repo.Register(context.Background(), "user1", "hashed", "a@x.com", "テスト")
	if !errors.Is(err, apperr.ErrDuplicateHandle) {
		t.Fatalf("err = %v, want ErrDuplicateHandle", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRegisterStorageFailure(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	// 一意制約違反以外のDB障害はそのまま返る
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("user1", "hashed", "a@x.com", "テスト").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.Register(context.Background(), "user1", "hashed", "a@x.com", "テスト")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, apperr.ErrDuplicateHandle) {
		t.Fatal("storage failure must not map to ErrDuplicateHandle")
	}
}

func TestFindByHandle(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "iduser", "userpw", "email", "name", "role"}).
		AddRow(int64(7), "user1", "hashed", "a@x.com", "テスト", "user")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, iduser, userpw, email, name, role FROM users WHERE iduser = $1`)).
		WithArgs("user1").
		WillReturnRows(rows)

	found, err := repo.FindByHandle(context.Background(), "user1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != 7 || found.IDUser != "user1" || found.Role != "user" {
		t.Errorf("unexpected user: %+v", found)
	}
}

func TestFindByHandleNotFound(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, iduser, userpw, email, name, role FROM users WHERE iduser = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "iduser", "userpw", "email", "name", "role"}))

	_, err := repo.FindByHandle(context.Background(), "ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePasswordNotFound(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET userpw = $1 WHERE iduser = $2 AND email = $3`)).
		WithArgs("newhash", "ghost", "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), "ghost", "a@x.com", "newhash")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWithdrawCascadeOrder(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	// 投稿 → ヒーリング記録 → 会員本体の順
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM healing_calendar WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Withdraw(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestWithdrawCascadeAbortsOnFailure(t *testing.T) {
	repo, mock, cleanup := setupRepoMock(t)
	defer cleanup()

	// 2段目で失敗したら3段目は実行されない
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM healing_calendar WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnError(errors.New("disk full"))

	err := repo.Withdraw(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
