// Package user は会員情報の永続化とアカウント系エンドポイントを提供します。
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/yourusername/healing-board/internal/apperr"
)

// pqUniqueViolation はPostgreSQLの一意制約違反のエラーコードです。
const pqUniqueViolation = "23505"

// User は users テーブルの1行を表します。
type User struct {
	ID     int64  // 数値主キー
	IDUser string // ログインID（全体で一意）
	UserPW string // bcryptハッシュ
	Email  string
	Name   string
	Role   string // "user" または "admin"
}

// Repository は会員情報のPostgreSQL実装です。
type Repository struct {
	db *sql.DB
}

// NewRepository は Repository を作成します。
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Register は新しい会員を登録し、採番された数値主キーを返します。
// ログインIDが重複している場合は apperr.ErrDuplicateHandle を返します。
// それ以外のDB障害はそのまま返します（呼び出し側で 500 に対応付けます）。
func (r *Repository) Register(ctx context.Context, iduser, passwordHash, email, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO users (iduser, userpw, email, name) VALUES ($1, $2, $3, $4) RETURNING id`,
		iduser, passwordHash, email, name,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return 0, apperr.ErrDuplicateHandle
		}
		return 0, err
	}
	return id, nil
}

// FindByHandle はログインIDで会員を検索します。
// 存在しない場合は apperr.ErrNotFound を返します。
func (r *Repository) FindByHandle(ctx context.Context, iduser string) (*User, error) {
	return r.findOne(ctx,
		`SELECT id, iduser, userpw, email, name, role FROM users WHERE iduser = $1`,
		iduser,
	)
}

// FindByHandleEmail はログインIDとメールアドレスの組で会員を検索します。
// パスワード再設定フローの本人確認に使います。
func (r *Repository) FindByHandleEmail(ctx context.Context, iduser, email string) (*User, error) {
	return r.findOne(ctx,
		`SELECT id, iduser, userpw, email, name, role FROM users WHERE iduser = $1 AND email = $2`,
		iduser, email,
	)
}

func (r *Repository) findOne(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.IDUser, &u.UserPW, &u.Email, &u.Name, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdatePassword はログインIDとメールアドレスが一致する会員のパスワードハッシュを更新します。
// 一致する行がない場合は apperr.ErrNotFound を返します。
func (r *Repository) UpdatePassword(ctx context.Context, iduser, email, passwordHash string) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE users SET userpw = $1 WHERE iduser = $2 AND email = $3`,
		passwordHash, iduser, email,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Withdraw は会員とその所有リソースを削除します。
// 投稿 → ヒーリング記録 → 会員本体の順に逐次削除し、途中で失敗した場合は
// そこで中断してエラーを返します（先行する削除は取り消されません）。
func (r *Repository) Withdraw(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM healing_calendar WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete healing records: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
