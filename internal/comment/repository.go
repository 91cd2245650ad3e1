// Package comment は投稿に対するコメントのCRUDを提供します。
package comment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yourusername/healing-board/internal/apperr"
)

// Comment は comments テーブルの1行を表します。
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"` // 作成者のログインID（退会済みの場合は空）
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository はコメントのPostgreSQL実装です。
type Repository struct {
	db *sql.DB
}

// NewRepository は Repository を作成します。
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `
		SELECT comments.id, comments.post_id, comments.user_id, comments.content,
		       COALESCE(users.iduser, '') AS author,
		       comments.created_at, comments.updated_at
		FROM comments
		LEFT JOIN users ON comments.user_id = users.id`

// Create はコメントを作成し、採番されたIDを返します。
func (r *Repository) Create(ctx context.Context, postID, userID int64, content string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO comments (post_id, user_id, content) VALUES ($1, $2, $3) RETURNING id`,
		postID, userID, content,
	).Scan(&id)
	return id, err
}

// FindAll は全コメントを新しい順に返します。
func (r *Repository) FindAll(ctx context.Context) ([]Comment, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY comments.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.Content, &cm.Author, &cm.CreatedAt, &cm.UpdatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}

// FindByID はコメントを1件取得します。存在しない場合は apperr.ErrNotFound を返します。
func (r *Repository) FindByID(ctx context.Context, id int64) (*Comment, error) {
	var cm Comment
	err := r.db.QueryRowContext(ctx, selectColumns+` WHERE comments.id = $1`, id).
		Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.Content, &cm.Author, &cm.CreatedAt, &cm.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &cm, nil
}

// Update はコメントの内容を更新します。所有権の判定は呼び出し側で済んでいる前提です。
func (r *Repository) Update(ctx context.Context, id int64, content string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE comments SET content = $1, updated_at = now() WHERE id = $2`,
		content, id,
	)
	return err
}

// Delete はコメントを削除します。
func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}
