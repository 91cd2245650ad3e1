// Package post は投稿（後記）のCRUDを提供します。
package post

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yourusername/healing-board/internal/apperr"
)

// Post は posts テーブルの1行を表します。作成者のログインIDを結合して保持します。
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"` // 作成者のログインID（退会済みの場合は空）
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository は投稿のPostgreSQL実装です。
type Repository struct {
	db *sql.DB
}

// NewRepository は Repository を作成します。
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `
		SELECT posts.id, posts.user_id, posts.title, posts.content,
		       COALESCE(users.iduser, '') AS author,
		       posts.created_at, posts.updated_at
		FROM posts
		LEFT JOIN users ON posts.user_id = users.id`

// Create は投稿を作成し、採番されたIDを返します。所有者は作成時に固定され、以後変わりません。
func (r *Repository) Create(ctx context.Context, userID int64, title, content string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO posts (user_id, title, content) VALUES ($1, $2, $3) RETURNING id`,
		userID, title, content,
	).Scan(&id)
	return id, err
}

// FindAll は全投稿を新しい順に返します。
func (r *Repository) FindAll(ctx context.Context) ([]Post, error) {
	return r.findMany(ctx, selectColumns+` ORDER BY posts.created_at DESC`)
}

// FindByUser は指定した会員の投稿を新しい順に返します。
func (r *Repository) FindByUser(ctx context.Context, userID int64) ([]Post, error) {
	return r.findMany(ctx, selectColumns+` WHERE posts.user_id = $1 ORDER BY posts.created_at DESC`, userID)
}

// FindByID は投稿を1件取得します。存在しない場合は apperr.ErrNotFound を返します。
func (r *Repository) FindByID(ctx context.Context, id int64) (*Post, error) {
	var p Post
	err := r.db.QueryRowContext(ctx, selectColumns+` WHERE posts.id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Author, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Update は投稿の本文を更新します。所有権の判定は呼び出し側で済んでいる前提です。
func (r *Repository) Update(ctx context.Context, id int64, title, content string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE posts SET title = $1, content = $2, updated_at = now() WHERE id = $3`,
		title, content, id,
	)
	return err
}

// Delete は投稿を削除します。
func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return err
}

func (r *Repository) findMany(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Author, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
