// Package calendar はヒーリング記録（日付と前後の感情の組）のCRUDを提供します。
package calendar

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yourusername/healing-board/internal/apperr"
)

// dateLayout はAPIでやり取りする記録日の書式です。
const dateLayout = "2006-01-02"

// Record は healing_calendar テーブルの1行を表します。
type Record struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"-"`
	Place       string `json:"place"`
	RecordDate  string `json:"record_date"`
	EmotionPrev string `json:"emotion_prev"` // 記録前の感情
	EmotionNext string `json:"emotion_next"` // 記録後の感情
}

// Repository はヒーリング記録のPostgreSQL実装です。
type Repository struct {
	db *sql.DB
}

// NewRepository は Repository を作成します。
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create は記録を作成し、採番されたIDを返します。所有者は作成時に固定されます。
func (r *Repository) Create(ctx context.Context, userID int64, place, recordDate, emotionPrev, emotionNext string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO healing_calendar (user_id, place, record_date, emotion_prev, emotion_next)
		 VALUES ($1, $2, $3, $4, $5) RETURNING pk`,
		userID, place, recordDate, emotionPrev, emotionNext,
	).Scan(&id)
	return id, err
}

// FindByUser は指定した会員の記録を日付の昇順で返します。
func (r *Repository) FindByUser(ctx context.Context, userID int64) ([]Record, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT pk, user_id, place, record_date, emotion_prev, emotion_next
		 FROM healing_calendar WHERE user_id = $1 ORDER BY record_date ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FindByID は記録を1件取得します。存在しない場合は apperr.ErrNotFound を返します。
func (r *Repository) FindByID(ctx context.Context, id int64) (*Record, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT pk, user_id, place, record_date, emotion_prev, emotion_next
		 FROM healing_calendar WHERE pk = $1`,
		id,
	)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Update は記録の内容を更新します。所有権の判定は呼び出し側で済んでいる前提です。
func (r *Repository) Update(ctx context.Context, id int64, place, recordDate, emotionPrev, emotionNext string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE healing_calendar
		 SET place = $1, record_date = $2, emotion_prev = $3, emotion_next = $4
		 WHERE pk = $5`,
		place, recordDate, emotionPrev, emotionNext, id,
	)
	return err
}

// Delete は記録を削除します。
func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM healing_calendar WHERE pk = $1`, id)
	return err
}

// scanRecord はDATE型を文字列の記録日へ変換しながら1行を読み取ります。
func scanRecord(scan func(dest ...any) error) (Record, error) {
	var rec Record
	var recordDate time.Time
	if err := scan(&rec.ID, &rec.UserID, &rec.Place, &recordDate, &rec.EmotionPrev, &rec.EmotionNext); err != nil {
		return Record{}, err
	}
	rec.RecordDate = recordDate.Format(dateLayout)
	return rec, nil
}
