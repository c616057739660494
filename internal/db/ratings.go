package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/theLastOfCats/series-browser/internal/model"
)

// UpsertRating stores the score of userID for seriesID. Rating again
// replaces the previous score. Unknown users or series give ErrConflict.
func (db *DB) UpsertRating(ctx context.Context, userID, seriesID int64, score int, comment string) error {
	query := `INSERT INTO ratings (user_id, series_id, score, comment, rated_at) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id, series_id) DO UPDATE SET
		score = excluded.score,
		comment = excluded.comment,
		rated_at = excluded.rated_at`
	if db.dialect == DialectMySQL {
		query = `INSERT INTO ratings (user_id, series_id, score, comment, rated_at) VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			score = VALUES(score),
			comment = VALUES(comment),
			rated_at = VALUES(rated_at)`
	}

	var c sql.NullString
	if comment != "" {
		c = sql.NullString{String: comment, Valid: true}
	}
	if _, err := db.ExecContext(ctx, query, userID, seriesID, score, c, time.Now().UnixMilli()); err != nil {
		return classify(err)
	}
	return nil
}

// GetRating returns 0 when the series is not rated.
func (db *DB) GetRating(ctx context.Context, userID, seriesID int64) (int, error) {
	var score int
	err := db.QueryRowContext(ctx,
		`SELECT score FROM ratings WHERE user_id = ? AND series_id = ?`, userID, seriesID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rating: %w", err)
	}
	return score, nil
}

// DeleteRating returns ErrNotFound when there was nothing to delete.
func (db *DB) DeleteRating(ctx context.Context, userID, seriesID int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM ratings WHERE user_id = ? AND series_id = ?`, userID, seriesID)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RatedSeries lists the series rated by userID, best score first.
func (db *DB) RatedSeries(ctx context.Context, userID int64) ([]model.Record, error) {
	rows, err := db.QueryContext(ctx, `SELECT s.id, s.name, s.summary, s.poster_url, s.original_language, r.score
		FROM ratings r JOIN series s ON s.id = r.series_id
		WHERE r.user_id = ?
		ORDER BY r.score DESC, r.rated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rated series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Record{}
	for rows.Next() {
		var rec model.Record
		var summary, poster, lang sql.NullString
		var score int
		if err := rows.Scan(&rec.ID, &rec.Name, &summary, &poster, &lang, &score); err != nil {
			return nil, fmt.Errorf("failed to scan rated series: %w", err)
		}
		rec.Summary = nullString(summary)
		rec.PosterURL = nullString(poster)
		rec.OriginalLanguage = nullString(lang)
		rec.Note = &score
		out = append(out, rec)
	}
	return out, rows.Err()
}
