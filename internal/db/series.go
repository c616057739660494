package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/theLastOfCats/series-browser/internal/model"
)

const seriesColumns = `id, name, summary, poster_url, original_language`

type scanner interface {
	Scan(dest ...any) error
}

func scanSeries(row scanner) (model.Series, error) {
	var s model.Series
	var summary, poster, lang sql.NullString
	if err := row.Scan(&s.ID, &s.Name, &summary, &poster, &lang); err != nil {
		return s, err
	}
	s.Summary = nullString(summary)
	s.PosterURL = nullString(poster)
	s.OriginalLanguage = nullString(lang)
	return s, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func (db *DB) ListSeries(ctx context.Context) ([]model.Series, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+seriesColumns+` FROM series ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) GetSeries(ctx context.Context, id int64) (*model.Series, error) {
	s, err := scanSeries(db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get series %d: %w", id, err)
	}
	return &s, nil
}

// SeriesDetails returns a series with the average of its ratings.
func (db *DB) SeriesDetails(ctx context.Context, id int64) (*model.SeriesDetails, error) {
	s, err := db.GetSeries(ctx, id)
	if err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	var count int
	err = db.QueryRowContext(ctx,
		`SELECT AVG(score), COUNT(*) FROM ratings WHERE series_id = ?`, id).Scan(&avg, &count)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings of series %d: %w", id, err)
	}

	details := &model.SeriesDetails{Series: *s, NoteCount: count}
	if avg.Valid {
		v := avg.Float64
		details.AverageNote = &v
	}
	return details, nil
}

// upsertSeries inserts s or updates the row with the same name, and returns
// the row id.
func (db *DB) upsertSeries(ctx context.Context, tx *sql.Tx, s model.Series) (int64, error) {
	query := `INSERT INTO series (name, summary, poster_url, original_language) VALUES (?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		summary = excluded.summary,
		poster_url = excluded.poster_url,
		original_language = excluded.original_language`
	if db.dialect == DialectMySQL {
		query = `INSERT INTO series (name, summary, poster_url, original_language) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			summary = VALUES(summary),
			poster_url = VALUES(poster_url),
			original_language = VALUES(original_language)`
	}
	if _, err := tx.ExecContext(ctx, query, s.Name, s.Summary, s.PosterURL, s.OriginalLanguage); err != nil {
		return 0, classify(err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM series WHERE name = ?`, s.Name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
