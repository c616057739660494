package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/model"
)

// LoadSeed reads a catalog document from path.
func LoadSeed(path string) (*model.CatalogSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog seed: %w", err)
	}
	var seed model.CatalogSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode catalog seed %s: %w", path, err)
	}
	return &seed, nil
}

// Seed imports a catalog in one transaction. Series are matched by name and
// episodes by (season, number), so importing twice changes nothing. The
// subtitles of an imported episode are replaced.
func (db *DB) Seed(ctx context.Context, seed *model.CatalogSeed) (int, error) {
	count := 0
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, s := range seed.Series {
			if s.Name == "" {
				continue
			}
			seriesID, err := db.upsertSeries(ctx, tx, s.Series)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Name, err)
			}
			for _, ep := range s.Episodes {
				if err := db.seedEpisode(ctx, tx, seriesID, ep); err != nil {
					return fmt.Errorf("series %q S%02dE%02d: %w", s.Name, ep.Season, ep.Number, err)
				}
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logging.Info().Int("series", count).Msg("catalog seeded")
	return count, nil
}

func (db *DB) seedEpisode(ctx context.Context, tx *sql.Tx, seriesID int64, ep model.SeedEpisode) error {
	insert := `INSERT INTO episodes (series_id, season, number) VALUES (?, ?, ?) ON CONFLICT(series_id, season, number) DO NOTHING`
	if db.dialect == DialectMySQL {
		insert = `INSERT IGNORE INTO episodes (series_id, season, number) VALUES (?, ?, ?)`
	}
	if _, err := tx.ExecContext(ctx, insert, seriesID, ep.Season, ep.Number); err != nil {
		return err
	}

	var episodeID int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM episodes WHERE series_id = ? AND season = ? AND number = ?`,
		seriesID, ep.Season, ep.Number).Scan(&episodeID)
	if err != nil {
		return err
	}

	if len(ep.Subtitles) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subtitles WHERE episode_id = ?`, episodeID); err != nil {
		return err
	}
	for _, sub := range ep.Subtitles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subtitles (episode_id, language, content) VALUES (?, ?, ?)`,
			episodeID, sub.Language, sub.Content); err != nil {
			return err
		}
	}
	return nil
}
