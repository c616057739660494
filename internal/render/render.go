// Package render projects listing records into display cards. It is pure:
// adapters in internal/ui draw the View it returns.
package render

import (
	"fmt"

	"github.com/theLastOfCats/series-browser/internal/model"
)

// ScoreKey names the record field a listing displays as its score.
type ScoreKey string

const (
	NoScore         ScoreKey = "none"
	SearchScore     ScoreKey = "score"
	ProfileScore    ScoreKey = "score_profil"
	SimilarityScore ScoreKey = "score_similarite"
	PersonalNote    ScoreKey = "note"
)

// Placeholder is shown instead of cards when there is nothing to display.
const Placeholder = "No results"

const star = "★"

type Card struct {
	// SeriesID is what activating the card opens.
	SeriesID   int64
	Title      string
	Summary    string
	PosterURL  string
	Language   string
	ScoreText  string
	HasScore   bool
	Rated      bool
	Badge      string
	UserRating int
	Record     model.Record
}

type View struct {
	Cards       []Card
	Placeholder string
}

// Empty reports whether the view shows the placeholder.
func (v View) Empty() bool {
	return len(v.Cards) == 0
}

// Render builds one card per record. In the search view a record without the
// requested field falls back to its search score. Every record of the rated
// view carries the badge.
func Render(records []model.Record, key ScoreKey, searchView, ratedView bool) View {
	if len(records) == 0 {
		return View{Placeholder: Placeholder}
	}

	cards := make([]Card, 0, len(records))
	for _, rec := range records {
		card := Card{
			SeriesID:  rec.ID,
			Title:     rec.Name,
			Summary:   deref(rec.Summary),
			PosterURL: deref(rec.PosterURL),
			Language:  deref(rec.OriginalLanguage),
			Record:    rec,
		}

		if score, ok := displayScore(rec, key, searchView); ok {
			card.HasScore = true
			card.ScoreText = FormatScore(score)
		}

		if rec.Note != nil && *rec.Note > 0 {
			card.UserRating = *rec.Note
		}
		if card.UserRating > 0 || ratedView {
			card.Rated = true
			card.Badge = star
			if card.UserRating > 0 {
				card.Badge = fmt.Sprintf("%s %d", star, card.UserRating)
			}
		}
		cards = append(cards, card)
	}
	return View{Cards: cards}
}

// FormatScore prints a score with four decimals.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.4f", score)
}

func displayScore(rec model.Record, key ScoreKey, searchView bool) (float64, bool) {
	if key != "" && key != NoScore {
		if v, ok := rec.Field(string(key)); ok {
			return v, true
		}
	}
	if searchView {
		return rec.Field(string(SearchScore))
	}
	return 0, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
