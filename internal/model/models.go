package model

import "time"

type Series struct {
	ID               int64   `json:"id" db:"id"`
	Name             string  `json:"nom" db:"name"`
	Summary          *string `json:"resume" db:"summary"`
	PosterURL        *string `json:"affiche_url" db:"poster_url"`
	OriginalLanguage *string `json:"langue_originale" db:"original_language"`
}

type Episode struct {
	ID       int64 `json:"id" db:"id"`
	SeriesID int64 `json:"serie_id" db:"series_id"`
	Season   int   `json:"saison" db:"season"`
	Number   int   `json:"episode" db:"number"`
}

type Subtitle struct {
	ID        int64  `json:"id" db:"id"`
	EpisodeID int64  `json:"episode_id" db:"episode_id"`
	Language  string `json:"langue" db:"language"`
	Content   string `json:"contenu" db:"content"`
}

type User struct {
	ID           int64  `json:"id" db:"id"`
	DisplayName  string `json:"pseudo" db:"display_name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
}

type Rating struct {
	UserID   int64     `json:"id_utilisateur" db:"user_id"`
	SeriesID int64     `json:"id_series" db:"series_id"`
	Score    int       `json:"note" db:"score"`
	Comment  string    `json:"commentaire" db:"comment"`
	RatedAt  time.Time `json:"date_notation" db:"rated_at"`
}

// ScoreDetails is the breakdown the search engine attaches to a hit.
type ScoreDetails struct {
	TFIDF    float64 `json:"tfidf"`
	Coverage float64 `json:"couverture"`
}

// Record is a series as returned by a listing endpoint. Every endpoint adds
// its own score field on top of the catalog columns.
type Record struct {
	Series
	Note            *int          `json:"note,omitempty"`
	Score           *float64      `json:"score,omitempty"`
	ProfileScore    *float64      `json:"score_profil,omitempty"`
	SimilarityScore *float64      `json:"score_similarite,omitempty"`
	AverageNote     *float64      `json:"note_moyenne,omitempty"`
	NoteCount       *int          `json:"nb_notes,omitempty"`
	Details         *ScoreDetails `json:"details_score,omitempty"`
}

// Field returns the numeric field stored under the given wire name.
func (r Record) Field(key string) (float64, bool) {
	switch key {
	case "score":
		return floatOf(r.Score)
	case "score_profil":
		return floatOf(r.ProfileScore)
	case "score_similarite":
		return floatOf(r.SimilarityScore)
	case "note_moyenne":
		return floatOf(r.AverageNote)
	case "note":
		if r.Note == nil {
			return 0, false
		}
		return float64(*r.Note), true
	case "nb_notes":
		if r.NoteCount == nil {
			return 0, false
		}
		return float64(*r.NoteCount), true
	}
	return 0, false
}

func floatOf(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// CatalogPage is the body of the catalog and rated-list endpoints.
type CatalogPage struct {
	Series []Record `json:"series"`
	Count  int      `json:"nombre_series"`
}

type SearchPage struct {
	Query     string   `json:"requete"`
	Results   []Record `json:"resultats"`
	Count     int      `json:"nombre_resultats"`
	ElapsedMS float64  `json:"temps_recherche_ms"`
}

type RecommendationPage struct {
	Recommendations []Record `json:"recommandations"`
	Count           int      `json:"nombre_recommandations"`
	ElapsedMS       float64  `json:"temps_reco_ms"`
}

type SimilarPage struct {
	Reference string   `json:"serie_reference"`
	Results   []Record `json:"resultats"`
	ElapsedMS float64  `json:"temps_reco_ms"`
}

type SeriesDetails struct {
	Series
	AverageNote *float64 `json:"note_moyenne"`
	NoteCount   int      `json:"nb_notes"`
}

type RateRequest struct {
	SeriesID int64  `json:"serie_id" validate:"required,gt=0"`
	Score    int    `json:"note" validate:"required,min=1,max=5"`
	Comment  string `json:"commentaire,omitempty"`
}

type ProfileRequest struct {
	LikedSeries []string `json:"series_aimees" validate:"required,min=1,dive,required"`
	Limit       int      `json:"limit,omitempty"`
}

type CurrentRating struct {
	Note int `json:"note"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message     string `json:"message,omitempty"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"pseudo"`
	Token       string `json:"token,omitempty"`
}

type RegisterRequest struct {
	DisplayName string `json:"pseudo,omitempty"`
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

type RegisterResponse struct {
	Message     string `json:"message,omitempty"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"pseudo"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// CatalogSeed is the document the backend imports at startup.
type CatalogSeed struct {
	Series []SeedSeries `json:"series"`
}

type SeedSeries struct {
	Series
	Episodes []SeedEpisode `json:"episodes,omitempty"`
}

type SeedEpisode struct {
	Episode
	Subtitles []Subtitle `json:"sous_titres,omitempty"`
}
