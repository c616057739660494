package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theLastOfCats/series-browser/internal/auth"
	"github.com/theLastOfCats/series-browser/internal/db"
	"github.com/theLastOfCats/series-browser/internal/engine"
	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/testutil"
)

func TestMain(m *testing.M) {
	auth.Init("test-secret", time.Hour)
	os.Exit(m.Run())
}

type stubEngine struct {
	mu    sync.Mutex
	hits  []engine.Hit
	err   error
	liked []string
	slug  string
	query string
	limit int
}

func (s *stubEngine) Search(_ context.Context, query string, limit int) ([]engine.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query, s.limit = query, limit
	return s.hits, s.err
}

func (s *stubEngine) Similar(_ context.Context, slug string, limit int) ([]engine.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slug, s.limit = slug, limit
	return s.hits, s.err
}

func (s *stubEngine) Profile(_ context.Context, liked []string, limit int) ([]engine.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liked, s.limit = liked, limit
	return s.hits, s.err
}

func newTestRouter(t *testing.T, eng engine.Engine) (http.Handler, *db.DB) {
	t.Helper()
	database := testutil.SetupTestDB(t)
	return NewRouter(Deps{DB: database, Engine: eng}), database
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body.Error
}

func tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func userPath(id int64, rest string) string {
	return "/api/utilisateur/" + strconv.FormatInt(id, 10) + rest
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rr := doJSON(t, h, http.MethodGet, "/health", "", nil)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	if rr.Body.String() != "Alive" {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), "Alive")
	}
}

func TestListSeries(t *testing.T) {
	h, database := newTestRouter(t, nil)
	testutil.SeedSeries(t, database, "Lost", "Dark")

	rr := doJSON(t, h, http.MethodGet, "/api/series", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var page model.CatalogPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Series, 2)
	assert.ElementsMatch(t, []string{"Lost", "Dark"}, []string{page.Series[0].Name, page.Series[1].Name})
}

func TestGetSeriesDetails(t *testing.T) {
	h, database := newTestRouter(t, nil)
	ids := testutil.SeedSeries(t, database, "Lost")
	alice := testutil.SeedUser(t, database, "alice@example.com")
	bob := testutil.SeedUser(t, database, "bob@example.com")
	require.NoError(t, database.UpsertRating(context.Background(), alice, ids[0], 5, ""))
	require.NoError(t, database.UpsertRating(context.Background(), bob, ids[0], 2, ""))

	rr := doJSON(t, h, http.MethodGet, "/api/series/"+strconv.FormatInt(ids[0], 10), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var details model.SeriesDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &details))
	assert.Equal(t, "Lost", details.Name)
	assert.Equal(t, 2, details.NoteCount)
	require.NotNil(t, details.AverageNote)
	assert.InDelta(t, 3.5, *details.AverageNote, 1e-9)

	rr = doJSON(t, h, http.MethodGet, "/api/series/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Series not found", errorOf(t, rr))

	rr = doJSON(t, h, http.MethodGet, "/api/series/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := doJSON(t, h, http.MethodPost, "/api/utilisateur/inscription", "", model.RegisterRequest{
		DisplayName: "Alice", Email: "alice@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var reg model.RegisterResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reg))
	assert.Equal(t, "Alice", reg.DisplayName)
	assert.Positive(t, reg.UserID)

	rr = doJSON(t, h, http.MethodPost, "/api/utilisateur/inscription", "", model.RegisterRequest{
		DisplayName: "Other", Email: "alice@example.com", Password: "secret2",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Email already registered", errorOf(t, rr))

	rr = doJSON(t, h, http.MethodPost, "/api/utilisateur/connexion", "", model.LoginRequest{
		Email: "alice@example.com", Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, msgBadCredentials, errorOf(t, rr))

	rr = doJSON(t, h, http.MethodPost, "/api/utilisateur/connexion", "", model.LoginRequest{
		Email: "nobody@example.com", Password: "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/utilisateur/connexion", "", model.LoginRequest{
		Email: "alice@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login model.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	assert.Equal(t, reg.UserID, login.UserID)
	assert.Equal(t, "Alice", login.DisplayName)
	require.NotEmpty(t, login.Token)

	rr = doJSON(t, h, http.MethodGet, userPath(login.UserID, "/series"), login.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRegisterDefaultsDisplayName(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := doJSON(t, h, http.MethodPost, "/api/utilisateur/inscription", "", model.RegisterRequest{
		Email: "carol@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var reg model.RegisterResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reg))
	assert.Equal(t, "carol", reg.DisplayName)
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := doJSON(t, h, http.MethodPost, "/api/utilisateur/inscription", "", model.RegisterRequest{
		Email: "dave@example.com", Password: "123",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, errorOf(t, rr), "password")

	req := httptest.NewRequest(http.MethodPost, "/api/utilisateur/connexion", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", errorOf(t, rec))
}

func TestRequireUser(t *testing.T) {
	h, database := newTestRouter(t, nil)
	alice := testutil.SeedUser(t, database, "alice@example.com")
	bob := testutil.SeedUser(t, database, "bob@example.com")

	rr := doJSON(t, h, http.MethodGet, userPath(alice, "/series"), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, h, http.MethodGet, userPath(alice, "/series"), "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, h, http.MethodGet, userPath(alice, "/series"), tokenFor(t, bob), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doJSON(t, h, http.MethodGet, userPath(4242, "/series"), tokenFor(t, 4242), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "User not found", errorOf(t, rr))

	rr = doJSON(t, h, http.MethodGet, userPath(alice, "/series"), tokenFor(t, alice), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateTwiceKeepsOneRow(t *testing.T) {
	h, database := newTestRouter(t, nil)
	ids := testutil.SeedSeries(t, database, "Lost", "Dark")
	alice := testutil.SeedUser(t, database, "alice@example.com")
	token := tokenFor(t, alice)

	rr := doJSON(t, h, http.MethodPost, userPath(alice, "/noter"), token, model.RateRequest{SeriesID: ids[0], Score: 3})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = doJSON(t, h, http.MethodPost, userPath(alice, "/noter"), token, model.RateRequest{SeriesID: ids[0], Score: 5, Comment: "great"})
	require.Equal(t, http.StatusOK, rr.Code)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM ratings WHERE user_id = ? AND series_id = ?", alice, ids[0]).Scan(&count))
	assert.Equal(t, 1, count)

	rr = doJSON(t, h, http.MethodGet, userPath(alice, "/series/"+strconv.FormatInt(ids[0], 10)+"/note"), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var current model.CurrentRating
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &current))
	assert.Equal(t, 5, current.Note)

	rr = doJSON(t, h, http.MethodGet, userPath(alice, "/series"), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page model.CatalogPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Equal(t, 1, page.Count)
	assert.Equal(t, "Lost", page.Series[0].Name)
	require.NotNil(t, page.Series[0].Note)
	assert.Equal(t, 5, *page.Series[0].Note)
}

func TestDeleteRating(t *testing.T) {
	h, database := newTestRouter(t, nil)
	ids := testutil.SeedSeries(t, database, "Lost")
	alice := testutil.SeedUser(t, database, "alice@example.com")
	token := tokenFor(t, alice)
	notePath := userPath(alice, "/series/"+strconv.FormatInt(ids[0], 10)+"/note")

	rr := doJSON(t, h, http.MethodDelete, notePath, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Rating not found", errorOf(t, rr))

	require.NoError(t, database.UpsertRating(context.Background(), alice, ids[0], 4, ""))

	rr = doJSON(t, h, http.MethodDelete, notePath, token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, notePath, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var current model.CurrentRating
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &current))
	assert.Equal(t, 0, current.Note)
}

func TestRateValidation(t *testing.T) {
	h, database := newTestRouter(t, nil)
	ids := testutil.SeedSeries(t, database, "Lost")
	alice := testutil.SeedUser(t, database, "alice@example.com")
	token := tokenFor(t, alice)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"score too high", model.RateRequest{SeriesID: ids[0], Score: 6}, http.StatusBadRequest},
		{"score missing", map[string]any{"serie_id": ids[0]}, http.StatusBadRequest},
		{"series missing", map[string]any{"note": 3}, http.StatusBadRequest},
		{"unknown series", model.RateRequest{SeriesID: 9999, Score: 3}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, userPath(alice, "/noter"), token, tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestSearch(t *testing.T) {
	eng := &stubEngine{hits: []engine.Hit{
		{Slug: "lost", Score: 0.6667, Details: &model.ScoreDetails{TFIDF: 0.5, Coverage: 1}},
		{Slug: "not-in-catalog", Score: 0.5},
		{Slug: "dark", Score: 0.25},
	}}
	h, database := newTestRouter(t, eng)
	testutil.SeedSeries(t, database, "Lost", "Dark")

	rr := doJSON(t, h, http.MethodGet, "/api/recherche?q=crash+avion&limit=10", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var page model.SearchPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, "crash avion", page.Query)
	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "Lost", page.Results[0].Name)
	require.NotNil(t, page.Results[0].Score)
	assert.Equal(t, 0.6667, *page.Results[0].Score)
	require.NotNil(t, page.Results[0].Details)
	assert.Equal(t, "Dark", page.Results[1].Name)
	assert.Equal(t, 10, eng.limit)

	rr = doJSON(t, h, http.MethodGet, "/api/recherche?q=%20", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSearchWithoutEngine(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := doJSON(t, h, http.MethodGet, "/api/recherche?q=lost", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/recommandations/profil", "", model.ProfileRequest{LikedSeries: []string{"lost"}})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestEngineErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"breaker open", gobreaker.ErrOpenState, http.StatusServiceUnavailable},
		{"engine failure", errors.New("engine search returned status 500"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, &stubEngine{err: tt.err})
			rr := doJSON(t, h, http.MethodGet, "/api/recherche?q=lost", "", nil)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestSimilar(t *testing.T) {
	eng := &stubEngine{hits: []engine.Hit{{Slug: "dark", Score: 0.8}}}
	h, database := newTestRouter(t, eng)
	testutil.SeedSeries(t, database, "Lost", "Dark")

	rr := doJSON(t, h, http.MethodGet, "/api/recommandations/similarite?serie=Lost!", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var page model.SimilarPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, "lost", page.Reference)
	assert.Equal(t, "lost", eng.slug)
	assert.Equal(t, defaultRecoLimit, eng.limit)
	require.Len(t, page.Results, 1)
	require.NotNil(t, page.Results[0].SimilarityScore)
	assert.Equal(t, 0.8, *page.Results[0].SimilarityScore)

	rr = doJSON(t, h, http.MethodGet, "/api/recommandations/similarite?serie=unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/recommandations/similarite", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProfileRecommendations(t *testing.T) {
	eng := &stubEngine{hits: []engine.Hit{{Slug: "dark", Score: 0.42}}}
	h, database := newTestRouter(t, eng)
	testutil.SeedSeries(t, database, "Lost", "Dark")

	rr := doJSON(t, h, http.MethodPost, "/api/recommandations/profil", "", model.ProfileRequest{
		LikedSeries: []string{"Lost", "Breaking Bad!"},
		Limit:       3,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var page model.RecommendationPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Count)
	require.Len(t, page.Recommendations, 1)
	require.NotNil(t, page.Recommendations[0].ProfileScore)
	assert.Equal(t, 0.42, *page.Recommendations[0].ProfileScore)
	assert.Equal(t, []string{"lost", "breakingbad"}, eng.liked)
	assert.Equal(t, 3, eng.limit)

	rr = doJSON(t, h, http.MethodPost, "/api/recommandations/profil", "", model.ProfileRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginRateLimit(t *testing.T) {
	database := testutil.SetupTestDB(t)
	h := NewRouter(Deps{DB: database, LoginRateLimit: 2})

	for i := 0; i < 2; i++ {
		rr := doJSON(t, h, http.MethodPost, "/api/utilisateur/connexion", "", model.LoginRequest{Email: "x@example.com", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr := doJSON(t, h, http.MethodPost, "/api/utilisateur/connexion", "", model.LoginRequest{Email: "x@example.com", Password: "nope"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/series", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
