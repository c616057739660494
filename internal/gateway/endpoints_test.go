package gateway

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theLastOfCats/series-browser/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestSearchEncodesQuery(t *testing.T) {
	var rawQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		assert.Equal(t, "/api/recherche", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"requete":"crash avion","resultats":[{"id":1,"nom":"Lost","score":0.6667}],"nombre_resultats":1,"temps_recherche_ms":12.5}`)
	})

	page, err := client.Search(context.Background(), "crash avion", 20)
	require.NoError(t, err)

	assert.Equal(t, "limit=20&q=crash+avion", rawQuery)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Lost", page.Results[0].Name)
	assert.InDelta(t, 0.6667, *page.Results[0].Score, 1e-9)
	assert.Equal(t, 12.5, page.ElapsedMS)
}

func TestRatePostsBody(t *testing.T) {
	var body string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/utilisateur/7/noter", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		writeJSON(w, http.StatusOK, `{"message":"Note enregistrée"}`)
	})

	err := client.Rate(context.Background(), 7, model.RateRequest{SeriesID: 42, Score: 5}, Options{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"serie_id":42,"note":5}`, body)
}

func TestCurrentRatingIsQuiet(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":"boom"}`)
	})

	note, err := client.CurrentRating(context.Background(), 7, 42)
	require.Error(t, err)
	assert.Zero(t, note)
	assert.Empty(t, rec.messages)
}

func TestUserSeriesDecodesNotes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/utilisateur/7/series", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"series":[{"id":42,"nom":"Breaking Bad","note":5}],"nombre_series":1}`)
	})

	page, err := client.UserSeries(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, page.Series, 1)
	require.NotNil(t, page.Series[0].Note)
	assert.Equal(t, 5, *page.Series[0].Note)
	assert.Equal(t, 1, page.Count)
}

func TestLoginAndRegisterAreQuiet(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"Email ou mot de passe incorrect."}`)
	})

	_, err := client.Login(context.Background(), "a@b.c", "nope")
	assert.EqualError(t, err, "Email ou mot de passe incorrect.")

	_, err = client.Register(context.Background(), model.RegisterRequest{Email: "a@b.c", Password: "secret1"})
	assert.Error(t, err)
	assert.Empty(t, rec.messages)
}

func TestProfileRecommendations(t *testing.T) {
	var body string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		writeJSON(w, http.StatusOK, `{"recommandations":[{"id":3,"nom":"Dark","score_profil":0.5}],"nombre_recommandations":1,"temps_reco_ms":3}`)
	})

	page, err := client.ProfileRecommendations(context.Background(), []string{"breakingbad", "lost"}, 5)
	require.NoError(t, err)
	assert.JSONEq(t, `{"series_aimees":["breakingbad","lost"],"limit":5}`, body)
	require.Len(t, page.Recommendations, 1)
	assert.Equal(t, 1, page.Count)
}

func TestUndecodableBodyNotifiesOnce(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"text body", "text/plain; charset=utf-8", "all good"},
		{"truncated json", "application/json", `{"series":[{"id":1,`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			})

			page, err := client.ListSeries(context.Background())
			require.Error(t, err)
			assert.Nil(t, page)

			var rf *RequestFailed
			require.ErrorAs(t, err, &rf)
			assert.Equal(t, http.StatusOK, rf.Status)
			assert.Equal(t, []string{"Backend unreachable: Invalid response on series"}, rec.messages)
		})
	}
}

func TestUndecodableQuietBodyDoesNotNotify(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})

	_, err := client.CurrentRating(context.Background(), 7, 42)
	require.Error(t, err)
	_, err = client.Login(context.Background(), "a@b.c", "secret1")
	require.Error(t, err)
	assert.Empty(t, rec.messages)
}
