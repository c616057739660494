package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theLastOfCats/series-browser/internal/config"
	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/state"
	"github.com/theLastOfCats/series-browser/internal/testutil"
)

const catalogBody = `{"series":[{"id":1,"nom":"Lost"},{"id":42,"nom":"Dark","resume":"Time travel in a small town"}],"nombre_series":2}`

func newTestApp(t *testing.T, backend *testutil.Backend) (*app, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(config.ClientConfig{
		BaseURL:        backend.URL(),
		Timeout:        5 * time.Second,
		SearchLimit:    20,
		RecoLimit:      5,
		LikedThreshold: 4,
	}, &out, "")
	return a, &out
}

func runShell(t *testing.T, a *app, out *bytes.Buffer, script string) {
	t.Helper()
	sh := newShell(a, strings.NewReader(script), out)
	require.NoError(t, sh.run(context.Background()))
}

func TestShellLoadsCatalog(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.On(http.MethodGet, "series", http.StatusOK, catalogBody)
	a, out := newTestApp(t, backend)

	runShell(t, a, out, "quit\n")

	assert.Equal(t, 1, backend.Count(http.MethodGet, "series"))
	assert.Contains(t, out.String(), "[42] Dark")
	assert.Contains(t, out.String(), "Time travel in a small town")
	assert.Contains(t, out.String(), "-- 2 series")
}

func TestShellRatedRequiresLogin(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.On(http.MethodGet, "series", http.StatusOK, catalogBody)
	a, out := newTestApp(t, backend)

	runShell(t, a, out, "tab rated\n")

	assert.Contains(t, out.String(), "!! Log in to see the series you rated")
	for _, req := range backend.Requests() {
		assert.False(t, strings.HasPrefix(req.Path, "utilisateur/"), "unexpected request %s", req.Path)
	}
}

func TestShellLoginRateAndExport(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.On(http.MethodGet, "series", http.StatusOK, catalogBody)
	backend.On(http.MethodPost, "utilisateur/connexion", http.StatusOK,
		model.LoginResponse{UserID: 7, DisplayName: "Alice", Token: "tok"})
	backend.On(http.MethodGet, "utilisateur/7/series", http.StatusOK, `{"series":[{"id":42,"nom":"Dark","note":5}],"nombre_series":1}`)
	backend.On(http.MethodGet, "series/42", http.StatusOK, `{"id":42,"nom":"Dark","note_moyenne":4.5,"nb_notes":2}`)
	backend.On(http.MethodGet, "utilisateur/7/series/42/note", http.StatusOK, `{"note":0}`)
	backend.On(http.MethodPost, "utilisateur/7/noter", http.StatusOK, `{"message":"Rating saved"}`)
	a, out := newTestApp(t, backend)

	exportPath := filepath.Join(t.TempDir(), "page.html")
	runShell(t, a, out, strings.Join([]string{
		"login alice@example.com secret1",
		"tab rated",
		"show 42",
		"rate 5",
		"export " + exportPath,
		"quit",
	}, "\n"))

	sess := a.state.Session()
	require.NotNil(t, sess)
	assert.Equal(t, int64(7), sess.UserID)
	assert.Equal(t, state.TabRated, a.state.ActiveTab())

	var rate *testutil.Request
	for _, req := range backend.Requests() {
		if req.Method == http.MethodPost && req.Path == "utilisateur/7/noter" {
			r := req
			rate = &r
		}
	}
	require.NotNil(t, rate, "rating was not submitted")
	assert.Equal(t, "Bearer tok", rate.Header.Get("Authorization"))
	var body model.RateRequest
	require.NoError(t, json.Unmarshal([]byte(rate.Body), &body))
	assert.Equal(t, int64(42), body.SeriesID)
	assert.Equal(t, 5, body.Score)

	// tab switch, then the reload after the rating
	assert.Equal(t, 2, backend.Count(http.MethodGet, "utilisateur/7/series"))
	assert.Contains(t, out.String(), "average: 4.5/5 (2 ratings)")
	assert.Contains(t, out.String(), "[Log out (Alice)]")

	html, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Series: rated")
	assert.Contains(t, string(html), "Dark")
}

func TestShellLoginFailureStaysInForm(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.On(http.MethodGet, "series", http.StatusOK, catalogBody)
	backend.On(http.MethodPost, "utilisateur/connexion", http.StatusUnauthorized, `{"error":"Invalid email or password"}`)
	a, out := newTestApp(t, backend)

	runShell(t, a, out, "login alice@example.com nope\n")

	assert.Nil(t, a.state.Session())
	assert.Contains(t, out.String(), "auth: Invalid email or password")
	assert.NotContains(t, out.String(), "error: Invalid email or password")
}

func TestShellUnknownCommand(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.On(http.MethodGet, "series", http.StatusOK, catalogBody)
	a, out := newTestApp(t, backend)

	runShell(t, a, out, "dance\nchoose\n")

	assert.Contains(t, out.String(), `unknown command "dance"`)
	assert.Contains(t, out.String(), "usage: choose N")
}

func TestAppLoginDoesNotReload(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.On(http.MethodPost, "utilisateur/connexion", http.StatusOK,
		model.LoginResponse{UserID: 3, DisplayName: "Bob", Token: "t3"})
	a, _ := newTestApp(t, backend)

	require.NoError(t, a.login(context.Background(), "bob@example.com", "secret1"))
	assert.True(t, a.state.LoggedIn())
	assert.Equal(t, 0, backend.Count(http.MethodGet, "series"))

	backend.On(http.MethodPost, "utilisateur/connexion", http.StatusUnauthorized, `{"error":"Error: Invalid email or password"}`)
	err := a.login(context.Background(), "bob@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "login failed: Invalid email or password", err.Error())
}

func TestShellProfileRecommendations(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.On(http.MethodGet, "series", http.StatusOK, catalogBody)
	backend.On(http.MethodPost, "utilisateur/connexion", http.StatusOK,
		model.LoginResponse{UserID: 7, DisplayName: "Alice", Token: "tok"})
	backend.On(http.MethodGet, "utilisateur/7/series", http.StatusOK,
		`{"series":[{"id":1,"nom":"Lost","note":5},{"id":42,"nom":"Dark","note":2}],"nombre_series":2}`)
	backend.On(http.MethodPost, "recommandations/profil", http.StatusOK,
		`{"recommandations":[{"id":9,"nom":"Fringe","score_profil":0.75}],"nombre_recommandations":1,"temps_reco_ms":3.2}`)
	a, out := newTestApp(t, backend)

	runShell(t, a, out, "login alice@example.com secret1\nprofile\n")

	var reco *testutil.Request
	for _, req := range backend.Requests() {
		if req.Path == "recommandations/profil" {
			r := req
			reco = &r
		}
	}
	require.NotNil(t, reco, "profile recommendations were not requested")
	var body model.ProfileRequest
	require.NoError(t, json.Unmarshal([]byte(reco.Body), &body))
	assert.Equal(t, []string{"lost"}, body.LikedSeries)
	assert.Contains(t, out.String(), "[9] Fringe  0.7500")
	assert.Contains(t, out.String(), "-- 1 series in 3.2 ms")
}

func TestShellRateOutOfRangeSendsNothing(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.On(http.MethodGet, "series", http.StatusOK, catalogBody)
	backend.On(http.MethodPost, "utilisateur/connexion", http.StatusOK,
		model.LoginResponse{UserID: 7, DisplayName: "Alice", Token: "tok"})
	backend.On(http.MethodGet, "series/42", http.StatusOK, `{"id":42,"nom":"Dark","note_moyenne":4.5,"nb_notes":2}`)
	backend.On(http.MethodGet, "utilisateur/7/series/42/note", http.StatusOK, `{"note":3}`)
	backend.On(http.MethodPost, "utilisateur/7/noter", http.StatusOK, `{"message":"Rating saved"}`)
	a, out := newTestApp(t, backend)

	runShell(t, a, out, "login alice@example.com secret1\nshow 42\nrate 9\n")

	assert.Zero(t, backend.Count(http.MethodPost, "utilisateur/7/noter"))
	assert.Contains(t, out.String(), "!! note must be at most 5")
	require.NotNil(t, a.state.Selected())
	assert.Equal(t, 3, a.state.PendingRating())
}
