//go:build integration

package api

import (
	"net/http"
	"testing"

	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/testutil"
)

func TestRateTwiceKeepsOneRowMySQL(t *testing.T) {
	database := testutil.SetupMySQLTestDB(t)
	h := NewRouter(Deps{DB: database})

	ids := testutil.SeedSeries(t, database, "Lost")
	userID := testutil.SeedUser(t, database, "rate-twice-mysql@example.com")
	token := tokenFor(t, userID)

	for _, score := range []int{2, 4} {
		rr := doJSON(t, h, http.MethodPost, userPath(userID, "/noter"), token, model.RateRequest{SeriesID: ids[0], Score: score})
		if rr.Code != http.StatusOK {
			t.Fatalf("rate returned %d: %s", rr.Code, rr.Body.String())
		}
	}

	var count, score int
	if err := database.QueryRow("SELECT COUNT(*), MAX(score) FROM ratings WHERE user_id = ? AND series_id = ?", userID, ids[0]).Scan(&count, &score); err != nil {
		t.Fatalf("failed to read ratings: %v", err)
	}
	if count != 1 || score != 4 {
		t.Fatalf("expected one row with score 4, got count=%d score=%d", count, score)
	}
}

func TestDuplicateEmailConflictMySQL(t *testing.T) {
	database := testutil.SetupMySQLTestDB(t)
	h := NewRouter(Deps{DB: database})

	req := model.RegisterRequest{DisplayName: "Dup", Email: "dup-mysql@example.com", Password: "secret1"}
	if rr := doJSON(t, h, http.MethodPost, "/api/utilisateur/inscription", "", req); rr.Code != http.StatusCreated {
		t.Fatalf("first registration returned %d: %s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, h, http.MethodPost, "/api/utilisateur/inscription", "", req); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate registration returned %d, want 409", rr.Code)
	}
}
