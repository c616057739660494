package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theLastOfCats/series-browser/internal/db"
	"github.com/theLastOfCats/series-browser/internal/engine"
)

// Deps holds everything the router wires into handlers. Engine may be nil.
type Deps struct {
	DB             *db.DB
	Engine         engine.Engine
	Slugs          *db.SlugIndex
	CORSOrigins    []string
	LoginRateLimit int
}

func NewRouter(d Deps) http.Handler {
	if d.Slugs == nil {
		d.Slugs = db.NewSlugIndex(d.DB, db.DefaultSlugTTL)
	}

	mw := &Middleware{DB: d.DB}
	authHandler := &AuthHandler{DB: d.DB}
	seriesHandler := &SeriesHandler{DB: d.DB}
	ratingHandler := &RatingHandler{DB: d.DB}
	recoHandler := &RecommendHandler{Engine: d.Engine, Slugs: d.Slugs}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(d.CORSOrigins))

	r.Get("/health", Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/series", seriesHandler.List)
		r.Get("/series/{id}", seriesHandler.Get)
		r.Get("/recherche", recoHandler.Search)
		r.Get("/recommandations/similarite", recoHandler.Similar)
		r.Post("/recommandations/profil", recoHandler.Profile)

		r.Route("/utilisateur", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(RateLimitAuth(d.LoginRateLimit))
				r.Post("/inscription", authHandler.Register)
				r.Post("/connexion", authHandler.Login)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Use(mw.RequireUser)
				r.Post("/noter", ratingHandler.Rate)
				r.Get("/series", ratingHandler.UserSeries)
				r.Get("/series/{sid}/note", ratingHandler.GetNote)
				r.Delete("/series/{sid}/note", ratingHandler.DeleteNote)
			})
		})
	})

	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Alive"))
}
