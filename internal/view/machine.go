// Package view owns the active tab and the loading action each tab runs.
package view

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/normalize"
	"github.com/theLastOfCats/series-browser/internal/render"
	"github.com/theLastOfCats/series-browser/internal/state"
	"github.com/theLastOfCats/series-browser/internal/ui"
	"github.com/theLastOfCats/series-browser/internal/validation"
)

const (
	MsgRatedLoginRequired   = "Log in to see the series you rated"
	MsgProfileLoginRequired = "Log in to get personalised recommendations"
	MsgNothingLiked         = "Rate a few series you like to get recommendations"
	MsgEmptyQuery           = "Enter a search term"
)

// API is the part of the gateway the view loads from.
type API interface {
	ListSeries(ctx context.Context) (*model.CatalogPage, error)
	Search(ctx context.Context, query string, limit int) (*model.SearchPage, error)
	UserSeries(ctx context.Context, userID int64) (*model.CatalogPage, error)
	ProfileRecommendations(ctx context.Context, liked []string, limit int) (*model.RecommendationPage, error)
	Similar(ctx context.Context, slug string, limit int) (*model.SimilarPage, error)
}

type Options struct {
	SearchLimit int
	RecoLimit   int
	// LikedThreshold is the lowest personal note that counts as liked when
	// building a profile.
	LikedThreshold int
}

func (o Options) withDefaults() Options {
	if o.SearchLimit <= 0 {
		o.SearchLimit = 20
	}
	if o.RecoLimit <= 0 {
		o.RecoLimit = 5
	}
	if o.LikedThreshold < 1 || o.LikedThreshold > 5 {
		o.LikedThreshold = 4
	}
	return o
}

type Machine struct {
	api     API
	state   *state.State
	surface ui.Surface
	opts    Options
	log     zerolog.Logger

	mu         sync.Mutex
	generation uint64
	lastQuery  string
}

func New(api API, st *state.State, surface ui.Surface, opts Options) *Machine {
	return &Machine{
		api:     api,
		state:   st,
		surface: surface,
		opts:    opts.withDefaults(),
		log:     logging.WithComponent("view"),
	}
}

// ticket identifies one load. A load whose ticket is no longer current when
// its response arrives is discarded.
type ticket struct {
	gen uint64
	tab state.Tab
}

func (m *Machine) begin() ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	return ticket{gen: m.generation, tab: m.state.ActiveTab()}
}

func (m *Machine) current(t ticket, action string) bool {
	m.mu.Lock()
	ok := t.gen == m.generation && m.state.ActiveTab() == t.tab
	m.mu.Unlock()
	if !ok {
		m.log.Debug().Str("action", action).Str("tab", string(t.tab)).Uint64("generation", t.gen).Msg("discarding stale response")
	}
	return ok
}

// SwitchTab makes tab active and runs its entry action. A forced switch keeps
// the stats bar so the reload can report its own figures.
func (m *Machine) SwitchTab(ctx context.Context, tab state.Tab, force bool) error {
	m.state.SetActiveTab(tab)
	m.begin()

	m.surface.SetActiveTab(tab)
	m.surface.ClearResults()
	m.surface.ClearError()
	m.surface.HidePlaceholder()
	if !force {
		m.surface.ResetStats()
	}

	switch tab {
	case state.TabAll:
		return m.LoadAll(ctx)
	case state.TabRated:
		if !m.state.LoggedIn() {
			m.surface.Alert(MsgRatedLoginRequired)
			return nil
		}
		return m.LoadRated(ctx)
	case state.TabProfile:
		if !m.state.LoggedIn() {
			m.surface.Alert(MsgProfileLoginRequired)
		}
		return nil
	case state.TabSearch:
		m.mu.Lock()
		query := m.lastQuery
		m.mu.Unlock()
		if force && query != "" {
			return m.Search(ctx, query)
		}
		return m.loadCatalogSize(ctx)
	}
	return nil
}

// Refresh reloads the active tab without resetting the stats bar.
func (m *Machine) Refresh(ctx context.Context) error {
	return m.SwitchTab(ctx, m.state.ActiveTab(), true)
}

func (m *Machine) LoadAll(ctx context.Context) error {
	t := m.begin()
	m.surface.ShowLoading()
	defer m.surface.HideLoading()

	page, err := m.api.ListSeries(ctx)
	if !m.current(t, "all") {
		return nil
	}
	if err != nil {
		m.surface.ClearResults()
		return err
	}
	m.surface.SetStats(ui.Stats{Count: page.Count})
	m.surface.RenderResults(render.Render(page.Series, render.NoScore, false, false))
	return nil
}

func (m *Machine) loadCatalogSize(ctx context.Context) error {
	t := m.begin()
	page, err := m.api.ListSeries(ctx)
	if !m.current(t, "catalog_size") {
		return nil
	}
	if err != nil {
		return err
	}
	m.surface.SetStats(ui.Stats{Count: page.Count})
	return nil
}

func (m *Machine) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if err := validation.Var("q", query, "required"); err != nil {
		m.surface.Alert(MsgEmptyQuery)
		return err
	}

	m.mu.Lock()
	m.lastQuery = query
	m.mu.Unlock()

	t := m.begin()
	m.surface.ShowLoading()
	defer m.surface.HideLoading()

	page, err := m.api.Search(ctx, query, m.opts.SearchLimit)
	if !m.current(t, "search") {
		return nil
	}
	if err != nil {
		m.surface.ClearResults()
		return err
	}
	elapsed := page.ElapsedMS
	m.surface.SetStats(ui.Stats{Count: page.Count, ElapsedMS: &elapsed})
	m.surface.RenderResults(render.Render(page.Results, render.SearchScore, true, false))
	return nil
}

func (m *Machine) LoadRated(ctx context.Context) error {
	sess := m.state.Session()
	if sess == nil {
		m.surface.Alert(MsgRatedLoginRequired)
		return nil
	}

	t := m.begin()
	m.surface.ShowLoading()
	defer m.surface.HideLoading()

	page, err := m.api.UserSeries(ctx, sess.UserID)
	if !m.current(t, "rated") {
		return nil
	}
	if err != nil {
		m.surface.ClearResults()
		return err
	}
	m.surface.SetStats(ui.Stats{Count: page.Count})
	m.surface.RenderResults(render.Render(page.Series, render.PersonalNote, false, true))
	return nil
}

// LoadProfile asks for recommendations built from the series the user liked.
func (m *Machine) LoadProfile(ctx context.Context) error {
	sess := m.state.Session()
	if sess == nil {
		m.surface.Alert(MsgProfileLoginRequired)
		return nil
	}

	t := m.begin()
	m.surface.ShowLoading()
	defer m.surface.HideLoading()

	rated, err := m.api.UserSeries(ctx, sess.UserID)
	if !m.current(t, "profile") {
		return nil
	}
	if err != nil {
		m.surface.ClearResults()
		return err
	}

	liked := LikedSlugs(rated.Series, m.opts.LikedThreshold)
	if len(liked) == 0 {
		m.surface.ClearResults()
		m.surface.Alert(MsgNothingLiked)
		return nil
	}

	page, err := m.api.ProfileRecommendations(ctx, liked, m.opts.RecoLimit)
	if !m.current(t, "profile") {
		return nil
	}
	if err != nil {
		m.surface.ClearResults()
		return err
	}

	records := WithNotes(page.Recommendations, rated.Series)
	elapsed := page.ElapsedMS
	m.surface.SetStats(ui.Stats{Count: page.Count, ElapsedMS: &elapsed})
	m.surface.RenderResults(render.Render(records, render.ProfileScore, false, false))
	return nil
}

// LoadSimilar lists the series closest to rec in the active tab.
func (m *Machine) LoadSimilar(ctx context.Context, rec model.Record) error {
	slug := normalize.Key(rec.Name)
	if slug == "" {
		m.surface.Alert("This series has no usable name")
		return nil
	}

	t := m.begin()
	m.surface.ClearResults()
	m.surface.ShowLoading()
	defer m.surface.HideLoading()

	page, err := m.api.Similar(ctx, slug, m.opts.RecoLimit)
	if !m.current(t, "similar") {
		return nil
	}
	if err != nil {
		m.surface.ClearResults()
		return err
	}
	elapsed := page.ElapsedMS
	m.surface.SetStats(ui.Stats{Count: len(page.Results), ElapsedMS: &elapsed})
	m.surface.RenderResults(render.Render(page.Results, render.SimilarityScore, false, false))
	return nil
}

// LikedSlugs returns the normalized names of the rated series whose note is
// at least threshold, without duplicates and in list order.
func LikedSlugs(rated []model.Record, threshold int) []string {
	seen := make(map[string]bool, len(rated))
	var out []string
	for _, rec := range rated {
		if rec.Note == nil || *rec.Note < threshold {
			continue
		}
		key := normalize.Key(rec.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// WithNotes returns copies of records carrying the personal note of the
// matching rated series, matched by normalized name.
func WithNotes(records, rated []model.Record) []model.Record {
	notes := make(map[string]int, len(rated))
	for _, r := range rated {
		if key := normalize.Key(r.Name); key != "" && r.Note != nil {
			notes[key] = *r.Note
		}
	}

	out := make([]model.Record, len(records))
	for i, rec := range records {
		out[i] = rec
		if rec.Note != nil {
			continue
		}
		if note, ok := notes[normalize.Key(rec.Name)]; ok {
			n := note
			out[i].Note = &n
		}
	}
	return out
}
