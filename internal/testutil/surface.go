package testutil

import (
	"sync"

	"github.com/theLastOfCats/series-browser/internal/render"
	"github.com/theLastOfCats/series-browser/internal/state"
	"github.com/theLastOfCats/series-browser/internal/ui"
)

// Surface is a ui.Surface that records every call.
type Surface struct {
	mu sync.Mutex

	Events     []string
	Errors     []string
	Alerts     []string
	AuthErrors []string
	Views      []render.View
	Stats      []ui.Stats
	Tabs       []state.Tab
	Auth       []ui.AuthView
	Details    []ui.Detail

	Loading      int
	StatsResets  int
	Cleared      int
	AuthOpen     bool
	DetailOpen   bool
	ErrorVisible bool
}

var _ ui.Surface = (*Surface)(nil)

func (s *Surface) event(name string) {
	s.Events = append(s.Events, name)
}

func (s *Surface) ShowLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loading++
	s.event("show_loading")
}

func (s *Surface) HideLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loading--
	s.event("hide_loading")
}

func (s *Surface) NotifyError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors = append(s.Errors, message)
	s.ErrorVisible = true
	s.event("error")
}

func (s *Surface) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrorVisible = false
	s.event("clear_error")
}

func (s *Surface) Alert(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Alerts = append(s.Alerts, message)
	s.event("alert")
}

func (s *Surface) ClearResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cleared++
	s.event("clear_results")
}

func (s *Surface) RenderResults(view render.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Views = append(s.Views, view)
	s.event("render")
}

func (s *Surface) HidePlaceholder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.event("hide_placeholder")
}

func (s *Surface) SetStats(stats ui.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Stats = append(s.Stats, stats)
	s.event("stats")
}

func (s *Surface) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StatsResets++
	s.event("reset_stats")
}

func (s *Surface) SetActiveTab(tab state.Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tabs = append(s.Tabs, tab)
	s.event("tab:" + string(tab))
}

func (s *Surface) SetAuth(auth ui.AuthView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Auth = append(s.Auth, auth)
	s.event("auth")
}

func (s *Surface) ShowLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AuthOpen = true
	s.event("show_login")
}

func (s *Surface) CloseAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AuthOpen = false
	s.event("close_auth")
}

func (s *Surface) AuthError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AuthErrors = append(s.AuthErrors, message)
	s.event("auth_error")
}

func (s *Surface) OpenDetail(detail ui.Detail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Details = append(s.Details, detail)
	s.DetailOpen = true
	s.event("open_detail")
}

func (s *Surface) CloseDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DetailOpen = false
	s.event("close_detail")
}

// LastView returns the most recent rendered view.
func (s *Surface) LastView() (render.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Views) == 0 {
		return render.View{}, false
	}
	return s.Views[len(s.Views)-1], true
}

// Reset forgets every recorded call.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events, s.Errors, s.Alerts, s.AuthErrors = nil, nil, nil, nil
	s.Views, s.Stats, s.Tabs, s.Auth, s.Details = nil, nil, nil, nil, nil
	s.Loading, s.StatsResets, s.Cleared = 0, 0, 0
	s.AuthOpen, s.DetailOpen, s.ErrorVisible = false, false, false
}
