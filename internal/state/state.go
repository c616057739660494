// Package state holds the client's application state: the active tab, the
// authenticated session and the open detail view.
package state

import (
	"fmt"
	"sync"

	"github.com/theLastOfCats/series-browser/internal/model"
)

type Tab string

const (
	TabAll     Tab = "all"
	TabSearch  Tab = "search"
	TabRated   Tab = "rated"
	TabProfile Tab = "profile"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabAll, TabSearch, TabRated, TabProfile}

// ParseTab maps a tab name onto a Tab.
func ParseTab(name string) (Tab, error) {
	for _, t := range Tabs {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", name)
}

// RequiresSession reports whether the tab needs a logged-in user.
func (t Tab) RequiresSession() bool {
	return t == TabRated || t == TabProfile
}

type Session struct {
	UserID      int64
	DisplayName string
	Token       string
}

type State struct {
	mu            sync.RWMutex
	activeTab     Tab
	session       *Session
	selected      *model.Record
	pendingRating int
}

func New() *State {
	return &State{activeTab: TabAll}
}

func (s *State) ActiveTab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTab
}

func (s *State) SetActiveTab(t Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTab = t
}

// Session returns a copy of the current session, or nil.
func (s *State) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

func (s *State) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

// SetSession stores a copy of sess. A nil session logs out and drops any
// pending rating with it.
func (s *State) SetSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil {
		s.session = nil
		s.pendingRating = 0
		return
	}
	cp := *sess
	s.session = &cp
}

func (s *State) ClearSession() {
	s.SetSession(nil)
}

// Token is the bearer token of the session, or "".
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// SelectSeries opens the detail view on rec with an initial pending rating.
func (s *State) SelectSeries(rec model.Record, pending int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &rec
	s.pendingRating = 0
	if s.session != nil && pending >= 1 && pending <= 5 {
		s.pendingRating = pending
	}
}

// Selected returns the series of the open detail view, or nil.
func (s *State) Selected() *model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	cp := *s.selected
	return &cp
}

func (s *State) PendingRating() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingRating
}

// Choose sets the pending rating. It is refused when no detail view is open,
// no one is logged in or the score is outside 1..5.
func (s *State) Choose(score int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil || s.session == nil || score < 1 || score > 5 {
		return false
	}
	s.pendingRating = score
	return true
}

// CloseDetail drops the selection and the pending rating.
func (s *State) CloseDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.pendingRating = 0
}
