// Package ui is the boundary between the client's state machine and whatever
// draws it. The view, session and rating packages only talk to a Surface.
package ui

import (
	"fmt"

	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/render"
	"github.com/theLastOfCats/series-browser/internal/state"
)

// AuthView is the authentication affordance: the login/logout control and
// the recommendation call to action that depends on it.
type AuthView struct {
	LoggedIn    bool
	Label       string
	Action      string
	RecoVisible bool
	RecoPrompt  string
}

const (
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// AuthFor builds the affordance for sess, which may be nil.
func AuthFor(sess *state.Session) AuthView {
	if sess == nil {
		return AuthView{
			Label:      "Log in",
			Action:     ActionLogin,
			RecoPrompt: "Log in to get personalised recommendations",
		}
	}
	return AuthView{
		LoggedIn:    true,
		Label:       fmt.Sprintf("Log out (%s)", sess.DisplayName),
		Action:      ActionLogout,
		RecoVisible: true,
		RecoPrompt:  fmt.Sprintf("Recommendations for %s", sess.DisplayName),
	}
}

// Stats is the content of the stats bar.
type Stats struct {
	Count int
	// ElapsedMS is the server-side duration, when the endpoint reports one.
	ElapsedMS *float64
}

func (s Stats) String() string {
	if s.ElapsedMS == nil {
		return fmt.Sprintf("%d series", s.Count)
	}
	return fmt.Sprintf("%d series in %.1f ms", s.Count, *s.ElapsedMS)
}

// Detail is the content of the detail view.
type Detail struct {
	Record        model.Record
	PendingRating int
	CanRate       bool
}

type Surface interface {
	ShowLoading()
	HideLoading()

	// NotifyError shows the shared error banner. It makes any Surface a
	// gateway.Notifier.
	NotifyError(message string)
	ClearError()
	// Alert is a blocking prompt.
	Alert(message string)

	ClearResults()
	RenderResults(view render.View)
	HidePlaceholder()
	SetStats(stats Stats)
	ResetStats()
	SetActiveTab(tab state.Tab)

	SetAuth(auth AuthView)
	ShowLogin()
	CloseAuth()
	AuthError(message string)

	OpenDetail(detail Detail)
	CloseDetail()
}
