// Package session moves the client between the anonymous and the logged-in
// state. Its errors are shown on the auth form only.
package session

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/theLastOfCats/series-browser/internal/gateway"
	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/state"
	"github.com/theLastOfCats/series-browser/internal/ui"
	"github.com/theLastOfCats/series-browser/internal/validation"
)

// AuthAPI is the part of the gateway the manager calls.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*model.LoginResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.RegisterResponse, error)
}

// Refresher reloads a tab.
type Refresher interface {
	SwitchTab(ctx context.Context, tab state.Tab, force bool) error
}

type Manager struct {
	api     AuthAPI
	state   *state.State
	surface ui.Surface
	view    Refresher
	log     zerolog.Logger
}

func NewManager(api AuthAPI, st *state.State, surface ui.Surface, view Refresher) *Manager {
	return &Manager{
		api:     api,
		state:   st,
		surface: surface,
		view:    view,
		log:     logging.WithComponent("session"),
	}
}

// SetSession adopts sess, or logs out when it is nil, then reloads the
// active tab so gated content is re-evaluated.
func (m *Manager) SetSession(ctx context.Context, sess *state.Session) error {
	m.state.SetSession(sess)
	m.surface.SetAuth(ui.AuthFor(m.state.Session()))
	return m.view.SwitchTab(ctx, m.state.ActiveTab(), true)
}

func (m *Manager) Login(ctx context.Context, email, password string) error {
	req := model.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := validation.Struct(req); err != nil {
		m.surface.AuthError(err.Error())
		return err
	}

	resp, err := m.api.Login(ctx, req.Email, req.Password)
	if err != nil {
		m.surface.AuthError(Scrub(gateway.Message(err)))
		return err
	}

	m.log.Info().Int64("user_id", resp.UserID).Msg("logged in")
	m.surface.CloseAuth()
	return m.SetSession(ctx, &state.Session{
		UserID:      resp.UserID,
		DisplayName: resp.DisplayName,
		Token:       resp.Token,
	})
}

// Register creates an account and sends the user back to the login form.
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	req := model.RegisterRequest{
		DisplayName: strings.TrimSpace(name),
		Email:       strings.TrimSpace(email),
		Password:    password,
	}
	if err := validation.Struct(req); err != nil {
		m.surface.AuthError(err.Error())
		return err
	}

	if _, err := m.api.Register(ctx, req); err != nil {
		m.surface.AuthError(Scrub(gateway.Message(err)))
		return err
	}

	m.surface.ShowLogin()
	return nil
}

func (m *Manager) Logout(ctx context.Context) error {
	m.state.ClearSession()
	m.surface.SetAuth(ui.AuthFor(nil))
	return m.view.SwitchTab(ctx, state.TabAll, false)
}

var wrapperPrefixes = []string{"Error:", "Erreur :", "Erreur:", "RequestFailed:"}

// Scrub strips generic wrapper prefixes from an error message.
func Scrub(message string) string {
	message = strings.TrimSpace(message)
	for {
		trimmed := message
		for _, p := range wrapperPrefixes {
			if len(trimmed) >= len(p) && strings.EqualFold(trimmed[:len(p)], p) {
				trimmed = strings.TrimSpace(trimmed[len(p):])
			}
		}
		if trimmed == message {
			return message
		}
		message = trimmed
	}
}
