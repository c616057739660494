package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/theLastOfCats/series-browser/internal/config"
	"github.com/theLastOfCats/series-browser/internal/gateway"
	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/rating"
	"github.com/theLastOfCats/series-browser/internal/session"
	"github.com/theLastOfCats/series-browser/internal/state"
	"github.com/theLastOfCats/series-browser/internal/ui"
	"github.com/theLastOfCats/series-browser/internal/view"
)

// app wires the client components around one text surface.
type app struct {
	state   *state.State
	text    *ui.Text
	client  *gateway.Client
	view    *view.Machine
	session *session.Manager
	rating  *rating.Controller

	htmlPath string
}

func newApp(cfg config.ClientConfig, out io.Writer, htmlPath string) *app {
	st := state.New()
	text := ui.NewText(out)
	client := gateway.New(gateway.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout}, text,
		gateway.WithTokenSource(st.Token))
	machine := view.New(client, st, text, view.Options{
		SearchLimit:    cfg.SearchLimit,
		RecoLimit:      cfg.RecoLimit,
		LikedThreshold: cfg.LikedThreshold,
	})

	return &app{
		state:    st,
		text:     text,
		client:   client,
		view:     machine,
		session:  session.NewManager(client, st, text, machine),
		rating:   rating.NewController(client, st, text, machine),
		htmlPath: htmlPath,
	}
}

// setup loads the configuration, applies the global flags and logs in when
// --email is given.
func setup(cmd *cobra.Command) (*app, error) {
	logging.Init(logging.Config{Level: flags.logLevel, Format: "console", Output: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.baseURL != "" {
		cfg.Client.BaseURL = flags.baseURL
	}

	a := newApp(cfg.Client, cmd.OutOrStdout(), flags.htmlPath)
	if flags.email != "" {
		if err := a.login(cmd.Context(), flags.email, flags.password); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// login opens a session without reloading the page, so a one-shot command
// only prints its own result.
func (a *app) login(ctx context.Context, email, password string) error {
	resp, err := a.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %s", session.Scrub(gateway.Message(err)))
	}
	a.state.SetSession(&state.Session{UserID: resp.UserID, DisplayName: resp.DisplayName, Token: resp.Token})
	a.text.SetAuth(ui.AuthFor(a.state.Session()))
	return nil
}

// activate marks tab as active without loading it.
func (a *app) activate(tab state.Tab) {
	a.state.SetActiveTab(tab)
	a.text.SetActiveTab(tab)
}

// finish exports the page when --html is set and passes err through.
func (a *app) finish(err error) error {
	if a.htmlPath != "" {
		if exportErr := a.export(a.htmlPath); exportErr != nil {
			return errors.Join(err, exportErr)
		}
	}
	return err
}

func (a *app) export(path string) error {
	exporter, err := ui.NewExporter()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := exporter.Export(f, a.text.Page()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
