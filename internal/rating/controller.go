// Package rating drives the detail view and the create, update and delete
// lifecycle of the user's rating of a series. Ratings are never merged into
// local state: every mutation is followed by a reload of the active tab.
package rating

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/theLastOfCats/series-browser/internal/gateway"
	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/state"
	"github.com/theLastOfCats/series-browser/internal/ui"
	"github.com/theLastOfCats/series-browser/internal/validation"
)

const (
	MsgLoginRequired  = "Log in to rate series"
	MsgNoSelection    = "Open a series first"
	MsgRatingNotFound = "Rating not found for this series"
	MsgOtherSeries    = "Only the open series can be rated"
)

var (
	ErrNoSession   = errors.New("no active session")
	ErrNoSelection = errors.New("no series selected")
	ErrNotSelected = errors.New("series is not the open one")
)

type API interface {
	Rate(ctx context.Context, userID int64, req model.RateRequest, opts gateway.Options) error
	DeleteRating(ctx context.Context, userID, seriesID int64, opts gateway.Options) error
	CurrentRating(ctx context.Context, userID, seriesID int64) (int, error)
	SeriesDetails(ctx context.Context, seriesID int64) (*model.SeriesDetails, error)
}

// Refresher reloads the active tab.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Controller struct {
	api     API
	state   *state.State
	surface ui.Surface
	view    Refresher
	log     zerolog.Logger
}

func NewController(api API, st *state.State, surface ui.Surface, view Refresher) *Controller {
	return &Controller{
		api:     api,
		state:   st,
		surface: surface,
		view:    view,
		log:     logging.WithComponent("rating"),
	}
}

// FetchCurrent returns the user's note for a series, 0 when unrated or when
// the lookup fails.
func (c *Controller) FetchCurrent(ctx context.Context, userID, seriesID int64) int {
	note, err := c.api.CurrentRating(ctx, userID, seriesID)
	if err != nil {
		c.log.Warn().Err(err).Int64("user_id", userID).Int64("series_id", seriesID).Msg("rating lookup failed")
		return 0
	}
	return note
}

// Open selects rec and shows its detail view. The pending rating starts at
// the note the listing carried, or the one stored by the backend.
func (c *Controller) Open(ctx context.Context, rec model.Record) {
	sess := c.state.Session()

	note := 0
	switch {
	case rec.Note != nil:
		note = *rec.Note
	case sess != nil:
		note = c.FetchCurrent(ctx, sess.UserID, rec.ID)
	}

	c.state.SelectSeries(rec, note)
	c.surface.OpenDetail(ui.Detail{
		Record:        rec,
		PendingRating: c.state.PendingRating(),
		CanRate:       sess != nil,
	})
}

// OpenByID loads a series with its average rating and opens it.
func (c *Controller) OpenByID(ctx context.Context, seriesID int64) error {
	details, err := c.api.SeriesDetails(ctx, seriesID)
	if err != nil {
		return err
	}
	count := details.NoteCount
	c.Open(ctx, model.Record{
		Series:      details.Series,
		AverageNote: details.AverageNote,
		NoteCount:   &count,
	})
	return nil
}

func (c *Controller) Close() {
	c.state.CloseDetail()
	c.surface.CloseDetail()
}

// Choose sets the pending rating of the open series.
func (c *Controller) Choose(score int) bool {
	return c.state.Choose(score)
}

// Submit rates seriesID with score, then reloads the active tab whatever the
// outcome.
func (c *Controller) Submit(ctx context.Context, seriesID int64, score int) error {
	sess, err := c.ready(seriesID)
	if err != nil {
		return err
	}

	req := model.RateRequest{SeriesID: seriesID, Score: score}
	if err := validation.Struct(req); err != nil {
		c.surface.Alert(err.Error())
		return err
	}

	return c.mutate(ctx, func() error {
		return c.api.Rate(ctx, sess.UserID, req, gateway.Options{Quiet: true})
	}, "")
}

// Delete removes the user's rating of seriesID, then reloads the active tab.
func (c *Controller) Delete(ctx context.Context, seriesID int64) error {
	sess, err := c.ready(seriesID)
	if err != nil {
		return err
	}

	if err := validation.Var("serie_id", seriesID, "gt=0"); err != nil {
		c.surface.Alert(err.Error())
		return err
	}

	return c.mutate(ctx, func() error {
		return c.api.DeleteRating(ctx, sess.UserID, seriesID, gateway.Options{Quiet: true})
	}, MsgRatingNotFound)
}

// SubmitPending rates the open series with the pending rating.
func (c *Controller) SubmitPending(ctx context.Context) error {
	return c.Submit(ctx, c.selectedID(), c.state.PendingRating())
}

func (c *Controller) DeletePending(ctx context.Context) error {
	return c.Delete(ctx, c.selectedID())
}

func (c *Controller) selectedID() int64 {
	if sel := c.state.Selected(); sel != nil {
		return sel.ID
	}
	return 0
}

// ready checks that a session exists and that seriesID is the open series.
func (c *Controller) ready(seriesID int64) (*state.Session, error) {
	sess := c.state.Session()
	if sess == nil {
		c.surface.Alert(MsgLoginRequired)
		return nil, ErrNoSession
	}
	sel := c.state.Selected()
	if sel == nil {
		c.surface.Alert(MsgNoSelection)
		return nil, ErrNoSelection
	}
	if sel.ID != seriesID {
		c.surface.Alert(MsgOtherSeries)
		return nil, ErrNotSelected
	}
	return sess, nil
}

// mutate closes the detail view, runs call and reloads. A failure is shown on
// the banner after the reload, which clears it. notFound replaces the
// message of a 404 when set.
func (c *Controller) mutate(ctx context.Context, call func() error, notFound string) error {
	c.Close()
	c.surface.ShowLoading()
	err := call()
	c.surface.HideLoading()

	reloadErr := c.view.Refresh(ctx)

	if err != nil {
		msg := gateway.Message(err)
		if notFound != "" && errors.Is(err, gateway.ErrNotFound) {
			msg = notFound
		}
		c.surface.NotifyError(msg)
		return err
	}
	return reloadErr
}
