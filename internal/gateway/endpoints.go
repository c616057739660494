package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/theLastOfCats/series-browser/internal/model"
)

func (c *Client) get(ctx context.Context, endpoint string, quiet bool, out any) error {
	return c.fetch(ctx, endpoint, Options{Quiet: quiet}, out)
}

// fetch calls endpoint and decodes the JSON body into out. A body that
// cannot be decoded fails the call like a non-2xx answer would.
func (c *Client) fetch(ctx context.Context, endpoint string, opts Options, out any) error {
	res, err := c.Call(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	return c.decode(endpoint, res, opts.Quiet, out)
}

func (c *Client) decode(endpoint string, res *Result, quiet bool, out any) error {
	err := res.JSON(out)
	if err == nil {
		return nil
	}
	c.log.Warn().Err(err).Str("endpoint", endpoint).Int("status", res.Status).Msg("undecodable response")
	failed := &RequestFailed{
		Endpoint: endpoint,
		Status:   res.Status,
		Message:  fmt.Sprintf("Invalid response on %s", path(endpoint)),
	}
	if !quiet {
		c.notifier.NotifyError(notification(endpoint, failed))
	}
	return failed
}

// ListSeries fetches the whole catalog.
func (c *Client) ListSeries(ctx context.Context) (*model.CatalogPage, error) {
	var page model.CatalogPage
	if err := c.get(ctx, CatalogEndpoint, false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SeriesDetails fetches one series with its average rating.
func (c *Client) SeriesDetails(ctx context.Context, seriesID int64) (*model.SeriesDetails, error) {
	var details model.SeriesDetails
	if err := c.get(ctx, fmt.Sprintf("series/%d", seriesID), false, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) Search(ctx context.Context, query string, limit int) (*model.SearchPage, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var page model.SearchPage
	if err := c.get(ctx, "recherche?"+q.Encode(), false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Similar asks for series close to the one identified by slug.
func (c *Client) Similar(ctx context.Context, slug string, limit int) (*model.SimilarPage, error) {
	q := url.Values{}
	q.Set("serie", slug)
	q.Set("limit", strconv.Itoa(limit))

	var page model.SimilarPage
	if err := c.get(ctx, "recommandations/similarite?"+q.Encode(), false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) ProfileRecommendations(ctx context.Context, liked []string, limit int) (*model.RecommendationPage, error) {
	var page model.RecommendationPage
	err := c.fetch(ctx, "recommandations/profil", Options{
		Method: http.MethodPost,
		Body:   model.ProfileRequest{LikedSeries: liked, Limit: limit},
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// UserSeries lists the series rated by userID, best score first.
func (c *Client) UserSeries(ctx context.Context, userID int64) (*model.CatalogPage, error) {
	var page model.CatalogPage
	if err := c.get(ctx, fmt.Sprintf("utilisateur/%d/series", userID), false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CurrentRating returns the caller's score for a series, 0 when unrated.
// The lookup is best effort and never notifies.
func (c *Client) CurrentRating(ctx context.Context, userID, seriesID int64) (int, error) {
	var cur model.CurrentRating
	if err := c.get(ctx, noteEndpoint(userID, seriesID), true, &cur); err != nil {
		return 0, err
	}
	return cur.Note, nil
}

func (c *Client) Rate(ctx context.Context, userID int64, req model.RateRequest, opts Options) error {
	opts.Method = http.MethodPost
	opts.Body = req
	_, err := c.Call(ctx, fmt.Sprintf("utilisateur/%d/noter", userID), opts)
	return err
}

func (c *Client) DeleteRating(ctx context.Context, userID, seriesID int64, opts Options) error {
	opts.Method = http.MethodDelete
	_, err := c.Call(ctx, noteEndpoint(userID, seriesID), opts)
	return err
}

// Login and Register are always quiet: their errors belong to the auth form.
func (c *Client) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	var out model.LoginResponse
	err := c.fetch(ctx, "utilisateur/connexion", Options{
		Method: http.MethodPost,
		Body:   model.LoginRequest{Email: email, Password: password},
		Quiet:  true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.RegisterResponse, error) {
	res, err := c.Call(ctx, "utilisateur/inscription", Options{
		Method: http.MethodPost,
		Body:   req,
		Quiet:  true,
	})
	if err != nil {
		return nil, err
	}
	var out model.RegisterResponse
	if res.IsJSON() {
		if err := c.decode("utilisateur/inscription", res, true, &out); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func noteEndpoint(userID, seriesID int64) string {
	return fmt.Sprintf("utilisateur/%d/series/%d/note", userID, seriesID)
}
