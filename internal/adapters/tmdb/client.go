// Package tmdb implements the catalog gateway over the TMDB HTTP API.
// Successful payloads are forwarded unmodified apart from media-kind
// filtering; upstream failures are normalized into domain.UpstreamError.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iamangus/newish/internal/domain"
	"github.com/iamangus/newish/internal/metrics"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *logrus.Entry

	// Bounded retry for transient upstream failures. 4xx responses are
	// never retried.
	maxAttempts int
	retryDelay  time.Duration
}

func NewClient(apiKey string, logger *logrus.Entry) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL, logger)
}

// NewClientWithBaseURL creates a client against an explicit base URL (for testing).
func NewClientWithBaseURL(apiKey, baseURL string, logger *logrus.Entry) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
		maxAttempts: 3,
		retryDelay:  500 * time.Millisecond,
	}
}

type upstreamStatus struct {
	StatusMessage string `json:"status_message"`
}

// get performs one catalog GET with bounded retry and returns the raw body.
func (c *Client) get(ctx context.Context, label, endpoint string, q url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, err
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		metrics.UpstreamRequests.WithLabelValues(label).Inc()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.logger.WithError(err).WithField("endpoint", label).Warn("catalog request failed, retrying")
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		var st upstreamStatus
		_ = json.Unmarshal(body, &st)
		upErr := &domain.UpstreamError{Status: resp.StatusCode, Message: st.StatusMessage}
		if resp.StatusCode < 500 {
			return nil, upErr
		}
		lastErr = upErr
		c.logger.WithField("endpoint", label).WithField("status", resp.StatusCode).
			Warn("catalog returned server error, retrying")
	}

	var upErr *domain.UpstreamError
	if errors.As(lastErr, &upErr) {
		return nil, upErr
	}
	return nil, &domain.UpstreamError{Status: http.StatusInternalServerError, Message: lastErr.Error()}
}

// kindProbe peeks at a raw result to learn its media type without
// disturbing the payload.
type kindProbe struct {
	MediaType string `json:"media_type"`
}

// filterKinds drops everything that is not a movie or tv result (the
// upstream multi endpoints also return people).
func filterKinds(results []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(results))
	for _, raw := range results {
		var p kindProbe
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		if p.MediaType == string(domain.MediaKindMovie) || p.MediaType == string(domain.MediaKindTV) {
			out = append(out, raw)
		}
	}
	return out
}

func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*domain.SearchPage, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))

	body, err := c.get(ctx, "search", "/search/multi", q)
	if err != nil {
		return nil, err
	}

	var pageResp domain.SearchPage
	if err := json.Unmarshal(body, &pageResp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	pageResp.Results = filterKinds(pageResp.Results)
	return &pageResp, nil
}

func (c *Client) Trending(ctx context.Context) (*domain.ResultList, error) {
	body, err := c.get(ctx, "trending", "/trending/all/day", nil)
	if err != nil {
		return nil, err
	}

	var list domain.ResultList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding trending response: %w", err)
	}
	list.Results = filterKinds(list.Results)
	return &list, nil
}

func (c *Client) Details(ctx context.Context, kind domain.MediaKind, id int64) (json.RawMessage, error) {
	return c.get(ctx, "details", fmt.Sprintf("/%s/%d", kind, id), nil)
}

func (c *Client) Credits(ctx context.Context, kind domain.MediaKind, id int64) (json.RawMessage, error) {
	return c.get(ctx, "credits", fmt.Sprintf("/%s/%d/credits", kind, id), nil)
}

func (c *Client) Season(ctx context.Context, tvID int64, season int) (json.RawMessage, error) {
	return c.get(ctx, "season", fmt.Sprintf("/tv/%d/season/%d", tvID, season), nil)
}

// Similar returns titles like the given one. The upstream endpoint is
// already scoped to one media kind, so no filtering is applied (its items
// carry no media_type field).
func (c *Client) Similar(ctx context.Context, kind domain.MediaKind, id int64) (*domain.ResultList, error) {
	body, err := c.get(ctx, "similar", fmt.Sprintf("/%s/%d/similar", kind, id), nil)
	if err != nil {
		return nil, err
	}

	var list domain.ResultList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding similar response: %w", err)
	}
	return &list, nil
}

func (c *Client) PopularMovies(ctx context.Context) (*domain.ResultList, error) {
	q := url.Values{}
	q.Set("sort_by", "popularity.desc")
	q.Set("page", "1")
	q.Set("vote_count.gte", "1000")

	body, err := c.get(ctx, "popular", "/discover/movie", q)
	if err != nil {
		return nil, err
	}

	var list domain.ResultList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding discover response: %w", err)
	}
	return &list, nil
}

type detailsResponse struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"` // movies
	Name         string  `json:"name"`  // tv
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`   // movies
	FirstAirDate string  `json:"first_air_date"` // tv
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	OriginalLang string  `json:"original_language"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Title fetches and normalizes one title record for the local metadata cache.
func (c *Client) Title(ctx context.Context, kind domain.MediaKind, id int64) (*domain.Title, []string, error) {
	body, err := c.get(ctx, "title", fmt.Sprintf("/%s/%d", kind, id), nil)
	if err != nil {
		return nil, nil, err
	}

	var d detailsResponse
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, nil, fmt.Errorf("decoding title details: %w", err)
	}

	name := d.Title
	if name == "" {
		name = d.Name
	}
	releaseDate := d.ReleaseDate
	if releaseDate == "" {
		releaseDate = d.FirstAirDate
	}

	genres := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, g.Name)
	}

	title := &domain.Title{
		ID:          d.ID,
		Name:        name,
		Genre:       strings.Join(genres, ", "),
		ReleaseDate: releaseDate,
		Overview:    d.Overview,
		Metadata: domain.TitleMetadata{
			PosterPath:       d.PosterPath,
			VoteAverage:      d.VoteAverage,
			OriginalLanguage: d.OriginalLang,
			MediaKind:        string(kind),
		},
	}
	return title, genres, nil
}
