package tmdb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamangus/newish/internal/domain"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClientWithBaseURL("test-key", srv.URL, testLogger())
	c.retryDelay = time.Millisecond
	return c
}

func TestSearchMultiFiltersPeople(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/multi", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "fight club", r.URL.Query().Get("query"))
		w.Write([]byte(`{
			"page": 1,
			"results": [
				{"id": 550, "media_type": "movie", "title": "Fight Club"},
				{"id": 1100, "media_type": "tv", "name": "Some Show"},
				{"id": 819, "media_type": "person", "name": "Edward Norton"}
			],
			"total_pages": 1,
			"total_results": 3
		}`))
	})

	page, err := c.SearchMulti(context.Background(), "fight club", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Results, 2, "person results must be dropped")
	assert.Contains(t, string(page.Results[0]), `"movie"`)
	assert.Contains(t, string(page.Results[1]), `"tv"`)
}

func TestTrendingFiltersPeople(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trending/all/day", r.URL.Path)
		w.Write([]byte(`{"results": [
			{"id": 1, "media_type": "person"},
			{"id": 2, "media_type": "movie"}
		]}`))
	})

	list, err := c.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Results, 1)
}

func TestSimilarIsNotFiltered(t *testing.T) {
	// Items from the kind-scoped endpoint carry no media_type and must
	// survive untouched.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550/similar", r.URL.Path)
		w.Write([]byte(`{"results": [{"id": 10}, {"id": 11}]}`))
	})

	list, err := c.Similar(context.Background(), domain.MediaKindMovie, 550)
	require.NoError(t, err)
	assert.Len(t, list.Results, 2)
}

func TestUpstreamErrorMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status_message": "The resource you requested could not be found."}`))
	})

	_, err := c.Details(context.Background(), domain.MediaKindMovie, 99999999)
	require.Error(t, err)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.Status)
	assert.Contains(t, upstream.Message, "could not be found")
}

func TestRetriesServerErrors(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id": 550, "title": "Fight Club"}`))
	})

	body, err := c.Details(context.Background(), domain.MediaKindMovie, 550)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, string(body), "Fight Club")
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status_message": "Invalid API key"}`))
	})

	_, err := c.Details(context.Background(), domain.MediaKindMovie, 550)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetriesExhaust(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Details(context.Background(), domain.MediaKindMovie, 550)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.Status)
}

func TestTitleNormalizesMovie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550", r.URL.Path)
		w.Write([]byte(`{
			"id": 550,
			"title": "Fight Club",
			"overview": "An insomniac...",
			"release_date": "1999-10-15",
			"poster_path": "/fc.jpg",
			"vote_average": 8.4,
			"original_language": "en",
			"genres": [{"id": 18, "name": "Drama"}, {"id": 53, "name": "Thriller"}]
		}`))
	})

	title, genres, err := c.Title(context.Background(), domain.MediaKindMovie, 550)
	require.NoError(t, err)
	assert.Equal(t, int64(550), title.ID)
	assert.Equal(t, "Fight Club", title.Name)
	assert.Equal(t, "Drama, Thriller", title.Genre)
	assert.Equal(t, "1999-10-15", title.ReleaseDate)
	assert.Equal(t, "/fc.jpg", title.Metadata.PosterPath)
	assert.Equal(t, 8.4, title.Metadata.VoteAverage)
	assert.Equal(t, "movie", title.Metadata.MediaKind)
	assert.Equal(t, []string{"Drama", "Thriller"}, genres)
}

func TestTitleNormalizesTV(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/1399", r.URL.Path)
		w.Write([]byte(`{
			"id": 1399,
			"name": "Game of Thrones",
			"first_air_date": "2011-04-17",
			"genres": [{"name": "Fantasy"}]
		}`))
	})

	title, _, err := c.Title(context.Background(), domain.MediaKindTV, 1399)
	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", title.Name, "tv uses name, not title")
	assert.Equal(t, "2011-04-17", title.ReleaseDate, "tv uses first_air_date")
	assert.Equal(t, "tv", title.Metadata.MediaKind)
}

func TestPopularMoviesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/movie", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "popularity.desc", q.Get("sort_by"))
		assert.Equal(t, "1000", q.Get("vote_count.gte"))
		w.Write([]byte(`{"results": [{"id": 1}]}`))
	})

	list, err := c.PopularMovies(context.Background())
	require.NoError(t, err)
	assert.Len(t, list.Results, 1)
}
