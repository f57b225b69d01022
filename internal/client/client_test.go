package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/apierror"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// recorder captures the last request seen by the fake scheduler
type recorder struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

func newServer(t *testing.T, rec *recorder, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*rec = recorder{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   body,
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestList(t *testing.T) {
	var rec recorder
	srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"j1","name":"ping"}]}`))
	})

	c, err := New(srv.URL + "/v1")
	require.NoError(t, err)

	items, err := List[item](context.Background(), c, "/jobs?fields=status,errorRate&collectionId=c1")
	require.NoError(t, err)

	assert.Equal(t, []item{{ID: "j1", Name: "ping"}}, items)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/v1/jobs", rec.path)
	assert.Equal(t, "fields=status,errorRate&collectionId=c1", rec.query)
	assert.NotEmpty(t, rec.header.Get(HeaderRequestID))
	assert.Empty(t, rec.header.Get(HeaderContentType))
}

func TestList_EmptyItems(t *testing.T) {
	var rec recorder
	srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	c, err := New(srv.URL)
	require.NoError(t, err)

	items, err := List[item](context.Background(), c, "/collections")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGet_ETag(t *testing.T) {
	tests := []struct {
		name string
		etag string
	}{
		{name: "with etag", etag: `W/"3"`},
		{name: "without etag", etag: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recorder
			srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
				if tt.etag != "" {
					w.Header().Set("ETag", tt.etag)
				}
				w.Write([]byte(`{"id":"c1","name":"main"}`))
			})

			c, err := New(srv.URL)
			require.NoError(t, err)

			got, etag, err := Get[item](context.Background(), c, "/collections/c1")
			require.NoError(t, err)
			assert.Equal(t, item{ID: "c1", Name: "main"}, got)
			assert.Equal(t, tt.etag, etag)
			assert.Equal(t, "/collections/c1", rec.path)
		})
	}
}

func TestPost(t *testing.T) {
	var rec recorder
	srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`"c9"`))
	})

	c, err := New(srv.URL)
	require.NoError(t, err)

	var id string
	require.NoError(t, c.Post(context.Background(), "/collections", item{Name: "main"}, &id))

	assert.Equal(t, "c9", id)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "application/json", rec.header.Get(HeaderContentType))

	var sent item
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, "main", sent.Name)
}

func TestPost_EmptyResponse(t *testing.T) {
	var rec recorder
	srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c, err := New(srv.URL)
	require.NoError(t, err)

	var out map[string]any
	assert.NoError(t, c.Post(context.Background(), "/collections", item{}, &out))
	assert.Nil(t, out)
}

func TestPost_RawBody(t *testing.T) {
	var rec recorder
	srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("c9\n"))
	})

	c, err := New(srv.URL)
	require.NoError(t, err)

	var raw []byte
	require.NoError(t, c.Post(context.Background(), "/collections", item{}, &raw))
	assert.Equal(t, "c9\n", string(raw))
}

func TestConditionalWrites(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Client) error
		method string
		etag   string
	}{
		{
			name:   "patch with etag",
			call:   func(c *Client) error { return c.Patch(context.Background(), "/jobs/j1", item{Name: "x"}, `"7"`) },
			method: http.MethodPatch,
			etag:   `"7"`,
		},
		{
			name:   "patch without etag",
			call:   func(c *Client) error { return c.Patch(context.Background(), "/jobs/j1", item{Name: "x"}, "") },
			method: http.MethodPatch,
		},
		{
			name:   "delete with etag",
			call:   func(c *Client) error { return c.Delete(context.Background(), "/jobs/j1", `"7"`) },
			method: http.MethodDelete,
			etag:   `"7"`,
		},
		{
			name:   "delete without etag",
			call:   func(c *Client) error { return c.Delete(context.Background(), "/jobs/j1", "") },
			method: http.MethodDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recorder
			srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})

			c, err := New(srv.URL)
			require.NoError(t, err)
			require.NoError(t, tt.call(c))

			assert.Equal(t, tt.method, rec.method)
			assert.Equal(t, "/jobs/j1", rec.path)
			if tt.etag == "" {
				_, present := rec.header[HeaderIfMatch]
				assert.False(t, present)
			} else {
				assert.Equal(t, tt.etag, rec.header.Get(HeaderIfMatch))
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	var rec recorder
	srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPreconditionFailed)
		w.Write([]byte(`{"message":"resource was modified"}`))
	})

	c, err := New(srv.URL)
	require.NoError(t, err)

	err = c.Patch(context.Background(), "/collections/c1", item{}, `"1"`)

	var domainErr *apierror.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, http.StatusPreconditionFailed, domainErr.Status)
	assert.Equal(t, "resource was modified", domainErr.Message)
}

func TestCustomErrorMapper(t *testing.T) {
	var rec recorder
	srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	sentinel := errors.New("mapped")
	c, err := New(srv.URL, WithErrorMapper(func(*http.Response) error { return sentinel }))
	require.NoError(t, err)

	_, _, err = Get[item](context.Background(), c, "/collections/c1")
	assert.ErrorIs(t, err, sentinel)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = List[item](context.Background(), c, "/collections")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /collections")
	assert.Zero(t, apierror.StatusCode(err))
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)

	_, err = New("/relative")
	assert.Error(t, err)
}

func TestUserAgentAndRateLimit(t *testing.T) {
	var rec recorder
	srv := newServer(t, &rec, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	})

	c, err := New(srv.URL, WithUserAgent("scheduler-console/test"), WithRateLimit(100, 0))
	require.NoError(t, err)

	_, err = List[item](context.Background(), c, "/variables")
	require.NoError(t, err)
	assert.Equal(t, "scheduler-console/test", rec.header.Get("User-Agent"))
}
