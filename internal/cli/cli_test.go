package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

type call struct {
	ifMatch string
	body    string
}

// scheduler is a fake scheduler API recording the writes it receives
type scheduler struct {
	mu    sync.Mutex
	calls map[string]call
}

func (s *scheduler) called(key string) (call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[key]
	return c, ok
}

func newScheduler(t *testing.T) (*scheduler, string) {
	t.Helper()

	s := &scheduler{calls: map[string]call{}}
	mux := http.NewServeMux()
	reply := func(status int, etag, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if etag != "" {
				w.Header().Set("ETag", etag)
			}
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
		}
	}

	collection := `{"id":"c1","name":"main","state":"enabled"}`
	job := `{"id":"j1","collectionId":"c1","name":"ping","state":"enabled","schedule":"@hourly",` +
		`"action":{"type":"HTTP","request":{"method":"GET","uri":"https://example.com"},` +
		`"retryPolicy":{"retryCount":0,"retryInterval":"PT1M","deadline":"PT1H"}}}`

	mux.Handle("GET /collections", reply(http.StatusOK, "", `{"items":[`+collection+`]}`))
	mux.Handle("GET /collections/c1", reply(http.StatusOK, `"5"`, collection))
	mux.Handle("PATCH /collections/c1", reply(http.StatusNoContent, "", ""))
	mux.Handle("POST /collections", reply(http.StatusCreated, "", `"c9"`))
	mux.Handle("GET /jobs", reply(http.StatusOK, "", `{"items":[`+job+`]}`))
	mux.Handle("GET /jobs/j1", reply(http.StatusOK, `"2"`, job))
	mux.Handle("POST /jobs", reply(http.StatusCreated, "", `{"id":"j-new"}`))
	mux.Handle("GET /jobs/j1/status", reply(http.StatusOK, `"s4"`, `{"running":false,"runCount":1,"errorCount":0}`))
	mux.Handle("PATCH /jobs/j1/status", reply(http.StatusNoContent, "", ""))
	mux.Handle("GET /jobs/j1/history", reply(http.StatusOK, "", `{"items":[{"status":500,"message":"upstream failed"}]}`))
	mux.Handle("GET /variables", reply(http.StatusOK, "", `{"items":[]}`))
	mux.Handle("POST /variables", reply(http.StatusCreated, "", `"v1"`))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path] = call{ifMatch: r.Header.Get("If-Match"), body: string(body)}
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	return s, srv.URL
}

func run(t *testing.T, baseURL string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--base-url", baseURL}, args...))

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCollectionsList(t *testing.T) {
	_, url := newScheduler(t)

	out, _, err := run(t, url, "collections", "ls")

	require.NoError(t, err)
	assert.Contains(t, out, "c1")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "enabled")
}

func TestCollectionsDisable(t *testing.T) {
	s, url := newScheduler(t)

	out, _, err := run(t, url, "collections", "disable", "c1")

	require.NoError(t, err)
	assert.Contains(t, out, "Collection c1 disabled")
	c, ok := s.called("PATCH /collections/c1")
	require.True(t, ok)
	assert.Equal(t, `"5"`, c.ifMatch)
	assert.JSONEq(t, `{"name":"main","state":"disabled"}`, c.body)
}

func TestCollectionsCreate_InvalidName(t *testing.T) {
	s, url := newScheduler(t)

	_, errOut, err := run(t, url, "collections", "create", "not a name!")

	assert.ErrorIs(t, err, ErrReported)
	assert.Contains(t, errOut, "name")
	_, posted := s.called("POST /collections")
	assert.False(t, posted, "invalid drafts are not sent")
}

func TestCollectionsCreate(t *testing.T) {
	s, url := newScheduler(t)

	out, _, err := run(t, url, "collections", "create", "nightly", "--disabled")

	require.NoError(t, err)
	assert.Contains(t, out, "c9")
	c, ok := s.called("POST /collections")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"nightly","state":"disabled"}`, c.body)
}

func TestJobsCreate(t *testing.T) {
	s, url := newScheduler(t)

	out, _, err := run(t, url, "jobs", "create",
		"--collection", "c1",
		"--name", "ping",
		"--schedule", "*/5 * * * *",
		"--method", "post",
		"--uri", "https://example.com/hook",
		"--header", "X-Token: abc",
		"--retries", "3",
	)

	require.NoError(t, err)
	assert.Contains(t, out, "j-new")

	c, ok := s.called("POST /jobs")
	require.True(t, ok)
	assert.JSONEq(t, `{
		"collectionId": "c1",
		"name": "ping",
		"state": "enabled",
		"schedule": "*/5 * * * *",
		"action": {
			"type": "HTTP",
			"request": {"method": "POST", "uri": "https://example.com/hook", "headers": [{"name": "X-Token", "value": "abc"}], "body": ""},
			"retryPolicy": {"retryCount": 3, "retryInterval": "PT1M", "deadline": "PT1H"}
		}
	}`, c.body)
}

func TestJobsRun(t *testing.T) {
	s, url := newScheduler(t)

	out, _, err := run(t, url, "jobs", "run", "j1")

	require.NoError(t, err)
	assert.Contains(t, out, "Job j1 started")
	c, ok := s.called("PATCH /jobs/j1/status")
	require.True(t, ok)
	assert.Equal(t, `"s4"`, c.ifMatch)
	assert.JSONEq(t, `{"running":true}`, c.body)
}

func TestJobsHistory(t *testing.T) {
	_, url := newScheduler(t)

	out, _, err := run(t, url, "jobs", "history", "j1")

	require.NoError(t, err)
	assert.Contains(t, out, "upstream failed")
	assert.Contains(t, out, "500")
}

func TestJobsGet_NotFound(t *testing.T) {
	_, url := newScheduler(t)

	_, errOut, err := run(t, url, "jobs", "get", "missing")

	assert.ErrorIs(t, err, ErrReported)
	assert.Contains(t, errOut, "could not be found")
}

func TestVariablesSet_Creates(t *testing.T) {
	s, url := newScheduler(t)

	out, _, err := run(t, url, "variables", "set", "c1", "TOKEN", "secret")

	require.NoError(t, err)
	assert.Contains(t, out, "created with id v1")
	c, ok := s.called("POST /variables")
	require.True(t, ok)
	assert.JSONEq(t, `{"collectionId":"c1","name":"TOKEN","value":"secret"}`, c.body)
}

func TestMissingBaseURL(t *testing.T) {
	_, _, err := run(t, "", "collections", "ls")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler.base_url")
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		in        string
		name, val string
		wantErr   bool
	}{
		{in: "Authorization: Bearer x", name: "Authorization", val: "Bearer x"},
		{in: "X-Id=42", name: "X-Id", val: "42"},
		{in: "novalue", wantErr: true},
		{in: ": empty name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, val, err := parseHeader(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.val, val)
		})
	}
}
