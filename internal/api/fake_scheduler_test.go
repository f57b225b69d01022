package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/client"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/logger"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/repository"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/service"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/signal"
)

// fakeScheduler serves a fixed scheduler dataset and records writes
type fakeScheduler struct {
	mu       sync.Mutex
	requests []string
	ifMatch  map[string]string
	bodies   map[string]string
	jobLists int
	// createdBody answers POST /collections; nil means {"id":"c2"}
	createdBody *string
}

func (f *fakeScheduler) setCreatedBody(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdBody = &body
}

func (f *fakeScheduler) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == key {
			n++
		}
	}
	return n
}

func (f *fakeScheduler) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	key := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, key)
	f.ifMatch[key] = r.Header.Get("If-Match")
	f.bodies[key] = string(body)
	if key == "GET /jobs" {
		f.jobLists++
	}
}

func (f *fakeScheduler) seen(key string) (ifMatch, body string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == key {
			return f.ifMatch[key], f.bodies[key], true
		}
	}
	return "", "", false
}

func writeJSON(w http.ResponseWriter, status int, etag string, body string) {
	w.Header().Set("Content-Type", "application/json")
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

const (
	collectionJSON = `{"id":"c1","name":"main","state":"enabled","updated":"2026-01-01T00:00:00Z"}`
	jobJSON        = `{"id":"j1","collectionId":"c1","name":"ping","state":"enabled","schedule":"*/5 * * * *",` +
		`"action":{"type":"HTTP","request":{"method":"GET","uri":"https://example.com/ping","headers":[]},` +
		`"retryPolicy":{"retryCount":1,"retryInterval":"PT1M","deadline":"PT1H"}},"updated":"2026-01-01T00:00:00Z"}`
)

func (f *fakeScheduler) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /collections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "", `{"items":[`+collectionJSON+`]}`)
	})
	mux.HandleFunc("GET /collections/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "c1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, `"7"`, collectionJSON)
	})
	mux.HandleFunc("POST /collections", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body := `{"id":"c2"}`
		if f.createdBody != nil {
			body = *f.createdBody
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, "", body)
	})
	mux.HandleFunc("PATCH /collections/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-Match") != `"7"` {
			writeJSON(w, http.StatusPreconditionFailed, "", `{"message":"Collection was modified by someone else"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /collections/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /jobs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "", `{"items":[`+jobJSON+`]}`)
	})
	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `"3"`, jobJSON)
	})
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, "",
			`{"errors":[{"type":"field","location":"name","message":"Job name already used"}]}`)
	})
	mux.HandleFunc("GET /jobs/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `"s1"`, `{"running":false,"runCount":2,"errorCount":0}`)
	})
	mux.HandleFunc("PATCH /jobs/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /jobs/{id}/history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "", `{"items":[{"status":200,"message":"ok"}]}`)
	})
	mux.HandleFunc("DELETE /jobs/{id}/history", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /variables", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, "", "")
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		mux.ServeHTTP(w, r)
	})
}

// newTestHandler wires the console API to a fake scheduler through the real
// client, repository and service
func newTestHandler(t *testing.T, opts Options) (*httptest.Server, *fakeScheduler) {
	t.Helper()

	fake := &fakeScheduler{ifMatch: map[string]string{}, bodies: map[string]string{}}
	scheduler := httptest.NewServer(fake.handler())
	t.Cleanup(scheduler.Close)

	c, err := client.New(scheduler.URL)
	require.NoError(t, err)

	log := logger.NewNop()
	svc := service.NewConsoleService(repository.NewSchedulerRepository(c), signal.NewPending(), log)
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Hour
	}

	console := httptest.NewServer(NewHandler(svc, opts, log).Router())
	t.Cleanup(console.Close)

	return console, fake
}

func doJSON(t *testing.T, method, url string, body string, header http.Header, out any) int {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
