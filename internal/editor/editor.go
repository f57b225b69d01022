// Package editor implements the load/edit/save/delete lifecycle shared by the
// collection, job and variable forms.
//
// An Editor starts in StateLoading when it edits an existing resource and in
// StateReady when it creates one. Save and Remove move it through StateSaving
// or StateDeleting, back to StateReady on failure and to StateNavigated on
// success, after which the Navigator is told where to go.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/copystructure"
	"go.uber.org/zap"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/apierror"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/signal"
)

// State is the lifecycle state of an editor
type State string

// Editor states
const (
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateSaving    State = "saving"
	StateDeleting  State = "deleting"
	StateNavigated State = "navigated"
)

var (
	// ErrBusy is returned when Save or Remove is called outside StateReady
	ErrBusy = errors.New("editor is busy")
	// ErrFinished is returned for operations after a successful save or delete
	ErrFinished = errors.New("editor has already finished")
	// ErrClosed is returned for operations on a closed editor
	ErrClosed = errors.New("editor is closed")
)

// Resource is the remote side of an editor
type Resource[T, In any] interface {
	Load(ctx context.Context, id string) (T, string, error)
	Create(ctx context.Context, in In) (string, error)
	Update(ctx context.Context, id string, in In, etag string) error
	Delete(ctx context.Context, id, etag string) error
}

// Navigator moves the user elsewhere once an editor finishes.
// replace drops the current entry from history.
type Navigator interface {
	Navigate(route string, replace bool)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(route string, replace bool)

// Navigate calls f
func (f NavigatorFunc) Navigate(route string, replace bool) {
	f(route, replace)
}

// Recipe edits a draft in place. The editor hands it a private copy.
type Recipe[In any] func(draft *In) error

// Config wires an editor to its resource and collaborators
type Config[T, In any] struct {
	Resource  Resource[T, In]
	Navigator Navigator
	Pending   *signal.Pending
	Logger    *zap.SugaredLogger

	// ToInput extracts the editable part of a loaded resource
	ToInput func(T) In
	// Validate returns field errors for a draft, nil when valid
	Validate func(In) map[string]string
	// ListRoute is where to go after a successful save or delete
	ListRoute func(In) string
}

// View is a consistent snapshot of an editor
type View[In any] struct {
	ID       string            `json:"id,omitempty"`
	State    State             `json:"state"`
	Draft    In                `json:"draft"`
	Errors   map[string]string `json:"errors,omitempty"`
	Revision uint64            `json:"revision"`
}

// Editor holds a draft of one resource
type Editor[T, In any] struct {
	cfg Config[T, In]

	mu       sync.Mutex
	id       string
	etag     string
	draft    In
	state    State
	errors   map[string]string
	revision uint64
	closed   bool
}

// New creates an editor for the resource id, or for a new resource when id is
// empty, in which case initial is the starting draft
func New[T, In any](cfg Config[T, In], id string, initial In) *Editor[T, In] {
	if cfg.Pending == nil {
		cfg.Pending = signal.NewPending()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	state := StateReady
	if id != "" {
		state = StateLoading
	}

	return &Editor[T, In]{
		cfg:   cfg,
		id:    id,
		draft: initial,
		state: state,
	}
}

// Mount loads the resource when the editor has an id.
// A failure is kept in the error map and the editor becomes ready anyway.
func (e *Editor[T, In]) Mount(ctx context.Context) error {
	e.mu.Lock()
	id := e.id
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	if id == "" {
		return nil
	}

	item, etag, err := e.cfg.Resource.Load(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	e.state = StateReady
	e.revision++
	if err != nil {
		e.cfg.Logger.Warnw("failed to load resource",
			"id", id,
			"error", err.Error(),
		)
		e.errors = apierror.ToErrorMap(err)
		return err
	}

	e.draft = e.cfg.ToInput(item)
	e.etag = etag
	e.errors = nil
	return nil
}

// Mutate applies recipe to a copy of the draft and swaps it in.
// The server is never contacted. Field errors are recomputed and only
// replaced when they differ from the current ones.
func (e *Editor[T, In]) Mutate(recipe Recipe[In]) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.usable(); err != nil {
		return err
	}

	copied, err := copystructure.Copy(e.draft)
	if err != nil {
		return errors.Wrap(err, "failed to copy draft")
	}
	next := copied.(In)
	if err := recipe(&next); err != nil {
		return err
	}

	e.draft = next
	e.revision++

	if e.cfg.Validate != nil {
		if errs := e.cfg.Validate(next); !maps.Equal(errs, e.errors) {
			e.errors = errs
		}
	}
	return nil
}

// Save creates the resource when the editor has no id and updates it with the
// stored ETag otherwise. On success the navigator is sent to the list route.
func (e *Editor[T, In]) Save(ctx context.Context) error {
	e.mu.Lock()
	if err := e.usable(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.state != StateReady {
		e.mu.Unlock()
		return ErrBusy
	}
	if e.cfg.Validate != nil {
		if errs := e.cfg.Validate(e.draft); len(errs) > 0 {
			e.errors = errs
			e.revision++
			e.mu.Unlock()
			return &apierror.ValidationError{Status: http.StatusUnprocessableEntity, Fields: maps.Clone(errs)}
		}
	}

	id, etag, draft := e.id, e.etag, e.draft
	e.state = StateSaving
	e.revision++
	e.mu.Unlock()

	var createdID string
	err := e.cfg.Pending.Track(func() error {
		if id == "" {
			var err error
			createdID, err = e.cfg.Resource.Create(ctx, draft)
			return err
		}
		return e.cfg.Resource.Update(ctx, id, draft, etag)
	})

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return err
	}
	e.revision++
	if err != nil {
		e.state = StateReady
		e.errors = apierror.ToErrorMap(err)
		e.mu.Unlock()
		e.cfg.Logger.Warnw("failed to save resource",
			"id", id,
			"error", err.Error(),
		)
		return err
	}

	if createdID != "" {
		e.id = createdID
	}
	e.state = StateNavigated
	e.errors = nil
	e.mu.Unlock()

	e.cfg.Navigator.Navigate(e.cfg.ListRoute(draft), false)
	return nil
}

// Remove deletes the resource with the stored ETag. It does nothing for an
// editor without id. On success the navigator replaces the current route
// with the list route so going back skips the deleted resource.
func (e *Editor[T, In]) Remove(ctx context.Context) error {
	e.mu.Lock()
	if err := e.usable(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.id == "" {
		e.mu.Unlock()
		return nil
	}
	if e.state != StateReady {
		e.mu.Unlock()
		return ErrBusy
	}

	id, etag, draft := e.id, e.etag, e.draft
	e.state = StateDeleting
	e.revision++
	e.mu.Unlock()

	err := e.cfg.Pending.Track(func() error {
		return e.cfg.Resource.Delete(ctx, id, etag)
	})

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return err
	}
	e.revision++
	if err != nil {
		e.state = StateReady
		e.errors = apierror.ToErrorMap(err)
		e.mu.Unlock()
		e.cfg.Logger.Warnw("failed to delete resource",
			"id", id,
			"error", err.Error(),
		)
		return err
	}

	e.state = StateNavigated
	e.errors = nil
	e.mu.Unlock()

	e.cfg.Navigator.Navigate(e.cfg.ListRoute(draft), true)
	return nil
}

// Report surfaces err in the error map without changing state
func (e *Editor[T, In]) Report(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || err == nil {
		return
	}
	if e.errors == nil {
		e.errors = make(map[string]string)
	}
	for k, v := range apierror.ToErrorMap(err) {
		e.errors[k] = v
	}
	e.revision++
}

// View returns a snapshot of the editor
func (e *Editor[T, In]) View() View[In] {
	e.mu.Lock()
	defer e.mu.Unlock()

	return View[In]{
		ID:       e.id,
		State:    e.state,
		Draft:    e.draft,
		Errors:   maps.Clone(e.errors),
		Revision: e.revision,
	}
}

// ETag returns the version token captured by the last load
func (e *Editor[T, In]) ETag() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.etag
}

// Close detaches the editor. Operations still in flight complete on the
// server but no longer touch the editor or navigate.
func (e *Editor[T, In]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

func (e *Editor[T, In]) usable() error {
	if e.closed {
		return ErrClosed
	}
	if e.state == StateNavigated {
		return ErrFinished
	}
	return nil
}

// MergeJSON returns a recipe that decodes patch over the draft. Fields absent
// from patch keep their values, arrays are replaced, unknown fields are rejected.
func MergeJSON[In any](patch []byte) Recipe[In] {
	return func(draft *In) error {
		dec := json.NewDecoder(bytes.NewReader(patch))
		dec.DisallowUnknownFields()
		if err := dec.Decode(draft); err != nil {
			return errors.Wrap(err, "invalid patch")
		}
		return nil
	}
}
