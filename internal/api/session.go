package api

import (
	"context"
	"sync"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/editor"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/service"
)

// Editor kinds accepted by POST /api/editors/{kind}
const (
	kindCollection = "collection"
	kindJob        = "job"
	kindVariable   = "variable"
)

// navigation records where an editor asked to go
type navigation struct {
	mu      sync.Mutex
	route   string
	replace bool
	done    bool
}

// Navigate implements editor.Navigator
func (n *navigation) Navigate(route string, replace bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.route, n.replace, n.done = route, replace, true
}

// navigateResponse tells the UI where to go after a save or delete
type navigateResponse struct {
	Route   string `json:"route"`
	Replace bool   `json:"replace"`
}

func (n *navigation) response() *navigateResponse {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.done {
		return nil
	}
	return &navigateResponse{Route: n.route, Replace: n.replace}
}

// session is an editor held between console API requests
type session interface {
	Kind() string
	Mount(ctx context.Context) error
	Patch(patch []byte) error
	Save(ctx context.Context) error
	Remove(ctx context.Context) error
	View() any
	Navigation() *navigateResponse
	Close()
}

// draftEditor is the part of editor.Editor and service.ScopedEditor a session drives
type draftEditor[In any] interface {
	Mount(ctx context.Context) error
	Mutate(recipe editor.Recipe[In]) error
	Save(ctx context.Context) error
	Remove(ctx context.Context) error
	Close()
}

type editorSession[In any, V any] struct {
	kind   string
	editor draftEditor[In]
	view   func() V
	nav    *navigation
}

func (s *editorSession[In, V]) Kind() string                     { return s.kind }
func (s *editorSession[In, V]) Mount(ctx context.Context) error  { return s.editor.Mount(ctx) }
func (s *editorSession[In, V]) Save(ctx context.Context) error   { return s.editor.Save(ctx) }
func (s *editorSession[In, V]) Remove(ctx context.Context) error { return s.editor.Remove(ctx) }
func (s *editorSession[In, V]) View() any                        { return s.view() }
func (s *editorSession[In, V]) Navigation() *navigateResponse    { return s.nav.response() }
func (s *editorSession[In, V]) Close()                           { s.editor.Close() }

func (s *editorSession[In, V]) Patch(patch []byte) error {
	return s.editor.Mutate(editor.MergeJSON[In](patch))
}

// newSession creates the editor for kind. ok is false for an unknown kind.
func newSession(svc service.ConsoleService, kind, id, collectionID string) (session, bool) {
	nav := &navigation{}

	switch kind {
	case kindCollection:
		e := svc.NewCollectionEditor(id, nav)
		return &editorSession[model.CollectionInput, editor.View[model.CollectionInput]]{
			kind: kind, editor: e, view: e.View, nav: nav,
		}, true
	case kindJob:
		e := svc.NewJobEditor(id, collectionID, nav)
		return &editorSession[model.JobInput, service.ScopedView[model.JobInput]]{
			kind: kind, editor: e, view: e.View, nav: nav,
		}, true
	case kindVariable:
		e := svc.NewVariableEditor(id, collectionID, nav)
		return &editorSession[model.VariableInput, service.ScopedView[model.VariableInput]]{
			kind: kind, editor: e, view: e.View, nav: nav,
		}, true
	}
	return nil, false
}
