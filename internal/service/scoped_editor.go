package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/apierror"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/concurrent"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/editor"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/model"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/repository"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/validation"
)

// collectionSelector holds the collections offered by a job or variable form.
// get returns nil until the list has been loaded.
type collectionSelector struct {
	mu    sync.RWMutex
	items []model.Collection
}

func (s *collectionSelector) get() []model.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

func (s *collectionSelector) set(items []model.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

// ScopedView is an editor snapshot with the collections for the selector
type ScopedView[In any] struct {
	editor.View[In]
	Collections []model.Collection `json:"collections"`
}

// ScopedEditor edits a resource that belongs to a collection
type ScopedEditor[T, In any] struct {
	*editor.Editor[T, In]

	collections repository.CollectionRepository
	selector    *collectionSelector
}

// Mount loads the resource and the collection list concurrently and applies
// both once they have settled
func (e *ScopedEditor[T, In]) Mount(ctx context.Context) error {
	var collections []model.Collection
	var listErr error

	mountErr := concurrent.Join(ctx,
		func(ctx context.Context) error {
			return e.Editor.Mount(ctx)
		},
		func(ctx context.Context) error {
			collections, listErr = e.collections.ListCollections(ctx)
			return listErr
		},
	)

	if listErr != nil {
		e.Report(listErr)
		return mountErr
	}

	e.selector.set(collections)
	if len(collections) == 0 {
		e.Report(&apierror.ValidationError{
			Status: http.StatusUnprocessableEntity,
			Fields: map[string]string{"collectionId": validation.MsgNoCollections},
		})
	}
	return mountErr
}

// Collections returns the collections offered by the selector
func (e *ScopedEditor[T, In]) Collections() []model.Collection {
	return e.selector.get()
}

// View returns the editor snapshot with its collections
func (e *ScopedEditor[T, In]) View() ScopedView[In] {
	return ScopedView[In]{
		View:        e.Editor.View(),
		Collections: e.selector.get(),
	}
}
