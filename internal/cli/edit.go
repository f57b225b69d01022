package cli

import (
	"context"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/editor"
)

// draftEditor is the part of an editor the commands drive
type draftEditor[In any] interface {
	Mount(ctx context.Context) error
	Mutate(recipe editor.Recipe[In]) error
	Save(ctx context.Context) error
	Remove(ctx context.Context) error
}

// navigation remembers the route an editor finished on
type navigation struct {
	route string
}

func (n *navigation) Navigate(route string, replace bool) {
	n.route = route
}

// saveDraft loads the editor, applies recipe and saves. Errors collected by
// the editor are printed before returning.
func saveDraft[In any](ctx context.Context, p *printer, e draftEditor[In], errs func() map[string]string, recipe editor.Recipe[In]) error {
	if err := e.Mount(ctx); err != nil {
		p.errorMap(errs())
		return ErrReported
	}
	if err := e.Mutate(recipe); err != nil {
		return p.fail(err)
	}

	if err := p.spin("Saving", func() error { return e.Save(ctx) }); err != nil {
		p.errorMap(errs())
		return ErrReported
	}
	return nil
}

// removeResource loads the editor and deletes its resource
func removeResource[In any](ctx context.Context, p *printer, e draftEditor[In], errs func() map[string]string) error {
	if err := e.Mount(ctx); err != nil {
		p.errorMap(errs())
		return ErrReported
	}

	if err := p.spin("Deleting", func() error { return e.Remove(ctx) }); err != nil {
		p.errorMap(errs())
		return ErrReported
	}
	return nil
}

// loadResource mounts an editor to read one resource
func loadResource[In any](ctx context.Context, p *printer, e draftEditor[In], errs func() map[string]string) error {
	if err := e.Mount(ctx); err != nil {
		p.errorMap(errs())
		return ErrReported
	}
	return nil
}
