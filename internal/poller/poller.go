package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/service"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/signal"
)

// DefaultInterval is used when the poller is created with a non-positive interval
const DefaultInterval = 10 * time.Second

// Fetcher loads the jobs view for a collection filter
type Fetcher func(ctx context.Context, collectionID string) service.JobsView

// Ticker is the subset of time.Ticker the poller needs
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time   { return t.t.C }
func (t timeTicker) Reset(d time.Duration) { t.t.Reset(d) }
func (t timeTicker) Stop()                 { t.t.Stop() }

// Option configures a Poller
type Option func(*Poller)

// WithTicker replaces the ticker factory
func WithTicker(fn func(d time.Duration) Ticker) Option {
	return func(p *Poller) {
		p.newTicker = fn
	}
}

// Poller refreshes the jobs list on an interval and publishes every fetched
// view on View
type Poller struct {
	fetch     Fetcher
	interval  time.Duration
	logger    *zap.SugaredLogger
	newTicker func(d time.Duration) Ticker

	// View holds the last fetched view for the current filter
	View *signal.Signal[service.JobsView]

	mu       sync.RWMutex
	filter   string
	changed  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a poller for the collection filter collectionID
func New(fetch Fetcher, collectionID string, interval time.Duration, logger *zap.SugaredLogger, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}

	p := &Poller{
		fetch:    fetch,
		interval: interval,
		logger:   logger,
		newTicker: func(d time.Duration) Ticker {
			return timeTicker{t: time.NewTicker(d)}
		},
		View:    signal.New(service.JobsView{CollectionID: collectionID}),
		filter:  collectionID,
		changed: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start fetches immediately and then on every tick until Stop is called or
// ctx is done
func (p *Poller) Start(ctx context.Context) {
	p.logger.Debugw("starting jobs poller",
		"interval", p.interval,
		"collection_id", p.Filter(),
	)

	p.wg.Add(1)
	go p.run(ctx)
}

// Filter returns the current collection filter
func (p *Poller) Filter() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filter
}

// SetFilter switches the collection filter. A change triggers an immediate
// fetch and restarts the interval.
func (p *Poller) SetFilter(collectionID string) {
	p.mu.Lock()
	if p.filter == collectionID {
		p.mu.Unlock()
		return
	}
	p.filter = collectionID
	p.mu.Unlock()

	select {
	case p.changed <- struct{}{}:
	default:
		// a refetch is already queued and will read the new filter
	}
}

// Stop ends the loop and waits for an in-flight fetch to return
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := p.newTicker(p.interval)
	defer ticker.Stop()

	// the initial poll reads the latest filter, so a change queued before Start is already served
	select {
	case <-p.changed:
	default:
	}
	p.poll(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-p.changed:
			ticker.Reset(p.interval)
			p.poll(ctx)
		case <-ticker.C():
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	filter := p.Filter()
	view := p.fetch(ctx, filter)

	// the filter moved on while fetching; the queued refetch publishes instead
	if p.Filter() != filter {
		return
	}
	if ctx.Err() != nil {
		return
	}

	if view.Errors != nil {
		p.logger.Debugw("jobs poll returned errors",
			"collection_id", filter,
			"errors", view.Errors,
		)
	}
	p.View.Set(view)
}
