package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/poller"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/service"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

// filterMessage changes the collection filter of a jobs stream
type filterMessage struct {
	CollectionID string `json:"collectionId"`
}

// StreamJobs handles GET /api/jobs/stream?collectionId=. Every poll of the
// jobs list is pushed as a JSON message; the client switches the filter by
// sending {"collectionId": "..."}.
func (h *Handler) StreamJobs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("failed to upgrade jobs stream", "error", err.Error())
		return
	}
	defer conn.Close()

	// the request context is detached from hijacked connections on some servers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := poller.New(h.service.ListJobs, r.URL.Query().Get(collectionFilter), h.pollInterval, h.logger)

	// keep only the latest view when the client reads slower than we poll
	views := make(chan service.JobsView, 1)
	unsubscribe := p.View.Subscribe(func(v service.JobsView) {
		select {
		case <-views:
		default:
		}
		select {
		case views <- v:
		default:
		}
	})
	defer unsubscribe()

	p.Start(ctx)
	defer p.Stop()

	go h.readFilters(conn, p, cancel)

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	h.logger.Debugw("jobs stream opened", "collection_id", p.Filter())

	for {
		select {
		case <-ctx.Done():
			return
		case view := <-views:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(view); err != nil {
				h.logger.Debugw("jobs stream write failed", "error", err.Error())
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

// readFilters applies filter messages until the connection fails, then cancels the stream
func (h *Handler) readFilters(conn *websocket.Conn, p *poller.Poller, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		var msg filterMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debugw("jobs stream closed", "error", err.Error())
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		p.SetFilter(msg.CollectionID)
	}
}
