package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ganot/estimate-poker/internal/metrics"
	"github.com/ganot/estimate-poker/internal/realtime"
)

const (
	defaultBuffer = 64
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// Realtime streams hub changes to websocket clients. Each connection gets a
// bounded queue; changes arriving while it is full are dropped.
type Realtime struct {
	hub     *realtime.Hub
	tables  []string
	buffer  int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// RealtimeConfig configures NewRealtime.
type RealtimeConfig struct {
	// Tables lists the tables clients may subscribe to. Empty allows any.
	Tables  []string
	Buffer  int
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewRealtime creates the websocket bridge for hub.
func NewRealtime(hub *realtime.Hub, cfg RealtimeConfig) *Realtime {
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Realtime{
		hub:     hub,
		tables:  cfg.Tables,
		buffer:  cfg.Buffer,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

func (rt *Realtime) binding(r *http.Request) (realtime.Binding, error) {
	q := r.URL.Query()
	b := realtime.Binding{
		Event:  realtime.Event(q.Get("event")),
		Table:  q.Get("table"),
		Filter: q.Get("filter"),
	}
	if b.Event == "" {
		b.Event = realtime.EventAll
	}
	switch b.Event {
	case realtime.EventAll, realtime.EventInsert, realtime.EventUpdate, realtime.EventDelete:
	default:
		return b, fmt.Errorf("unknown event %q", b.Event)
	}
	if b.Table == "" {
		return b, errors.New("table is required")
	}
	if len(rt.tables) > 0 && !slices.Contains(rt.tables, b.Table) {
		return b, fmt.Errorf("unknown table %q", b.Table)
	}
	if _, err := realtime.ParseFilter(b.Filter); err != nil {
		return b, err
	}
	return b, nil
}

func (rt *Realtime) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, err := rt.binding(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		rt.logger.Warn("realtime upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	queue := make(chan realtime.Change, rt.buffer)
	channelID, err := rt.hub.Channel("realtime").On(b, func(c realtime.Change) {
		rt.enqueue(queue, c)
	}).Subscribe()
	if err != nil {
		rt.logger.Error("realtime subscribe failed", "error", err)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return
	}
	defer rt.hub.RemoveChannel(channelID)

	rt.metrics.ClientConnected()
	defer rt.metrics.ClientDisconnected()
	rt.logger.Info("realtime client connected", "channel", channelID, "table", b.Table, "event", b.Event, "filter", b.Filter)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go rt.readLoop(ws, cancel)

	err = rt.writeLoop(ctx, ws, queue)
	rt.logger.Info("realtime client disconnected", "channel", channelID, "error", err)
}

// enqueue never blocks the publishing goroutine.
func (rt *Realtime) enqueue(queue chan<- realtime.Change, c realtime.Change) bool {
	select {
	case queue <- c:
		return true
	default:
		rt.metrics.Dropped()
		rt.logger.Warn("realtime client too slow, dropping change", "table", c.Table, "event", c.Event)
		return false
	}
}

// readLoop discards client messages and cancels when the connection closes.
func (rt *Realtime) readLoop(ws *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	ws.SetReadLimit(4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (rt *Realtime) writeLoop(ctx context.Context, ws *websocket.Conn, queue <-chan realtime.Change) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return ctx.Err()
		case c := <-queue:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(c); err != nil {
				return fmt.Errorf("writing change: %w", err)
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("writing ping: %w", err)
			}
		}
	}
}
