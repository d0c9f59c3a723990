// Package events streams the notifications of a tab session over a WebSocket.
package events

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/burgnice/storefront/api/middleware"
	"github.com/burgnice/storefront/api/responses"
	internalevents "github.com/burgnice/storefront/internal/events"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

type subscriber interface {
	Subscribe(sessionID string, h internalevents.Handler) (cancel func())
}

// Options configures the stream endpoint.
type Options struct {
	AllowedOrigins []string
}

// Stream upgrades the request and forwards every event published for the
// session as a JSON envelope. Bus delivery never blocks on the socket: when
// the send buffer is full the event is dropped and logged.
func Stream(bus subscriber, opts Options, logg *logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if bus == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event bus unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// the upgrader already wrote the http error
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "events.upgrade_failed")
			}
			return
		}

		ctx := r.Context()
		send := make(chan internalevents.Envelope, sendBuffer)
		cancel := bus.Subscribe(sessionID, func(e internalevents.Event) {
			select {
			case send <- internalevents.Wrap(e):
			default:
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "event", string(e.Kind())), "events.dropped")
				}
			}
		})
		defer cancel()

		if logg != nil {
			logg.Info(ctx, "events.connected")
		}

		done := make(chan struct{})
		go readPump(conn, done)
		writePump(conn, send, done)

		if logg != nil {
			logg.Info(ctx, "events.disconnected")
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, send <-chan internalevents.Envelope, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case env := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			wildcard = true
		}
		set[strings.ToLower(origin)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		_, ok := set[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}
