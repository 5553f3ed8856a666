package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/usecase"
)

// HTTPServer returns the control API server a UI front-end talks to.
// Call ListenAndServe on it in a goroutine and Shutdown it on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(a.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(a.cfg.Server.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Put("/identity", a.handleActivateIdentity)
	r.Get("/session", a.handleGetSession)
	r.Post("/clock-in", a.handleClockIn)
	r.Post("/clock-out", a.handleClockOut)
	r.Get("/ticks", a.handleTicks)

	a.log.Info("control server configured", slog.String("addr", addr))
	return &http.Server{Addr: addr, Handler: r}
}

func (a *App) handleActivateIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identity string `json:"identity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Identity) == "" {
		writeError(w, http.StatusBadRequest, "identity required")
		return
	}
	// The reconciliation outlives this request; supersession is handled by
	// the tracker's generation counter, not request cancellation.
	a.tracker.ActivateIdentity(context.Background(), strings.TrimSpace(req.Identity))
	writeJSON(w, http.StatusAccepted, sessionView(a.tracker.Session()))
}

func (a *App) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionView(a.tracker.Session()))
}

func (a *App) handleClockIn(w http.ResponseWriter, r *http.Request) {
	session, err := a.tracker.ClockIn(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

func (a *App) handleClockOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	// The explicit confirmation travels with the request; without it the
	// dispatcher is never invoked.
	if !req.Confirm {
		writeError(w, http.StatusPreconditionRequired, "clock-out requires confirmation")
		return
	}
	session, err := a.tracker.ClockOut(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware config.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleTicks streams session changes and live ticks to a UI client.
func (a *App) handleTicks(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	events, cancel := a.tracker.Subscribe()
	defer cancel()
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		// Reader exists only to observe the close handshake.
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Initial snapshot so the client renders without waiting for a change.
	if err := writeEvent(conn, usecase.Event{Type: usecase.EventSession, Session: a.tracker.Session()}); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev usecase.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	msg := map[string]any{"type": ev.Type, "session": sessionView(ev.Session)}
	if ev.Tick != nil {
		msg["tick"] = map[string]any{
			"identity":       ev.Tick.Identity,
			"at":             ev.Tick.At.Format(time.RFC3339),
			"elapsedSeconds": int64(ev.Tick.Elapsed.Seconds()),
		}
	}
	return conn.WriteJSON(msg)
}

// sessionView is the JSON shape served to front-ends.
func sessionView(s domain.Session) map[string]any {
	v := map[string]any{
		"identity": s.Identity,
		"state":    s.State().String(),
		"running":  s.Running,
		"verified": s.Verified,
	}
	if s.ClockInAt != nil {
		v["clockInAt"] = s.ClockInAt.Format(time.RFC3339)
	}
	if s.ClockOutAt != nil {
		v["clockOutAt"] = s.ClockOutAt.Format(time.RFC3339)
	}
	v["elapsedSeconds"] = int64(s.Elapsed(time.Now()).Seconds())
	return v
}

func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrInFlight):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, usecase.ErrNotRunning):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, usecase.ErrNotConfirmed):
		writeError(w, http.StatusPreconditionRequired, err.Error())
		return
	}
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindSensorUnsupported:
		status = http.StatusNotImplemented
	case domain.KindSensorPermissionDenied:
		status = http.StatusForbidden
	case domain.KindSensorTimeout:
		status = http.StatusGatewayTimeout
	case domain.KindSensorOther, domain.KindRemoteUnreachable:
		status = http.StatusBadGateway
	case domain.KindRemoteRejected:
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, domain.MessageOf(err))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr),
				slog.Duration("dur", time.Since(start)),
			)
		})
	}
}
