package geosensor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"attendance-tracker/internal/domain"
)

// DefaultTimeout bounds a single position fix.
const DefaultTimeout = 8 * time.Second

// Sensor implements ports.LocationSensor against a local position provider
// exposed over HTTP (e.g. a geoclue bridge or the host agent). One request,
// one bounded fix, no retries.
type Sensor struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	log      *slog.Logger
}

func New(endpoint string, timeout time.Duration, log *slog.Logger) *Sensor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sensor{
		endpoint: endpoint,
		timeout:  timeout,
		// The per-call context enforces the bound; the client timeout is a
		// backstop slightly above it.
		http: &http.Client{Timeout: timeout + time.Second},
		log:  log,
	}
}

// Position requests a single high-accuracy fix.
func (s *Sensor) Position(ctx context.Context) (domain.Position, error) {
	if s.endpoint == "" {
		return domain.Position{}, domain.E(domain.KindSensorUnsupported, "no location provider configured", nil)
	}
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return domain.Position{}, domain.E(domain.KindSensorUnsupported, "invalid location provider endpoint", err)
	}
	q := u.Query()
	q.Set("accuracy", "high")
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Position{}, domain.E(domain.KindSensorOther, "building position request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Position{}, domain.E(domain.KindSensorTimeout, "no position fix within bound", err)
		}
		return domain.Position{}, domain.E(domain.KindSensorOther, "position read failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return domain.Position{}, domain.E(domain.KindSensorPermissionDenied, "location access denied", nil)
	case resp.StatusCode != http.StatusOK:
		return domain.Position{}, domain.E(domain.KindSensorOther, "location provider error", nil)
	}

	var raw struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Position{}, domain.E(domain.KindSensorOther, "decoding position", err)
	}

	s.log.Debug("position fix acquired", slog.Duration("took", time.Since(start)))
	return domain.Position{Latitude: raw.Latitude, Longitude: raw.Longitude}, nil
}
