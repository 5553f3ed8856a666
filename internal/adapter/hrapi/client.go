package hrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"attendance-tracker/internal/domain"
)

// Client implements ports.Authority against the HR attendance API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Status fetches the authority's session view.
// GET /status/{identity} -> { status: "success", data: { checkInTime, checkOutTime } }
func (c *Client) Status(ctx context.Context, identity string) (domain.RemoteStatus, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return domain.RemoteStatus{}, domain.E(domain.KindRemoteUnreachable, "invalid authority URL", err)
	}
	u.Path = "/status/" + url.PathEscape(identity)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.RemoteStatus{}, domain.E(domain.KindRemoteUnreachable, "building status request", err)
	}
	req.Header.Set("Accept", "application/json")

	env, err := c.do(req)
	if err != nil {
		return domain.RemoteStatus{}, err
	}
	if env.Data == nil {
		return domain.RemoteStatus{}, domain.E(domain.KindRemoteUnreachable, "status response missing data", nil)
	}
	var st domain.RemoteStatus
	if env.Data.CheckInTime != nil {
		t := env.Data.CheckInTime.UTC()
		st.CheckInAt = &t
	}
	if env.Data.CheckOutTime != nil {
		t := env.Data.CheckOutTime.UTC()
		st.CheckOutAt = &t
	}
	return st, nil
}

// ClockIn opens a session. POST /clock-in { latitude, longitude } with
// coordinates as strings, per the wire contract.
func (c *Client) ClockIn(ctx context.Context, identity string, pos domain.Position, requestID string) error {
	return c.mutate(ctx, "/clock-in", identity, pos, requestID)
}

// ClockOut closes the open session. POST /clock-out { latitude, longitude }.
func (c *Client) ClockOut(ctx context.Context, identity string, pos domain.Position, requestID string) error {
	return c.mutate(ctx, "/clock-out", identity, pos, requestID)
}

func (c *Client) mutate(ctx context.Context, path, identity string, pos domain.Position, requestID string) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return domain.E(domain.KindRemoteUnreachable, "invalid authority URL", err)
	}
	u.Path = path

	body, err := json.Marshal(mutationBody{
		Latitude:  strconv.FormatFloat(pos.Latitude, 'f', -1, 64),
		Longitude: strconv.FormatFloat(pos.Longitude, 'f', -1, 64),
	})
	if err != nil {
		return domain.E(domain.KindRemoteUnreachable, "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return domain.E(domain.KindRemoteUnreachable, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Identity", identity)
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	if _, err := c.do(req); err != nil {
		return err
	}
	return nil
}

// do executes the request and decodes the response envelope. A transport
// failure or malformed body is RemoteUnreachable; a well-formed envelope
// with a non-"success" status is RemoteRejected with the server message
// passed through.
func (c *Client) do(req *http.Request) (envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, domain.E(domain.KindRemoteUnreachable, "attendance service unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return envelope{}, domain.E(domain.KindRemoteUnreachable, "reading response", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Status == "" {
		return envelope{}, domain.E(domain.KindRemoteUnreachable,
			fmt.Sprintf("unexpected response (status %d)", resp.StatusCode), err)
	}
	if env.Status != "success" {
		msg := env.Message
		if msg == "" {
			msg = "request declined by attendance service"
		}
		c.log.Debug("authority rejected request",
			slog.String("path", req.URL.Path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("message", msg),
		)
		return envelope{}, domain.E(domain.KindRemoteRejected, msg, nil)
	}
	return env, nil
}

// envelope mirrors the authority's JSON response shape.
type envelope struct {
	Status  string     `json:"status"`
	Message string     `json:"message,omitempty"`
	Data    *rawStatus `json:"data,omitempty"`
}

type rawStatus struct {
	CheckInTime  *time.Time `json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime"`
}

type mutationBody struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}
