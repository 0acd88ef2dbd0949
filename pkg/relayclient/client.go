// Package relayclient talks to a running ply relay: both WebSocket channels
// and the HTTP debug API.
package relayclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bleikamp/ply/errors"
)

// Envelope is one message on either channel.
type Envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Counts holds the number of live producers and consumers.
type Counts struct {
	Producers int `json:"producers"`
	Consumers int `json:"consumers"`
}

// State mirrors the relay's shared snapshot. Node and style records are
// left undecoded.
type State struct {
	InspectionRoot json.RawMessage            `json:"inspectionRoot"`
	Nodes          map[string]json.RawMessage `json:"nodes"`
	Styles         map[string]json.RawMessage `json:"styles"`
}

// StateResponse is the body of /api/state.
type StateResponse struct {
	State       State  `json:"state"`
	Connections Counts `json:"connections"`
}

// Client is a handle on one relay address.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// New creates a Client for addr, given as host:port or an http(s) URL.
func New(addr string) *Client {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	base = strings.TrimRight(base, "/")

	ws := "ws" + strings.TrimPrefix(base, "http")

	return &Client{
		baseURL: base,
		wsURL:   ws,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
	}
}

// Health checks that the relay is serving.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// IsRunning reports whether the relay answers its health check.
func (c *Client) IsRunning(ctx context.Context) bool {
	return c.Health(ctx) == nil
}

// State fetches the shared snapshot and connection counts.
func (c *Client) State(ctx context.Context) (*StateResponse, error) {
	resp, err := c.get(ctx, "/api/state")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var state StateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &state, nil
}

// Config fetches the relay's running configuration.
func (c *Client) Config(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.get(ctx, "/api/config")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return raw, nil
}

// Consume joins the consumer channel.
func (c *Client) Consume(ctx context.Context) (*Stream, error) {
	return c.dial(ctx, "/consumer")
}

// Produce joins the producer channel.
func (c *Client) Produce(ctx context.Context) (*Stream, error) {
	return c.dial(ctx, "/producer")
}

// Request sends one consumer request. It returns a NO_AVAILABLE_TARGET error
// when the relay answers that no producer can take it.
func (c *Client) Request(ctx context.Context, kind string, data json.RawMessage) error {
	stream, err := c.Consume(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	// The first message on join is always presence.
	presence, err := stream.Next(ctx)
	if err != nil {
		return err
	}
	if err := stream.Send(Envelope{Kind: kind, Data: data}); err != nil {
		return err
	}
	if presence.Kind == "TargetConnected" {
		return nil
	}

	for {
		env, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		switch env.Kind {
		case "Error":
			var payload struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(env.Data, &payload)
			return errors.NoAvailableTarget(kind).WithDetail("reply", payload.Message)
		case "TargetConnected":
			return nil
		}
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach relay: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("relay returned status %d for %s", resp.StatusCode, path)
	}
	return resp, nil
}

func (c *Client) dial(ctx context.Context, path string) (*Stream, error) {
	u, err := url.Parse(c.wsURL + path)
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u, err)
	}
	return newStream(conn), nil
}
