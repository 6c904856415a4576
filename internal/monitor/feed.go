package monitor

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"github.com/recera/vecremote/internal/hub"
	"github.com/recera/vecremote/internal/robot"
)

const handshakeTimeout = 5 * time.Second

// Feed reads events from a host's websocket feed.
type Feed struct {
	conn *websocket.Conn
}

// EventsURL turns a host base URL into its websocket feed URL.
func EventsURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", base, err)
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/events"
	return u.String(), nil
}

// Dial connects to the feed at wsURL.
func Dial(ctx context.Context, wsURL string) (*Feed, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	return &Feed{conn: conn}, nil
}

// Next blocks for the next event.
func (f *Feed) Next() (hub.Event, error) {
	var ev hub.Event
	if err := f.conn.ReadJSON(&ev); err != nil {
		return hub.Event{}, err
	}
	return ev, nil
}

// Close sends a close frame and drops the connection.
func (f *Feed) Close() error {
	_ = f.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return f.conn.Close()
}

// BatteryClient polls the host's battery endpoint.
type BatteryClient struct {
	client *resty.Client
}

// NewBatteryClient creates a client for the host at base.
func NewBatteryClient(base string) *BatteryClient {
	return &BatteryClient{
		client: resty.New().
			SetBaseURL(base).
			SetTimeout(3 * time.Second).
			SetRetryCount(0),
	}
}

// Fetch reads the current battery state.
func (c *BatteryClient) Fetch(ctx context.Context) (robot.Battery, error) {
	var b robot.Battery
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&b).
		Get("/battery")
	if err != nil {
		return robot.Battery{}, fmt.Errorf("battery: %w", err)
	}
	if resp.IsError() {
		return robot.Battery{}, fmt.Errorf("battery: unexpected status %d", resp.StatusCode())
	}
	return b, nil
}
