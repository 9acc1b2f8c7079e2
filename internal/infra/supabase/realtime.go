package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Realtime connection settings.
const (
	writeWait         = 10 * time.Second
	heartbeatPeriod   = 25 * time.Second
	pongWait          = 60 * time.Second
	maxReconnectDelay = 30 * time.Second
	realtimeVersion   = "1.0.0"
)

// errChannelClosed is returned when the server closes the joined channel.
var errChannelClosed = errors.New("realtime channel closed by server")

// Ensure Realtime implements domain.ChangeStream.
var _ domain.ChangeStream = (*Realtime)(nil)

// Realtime is the Supabase Realtime adapter. Each subscription owns one
// websocket joined to a postgres_changes channel and reconnects on failure,
// delivering a ResyncEvent after each reconnect.
// Fields are ordered to minimize memory padding.
type Realtime struct {
	client    *Client
	dialer    *websocket.Dialer
	heartbeat time.Duration
}

// NewRealtime creates the change stream adapter.
func NewRealtime(client *Client) *Realtime {
	return &Realtime{
		client:    client,
		dialer:    websocket.DefaultDialer,
		heartbeat: heartbeatPeriod,
	}
}

// phxMessage is a Phoenix channel frame.
type phxMessage struct {
	Payload json.RawMessage `json:"payload"`
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Ref     *string         `json:"ref"`
}

type joinPayload struct {
	Config      joinConfig `json:"config"`
	AccessToken string     `json:"access_token,omitempty"`
}

type joinConfig struct {
	PostgresChanges []changeFilter `json:"postgres_changes"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

// changesPayload is the payload of a postgres_changes push.
type changesPayload struct {
	Data struct {
		Record json.RawMessage `json:"record"`
		Type   string          `json:"type"`
		Table  string          `json:"table"`
	} `json:"data"`
}

type replyPayload struct {
	Response json.RawMessage `json:"response"`
	Status   string          `json:"status"`
}

func (r *Realtime) socketURL() (string, error) {
	u, err := url.Parse(r.client.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse project url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/v1/websocket"
	u.RawQuery = url.Values{"apikey": {r.client.anonKey}, "vsn": {realtimeVersion}}.Encode()
	return u.String(), nil
}

// Subscribe opens a websocket and joins realtime:public:<table>.
// The first connection is made before returning so setup errors surface here.
func (r *Realtime) Subscribe(ctx context.Context, table string, kind domain.ChangeEventType) (domain.Subscription, error) {
	endpoint, err := r.socketURL()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &rtSubscription{
		rt:       r,
		endpoint: endpoint,
		table:    table,
		kind:     kind,
		topic:    "realtime:public:" + table,
		events:   make(chan domain.Event, 64),
		cancel:   cancel,
		done:     make(chan struct{}),
		logger:   r.client.logger.With("table", table),
	}

	conn, err := s.connect(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	go s.run(ctx, conn)
	return s, nil
}

// rtSubscription is one joined channel.
// Fields are ordered to minimize memory padding.
type rtSubscription struct {
	rt       *Realtime
	events   chan domain.Event
	cancel   context.CancelFunc
	done     chan struct{}
	logger   *slog.Logger
	conn     *websocket.Conn
	endpoint string
	table    string
	topic    string
	kind     domain.ChangeEventType
	ref      atomic.Int64
	writeMu  sync.Mutex
	connMu   sync.Mutex
	once     sync.Once
}

func (s *rtSubscription) Events() <-chan domain.Event {
	return s.events
}

// Close leaves the channel, closes the socket and waits for the reader to exit.
func (s *rtSubscription) Close() error {
	s.once.Do(func() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn != nil {
			_ = s.send(conn, s.topic, "phx_leave", struct{}{})
		}
		s.cancel()
		s.closeConn()
		<-s.done
	})
	return nil
}

func (s *rtSubscription) closeConn() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *rtSubscription) nextRef() string {
	return strconv.FormatInt(s.ref.Add(1), 10)
}

func (s *rtSubscription) send(conn *websocket.Conn, topic, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ref := s.nextRef()
	msg := phxMessage{Topic: topic, Event: event, Payload: raw, Ref: &ref}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// connect dials and sends phx_join.
func (s *rtSubscription) connect(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	conn, resp, err := s.rt.dialer.DialContext(ctx, s.endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial realtime: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	join := joinPayload{
		Config: joinConfig{PostgresChanges: []changeFilter{{
			Event:  string(s.kind),
			Schema: "public",
			Table:  s.table,
		}}},
		AccessToken: s.rt.client.token(ctx),
	}
	if err := s.send(conn, s.topic, "phx_join", join); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("join %s: %w", s.topic, err)
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	// Close may have run while dialing; its closeConn would miss this socket.
	if err := ctx.Err(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.conn = conn
	s.logger.Debug("realtime connected")
	return conn, nil
}

// run reads from conn until it fails, then reconnects with backoff
// until the subscription is closed.
func (s *rtSubscription) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)
	defer close(s.events)

	delay := s.rt.client.backoff
	for {
		err := s.readLoop(ctx, conn)
		s.closeConn()
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("realtime disconnected", "error", err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, maxReconnectDelay)

			conn, err = s.connect(ctx)
			if err == nil {
				delay = s.rt.client.backoff
				break
			}
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("realtime reconnect failed", "error", err)
		}

		select {
		case s.events <- domain.ResyncEvent{Table: s.table}:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

func (s *rtSubscription) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go s.heartbeatLoop(conn, stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	for {
		var msg phxMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		ev, err := s.handle(msg)
		if errors.Is(err, errChannelClosed) {
			return err
		}
		if err != nil {
			s.logger.Warn("realtime message dropped", "event", msg.Event, "error", err)
			continue
		}
		if ev == nil {
			continue
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *rtSubscription) heartbeatLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.rt.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.send(conn, "phoenix", "heartbeat", struct{}{}); err != nil {
				return
			}
		}
	}
}

// handle converts a frame into an event. It returns nil for frames
// that carry no row change.
func (s *rtSubscription) handle(msg phxMessage) (domain.Event, error) {
	switch msg.Event {
	case "phx_reply":
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return nil, err
		}
		if reply.Status != "ok" {
			return nil, fmt.Errorf("%s reply: %s %s", msg.Topic, reply.Status, string(reply.Response))
		}
		return nil, nil
	case "phx_error", "phx_close":
		if msg.Topic == s.topic {
			return nil, fmt.Errorf("%w: %s", errChannelClosed, msg.Event)
		}
		return nil, nil
	case "postgres_changes":
		var p changesPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, err
		}
		if p.Data.Type != string(s.kind) {
			return nil, nil
		}
		ev, err := domain.ParseInsertPayload(s.table, p.Data.Record)
		if err != nil {
			return nil, err
		}
		return ev, nil
	}
	return nil, nil
}
