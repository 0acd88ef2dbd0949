package relayclient

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Stream is an open channel connection.
type Stream struct {
	conn   *websocket.Conn
	events chan Envelope
	closed chan struct{}
	once   sync.Once

	writeMu sync.Mutex

	mu  sync.Mutex
	err error
}

func newStream(conn *websocket.Conn) *Stream {
	s := &Stream{
		conn:   conn,
		events: make(chan Envelope, 64),
		closed: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Stream) readLoop() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = io.EOF
			}
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		select {
		case s.events <- env:
		case <-s.closed:
			return
		}
	}
}

// Events delivers incoming envelopes until the connection ends.
func (s *Stream) Events() <-chan Envelope {
	return s.events
}

// Next waits for the next envelope.
func (s *Stream) Next(ctx context.Context) (Envelope, error) {
	select {
	case env, ok := <-s.events:
		if !ok {
			return Envelope{}, s.Err()
		}
		return env, nil
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

// Err returns why the connection ended, or nil while it is open.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Send writes one envelope.
func (s *Stream) Send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and closes the connection.
func (s *Stream) Close() error {
	s.once.Do(func() { close(s.closed) })

	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return s.conn.Close()
}
