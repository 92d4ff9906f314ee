package exsim

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Session is the execution connection to the venue. It authenticates with
// a login frame, delivers decoded events to the Run handler one at a time,
// and carries outgoing command frames. On read failure it reconnects and
// logs in again after reconnectDelay.
type Session struct {
	url            string
	reconnectDelay time.Duration
	login          Login
	log            *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewSession(url string, reconnectDelay time.Duration, login Login, log *zap.Logger) *Session {
	return &Session{url: url, reconnectDelay: reconnectDelay, login: login, log: log}
}

func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return err
	}
	frame, err := EncodeCommand(s.login)
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "login encode")
		return err
	}
	if err := conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "login write")
		return err
	}
	s.conn = conn
	return nil
}

// Run reads frames until ctx is cancelled. The handler is invoked from a
// single goroutine, so one event is fully processed before the next is
// decoded.
func (s *Session) Run(ctx context.Context, handler func(Event)) error {
	for {
		if err := s.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logDisconnect(err)
		} else if err := s.readLoop(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logDisconnect(err)
		}
		s.resetConn()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay):
		}
	}
}

// Send writes one command frame. Sends are fire-and-forget from the
// strategy's point of view; outcomes arrive later as status or error events.
func (s *Session) Send(ctx context.Context, cmd Command) error {
	frame, err := EncodeCommand(cmd)
	if err != nil {
		return err
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("session not connected")
	}
	return conn.Write(ctx, websocket.MessageBinary, frame)
}

func (s *Session) readLoop(ctx context.Context, handler func(Event)) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("session not connected")
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		ev, err := DecodeEvent(data)
		if err != nil {
			if s.log != nil {
				s.log.Warn("dropping undecodable frame", zap.Error(err), zap.Int("bytes", len(data)))
			}
			continue
		}
		if handler != nil {
			handler(ev)
		}
	}
}

func (s *Session) logDisconnect(err error) {
	if s.log == nil {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		s.log.Info("execution connection closed", zap.Error(err))
		return
	}
	s.log.Warn("execution connection lost", zap.Error(err))
}

func (s *Session) resetConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close(websocket.StatusNormalClosure, "reset")
		s.conn = nil
	}
}
