package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/emersion/go-imap/client"
	"github.com/movecrm/mailengine/internal/config"
)

// ConnectionState is the lifecycle state of the single IMAP session.
// Transitions only move forward; Ended and Error require an explicit
// Reconnect to get back to Disconnected and then Ready.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateReady
	StateEnded
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// DialFunc opens and authenticates a new IMAP connection.
type DialFunc func() (*client.Client, error)

// NewDialer returns a DialFunc for the configured IMAP endpoint. The dial is
// bounded by the configured dial timeout and every subsequent command by the
// command timeout, so a hung server cannot block the session forever.
func NewDialer(cfg *config.Config) DialFunc {
	return func() (*client.Client, error) {
		dialer := &net.Dialer{Timeout: cfg.DialTimeout}

		var c *client.Client
		var err error
		if cfg.IMAPUseTLS {
			tlsConfig := &tls.Config{
				ServerName:         cfg.IMAPHost,
				InsecureSkipVerify: cfg.TLSSkipVerify,
			}
			c, err = client.DialWithDialerTLS(dialer, cfg.IMAPAddr(), tlsConfig)
		} else {
			// Non-TLS connection for testing
			c, err = client.DialWithDialer(dialer, cfg.IMAPAddr())
		}
		if err != nil {
			return nil, fmt.Errorf("failed to dial: %w", err)
		}

		c.Timeout = cfg.CommandTimeout

		if err := c.Login(cfg.IMAPUsername, cfg.IMAPPassword); err != nil {
			_ = c.Logout()
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}

		return c, nil
	}
}

// Session owns the one persistent IMAP connection and its state machine.
// The protocol is half-duplex request/response, so all mailbox operations
// go through Do, which serializes them on a single mutex.
type Session struct {
	dial DialFunc

	mu      sync.Mutex
	state   ConnectionState
	client  *client.Client
	pending chan struct{} // closed when the in-flight connect attempt settles
	lastErr error

	opMu sync.Mutex
}

// NewSession creates a session in the Disconnected state. No socket is opened
// until Connect or the first operation.
func NewSession(dial DialFunc) *Session {
	return &Session{dial: dial}
}

// State returns the current connection state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect brings the session to Ready. It is a no-op when already Ready.
// Concurrent calls while Connecting share the single pending attempt and
// never open a second socket. From Ended or Error the caller must use
// Reconnect first.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateConnecting:
		pending := s.pending
		s.mu.Unlock()
		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateReady {
			return nil
		}
		return &ConnectionError{State: s.state, Err: s.lastErr}
	case StateEnded, StateError:
		defer s.mu.Unlock()
		return &ConnectionError{State: s.state, Err: s.lastErr}
	}

	// Disconnected: this caller owns the single connect attempt.
	s.state = StateConnecting
	pending := make(chan struct{})
	s.pending = pending
	s.mu.Unlock()

	c, err := s.dial()

	s.mu.Lock()
	if err != nil {
		s.state = StateError
		s.lastErr = err
	} else {
		s.state = StateReady
		s.client = c
		s.lastErr = nil
		go s.watchLogout(c)
	}
	s.pending = nil
	close(pending)
	s.mu.Unlock()

	if err != nil {
		return &ConnectionError{State: StateError, Err: err}
	}
	return nil
}

// watchLogout watches for a server-initiated close (idle timeout, shutdown)
// and forces the state back to Disconnected regardless of caller intent.
func (s *Session) watchLogout(c *client.Client) {
	<-c.LoggedOut()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == c && s.state == StateReady {
		s.state = StateDisconnected
		s.client = nil
	}
}

// Disconnect logs out if Ready, otherwise it is a no-op. The session ends up
// in Ended and stays there until Reconnect.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return nil
	}
	c := s.client
	s.state = StateEnded
	s.client = nil
	s.mu.Unlock()

	return c.Logout()
}

// Reconnect resets a session stuck in Ended or Error back to Disconnected
// and connects again.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateEnded || s.state == StateError {
		s.state = StateDisconnected
		s.lastErr = nil
	}
	s.mu.Unlock()

	return s.Connect(ctx)
}

// EnsureReady is the guard every mailbox operation wraps itself in: it
// connects when Disconnected and fails fast with a ConnectionError when the
// session is Connecting, Ended or in Error.
func (s *Session) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateDisconnected:
		s.mu.Unlock()
		return s.Connect(ctx)
	default:
		defer s.mu.Unlock()
		return &ConnectionError{State: s.state, Err: s.lastErr}
	}
}

// Do runs fn against the session's client. Operations are serialized: a fetch
// against one mailbox can never overlap a select against another on the same
// connection.
func (s *Session) Do(ctx context.Context, fn func(c *client.Client) error) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.EnsureReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	c := s.client
	state := s.state
	s.mu.Unlock()

	if c == nil {
		// The server closed the connection between the guard and the call.
		return &ConnectionError{State: state}
	}

	return fn(c)
}
