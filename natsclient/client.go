// Package natsclient provides a small managed NATS connection used to publish
// task events.
package natsclient

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/taskql/errors"
)

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusClosed
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned by Publish when there is no live connection.
var ErrNotConnected = stderrors.New("not connected to NATS")

// RedactURL hides the userinfo of every server in a NATS URL list such as
// "nats://user:pass@a:4222,nats://b:4222".
func RedactURL(raw string) string {
	servers := strings.Split(raw, ",")
	for i, server := range servers {
		scheme, rest, found := strings.Cut(strings.TrimSpace(server), "://")
		if !found {
			continue
		}
		if at := strings.LastIndex(rest, "@"); at >= 0 {
			servers[i] = scheme + "://[REDACTED]@" + rest[at+1:]
		}
	}
	return strings.Join(servers, ",")
}

// Client manages a single NATS connection.
type Client struct {
	url    string
	status atomic.Value // stores ConnectionStatus
	logger *slog.Logger

	conn *nats.Conn
	// connClosed is closed by the ClosedHandler of conn.
	connClosed chan struct{}

	maxReconnects int
	reconnectWait time.Duration
	pingInterval  time.Duration
	timeout       time.Duration
	drainTimeout  time.Duration
	clientName    string

	onHealthChange func(bool)

	mu     sync.RWMutex
	closed atomic.Bool
}

// NewClient creates a new NATS client. No connection is made until Connect.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "NewClient", "NATS url")
	}

	c := &Client{
		url:           url,
		logger:        slog.Default(),
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		pingInterval:  30 * time.Second,
		timeout:       5 * time.Second,
		drainTimeout:  10 * time.Second,
		clientName:    "taskql",
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "apply option")
		}
	}

	c.logger = c.logger.With("component", "natsclient", "url", RedactURL(url))
	c.status.Store(StatusDisconnected)

	return c, nil
}

// URL returns the NATS server URL
func (m *Client) URL() string {
	return m.url
}

// Status returns the current connection status
func (m *Client) Status() ConnectionStatus {
	val := m.status.Load()
	if val == nil {
		return StatusDisconnected
	}
	return val.(ConnectionStatus)
}

func (m *Client) setStatus(status ConnectionStatus) {
	previous := m.Status()
	m.status.Store(status)

	wasHealthy := previous == StatusConnected
	isHealthy := status == StatusConnected
	if wasHealthy != isHealthy && m.onHealthChange != nil {
		m.onHealthChange(isHealthy)
	}
}

// IsHealthy returns true if the connection is healthy
func (m *Client) IsHealthy() bool {
	return m.Status() == StatusConnected
}

func (m *Client) buildConnectionOptions(closed chan struct{}) []nats.Option {
	var once sync.Once
	return []nats.Option{
		nats.Name(m.clientName),
		nats.MaxReconnects(m.maxReconnects),
		nats.ReconnectWait(m.reconnectWait),
		nats.PingInterval(m.pingInterval),
		nats.Timeout(m.timeout),
		nats.DrainTimeout(m.drainTimeout),
		nats.DisconnectErrHandler(m.handleDisconnect),
		nats.ReconnectHandler(m.handleReconnect),
		nats.ClosedHandler(func(conn *nats.Conn) {
			m.handleClosed(conn)
			once.Do(func() { close(closed) })
		}),
		nats.ErrorHandler(m.handleError),
	}
}

// Connect establishes the connection to the NATS server.
func (m *Client) Connect(ctx context.Context) error {
	if m.closed.Load() {
		return errors.WrapFatal(errors.ErrShuttingDown, "Client", "Connect", "client closed")
	}
	if m.IsHealthy() {
		return nil
	}

	m.setStatus(StatusConnecting)
	m.logger.Info("Connecting to NATS")

	closed := make(chan struct{})
	opts := m.buildConnectionOptions(closed)

	connectDone := make(chan error, 1)
	go func() {
		conn, err := nats.Connect(m.url, opts...)
		if err != nil {
			connectDone <- err
			return
		}

		m.mu.Lock()
		m.conn = conn
		m.connClosed = closed
		m.mu.Unlock()

		connectDone <- nil
	}()

	select {
	case err := <-connectDone:
		if err != nil {
			m.setStatus(StatusDisconnected)
			return errors.WrapTransient(err, "Client", "Connect", "establish connection")
		}
	case <-ctx.Done():
		m.setStatus(StatusDisconnected)
		return errors.WrapTransient(ctx.Err(), "Client", "Connect", "connection cancelled")
	}

	m.setStatus(StatusConnected)
	m.logger.Info("Connected to NATS")
	return nil
}

// Publish publishes a message to a NATS subject
func (m *Client) Publish(_ context.Context, subject string, data []byte) error {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}

	if err := conn.Publish(subject, data); err != nil {
		return errors.WrapTransient(err, "Client", "Publish", "publish "+subject)
	}
	return nil
}

// Close drains the connection and waits until nats.go reports it closed or
// ctx ends, in which case the connection is closed without finishing the
// drain. Safe to call more than once.
func (m *Client) Close(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	m.mu.Lock()
	conn, closed := m.conn, m.connClosed
	m.conn = nil
	m.mu.Unlock()

	defer m.setStatus(StatusClosed)
	if conn == nil {
		return nil
	}

	// Drain only starts the drain; completion is signalled by ClosedHandler.
	if err := conn.Drain(); err != nil {
		if stderrors.Is(err, nats.ErrConnectionClosed) {
			return nil
		}
		conn.Close()
		return errors.WrapTransient(err, "Client", "Close", "drain connection")
	}

	select {
	case <-closed:
		m.logger.Info("NATS connection drained and closed")
		return nil
	case <-ctx.Done():
		conn.Close()
		return errors.WrapTransient(ctx.Err(), "Client", "Close", "wait for drain")
	}
}

func (m *Client) handleDisconnect(_ *nats.Conn, err error) {
	if m.closed.Load() {
		return
	}
	m.setStatus(StatusReconnecting)
	if err != nil {
		m.logger.Warn("Disconnected from NATS", "error", err)
	} else {
		m.logger.Warn("Disconnected from NATS")
	}
}

func (m *Client) handleReconnect(conn *nats.Conn) {
	m.setStatus(StatusConnected)
	m.logger.Info("Reconnected to NATS", "server", RedactURL(conn.ConnectedUrl()))
}

func (m *Client) handleClosed(_ *nats.Conn) {
	if !m.closed.Load() && m.Status() != StatusClosed {
		m.setStatus(StatusDisconnected)
	}
	m.logger.Debug("NATS connection closed by library")
}

func (m *Client) handleError(_ *nats.Conn, sub *nats.Subscription, err error) {
	if sub != nil {
		m.logger.Error("NATS async error", "subject", sub.Subject, "error", err)
		return
	}
	m.logger.Error("NATS async error", "error", err)
}
