package seh

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"
)

// Finger state request constants, matching the vendor daemon's wire contract.
const (
	// FingerState is the request identifier for finger press/release forwarding.
	FingerState int32 = 22

	// ParamPressed signals the finger is on the sensor.
	ParamPressed int32 = 2

	// ParamReleased signals the finger left the sensor.
	ParamReleased int32 = 1

	// AOSPFQName identifies the requesting HAL interface to the vendor daemon.
	AOSPFQName = "android.hardware.biometrics.fingerprint@2.1::IBiometricsFingerprint"
)

// Default timeouts for daemon communication.
const (
	// defaultConnectTimeout is the maximum time to wait for the initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultWriteTimeout is the per-request write deadline.
	defaultWriteTimeout = 5 * time.Second
)

// frameHeaderSize is the fixed-size portion of a request frame:
// uint16 payload length + int32 state + int32 param.
const frameHeaderSize = 10

// maxPayloadSize is the largest payload a frame can carry (uint16 length field).
const maxPayloadSize = 0xFFFF

// Config holds vendor daemon connection configuration.
type Config struct {
	// Connection is the daemon socket URL.
	// Supported formats:
	//   - "unix:///dev/socket/sehfpd" (Unix socket)
	//   - "tcp://localhost:9843" (TCP)
	Connection string

	// ConnectTimeout is the maximum time to wait for connection.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// WriteTimeout is the deadline applied to each request write.
	// Default: 5 seconds.
	WriteTimeout time.Duration
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Client is a one-way channel to the vendor biometrics daemon.
//
// Requests are notify-only: a single framed write with a short deadline,
// no response is read and none is expected. The connection is resolved
// once; a failed write marks the channel disconnected and subsequent
// requests return ErrNotConnected. There is no reconnection — the daemon
// contract is at-most-once, best-effort delivery.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	cfg  Config
	conn net.Conn

	mu        sync.Mutex
	connected bool

	logger   Logger
	loggerMu sync.RWMutex
}

// Connect establishes the connection to the vendor daemon.
//
// Parameters:
//   - ctx: Context for cancellation of the initial dial
//   - cfg: Connection configuration
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the URL is invalid or the dial fails
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	// Apply defaults
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	network, address, err := parseConnectionURL(cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	connectCtx := ctx
	if connectCtx == nil {
		connectCtx = context.Background()
	}
	connectCtx, cancel := context.WithTimeout(connectCtx, cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(connectCtx, network, address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial failed: %w", ErrConnectionFailed, err)
	}

	return &Client{
		cfg:       cfg,
		conn:      conn,
		connected: true,
		logger:    noopLogger{},
	}, nil
}

// parseConnectionURL parses a daemon connection URL into network and address.
func parseConnectionURL(connURL string) (network, address string, err error) {
	u, err := url.Parse(connURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "unix":
		return "unix", u.Path, nil
	case "tcp":
		if u.Host == "" {
			return "", "", fmt.Errorf("tcp URL requires host: %q", connURL)
		}
		return "tcp", u.Host, nil
	default:
		return "", "", fmt.Errorf("unsupported scheme %q (use unix:// or tcp://)", u.Scheme)
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Request forwards a signal to the vendor daemon.
//
// This is a one-way notify: the frame is written and no response is read.
// The returned error is informational only — callers forward signals
// fire-and-forget and at most log the failure.
//
// Parameters:
//   - state: Request identifier (e.g., FingerState)
//   - param: Request parameter (e.g., ParamPressed, ParamReleased)
//   - payload: Raw payload bytes (e.g., FingerStatePayload())
//
// Returns:
//   - error: ErrNotConnected, or a wrapped write error
func (c *Client) Request(state, param int32, payload []byte) error {
	frame, err := encodeFrame(state, param, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrNotConnected
	}

	//nolint:errcheck // Best-effort deadline; write error caught below
	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if _, err := c.conn.Write(frame); err != nil {
		// A failed write means the daemon went away; no retries.
		c.connected = false
		c.getLogger().Warn("seh daemon write failed, channel closed", "error", err)
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	c.getLogger().Debug("seh request sent", "state", state, "param", param)
	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close closes the daemon connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	return c.conn.Close()
}

// encodeFrame builds a request frame:
//
//	uint16 payload length | int32 state | int32 param | payload
//
// All integers are big endian.
func encodeFrame(state, param int32, payload []byte) ([]byte, error) {
	if len(payload) > maxPayloadSize {
		return nil, fmt.Errorf("%w: payload size %d exceeds maximum %d", ErrRequestFailed, len(payload), maxPayloadSize)
	}

	buf := bytes.NewBuffer(make([]byte, 0, frameHeaderSize+len(payload)))
	//nolint:errcheck // bytes.Buffer writes cannot fail
	binary.Write(buf, binary.BigEndian, uint16(len(payload)))
	binary.Write(buf, binary.BigEndian, state) //nolint:errcheck
	binary.Write(buf, binary.BigEndian, param) //nolint:errcheck
	buf.Write(payload)

	return buf.Bytes(), nil
}

// FingerStatePayload returns the NUL-terminated HAL interface name used as
// the payload of finger state requests.
func FingerStatePayload() []byte {
	return append([]byte(AOSPFQName), 0)
}
