// Package remote implements an account backend that talks to an
// accountdesk server over HTTP. Calls go through a circuit breaker so a
// failing host is not hammered by commit fan-out.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/accountdesk/internal/server"
	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

var _ types.Backend = (*Client)(nil)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("remote backend unavailable")

const defaultTimeout = 15 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithBreakerSettings overrides the circuit breaker thresholds.
func WithBreakerSettings(maxRequests uint32, interval, timeout time.Duration, minRequests uint32, failureRatio float64) Option {
	return func(c *Client) {
		c.breaker = breakerSettings{maxRequests, interval, timeout, minRequests, failureRatio}
	}
}

type breakerSettings struct {
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	minRequests  uint32
	failureRatio float64
}

var defaultBreaker = breakerSettings{
	maxRequests:  5,
	interval:     30 * time.Second,
	timeout:      60 * time.Second,
	minRequests:  5,
	failureRatio: 0.8,
}

// Client is a types.Backend over the accountdesk HTTP API.
type Client struct {
	mu       sync.RWMutex
	attached bool
	base     *url.URL
	http     *http.Client
	logger   *zap.Logger
	breaker  breakerSettings
	cb       *gobreaker.CircuitBreaker
}

// NewClient creates a detached client. Call Attach with a remote Config.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
		breaker: defaultBreaker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach validates the config and points the client at RemoteURL.
// Returns ErrAlreadyAttached if already attached.
func (c *Client) Attach(config types.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendRemote {
		return fmt.Errorf("%w: %s", types.ErrBackendUnknown, config.Backend)
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(config.RemoteURL), "/"))
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrRemoteURLInvalid, err)
	}

	s := c.breaker
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "accountdesk-remote",
		MaxRequests: s.maxRequests,
		Interval:    s.interval,
		Timeout:     s.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.failureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Client errors mean the host is healthy.
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || (errors.As(err, &se) && se.status < http.StatusInternalServerError)
		},
	})
	c.base = base
	c.attached = true
	return nil
}

// Detach releases the client. Idempotent.
func (c *Client) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached = false
	c.http.CloseIdleConnections()
	return nil
}

// ListAccounts fetches every account from the host.
func (c *Client) ListAccounts(ctx context.Context) ([]types.Account, error) {
	var accounts []types.Account
	if err := c.do(ctx, http.MethodGet, "/api/accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccount fetches one account.
func (c *Client) GetAccount(ctx context.Context, id string) (types.Account, error) {
	if id == "" {
		return types.Account{}, types.ErrInvalidID
	}
	var account types.Account
	err := c.do(ctx, http.MethodGet, "/api/accounts/"+url.PathEscape(id), nil, &account)
	return account, err
}

// UpdateRecord sends the delta as a PATCH and returns the persisted record.
// Revenue is sent as decimal text so no precision is lost in transit.
func (c *Client) UpdateRecord(ctx context.Context, delta types.FieldDelta) (types.Account, error) {
	if delta.RecordID == "" {
		return types.Account{}, types.ErrInvalidID
	}
	if len(delta.Changes) == 0 {
		return types.Account{}, types.ErrEmptyDelta
	}
	body := make(map[string]any, len(delta.Changes))
	for field, value := range delta.Changes {
		if d, ok := value.(decimal.Decimal); ok {
			value = d.String()
		}
		body[string(field)] = value
	}

	var account types.Account
	err := c.do(ctx, http.MethodPatch, "/api/accounts/"+url.PathEscape(delta.RecordID), body, &account)
	return account, err
}

// statusError is a non-2xx reply from the host.
type statusError struct {
	status  int
	code    string
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("remote %d %s: %s", e.status, e.code, e.message)
}

// Unwrap maps the wire error code back to its sentinel.
func (e *statusError) Unwrap() error {
	return server.CodeError(e.code)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	c.mu.RLock()
	attached, base, cb := c.attached, c.base, c.cb
	c.mu.RUnlock()
	if !attached {
		return types.ErrDetached
	}

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	_, err := cb.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, base.String()+path, payload, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	var envelope server.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &statusError{status: resp.StatusCode, code: server.CodeInternal, message: "decode response: " + err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Success {
		se := &statusError{status: resp.StatusCode, code: server.CodeInternal}
		if envelope.Error != nil {
			se.code = envelope.Error.Code
			se.message = envelope.Error.Message
		}
		return se
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode %s: %w", target, err)
		}
	}
	return nil
}
