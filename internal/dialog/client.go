// Package dialog implements the submit-then-poll conversation protocol of
// the external AI backend.
//
// A message is submitted to one endpoint; the answer is computed
// asynchronously and fetched by polling a second endpoint until it is ready.
// Both sequences retry with a fixed delay. A third endpoint ends the
// session on the backend.
package dialog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianshen/docgen/internal/logging"
)

const maxResponseSize = 16 << 20 // 16 MB

// Config holds the backend coordinates and retry policy.
type Config struct {
	BaseURL             string
	APIKey              string
	Domain              string
	OperatingSystemCode int
	ModelCode           int
	RetryInterval       time.Duration // fixed delay between attempts
	RetryCount          int           // submit and close attempts
	MaxAttempts         int           // default poll attempts per Ask
	HTTPClient          *http.Client
}

// DefaultConfig returns the retry policy the backend was tuned for.
func DefaultConfig() Config {
	return Config{
		OperatingSystemCode: 12,
		ModelCode:           1,
		RetryInterval:       3 * time.Second,
		RetryCount:          3,
		MaxAttempts:         50,
	}
}

// Client creates dialogs against one backend.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a Client. Zero-valued retry settings take the defaults
// from DefaultConfig.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.OperatingSystemCode == 0 {
		cfg.OperatingSystemCode = def.OperatingSystemCode
	}
	if cfg.ModelCode == 0 {
		cfg.ModelCode = def.ModelCode
	}
	if cfg.RetryInterval < 0 {
		cfg.RetryInterval = 0
	}
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = def.RetryCount
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{cfg: cfg, http: hc}
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// NewDialog starts a new conversation. Nothing is sent until the first Ask.
func (c *Client) NewDialog() *Dialog {
	return &Dialog{
		client: c,
		id:     c.cfg.Domain + "_" + uuid.NewString(),
	}
}

// post sends body as JSON and returns the status code and response body.
func (c *Client) post(ctx context.Context, endpoint string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// State is the position of a dialog in its message/response cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Dialog is one conversation with the backend. Calls are serialised; a
// dialog is meant to be owned by a single caller.
type Dialog struct {
	client *Client
	id     string

	mu    sync.Mutex
	state State
}

// ID returns the dialog identifier sent to the backend.
func (d *Dialog) ID() string { return d.id }

// State returns the current protocol state.
func (d *Dialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Ask submits message and polls for the answer up to maxAttempts times.
// A non-positive maxAttempts uses the client default.
func (d *Dialog) Ask(ctx context.Context, message string, maxAttempts int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateClosed {
		return "", &ProtocolError{Op: "submit", Dialog: d.id, Err: ErrDialogClosed}
	}
	if maxAttempts <= 0 {
		maxAttempts = d.client.cfg.MaxAttempts
	}

	if err := d.submit(ctx, message); err != nil {
		return "", err
	}
	logging.Debugf("dialog %s: message submitted (%d bytes)", d.id, len(message))

	d.state = StateAwaitingResponse
	defer func() { d.state = StateIdle }()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		answer, err := d.poll(ctx)
		if err != nil {
			return "", &ProtocolError{Op: "poll", Dialog: d.id, Attempts: attempt, Err: err}
		}
		if answer != "" {
			return answer, nil
		}
		logging.Debugf("dialog %s: waiting for answer, attempt %d/%d", d.id, attempt, maxAttempts)
		if attempt < maxAttempts {
			if err := sleep(ctx, d.client.cfg.RetryInterval); err != nil {
				return "", &ProtocolError{Op: "poll", Dialog: d.id, Attempts: attempt, Err: err}
			}
		}
	}
	return "", &ProtocolError{Op: "poll", Dialog: d.id, Attempts: maxAttempts, Err: ErrRetriesExhausted}
}

func (d *Dialog) submit(ctx context.Context, message string) error {
	cfg := d.client.cfg
	body := submitRequest{
		OperatingSystemCode: cfg.OperatingSystemCode,
		APIKey:              cfg.APIKey,
		UserDomainName:      cfg.Domain,
		DialogIdentifier:    d.id,
		AIModelCode:         cfg.ModelCode,
		Message:             message,
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.RetryCount; attempt++ {
		status, _, err := d.client.post(ctx, submitPath, body)
		switch {
		case err != nil:
			lastErr = err
		case status != http.StatusOK:
			lastErr = fmt.Errorf("HTTP %d", status)
		default:
			return nil
		}
		log.Printf("WARNING: dialog %s submit attempt %d/%d failed: %v", d.id, attempt, cfg.RetryCount, lastErr)

		if attempt < cfg.RetryCount {
			if err := sleep(ctx, cfg.RetryInterval); err != nil {
				return &ProtocolError{Op: "submit", Dialog: d.id, Attempts: attempt, Err: err}
			}
		}
	}
	return &ProtocolError{
		Op:       "submit",
		Dialog:   d.id,
		Attempts: cfg.RetryCount,
		Err:      fmt.Errorf("%w (last: %v)", ErrRetriesExhausted, lastErr),
	}
}

// poll performs one poll. It returns the answer when ready, "" when the
// answer is not ready yet, and an error only when the backend explicitly
// reported a failure.
func (d *Dialog) poll(ctx context.Context) (string, error) {
	cfg := d.client.cfg
	status, body, err := d.client.post(ctx, responsePath, sessionRequest{
		OperatingSystemCode: cfg.OperatingSystemCode,
		APIKey:              cfg.APIKey,
		DialogIdentifier:    d.id,
	})
	if err != nil {
		logging.Debugf("dialog %s: poll failed: %v", d.id, err)
		return "", nil
	}
	if status != http.StatusOK {
		logging.Debugf("dialog %s: poll returned HTTP %d", d.id, status)
		return "", nil
	}

	res, err := decodePoll(body)
	if err != nil {
		logging.Debugf("dialog %s: %v", d.id, err)
		return "", nil
	}
	if !res.success {
		return "", fmt.Errorf("%w: %s", ErrBackendFailure, res.description)
	}
	return res.message, nil
}

// Close ends the session on the backend. Closing twice is a no-op.
func (d *Dialog) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateClosed {
		return nil
	}

	cfg := d.client.cfg
	body := sessionRequest{
		OperatingSystemCode: cfg.OperatingSystemCode,
		APIKey:              cfg.APIKey,
		DialogIdentifier:    d.id,
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.RetryCount; attempt++ {
		lastErr = d.completeOnce(ctx, body)
		if lastErr == nil {
			d.state = StateClosed
			return nil
		}
		log.Printf("WARNING: dialog %s close attempt %d/%d failed: %v", d.id, attempt, cfg.RetryCount, lastErr)

		if attempt < cfg.RetryCount {
			if err := sleep(ctx, cfg.RetryInterval); err != nil {
				return &ProtocolError{Op: "close", Dialog: d.id, Attempts: attempt, Err: err}
			}
		}
	}
	return &ProtocolError{
		Op:       "close",
		Dialog:   d.id,
		Attempts: cfg.RetryCount,
		Err:      fmt.Errorf("%w (last: %v)", ErrRetriesExhausted, lastErr),
	}
}

func (d *Dialog) completeOnce(ctx context.Context, body sessionRequest) error {
	status, data, err := d.client.post(ctx, completePath, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("HTTP %d", status)
	}
	ok, desc, err := decodeClose(data)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBackendFailure, desc)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
