// Package provider implements the client for the remote SMM panel API.
// Every endpoint is a form-encoded POST carrying the account credentials;
// responses share a {status, msg, data} envelope where status=false is a
// provider-level rejection, not a transport failure.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	statusBatchSize  = 50
	statusBatchPause = time.Second
)

// Config carries credentials and transport for the panel account.
type Config struct {
	BaseURL string `yaml:"base_url" envconfig:"PROVIDER_BASE_URL"`
	APIID   string `yaml:"api_id" envconfig:"PROVIDER_API_ID"`
	APIKey  string `yaml:"api_key" envconfig:"PROVIDER_API_KEY"`

	// HTTPClient overrides the default client, e.g. to share the tuned
	// retrying transport used for Telegram calls.
	HTTPClient *http.Client `yaml:"-" envconfig:"-"`
}

// Client talks to the panel API. Safe for concurrent use.
type Client struct {
	baseURL string
	apiID   string
	apiKey  string
	http    *http.Client

	// pause between status batches, swapped out in tests
	batchPause time.Duration
}

// Error is a provider-level rejection: the HTTP exchange succeeded but the
// panel answered status=false.
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider: %s rejected: %s", e.Op, e.Message)
}

// Service is one catalog row as listed by the panel. Price is the raw panel
// price per 1000 units, before any margin.
type Service struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Price    flexFloat `json:"price"`
	Min      flexInt   `json:"min"`
	Max      flexInt   `json:"max"`
	Refill   bool      `json:"refill"`
}

// Profile is the panel account summary.
type Profile struct {
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Balance  flexFloat `json:"balance"`
}

// OrderResult is the panel acknowledgement for a placed order.
type OrderResult struct {
	ID    int64     `json:"id"`
	Price flexFloat `json:"price"`
}

// OrderStatus describes the progress of a single remote order.
type OrderStatus struct {
	Status     string    `json:"status"`
	Charge     flexFloat `json:"charge"`
	StartCount flexInt   `json:"start_count"`
	Remains    flexInt   `json:"remains"`
}

// RefillResult acknowledges a refill request.
type RefillResult struct {
	RefillID int64 `json:"id_refill"`
}

// New builds a Client. Missing credentials are rejected up front so a
// misconfigured deployment fails at startup, not on the first order.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("provider: base URL is required")
	}
	if strings.TrimSpace(cfg.APIID) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("provider: api_id and api_key are required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiID:      cfg.APIID,
		apiKey:     cfg.APIKey,
		http:       hc,
		batchPause: statusBatchPause,
	}, nil
}

// Services lists the favourited catalog rows of the panel account.
func (c *Client) Services(ctx context.Context) ([]Service, error) {
	var services []Service
	err := c.call(ctx, "services", url.Values{"service_fav": {"1"}}, &services)
	if err != nil {
		return nil, err
	}
	return services, nil
}

// Profile fetches the panel account summary, including the upstream balance.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.call(ctx, "profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PlaceOrder submits an order for the given service and target.
func (c *Client) PlaceOrder(ctx context.Context, serviceID int64, target string, quantity int) (*OrderResult, error) {
	form := url.Values{
		"service":  {strconv.FormatInt(serviceID, 10)},
		"target":   {target},
		"quantity": {strconv.Itoa(quantity)},
	}
	var res OrderResult
	if err := c.call(ctx, "order", form, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Status fetches the progress of one remote order.
func (c *Client) Status(ctx context.Context, orderID int64) (*OrderStatus, error) {
	form := url.Values{"id": {strconv.FormatInt(orderID, 10)}}
	var st OrderStatus
	if err := c.call(ctx, "status", form, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// StatusBatch fetches progress for many orders, chunking requests to the
// panel limit of 50 ids and pausing between chunks to stay under its rate
// limit. Ids the panel does not answer for are absent from the result.
func (c *Client) StatusBatch(ctx context.Context, orderIDs []int64) (map[int64]OrderStatus, error) {
	out := make(map[int64]OrderStatus, len(orderIDs))

	for start := 0; start < len(orderIDs); start += statusBatchSize {
		end := start + statusBatchSize
		if end > len(orderIDs) {
			end = len(orderIDs)
		}
		if start > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.batchPause):
			}
		}

		ids := make([]string, 0, end-start)
		for _, id := range orderIDs[start:end] {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		form := url.Values{"id": {strings.Join(ids, ",")}}

		var chunk map[string]batchStatus
		if err := c.call(ctx, "status", form, &chunk); err != nil {
			return nil, err
		}
		for rawID, st := range chunk {
			if !st.Status.ok() {
				continue
			}
			id, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil {
				continue
			}
			out[id] = st.OrderStatus
		}
	}
	return out, nil
}

// Refill requests a refill for a previously completed order.
func (c *Client) Refill(ctx context.Context, orderID int64) (*RefillResult, error) {
	form := url.Values{"id_order": {strconv.FormatInt(orderID, 10)}}
	var res RefillResult
	if err := c.call(ctx, "refill", form, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type envelope struct {
	Status bool            `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// batchStatus is one row of a multi-id status response; each row carries its
// own success flag.
type batchStatus struct {
	Status flexBool `json:"status"`
	OrderStatus
}

func (c *Client) call(ctx context.Context, op string, extra url.Values, out interface{}) error {
	form := url.Values{
		"api_id":  {c.apiID},
		"api_key": {c.apiKey},
	}
	for k, vs := range extra {
		form[k] = vs
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("provider: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn(ctx, "provider", "call_failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("provider: %s request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("provider: read %s response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider: %s returned HTTP %d", op, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("provider: decode %s response: %w", op, err)
	}

	logger.Debug(ctx, "provider", "call",
		slog.String("op", op),
		slog.Bool("ok", env.Status),
		slog.Int64("duration_ms", time.Since(started).Milliseconds()),
	)

	if !env.Status {
		msg := env.Msg
		if msg == "" {
			msg = "no reason given"
		}
		return &Error{Op: op, Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("provider: decode %s data: %w", op, err)
	}
	return nil
}
