// Package storeclient talks to the trial store over HTTP.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/san-kum/pendulab/internal/trials"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	PathAdd     = "/add_data"
	PathAverage = "/get_average"
	PathClear   = "/clear_data"

	maxResponseBytes = 1 << 20
)

// TrialPayload is the body of POST /add_data. TotalTime and Period are
// fixed two-decimal strings; n, t and T repeat the values as numbers for
// stores that read the short keys.
type TrialPayload struct {
	Number       int     `json:"number"`
	Oscillations float64 `json:"oscillations"`
	TotalTime    string  `json:"totalTime"`
	Period       string  `json:"period"`
	N            float64 `json:"n"`
	Seconds      float64 `json:"t"`
	PeriodValue  float64 `json:"T"`
}

// NewTrialPayload rounds t the way it is displayed.
func NewTrialPayload(t trials.Trial) TrialPayload {
	total := decimal.NewFromFloat(t.TotalTime).Round(2)
	period := decimal.NewFromFloat(t.Period).Round(2)
	return TrialPayload{
		Number:       t.Number,
		Oscillations: t.Oscillations,
		TotalTime:    total.StringFixed(2),
		Period:       period.StringFixed(2),
		N:            t.Oscillations,
		Seconds:      total.InexactFloat64(),
		PeriodValue:  period.InexactFloat64(),
	}
}

// SummaryPayload is the body of GET /get_average and of the status replies.
type SummaryPayload struct {
	Status  string  `json:"status,omitempty"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
	Message string  `json:"message,omitempty"`
}

type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request, on top of the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("storeclient: parse %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("storeclient: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) URL() string { return c.base.String() }

func (c *Client) Add(ctx context.Context, t trials.Trial) error {
	var out SummaryPayload
	if err := c.do(ctx, "add", http.MethodPost, PathAdd, NewTrialPayload(t), &out); err != nil {
		return err
	}
	return checkStatus("add", out)
}

// Average returns whatever summary the store reported. A summary without
// a success status comes back together with an error.
func (c *Client) Average(ctx context.Context) (trials.Summary, error) {
	var out SummaryPayload
	if err := c.do(ctx, "average", http.MethodGet, PathAverage, nil, &out); err != nil {
		return trials.Summary{}, err
	}
	s := trials.Summary{Status: out.Status, Average: out.Average, Count: out.Count}
	return s, checkStatus("average", out)
}

func (c *Client) Clear(ctx context.Context) error {
	var out SummaryPayload
	if err := c.do(ctx, "clear", http.MethodPost, PathClear, nil, &out); err != nil {
		return err
	}
	return checkStatus("clear", out)
}

func checkStatus(op string, out SummaryPayload) error {
	if out.Status == trials.StatusSuccess {
		return nil
	}
	status := out.Status
	if status == "" {
		status = missingStatus
	}
	return &StoreError{Op: op, Message: status}
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &StoreError{Op: op, Wrapped: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return &StoreError{Op: op, Wrapped: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &StoreError{Op: op, Wrapped: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &StoreError{Op: op, Status: resp.StatusCode, Wrapped: err}
	}
	c.logger.Debug("store call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var reply SummaryPayload
		_ = json.Unmarshal(data, &reply)
		return &StoreError{Op: op, Status: resp.StatusCode, Message: reply.Message}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &StoreError{Op: op, Status: resp.StatusCode, Wrapped: err}
	}
	return nil
}

var _ trials.Store = (*Client)(nil)
