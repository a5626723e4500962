package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/nightowl-sec/vantage/pkg/models"
	"github.com/nightowl-sec/vantage/pkg/utils"
)

// TokenSource supplies the current bearer credential at request time.
// The session store implements it; the client never caches the value, so
// login/logout take effect on the very next request.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the sole channel between the console and the backend REST
// surface.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *logrus.Logger
	metrics    *utils.MetricsCollector
}

func NewClient(cfg models.APIConfig, tokens TokenSource, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.TLSSkipVerify,
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = cfg.RateLimit
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		tokens:     tokens,
		limiter:    limiter,
		logger:     logger,
	}
}

// SetMetrics attaches a collector; requests are counted and timed per
// endpoint when one is set.
func (c *Client) SetMetrics(m *utils.MetricsCollector) {
	c.metrics = m
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) Register(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (string, error) {
	req := models.AuthRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return "", &APIError{Kind: ErrValidation, Message: err.Error()}
	}
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp, false); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &APIError{Kind: ErrDecode, Message: "auth response missing access_token"}
	}
	return resp.AccessToken, nil
}

func (c *Client) ListTargets(ctx context.Context) ([]models.Target, error) {
	var targets []models.Target
	if err := c.do(ctx, http.MethodGet, "/targets/", nil, &targets, true); err != nil {
		return nil, err
	}
	return targets, nil
}

func (c *Client) CreateTarget(ctx context.Context, req models.TargetCreateRequest) (*models.Target, error) {
	if err := req.Validate(); err != nil {
		return nil, &APIError{Kind: ErrValidation, Message: err.Error()}
	}
	var target models.Target
	if err := c.do(ctx, http.MethodPost, "/targets/", req, &target, true); err != nil {
		return nil, err
	}
	return &target, nil
}

func (c *Client) DeleteTarget(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/targets/%d", id), nil, nil, true)
}

func (c *Client) ListScans(ctx context.Context) ([]models.Scan, error) {
	var scans []models.Scan
	if err := c.do(ctx, http.MethodGet, "/scans/", nil, &scans, true); err != nil {
		return nil, err
	}
	return scans, nil
}

func (c *Client) CreateScan(ctx context.Context, req models.ScanCreateRequest) (*models.Scan, error) {
	if err := req.Validate(); err != nil {
		return nil, &APIError{Kind: ErrValidation, Message: err.Error()}
	}
	var scan models.Scan
	if err := c.do(ctx, http.MethodPost, "/scans/", req, &scan, true); err != nil {
		return nil, err
	}
	return &scan, nil
}

func (c *Client) ListFindings(ctx context.Context) ([]models.Finding, error) {
	var findings []models.Finding
	if err := c.do(ctx, http.MethodGet, "/findings/", nil, &findings, true); err != nil {
		return nil, err
	}
	return findings, nil
}

// FetchReport retrieves a rendered report document as raw bytes; the
// console writes it out untouched.
func (c *Client) FetchReport(ctx context.Context, targetID int, format string) ([]byte, error) {
	switch format {
	case "html", "pdf":
	default:
		return nil, &APIError{Kind: ErrValidation, Message: fmt.Sprintf("unsupported report format: %s", format)}
	}

	path := fmt.Sprintf("/reports/%d?format=%s", targetID, format)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.roundTrip(req, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: ErrNetwork, Message: "reading report body", Err: err}
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	req, err := c.newRequest(ctx, method, path, body, authed)
	if err != nil {
		return err
	}

	resp, err := c.roundTrip(req, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			Kind:       ErrDecode,
			Message:    fmt.Sprintf("unexpected response body for %s %s", method, path),
			HTTPStatus: resp.StatusCode,
			Err:        err,
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}, authed bool) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Kind: ErrDecode, Message: "encoding request body", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &APIError{Kind: ErrNetwork, Message: "building request", Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if authed {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) roundTrip(req *http.Request, endpoint string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, &APIError{Kind: ErrNetwork, Message: "rate limiter wait", Err: err}
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		c.observe(endpoint, "error", elapsed)
		c.logger.WithFields(logrus.Fields{
			"method":   req.Method,
			"endpoint": endpoint,
		}).Debugf("Request failed: %v", err)
		return nil, &APIError{Kind: ErrNetwork, Message: "request failed", Err: err}
	}

	c.observe(endpoint, fmt.Sprintf("%d", resp.StatusCode), elapsed)
	c.logger.WithFields(logrus.Fields{
		"method":   req.Method,
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": elapsed.String(),
	}).Debug("API request completed")
	return resp, nil
}

func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := serverDetail(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	kind := ErrServer
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = ErrAuth
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		kind = ErrValidation
	}

	return &APIError{Kind: kind, Message: msg, HTTPStatus: resp.StatusCode}
}

// serverDetail extracts the backend's error message; the API wraps it in
// {"detail": "..."}.
func serverDetail(body []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Message
}

func (c *Client) observe(endpoint, code string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.CountRequest(endpoint, code)
	c.metrics.ObserveRequestDuration(endpoint, elapsed.Seconds())
}
