package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/san-kum/atsform/internal/form"
)

const (
	DefaultSubmitPath  = "/draw_graphics"
	DefaultResultsPath = "/graphic"
	DefaultClearPath   = "/clear"
)

// Config describes the simulation service.
type Config struct {
	BaseURL    string
	SubmitPath string
	ClearPath  string
	// Timeout bounds each request; zero leaves requests unbounded unless the
	// caller's context has a deadline.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client talks to the simulation service over HTTP.
type Client struct {
	cfg  Config
	base *url.URL
	http *fasthttp.Client
	log  *zap.Logger
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("backend: base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend: base url %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.SubmitPath == "" {
		cfg.SubmitPath = DefaultSubmitPath
	}
	if cfg.ClearPath == "" {
		cfg.ClearPath = DefaultClearPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:  cfg,
		base: base,
		http: &fasthttp.Client{
			Name:            "atsform",
			MaxConnsPerHost: 16,
		},
		log: logger.Named("backend"),
	}, nil
}

// Resolve turns a path or page-relative reference into an absolute URL on the service.
func (c *Client) Resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

type submitResponse struct {
	Status *string `json:"status"`
	Error  string  `json:"error"`
}

// Submit posts the collected form and waits for the full response. Every
// failure mode maps to its own Kind with a status line describing it.
func (c *Client) Submit(ctx context.Context, req form.Request) Result {
	body, err := json.Marshal(req)
	if err != nil {
		return failure(KindMalformed, 0, fmt.Errorf("backend: encode request: %w", err))
	}

	target := c.Resolve(c.cfg.SubmitPath)
	code, respBody, err := c.do(ctx, fasthttp.MethodPost, target, body)
	if err != nil {
		c.log.Warn("submit failed", zap.String("url", target), zap.Error(err))
		return failure(KindNetwork, 0, err)
	}
	if code < 200 || code > 299 {
		c.log.Warn("submit rejected", zap.String("url", target), zap.Int("code", code))
		return failure(KindHTTPStatus, code, &StatusError{Code: code, URL: target})
	}

	var parsed submitResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return failure(KindMalformed, code, fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if parsed.Status == nil {
		return failure(KindMalformed, code, fmt.Errorf("%w: no status field", ErrMalformed))
	}

	c.log.Info("submit finished",
		zap.String("status", *parsed.Status),
		zap.String("error", parsed.Error),
		zap.Int("faks", len(req.Faks)),
		zap.Int("equations", len(req.Equations)))

	return Result{Kind: KindOK, Status: *parsed.Status, Detail: parsed.Error, Code: code}
}

// Clear asks the service to delete its rendered charts.
func (c *Client) Clear(ctx context.Context) error {
	target := c.Resolve(c.cfg.ClearPath)
	code, _, err := c.do(ctx, fasthttp.MethodGet, target, nil)
	if err != nil {
		return err
	}
	// the service answers /clear with a redirect to the parameter page
	if code >= 400 {
		return &StatusError{Code: code, URL: target}
	}
	return nil
}

// Fetch returns the body of a page on the service.
func (c *Client) Fetch(ctx context.Context, ref string) ([]byte, error) {
	target := c.Resolve(ref)
	code, body, err := c.do(ctx, fasthttp.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if code < 200 || code > 299 {
		return nil, &StatusError{Code: code, URL: target}
	}
	return body, nil
}

// Probe reports whether an image reference resolves to a non-empty 2xx response.
func (c *Client) Probe(ctx context.Context, ref string) error {
	body, err := c.Fetch(ctx, ref)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyBody, c.Resolve(ref))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(method)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	var err error
	if deadline, ok := c.deadline(ctx); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("backend: %s %s: %w", method, target, err)
	}

	return resp.StatusCode(), bytes.Clone(resp.Body()), nil
}

func (c *Client) deadline(ctx context.Context) (time.Time, bool) {
	deadline, ok := ctx.Deadline()
	if c.cfg.Timeout > 0 {
		own := time.Now().Add(c.cfg.Timeout)
		if !ok || own.Before(deadline) {
			return own, true
		}
	}
	return deadline, ok
}
