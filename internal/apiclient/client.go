// Package apiclient talks to the PhD application backend. Every call goes to
// one base URL; there is no retry, no backoff and no auth header.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/juju/errors"
)

// DefaultBaseURL is where the backend listens when nothing else is configured.
const DefaultBaseURL = "http://localhost:8000"

// ErrFetchFailed is the only failure class: transport errors, non-2xx
// responses and undecodable bodies all wrap it.
const ErrFetchFailed = errors.ConstError("fetch failed")

// maxErrorBody caps how much of a failed response ends up in the error text.
const maxErrorBody = 4 << 10

// Observer is told about every finished request. status is 0 when the
// request never got a response.
type Observer func(method, path string, status int, elapsed time.Duration, err error)

type Client struct {
	httpClient *http.Client
	baseURL    string
	observer   Observer
}

// Option tweaks a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver installs a per-request hook, used for metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New builds a client for baseURL. The http.Client has no timeout: callers
// bound requests through their context.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Get issues GET path?params and decodes the JSON body into out. params may
// be nil, url.Values, or a struct with `url` tags.
func (c *Client) Get(ctx context.Context, path string, params any, out any) error {
	return c.Do(ctx, http.MethodGet, path, params, nil, out)
}

// Post issues POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, params any, body any, out any) error {
	return c.Do(ctx, http.MethodPost, path, params, body, out)
}

// Put issues PUT with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues DELETE; the backend answers with a short JSON message.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do runs one request. Any failure is returned wrapped around ErrFetchFailed.
func (c *Client) Do(ctx context.Context, method, path string, params any, body any, out any) error {
	target, err := c.URL(path, params)
	if err != nil {
		return errors.Annotatef(fetchFailed(err), "%s %s", method, path)
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Annotatef(fetchFailed(err), "encode %s %s body", method, path)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return errors.Annotatef(fetchFailed(err), "build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	status, err := c.roundTrip(req, out)
	if c.observer != nil {
		c.observer(method, path, status, time.Since(start), err)
	}
	if err != nil {
		return errors.Annotatef(err, "%s %s", method, path)
	}
	return nil
}

func (c *Client) roundTrip(req *http.Request, out any) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fetchFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(b))
		return resp.StatusCode, errors.Annotatef(ErrFetchFailed, "HTTP %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errors.Annotate(fetchFailed(err), "decode response")
	}
	return resp.StatusCode, nil
}

// URL joins the base URL, path and encoded params.
func (c *Client) URL(path string, params any) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := c.baseURL + path
	q, err := encodeParams(params)
	if err != nil {
		return "", err
	}
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	return target, nil
}

func encodeParams(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		return p, nil
	default:
		v, err := query.Values(params)
		if err != nil {
			return nil, errors.Annotate(err, "failed to generate URL query")
		}
		return v, nil
	}
}

// fetchFailed keeps err's message but makes errors.Is(err, ErrFetchFailed) hold.
func fetchFailed(err error) error {
	return errors.Annotate(ErrFetchFailed, err.Error())
}
