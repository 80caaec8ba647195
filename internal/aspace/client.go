// Package aspace is a small ArchivesSpace API client covering the calls
// needed to attach digital objects to archival objects.
package aspace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

const sessionHeader = "X-ArchivesSpace-Session"

// Config holds connection settings for one ArchivesSpace backend
type Config struct {
	BaseURL      string
	Username     string
	Password     string
	Repository   int
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client talks to the ArchivesSpace backend API
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *retryablehttp.Client
	calls      int
}

// NewClient creates a client with bounded retries and a per-call timeout
func NewClient(cfg Config) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		c.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		c.RetryWaitMax = cfg.RetryWaitMax
	}
	if cfg.Timeout > 0 {
		c.HTTPClient.Timeout = cfg.Timeout
	}
	c.Logger = slog.Default()

	client := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: c,
	}

	// counts every attempt, retries included
	c.RequestLogHook = func(_ retryablehttp.Logger, _ *http.Request, _ int) {
		client.calls++
	}

	return client
}

// Calls returns the number of HTTP requests sent so far
func (c *Client) Calls() int {
	return c.calls
}

// Login opens an authenticated session. The caller must Close it.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	if c.cfg.Username == "" || c.cfg.Password == "" {
		return nil, errors.WithMessage(ErrUnauthorized, "username and password are required")
	}

	// password goes in the form body; retryablehttp logs request URLs
	form := url.Values{"password": {c.cfg.Password}}
	path := "/users/" + url.PathEscape(c.cfg.Username) + "/login"

	var resp loginResponse
	if err := c.do(ctx, "", http.MethodPost, path, nil, []byte(form.Encode()), "application/x-www-form-urlencoded", &resp); err != nil {
		return nil, errors.Wrap(err, "login")
	}

	if resp.Session == "" {
		return nil, errors.WithMessage(ErrUnauthorized, "login returned no session token")
	}

	slog.Info("Opened ArchivesSpace session", "url", c.baseURL, "user", c.cfg.Username)

	return &Session{client: c, token: resp.Session}, nil
}

func (c *Client) repoPath(format string, args ...any) string {
	return fmt.Sprintf("/repositories/%d", c.cfg.Repository) + fmt.Sprintf(format, args...)
}

func (c *Client) doJSON(ctx context.Context, token, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "encode %s %s", method, path)
		}
	}
	return c.do(ctx, token, method, path, query, body, "application/json", out)
}

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body []byte, contentType string, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rawBody any
	if body != nil {
		rawBody = body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, rawBody)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set(sessionHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrapf(ctxErr, "%s %s", method, path)
		}
		return errors.WithMessagef(ErrTransient, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.WithMessagef(ErrUnauthorized, "%s %s returned status %d", method, path, resp.StatusCode)
	case resp.StatusCode >= 500:
		// 501 and friends fall through the retry policy without being retried
		return errors.WithMessagef(ErrTransient, "%s %s returned status %d", method, path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}

	return nil
}
