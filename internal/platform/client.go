// Package platform is the adapter for the hosted backend-as-a-service:
// auth, relational rows, realtime change feed, and blob storage. Nothing
// above this package speaks HTTP or websockets directly.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 15 * time.Second

// Client issues authenticated requests against the platform's HTTP
// surfaces. The realtime websocket is a separate dial (see Realtime).
type Client struct {
	http    *fasthttp.Client
	baseURL string
	anonKey string
	logger  *zap.Logger

	mu          sync.RWMutex
	accessToken string
}

// New creates a platform client for the given base URL and anon key.
func New(baseURL, anonKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http: &fasthttp.Client{
			ReadTimeout:  defaultRequestTimeout,
			WriteTimeout: defaultRequestTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		logger:  logger,
	}
}

// SetAccessToken installs the bearer token used for subsequent requests.
// An empty token reverts to anonymous requests.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// AccessToken returns the current bearer token, if any.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// BaseURL returns the configured platform base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// do performs a JSON request. A nil out discards the response body;
// extra headers override the defaults.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any, headers map[string]string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set("apikey", c.anonKey)
	if tok := c.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline := time.Now().Add(defaultRequestTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return decodeAPIError(status, resp.Body())
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any, headers map[string]string) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
	}
	return c.do(ctx, method, path, body, out, headers)
}
