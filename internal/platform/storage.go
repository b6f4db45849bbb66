package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// Upload stores a blob under bucket/key. Overwrites are allowed so a
// user retry with the same key succeeds.
func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, key))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(contentType)
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("x-upsert", "true")
	if tok := c.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.SetBody(data)

	deadline := time.Now().Add(defaultRequestTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return decodeAPIError(status, resp.Body())
	}
	return nil
}

// PublicURL returns the stable public URL for an uploaded object.
func (c *Client) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, key)
}
