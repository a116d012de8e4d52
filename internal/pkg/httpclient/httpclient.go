// Package httpclient defines the outbound fetch surface used by the
// transform strategies. Strategies never touch *http.Client directly;
// they go through Fetcher so tests can inject fake implementations and
// run offline.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// TransformBagHeader carries the native transform option bag on an
// outbound request. The edge in front of the origin interprets it; this
// process only serializes it.
const TransformBagHeader = "X-Transform-Options"

// ResizedHeader is the provenance marker set by the native transform
// capability on responses (and on its reentrant sub-fetches).
const ResizedHeader = "Cf-Resized"

// Doer captures the subset of *http.Client the strategies rely on.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher performs one outbound fetch, optionally attaching a native
// transform option bag to the request.
type Fetcher interface {
	Fetch(ctx context.Context, method, url string, header http.Header, bag map[string]interface{}) (*http.Response, error)
}

// Client is the production Fetcher backed by a Doer.
type Client struct {
	doer Doer
}

// New creates a Client. A nil doer falls back to a default http.Client.
func New(doer Doer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{doer: doer}
}

// Fetch builds and executes one outbound request. The option bag, when
// non-empty, is serialized as JSON into TransformBagHeader. Cancellation
// of ctx cancels the in-flight call.
func (c *Client) Fetch(ctx context.Context, method, url string, header http.Header, bag map[string]interface{}) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	if len(bag) > 0 {
		encoded, err := sonic.Marshal(bag)
		if err != nil {
			return nil, fmt.Errorf("failed to encode transform options: %w", err)
		}
		req.Header.Set(TransformBagHeader, string(encoded))
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}
