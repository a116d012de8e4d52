// Package strategies implements the transform techniques the dispatcher
// chooses between. Each strategy is capability-gated, performs at most
// one outbound call, and leaves all fallback handling to the dispatcher.
package strategies

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"resizer/internal/core"
	"resizer/internal/pkg/httpclient"
)

// Strategy names. The registry and route policies refer to these.
const (
	NameDirectServing   = "direct-serving"
	NameNativeTransform = "native-transform"
	NameGatewayURL      = "gateway-url"
	NameDirectURLNative = "direct-url-native"
	NameRemoteFallback  = "remote-fallback"
	NameDegradedNative  = "degraded-native"
)

// Default numeric priorities, used when no configured order mentions a
// strategy. Lower runs first.
const (
	priorityNativeTransform = 10
	priorityGatewayURL      = 20
	priorityDirectURLNative = 30
	priorityRemoteFallback  = 40
	priorityDegradedNative  = 50
	priorityDirectServing   = 60
)

// relay converts a 2xx upstream response into a core.Response, copying
// the content type and the transform provenance marker when present.
// Non-2xx statuses come back as errors for the dispatcher to record.
func relay(resp *http.Response, source string) (*core.Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(resp.StatusCode, body)
	}

	out := core.NewResponse(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	if resized := resp.Header.Get(httpclient.ResizedHeader); resized != "" {
		out.Header.Set(httpclient.ResizedHeader, resized)
	}
	out.Header.Set(core.HeaderSource, source)
	return out, nil
}

// upstreamError extracts a message from a failed upstream body when it
// carries one.
func upstreamError(status int, body []byte) error {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = gjson.GetBytes(body, "message").String()
	}
	if msg == "" {
		return fmt.Errorf("upstream returned HTTP %d", status)
	}
	return fmt.Errorf("upstream returned HTTP %d: %s", status, msg)
}

// joinURL joins an origin and a path without doubling slashes.
func joinURL(origin string, parts ...string) string {
	out := strings.TrimRight(origin, "/")
	for _, p := range parts {
		out += "/" + strings.TrimLeft(p, "/")
	}
	return out
}

// inboundURL rebuilds the absolute inbound request URL.
func inboundURL(req *core.Request) string {
	u := *req.HTTP.URL
	if u.Host == "" {
		u.Host = req.HTTP.Host
	}
	if u.Scheme == "" {
		u.Scheme = "https"
		if req.HTTP.TLS == nil {
			u.Scheme = "http"
		}
	}
	return u.String()
}
