package core

import (
	"net/http"

	"resizer/internal/storage"
)

// StatusTTL holds per-status-class cache lifetimes in seconds.
type StatusTTL struct {
	OK          int `mapstructure:"ok"`
	Redirect    int `mapstructure:"redirect"`
	ClientError int `mapstructure:"client_error"`
	ServerError int `mapstructure:"server_error"`
}

// CachePolicy is the cacheability contract applied to responses.
type CachePolicy struct {
	Cacheable bool      `mapstructure:"cacheable"`
	TTL       StatusTTL `mapstructure:"ttl"`
}

// TTLFor returns the lifetime in seconds for a response status.
func (p CachePolicy) TTLFor(status int) int {
	switch {
	case status >= 200 && status < 300:
		return p.TTL.OK
	case status >= 300 && status < 400:
		return p.TTL.Redirect
	case status >= 400 && status < 500:
		return p.TTL.ClientError
	default:
		return p.TTL.ServerError
	}
}

// Request is one inbound transform request. It is created per call and
// discarded once the response is produced.
type Request struct {
	// ID identifies the request in logs and response headers.
	ID string
	// Key is the object key to transform.
	Key string
	// Bucket names the object's bucket context, when known.
	Bucket string
	// Options is the requested transform parameter set.
	Options Options
	// CachePolicy controls derived response headers.
	CachePolicy CachePolicy
	// Object is the fetched source object. The dispatcher fills it in;
	// callers may pre-fetch and set it themselves.
	Object *storage.ObjectHandle
	// FallbackURL is the origin the gateway and fallback strategies
	// construct URLs against. Empty disables those strategies.
	FallbackURL string
	// HTTP is the inbound request, used for domain classification and
	// header propagation. Its URL must carry the host.
	HTTP *http.Request
	// IsReentrantSubrequest is true when this request is a sub-fetch
	// issued by the transform capability to obtain source bytes. Derived
	// once at the request boundary.
	IsReentrantSubrequest bool
}

// Host returns the inbound request host, preferring the URL host.
func (r *Request) Host() string {
	if r.HTTP == nil {
		return ""
	}
	if r.HTTP.URL != nil && r.HTTP.URL.Host != "" {
		return r.HTTP.URL.Host
	}
	return r.HTTP.Host
}

// Response is the produced transform response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse builds a response with the given content type.
func NewResponse(status int, contentType string, body []byte) *Response {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{Status: status, Header: h, Body: body}
}
