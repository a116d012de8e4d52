package httpclienttest

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"resizer/internal/pkg/httpclient"
)

// FakeDoer implements httpclient.Doer so callers can run tests without
// making outbound HTTP requests.
type FakeDoer struct {
	t         testing.TB
	responses []*http.Response
	errs      []error
	requests  []*http.Request
}

// NewFakeDoer returns a FakeDoer seeded with the responses that should be
// returned for each Do call.
func NewFakeDoer(t testing.TB, responses ...*http.Response) *FakeDoer {
	return &FakeDoer{
		t:         t,
		responses: append([]*http.Response(nil), responses...),
		errs:      make([]error, len(responses)),
	}
}

// QueueError appends a Do call that fails with err instead of returning
// a response.
func (f *FakeDoer) QueueError(err error) {
	f.responses = append(f.responses, nil)
	f.errs = append(f.errs, err)
}

// Do records the request and returns the next queued response or error.
func (f *FakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		f.t.Fatalf("fake http client has no responses left for request %s %s", req.Method, req.URL.String())
	}
	resp, err := f.responses[0], f.errs[0]
	f.responses = f.responses[1:]
	f.errs = f.errs[1:]
	return resp, err
}

// Requests returns the HTTP requests captured so far.
func (f *FakeDoer) Requests() []*http.Request {
	return append([]*http.Request(nil), f.requests...)
}

// NewStringResponse builds a minimal http.Response with the provided status
// code and body string.
func NewStringResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

var _ httpclient.Doer = (*FakeDoer)(nil)
