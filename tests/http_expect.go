package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gavv/httpexpect/v2"
)

// HttpExpect wraps an httptest server with a fluent request builder.
type HttpExpect struct {
	t        *testing.T
	http     *httpexpect.Expect
	Teardown func()
}

type HttpRequest struct {
	t        *testing.T
	method   string
	path     string
	body     any
	internal *httpexpect.Expect
	params   any
	headers  map[string]string
	cookies  map[string]string
}

type HttpTestResult struct {
	t      *testing.T
	result *httpexpect.Response
}

func HttpTest(t *testing.T, handler http.Handler, teardown func()) HttpExpect {
	server := httptest.NewServer(handler)
	return HttpExpect{
		t: t,
		http: httpexpect.WithConfig(httpexpect.Config{
			BaseURL:  server.URL,
			Reporter: httpexpect.NewAssertReporter(t),
			Client: &http.Client{
				// redirects are asserted, not followed
				CheckRedirect: func(req *http.Request, via []*http.Request) error {
					return http.ErrUseLastResponse
				},
			},
		}),
		Teardown: func() {
			server.Close()
			if teardown != nil {
				teardown()
			}
		},
	}
}

func (f *HttpExpect) GET(path string) *HttpRequest {
	return f.request(http.MethodGet, path)
}

func (f *HttpExpect) POST(path string, body ...any) *HttpRequest {
	return f.request(http.MethodPost, path, body...)
}

func (f *HttpExpect) PATCH(path string, body ...any) *HttpRequest {
	return f.request(http.MethodPatch, path, body...)
}

func (f *HttpExpect) request(method string, path string, body ...any) *HttpRequest {
	r := &HttpRequest{
		t:        f.t,
		internal: f.http,
		method:   method,
		path:     path,
		headers:  map[string]string{},
		cookies:  map[string]string{},
	}
	if len(body) > 0 {
		r.body = body[0]
	}
	return r
}

func (r *HttpRequest) Params(params any) *HttpRequest {
	r.params = params
	return r
}

func (r *HttpRequest) Header(name string, value string) *HttpRequest {
	r.headers[name] = value
	return r
}

func (r *HttpRequest) Cookie(name string, value string) *HttpRequest {
	r.cookies[name] = value
	return r
}

func (r *HttpRequest) RawBody(body string) *HttpRequest {
	r.body = rawBody(body)
	return r
}

type rawBody string

func (r *HttpRequest) Expect() *HttpTestResult {
	req := r.internal.Request(r.method, r.path)
	if raw, ok := r.body.(rawBody); ok {
		if _, set := r.headers["Content-Type"]; !set {
			r.headers["Content-Type"] = "application/json"
		}
		req = req.WithText(string(raw))
	} else if r.body != nil {
		req = req.WithJSON(r.body)
	}
	if r.params != nil {
		req = req.WithQueryObject(r.params)
	}
	for k, v := range r.headers {
		req = req.WithHeader(k, v)
	}
	for k, v := range r.cookies {
		req = req.WithCookie(k, v)
	}
	return &HttpTestResult{t: r.t, result: req.Expect()}
}

func (r *HttpTestResult) IsOK() *HttpTestResult {
	return r.Status(http.StatusOK)
}

func (r *HttpTestResult) IsCreated() *HttpTestResult {
	return r.Status(http.StatusCreated)
}

func (r *HttpTestResult) IsBadRequest() *HttpTestResult {
	return r.Status(http.StatusBadRequest)
}

func (r *HttpTestResult) IsUnauthorized() *HttpTestResult {
	return r.Status(http.StatusUnauthorized)
}

func (r *HttpTestResult) IsForbidden() *HttpTestResult {
	return r.Status(http.StatusForbidden)
}

func (r *HttpTestResult) IsRedirect() *HttpTestResult {
	return r.Status(http.StatusFound)
}

func (r *HttpTestResult) Status(status int) *HttpTestResult {
	r.result.Status(status)
	return r
}

func (r *HttpTestResult) HeaderValue(name string) string {
	return r.result.Header(name).Raw()
}

func (r *HttpTestResult) CookieValue(name string) string {
	return r.result.Cookie(name).Value().Raw()
}

func (r *HttpTestResult) HasCookie(name string) bool {
	for _, cookie := range r.result.Cookies().Iter() {
		if cookie.String().Raw() == name {
			return true
		}
	}
	return false
}

func (r *HttpTestResult) JSON() *httpexpect.Value {
	return r.result.JSON()
}

func (r *HttpTestResult) Object() *httpexpect.Object {
	return r.result.JSON().Object()
}
