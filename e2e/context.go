// Package e2e drives a running site over HTTP with godog scenarios.
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TestContext holds the client and the last response of one scenario.
// Redirects are never followed so scenarios can assert on them.
type TestContext struct {
	BaseURL string

	client   *http.Client
	cookies  map[string]*http.Cookie
	status   int
	header   http.Header
	body     []byte
	clientIP string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cookies: make(map[string]*http.Cookie),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.cookies = make(map[string]*http.Cookie)
	tc.status = 0
	tc.header = nil
	tc.body = nil
	tc.clientIP = ""
}

// SetClientIP makes later requests carry X-Forwarded-For, for sites that
// trust the proxy header.
func (tc *TestContext) SetClientIP(ip string) {
	tc.clientIP = ip
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, "", path, nil)
}

// GETHost sends the request with an explicit Host header.
func (tc *TestContext) GETHost(host, path string) error {
	return tc.do(http.MethodGet, host, path, nil)
}

func (tc *TestContext) POSTForm(path string, form url.Values) error {
	return tc.do(http.MethodPost, "", path, form)
}

func (tc *TestContext) do(method, host, path string, form url.Values) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if host != "" {
		req.Host = host
	}
	if tc.clientIP != "" {
		req.Header.Set("X-Forwarded-For", tc.clientIP)
	}
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.body, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	tc.status = resp.StatusCode
	tc.header = resp.Header
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(tc.cookies, c.Name)
			continue
		}
		tc.cookies[c.Name] = c
	}
	return nil
}

func (tc *TestContext) Status() int { return tc.status }

func (tc *TestContext) Header(name string) string { return tc.header.Get(name) }

func (tc *TestContext) HasCookie(name string) bool {
	_, ok := tc.cookies[name]
	return ok
}

// ForgetCookies drops the client's cookies while keeping the last response.
func (tc *TestContext) ForgetCookies() map[string]*http.Cookie {
	saved := tc.cookies
	tc.cookies = make(map[string]*http.Cookie)
	return saved
}

// RestoreCookies replays cookies saved by ForgetCookies.
func (tc *TestContext) RestoreCookies(saved map[string]*http.Cookie) {
	tc.cookies = saved
}

// JSONField reads a top-level field of the last JSON body.
func (tc *TestContext) JSONField(field string) (any, error) {
	var m map[string]any
	if err := json.Unmarshal(tc.body, &m); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := m[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response", field)
	}
	return v, nil
}
