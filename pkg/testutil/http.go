// Package testutil holds request builders and response assertions shared by
// the handler tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewRequest creates a request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewFormRequest creates a request with an urlencoded form body, the way the
// admin login form posts.
func NewFormRequest(t *testing.T, method, path string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// ReadBody reads the response body as bytes.
func ReadBody(t *testing.T, rr *httptest.ResponseRecorder) []byte {
	t.Helper()
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err, "failed to read response body")
	return body
}

// UnmarshalResponse unmarshals the response body into T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(ReadBody(t, rr), &result), "failed to unmarshal response")
	return &result
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertStatusOK asserts the response status is 200 OK.
func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertRedirect asserts a redirect status and its exact Location.
func AssertRedirect(t *testing.T, rr *httptest.ResponseRecorder, status int, location string) {
	t.Helper()
	AssertStatus(t, rr, status)
	assert.Equal(t, location, rr.Header().Get("Location"), "unexpected redirect target")
}

// AssertStatusAndError asserts the status code and the "error" field of a
// JSON error body.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	var body map[string]string
	require.NoError(t, json.Unmarshal(ReadBody(t, rr), &body), "failed to unmarshal error response")
	assert.Equal(t, expectedCode, body["error"], "unexpected error code")
}

// AssertJSONContains asserts a top-level key of the JSON body. Numbers decode
// as float64.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, expectedValue any) {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.Unmarshal(ReadBody(t, rr), &result), "failed to unmarshal response")
	assert.Equal(t, expectedValue, result[key], "unexpected value for key %q", key)
}
