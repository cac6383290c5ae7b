package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

// ParseUUID parses a UUID string and fails the test if invalid.
func ParseUUID(t *testing.T, uuidStr string) uuid.UUID {
	t.Helper()

	id, err := uuid.Parse(uuidStr)
	if err != nil {
		t.Fatalf("Invalid UUID string: %s, error: %v", uuidStr, err)
	}
	return id
}

// DoJSON sends a request with an optional JSON body and bearer token
// through handler and returns the recorded response.
func DoJSON(t *testing.T, handler http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// DecodeJSON unmarshals a response body into dst.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

// ErrorBody is the error envelope as seen by a client.
type ErrorBody struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

// FieldErrors decodes the detail of an invalid_blog_data response.
func (e ErrorBody) FieldErrors(t *testing.T) map[string][]string {
	t.Helper()

	fields := map[string][]string{}
	if err := json.Unmarshal(e.Detail, &fields); err != nil {
		t.Fatalf("detail is not a field map: %s", string(e.Detail))
	}
	return fields
}
