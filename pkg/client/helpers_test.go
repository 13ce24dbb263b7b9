package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/cattle-tools/pkg/config"
	"github.com/stretchr/testify/require"
)

const (
	testAccessKey = "access"
	testSecretKey = "secret"
	testProject   = "1a5"
)

// recorded is one request seen by the fake Cattle server
type recorded struct {
	Method   string
	Path     string
	Query    url.Values
	Body     []byte
	User     string
	Password string
	Header   http.Header
}

// decodeBody unmarshals the recorded JSON body into a generic map
func (r recorded) decodeBody(t *testing.T) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &m))
	return m
}

type recorder struct {
	mu       sync.Mutex
	requests []recorded
}

func (rec *recorder) wrap(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		user, pass, _ := r.BasicAuth()

		rec.mu.Lock()
		rec.requests = append(rec.requests, recorded{
			Method:   r.Method,
			Path:     r.URL.Path,
			Query:    r.URL.Query(),
			Body:     body,
			User:     user,
			Password: pass,
			Header:   r.Header.Clone(),
		})
		rec.mu.Unlock()

		h(w, r)
	}
}

func (rec *recorder) all() []recorded {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]recorded, len(rec.requests))
	copy(out, rec.requests)
	return out
}

// newTestClient starts a fake Cattle server running h and returns a client
// pointed at its /v2-beta/ root with a short poll interval
func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *recorder, *httptest.Server) {
	t.Helper()

	rec := &recorder{}
	server := httptest.NewServer(rec.wrap(h))
	t.Cleanup(server.Close)

	c, err := New(config.Config{
		URL:       server.URL + "/v2-beta",
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
	}, append([]Option{WithPollInterval(10 * time.Millisecond)}, opts...)...)
	require.NoError(t, err)

	return c, rec, server
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// echoHandler answers every request with a 200 and the request body
func echoHandler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	if len(body) == 0 {
		body = []byte(`{}`)
	}
	_, _ = w.Write(body)
}

func serviceDoc(id, state, health string) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"accountId":   testProject,
		"name":        "web",
		"type":        "service",
		"state":       state,
		"healthState": health,
		"launchConfig": map[string]interface{}{
			"imageUuid": "docker:nginx:1.11",
		},
	}
}
