package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cuemby/cattle-tools/pkg/config"
	"github.com/cuemby/cattle-tools/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{
			name: "complete",
			cfg:  config.Config{URL: "http://cattle/v2-beta", AccessKey: "a", SecretKey: "s"},
		},
		{
			name:    "missing secret",
			cfg:     config.Config{URL: "http://cattle/v2-beta", AccessKey: "a"},
			wantErr: true,
		},
		{
			name:    "relative url",
			cfg:     config.Config{URL: "cattle/v2-beta", AccessKey: "a", SecretKey: "s"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://cattle/v2-beta/", c.BaseURL())
		})
	}
}

func TestDoSendsAuthAndDecodes(t *testing.T) {
	c, rec, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, serviceDoc("1s42", "active", "healthy"))
	})

	svc, err := c.GetService(context.Background(), testProject, "1s42")
	require.NoError(t, err)
	assert.Equal(t, "1s42", svc.ID)
	assert.Equal(t, "nginx:1.11", svc.LaunchConfig.Image())

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/v2-beta/projects/1a5/services/1s42", reqs[0].Path)
	assert.Equal(t, testAccessKey, reqs[0].User)
	assert.Equal(t, testSecretKey, reqs[0].Password)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
	assert.NotEmpty(t, reqs[0].Header.Get(RequestIDHeader))
	assert.Empty(t, reqs[0].Header.Get("Content-Type"))
}

func TestDoHTTPError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		notFound bool
	}{
		{"not found", http.StatusNotFound, `{"type":"error","code":"NotFound"}`, true},
		{"unprocessable", http.StatusUnprocessableEntity, `{"code":"InvalidState"}`, false},
		{"server error", http.StatusInternalServerError, `boom`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.GetService(context.Background(), testProject, "1s42")
			require.Error(t, err)

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.body, string(httpErr.Body))
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.notFound, IsNotFound(err))

			// never retried
			assert.Len(t, rec.all(), 1)
		})
	}
}

func TestDoUsesAbsoluteLinks(t *testing.T) {
	c, rec, server := newTestClient(t, echoHandler)

	var out types.Service
	err := c.Do(context.Background(), http.MethodPut,
		server.URL+"/v2-beta/projects/1a5/services/1s42?existing=1",
		actionParams{Action: "noop"}, map[string]string{"name": "x"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "x", out.Name)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v2-beta/projects/1a5/services/1s42", reqs[0].Path)
	assert.Equal(t, "1", reqs[0].Query.Get("existing"))
	assert.Equal(t, "noop", reqs[0].Query.Get("action"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
}

func TestDoEmptyResponse(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var out types.Service
	err := c.Do(context.Background(), http.MethodPost, "projects/1a5/services/1s42", nil, nil, &out)
	require.NoError(t, err)
	assert.Empty(t, out.ID)
}

func TestDoRejectsNonStructParams(t *testing.T) {
	c, rec, _ := newTestClient(t, echoHandler)

	err := c.Do(context.Background(), http.MethodGet, "projects", "name=web", nil, nil)
	assert.Error(t, err)
	assert.Empty(t, rec.all())
}
