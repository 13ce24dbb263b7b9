package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/cuemby/cattle-tools/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lbRules are kept compact so submitted rules can be compared byte for byte
var lbRules = []string{
	`{"sourcePort":80,"serviceId":"1s1","protocol":"http","targetPort":8080,"priority":1}`,
	`{"sourcePort":80,"path":"/api","serviceId":"1s2","protocol":"http","targetPort":9000,"priority":2}`,
	`{"sourcePort":80,"path":"","serviceId":"1s3","protocol":"http","targetPort":8080,"priority":3}`,
	`{"sourcePort":443,"serviceId":"1s4","protocol":"https","targetPort":8080,"priority":4}`,
	`{"sourcePort":81,"path":null,"hostname":null,"serviceId":"","protocol":"http","priority":5}`,
}

var lbJSON = `{
	"id": "1s10",
	"accountId": "1a5",
	"name": "lb",
	"type": "loadBalancerService",
	"lbConfig": {
		"certificateIds": [],
		"portRules": [
			` + strings.Join(lbRules, ",\n\t\t\t") + `
		]
	},
	"links": {"self": "SELF"}
}`

func loadBalancer(t *testing.T, selfURL string) *types.Service {
	t.Helper()
	var lb types.Service
	require.NoError(t, json.Unmarshal([]byte(lbJSON), &lb))
	lb.Links[types.LinkSelf] = selfURL
	return &lb
}

func submittedRules(t *testing.T, r recorded) []json.RawMessage {
	t.Helper()
	var body struct {
		LBConfig struct {
			PortRules []json.RawMessage `json:"portRules"`
		} `json:"lbConfig"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &body))
	return body.LBConfig.PortRules
}

func TestChangeLBTarget(t *testing.T) {
	tests := []struct {
		name    string
		port    int64
		path    *string
		changed int
	}{
		{"rule without path", 80, nil, 0},
		{"rule with path", 80, types.StringPtr("/api"), 1},
		{"rule with empty path", 80, types.StringPtr(""), 2},
		{"other port", 443, nil, 3},
		{"rule with null path and empty target", 81, nil, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec, server := newTestClient(t, echoHandler)
			lb := loadBalancer(t, server.URL+"/v2-beta/projects/1a5/loadbalancerservices/1s10")

			_, err := c.ChangeLBTarget(context.Background(), lb, tt.port, tt.path, "1s99")
			require.NoError(t, err)

			reqs := rec.all()
			require.Len(t, reqs, 1)
			assert.Equal(t, http.MethodPut, reqs[0].Method)
			assert.Equal(t, "/v2-beta/projects/1a5/loadbalancerservices/1s10", reqs[0].Path)

			body := reqs[0].decodeBody(t)
			assert.Len(t, body, 1, "only lbConfig is submitted")
			assert.Contains(t, body["lbConfig"], "certificateIds")

			rules := submittedRules(t, reqs[0])
			require.Len(t, rules, len(lbRules))
			for i, raw := range rules {
				if i != tt.changed {
					assert.Equal(t, lbRules[i], string(raw), "rule %d must be resubmitted verbatim", i)
					continue
				}

				var before, after map[string]json.RawMessage
				require.NoError(t, json.Unmarshal([]byte(lbRules[i]), &before))
				require.NoError(t, json.Unmarshal(raw, &after))
				assert.Equal(t, `"1s99"`, string(after["serviceId"]))
				assert.Len(t, after, len(before))
				for k, v := range before {
					if k == "serviceId" {
						continue
					}
					assert.Equal(t, string(v), string(after[k]), "attribute %s", k)
				}
			}

			// caller's document is not mutated
			assert.Equal(t, "1s1", lb.LBConfig.PortRules[0].ServiceID)
			assert.Equal(t, "1s2", lb.LBConfig.PortRules[1].ServiceID)
			assert.Equal(t, "1s3", lb.LBConfig.PortRules[2].ServiceID)
			assert.Equal(t, "1s4", lb.LBConfig.PortRules[3].ServiceID)
			assert.Empty(t, lb.LBConfig.PortRules[4].ServiceID)
		})
	}
}

func TestChangeLBTargetNoMatch(t *testing.T) {
	tests := []struct {
		name string
		port int64
		path *string
	}{
		{"unknown port", 8080, nil},
		{"unknown path", 80, types.StringPtr("/web")},
		{"path on port without paths", 443, types.StringPtr("/api")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec, server := newTestClient(t, echoHandler)
			lb := loadBalancer(t, server.URL+"/v2-beta/projects/1a5/loadbalancerservices/1s10")

			_, err := c.ChangeLBTarget(context.Background(), lb, tt.port, tt.path, "1s99")
			require.Error(t, err)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.ErrorIs(t, err, ErrPortRuleNotFound)
			assert.Zero(t, StatusCode(err))
			assert.Empty(t, rec.all())
		})
	}
}

func TestGetLBTarget(t *testing.T) {
	c, rec, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, serviceDoc("1s2", "active", "healthy"))
	})
	lb := loadBalancer(t, server.URL+"/v2-beta/projects/1a5/loadbalancerservices/1s10")

	target, err := c.GetLBTarget(context.Background(), lb, 80, types.StringPtr("/api"))
	require.NoError(t, err)
	assert.Equal(t, "1s2", target.ID)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v2-beta/projects/1a5/services/1s2", reqs[0].Path)

	_, err = c.GetLBTarget(context.Background(), lb, 8080, nil)
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.Len(t, rec.all(), 1)
}
