package client

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cuemby/cattle-tools/pkg/metrics"
	"github.com/cuemby/cattle-tools/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceHandler serves the given service states in order, repeating the
// last one once they run out
func sequenceHandler(states ...string) http.HandlerFunc {
	var calls int32
	return func(w http.ResponseWriter, r *http.Request) {
		i := int(atomic.AddInt32(&calls, 1)) - 1
		if i >= len(states) {
			i = len(states) - 1
		}
		writeJSON(w, http.StatusOK, serviceDoc("1s42", states[i], states[i]))
	}
}

func snapshot(state, health string) *types.Service {
	return &types.Service{
		ID:          "1s42",
		AccountID:   testProject,
		State:       state,
		HealthState: health,
	}
}

func TestAwaitActiveAlreadyActive(t *testing.T) {
	c, rec, _ := newTestClient(t, sequenceHandler("inactive"))

	in := snapshot(types.StateActive, "")
	out, err := c.AwaitActive(context.Background(), in, WithTimeout(time.Minute))
	require.NoError(t, err)

	assert.Same(t, in, out)
	assert.Empty(t, rec.all())
}

func TestAwaitPastDeadline(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		await   func(*Client, context.Context, *types.Service, ...WaitOption) (*types.Service, error)
	}{
		{"active zero timeout", 0, (*Client).AwaitActive},
		{"active negative timeout", -time.Second, (*Client).AwaitActive},
		{"healthy zero timeout", 0, (*Client).AwaitHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec, _ := newTestClient(t, sequenceHandler("active"))

			_, err := tt.await(c, context.Background(), snapshot("activating", "initializing"), WithTimeout(tt.timeout))
			assert.ErrorIs(t, err, ErrTimeout)
			assert.Empty(t, rec.all())
		})
	}
}

func TestAwaitActivePollsUntilActive(t *testing.T) {
	c, rec, _ := newTestClient(t, sequenceHandler("activating", "activating", "active"))

	out, err := c.AwaitActive(context.Background(), snapshot("activating", ""), WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, types.StateActive, out.State)

	reqs := rec.all()
	assert.Len(t, reqs, 3)
	for _, r := range reqs {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2-beta/projects/1a5/services/1s42", r.Path)
	}
}

func TestAwaitHealthyWithoutTimeout(t *testing.T) {
	c, rec, _ := newTestClient(t, sequenceHandler("initializing", "healthy"))

	out, err := c.AwaitHealthy(context.Background(), snapshot("active", "initializing"))
	require.NoError(t, err)
	assert.Equal(t, types.HealthStateHealthy, out.HealthState)
	assert.Len(t, rec.all(), 2)
}

func TestAwaitActiveTimesOut(t *testing.T) {
	c, rec, _ := newTestClient(t, sequenceHandler("activating"))

	_, err := c.AwaitActive(context.Background(), snapshot("activating", ""), WithTimeout(50*time.Millisecond))
	require.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), `"activating"`)
	assert.NotEmpty(t, rec.all())
}

func TestAwaitActiveContextCanceled(t *testing.T) {
	c, _, _ := newTestClient(t, sequenceHandler("activating"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.AwaitActive(ctx, snapshot("activating", ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrTimeout))
}

// waitSamples returns how many waits were observed with the given labels
func waitSamples(t *testing.T, field Field, result string) uint64 {
	t.Helper()
	m, ok := metrics.WaitDuration.WithLabelValues(string(field), result).(prometheus.Metric)
	require.True(t, ok)

	var out dto.Metric
	require.NoError(t, m.Write(&out))
	return out.GetHistogram().GetSampleCount()
}

func TestAwaitActiveFetchErrorPropagates(t *testing.T) {
	c, rec, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	before := waitSamples(t, FieldState, "error")

	_, err := c.AwaitActive(context.Background(), snapshot("removing", ""), WithTimeout(time.Second))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Len(t, rec.all(), 1)
	assert.Equal(t, before+1, waitSamples(t, FieldState, "error"))
}
