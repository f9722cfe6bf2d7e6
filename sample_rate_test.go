package dynamicsampling

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/component/componenttest"
	"go.uber.org/zap"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/internal/metadata"
)

func newTestResolver(t *testing.T, c Collaborators) *sampleRateResolver {
	t.Helper()
	tel, err := metadata.NewTelemetryBuilder(componenttest.NewNopTelemetrySettings())
	require.NoError(t, err)
	return newSampleRateResolver(c, NewDefaultConfig().Features, zap.NewNop(), tel)
}

func TestResolveOverlays(t *testing.T) {
	slidingWindowOn := &mockFeatures{enabled: map[string]bool{
		"organizations:ds-sliding-window": true,
	}}
	slidingWindowOrg := &mockFeatures{enabled: map[string]bool{
		"organizations:ds-sliding-window":     true,
		"organizations:ds-sliding-window-org": true,
	}}

	tests := []struct {
		name     string
		collab   Collaborators
		expected float64
	}{
		{
			name:     "quota only",
			collab:   Collaborators{Quota: &mockQuota{rate: 0.3}},
			expected: 0.3,
		},
		{
			name: "full rate skips overlays",
			collab: Collaborators{
				Quota:           &mockQuota{rate: 1.0},
				ProjectPriority: &mockProjectPriority{rate: 0.5},
			},
			expected: 1.0,
		},
		{
			name: "prioritise by project",
			collab: Collaborators{
				Quota:           &mockQuota{rate: 0.3},
				SlidingWindow:   &mockSlidingWindow{rate: 0.9},
				ProjectPriority: &mockProjectPriority{rate: 0.45},
			},
			expected: 0.45,
		},
		{
			name: "sliding window",
			collab: Collaborators{
				Quota:           &mockQuota{rate: 0.3},
				Features:        slidingWindowOn,
				SlidingWindow:   &mockSlidingWindow{rate: 0.6},
				ProjectPriority: &mockProjectPriority{rate: 0.45},
			},
			expected: 0.6,
		},
		{
			name: "organization sliding window uses prioritise by project",
			collab: Collaborators{
				Quota:           &mockQuota{rate: 0.3},
				Features:        slidingWindowOrg,
				SlidingWindow:   &mockSlidingWindow{rate: 0.6},
				ProjectPriority: &mockProjectPriority{rate: 0.45},
			},
			expected: 0.45,
		},
		{
			name: "sliding window not configured",
			collab: Collaborators{
				Quota:           &mockQuota{rate: 0.3},
				Features:        slidingWindowOn,
				ProjectPriority: &mockProjectPriority{rate: 0.45},
			},
			expected: 0.3,
		},
		{
			name: "sliding window error falls back",
			collab: Collaborators{
				Quota:         &mockQuota{rate: 0.3},
				Features:      slidingWindowOn,
				SlidingWindow: &mockSlidingWindow{err: errors.New("cache miss")},
			},
			expected: 0.3,
		},
		{
			name: "prioritise by project error falls back",
			collab: Collaborators{
				Quota:           &mockQuota{rate: 0.3},
				ProjectPriority: &mockProjectPriority{err: errors.New("cache miss")},
			},
			expected: 0.3,
		},
		{
			name: "implausible overlay falls back",
			collab: Collaborators{
				Quota:           &mockQuota{rate: 0.3},
				ProjectPriority: &mockProjectPriority{rate: 7},
			},
			expected: 0.3,
		},
		{
			name: "zero overlay falls back",
			collab: Collaborators{
				Quota:         &mockQuota{rate: 0.3},
				Features:      slidingWindowOn,
				SlidingWindow: &mockSlidingWindow{rate: 0},
			},
			expected: 0.3,
		},
		{
			name: "panicking sliding window falls back",
			collab: Collaborators{
				Quota:         &mockQuota{rate: 0.3},
				Features:      slidingWindowOn,
				SlidingWindow: &mockSlidingWindow{panics: true},
			},
			expected: 0.3,
		},
		{
			name: "panicking prioritise by project falls back",
			collab: Collaborators{
				Quota:           &mockQuota{rate: 0.3},
				ProjectPriority: &mockProjectPriority{panics: true},
			},
			expected: 0.3,
		},
		{
			name: "nan overlay falls back",
			collab: Collaborators{
				Quota:           &mockQuota{rate: 0.3},
				ProjectPriority: &mockProjectPriority{rate: math.NaN()},
			},
			expected: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := newTestResolver(t, tt.collab).resolve(context.Background(), testProject)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rate)
		})
	}
}

func TestResolvePassesQuotaRateToSlidingWindow(t *testing.T) {
	sw := &mockSlidingWindow{rate: 0.6}
	r := newTestResolver(t, Collaborators{
		Quota:         &mockQuota{rate: 0.3},
		Features:      &mockFeatures{enabled: map[string]bool{"organizations:ds-sliding-window": true}},
		SlidingWindow: sw,
	})
	_, err := r.resolve(context.Background(), testProject)
	require.NoError(t, err)
	assert.Equal(t, 0.3, sw.fallback)
}

func TestResolveInvalidQuota(t *testing.T) {
	tests := []struct {
		name     string
		quota    *mockQuota
		expected error
	}{
		{name: "unset", quota: &mockQuota{err: ErrSampleRateNotSet}, expected: ErrSampleRateNotSet},
		{name: "zero", quota: &mockQuota{rate: 0}, expected: errInvalidSampleRate},
		{name: "negative", quota: &mockQuota{rate: -0.1}, expected: errInvalidSampleRate},
		{name: "above one", quota: &mockQuota{rate: 1.01}, expected: errInvalidSampleRate},
		{name: "nan", quota: &mockQuota{rate: math.NaN()}, expected: errInvalidSampleRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestResolver(t, Collaborators{Quota: tt.quota}).resolve(context.Background(), testProject)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestResolveSharesQuotaCalls(t *testing.T) {
	quota := &mockQuota{rate: 0.5, block: make(chan struct{})}
	r := newTestResolver(t, Collaborators{Quota: quota})

	const callers = 10
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer done.Done()
			started.Done()
			rate, err := r.resolve(context.Background(), testProject)
			assert.NoError(t, err)
			assert.Equal(t, 0.5, rate)
		}()
	}
	started.Wait()
	// let the first call reach the quota and the others join it
	require.Eventually(t, func() bool { return quota.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(quota.block)
	done.Wait()

	assert.Less(t, quota.calls.Load(), int64(callers))
}

func TestResolveSharedQuotaCallSurvivesCancelledCaller(t *testing.T) {
	quota := &mockQuota{rate: 0.5, block: make(chan struct{})}
	r := newTestResolver(t, Collaborators{Quota: quota})

	ctx, cancel := context.WithCancel(context.Background())
	cancelledErr := make(chan error, 1)
	go func() {
		_, err := r.resolve(ctx, testProject)
		cancelledErr <- err
	}()
	require.Eventually(t, func() bool { return quota.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-cancelledErr, context.Canceled)

	other := testProject
	other.ID = 43
	var rate float64
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		rate, err = r.resolve(context.Background(), other)
	}()
	// let the second project join the call still in flight
	time.Sleep(50 * time.Millisecond)
	close(quota.block)
	<-done

	require.NoError(t, err)
	assert.Equal(t, 0.5, rate)
	assert.False(t, quota.cancelled.Load())
}

func TestResolveQuotaPanic(t *testing.T) {
	r := newTestResolver(t, Collaborators{Quota: panickingQuota{}})
	_, err := r.resolve(context.Background(), testProject)
	assert.ErrorContains(t, err, "quota service unavailable")
}

type panickingQuota struct{}

func (panickingQuota) GetBlendedSampleRate(context.Context, int64) (float64, error) {
	panic("quota service unavailable")
}
