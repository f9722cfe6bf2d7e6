package dynamicsampling

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

type mockQuota struct {
	rate  float64
	err   error
	calls atomic.Int64
	// block, when set, holds every call until it is closed.
	block chan struct{}
	// cancelled records whether a call saw its context done once unblocked.
	cancelled atomic.Bool
}

func (m *mockQuota) GetBlendedSampleRate(ctx context.Context, _ int64) (float64, error) {
	m.calls.Add(1)
	if m.block != nil {
		<-m.block
	}
	if ctx.Err() != nil {
		m.cancelled.Store(true)
	}
	return m.rate, m.err
}

type mockSlidingWindow struct {
	rate     float64
	err      error
	panics   bool
	fallback float64
}

func (m *mockSlidingWindow) GetSlidingWindowSampleRate(_ context.Context, _, _ int64, fallback float64) (float64, error) {
	m.fallback = fallback
	if m.panics {
		panic("sliding window not computed")
	}
	return m.rate, m.err
}

type mockProjectPriority struct {
	rate   float64
	err    error
	panics bool
}

func (m *mockProjectPriority) GetPrioritiseByProjectSampleRate(_ context.Context, _ tenant.Project, _ float64) (float64, error) {
	if m.panics {
		panic("nil rebalancing model")
	}
	return m.rate, m.err
}

type mockFeatures struct {
	enabled map[string]bool
	panics  bool
}

func (m *mockFeatures) Has(_ context.Context, flag string, _ tenant.Organization) bool {
	if m.panics {
		panic("feature service unavailable")
	}
	return m.enabled[flag]
}

type mockTransactionRates struct {
	named    map[string]float64
	implicit float64
	err      error
	panics   bool
}

func (m *mockTransactionRates) GetTransactionsResamplingRates(_ context.Context, _, _ int64, _ float64) (map[string]float64, float64, error) {
	if m.panics {
		panic("nil map")
	}
	return m.named, m.implicit, m.err
}

type mockReleases struct {
	releases []tenant.BoostedRelease
	err      error
}

func (m *mockReleases) GetBoostedReleases(_ context.Context, _ tenant.Project) ([]tenant.BoostedRelease, error) {
	return m.releases, m.err
}

type mockRecalibration struct {
	factor float64
	err    error
}

func (m *mockRecalibration) GetAdjustedFactor(_ context.Context, _ int64) (float64, error) {
	return m.factor, m.err
}

type mockReporter struct {
	mu   sync.Mutex
	errs []error
}

func (m *mockReporter) CaptureException(_ context.Context, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

func (m *mockReporter) captured() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errs...)
}
