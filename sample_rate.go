package dynamicsampling // import "github.com/atlassian-labs/atlassian-dynamic-sampling"

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/internal/metadata"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

const (
	slidingWindowOverlay       = "sliding_window"
	prioritiseByProjectOverlay = "prioritise_by_project"
)

var (
	errInvalidSampleRate = errors.New("blended sample rate outside (0, 1]")
	errInvalidOverlay    = errors.New("overlay sample rate outside (0, 1]")
)

// pre compute attributes for performance
var (
	slidingWindowAttr       = metric.WithAttributeSet(attribute.NewSet(attribute.String("overlay", slidingWindowOverlay)))
	prioritiseByProjectAttr = metric.WithAttributeSet(attribute.NewSet(attribute.String("overlay", prioritiseByProjectOverlay)))
)

// sampleRateResolver computes the base sample rate of a project: the organization's quota rate,
// adapted by the sliding window or prioritise-by-project overlay.
type sampleRateResolver struct {
	quota         QuotaResolver
	slidingWindow SlidingWindowRates
	priority      ProjectPriorityRates
	features      FeatureChecker
	flags         FeatureFlags

	// quotaCalls merges concurrent quota lookups of one organization.
	quotaCalls singleflight.Group

	log       *zap.Logger
	telemetry *metadata.TelemetryBuilder
}

func newSampleRateResolver(c Collaborators, flags FeatureFlags, log *zap.Logger, telemetry *metadata.TelemetryBuilder) *sampleRateResolver {
	return &sampleRateResolver{
		quota:         c.Quota,
		slidingWindow: c.SlidingWindow,
		priority:      c.ProjectPriority,
		features:      c.Features,
		flags:         flags,
		log:           log,
		telemetry:     telemetry,
	}
}

// resolve returns a rate in (0, 1]. An error means the organization's quota is not usable
// and no rules should be generated.
func (r *sampleRateResolver) resolve(ctx context.Context, project tenant.Project) (float64, error) {
	rate, err := r.blendedSampleRate(ctx, project.Organization.ID)
	if err != nil {
		return 0, err
	}
	if rate == 1.0 {
		return rate, nil
	}

	org := project.Organization
	if hasFeature(ctx, r.features, r.flags.SlidingWindow, org) && !hasFeature(ctx, r.features, r.flags.SlidingWindowOrg, org) {
		if r.slidingWindow == nil {
			return rate, nil
		}
		adapted, err := callRate(func() (float64, error) {
			return r.slidingWindow.GetSlidingWindowSampleRate(ctx, org.ID, project.ID, rate)
		})
		return r.guard(ctx, project, slidingWindowOverlay, slidingWindowAttr, rate, adapted, err), nil
	}

	if r.priority == nil {
		return rate, nil
	}
	adapted, err := callRate(func() (float64, error) {
		return r.priority.GetPrioritiseByProjectSampleRate(ctx, project, rate)
	})
	return r.guard(ctx, project, prioritiseByProjectOverlay, prioritiseByProjectAttr, rate, adapted, err), nil
}

// callRate turns a panic of a rate collaborator into an error.
func callRate(get func() (float64, error)) (rate float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			rate, err = 0, fmt.Errorf("panic: %v", p)
		}
	}()
	return get()
}

// blendedSampleRate shares one quota call between the concurrent lookups of an organization.
// The shared call is detached from the caller's cancellation; each caller still stops waiting
// when its own ctx is done.
func (r *sampleRateResolver) blendedSampleRate(ctx context.Context, orgID int64) (float64, error) {
	shared := context.WithoutCancel(ctx)
	ch := r.quotaCalls.DoChan(strconv.FormatInt(orgID, 10), func() (interface{}, error) {
		return callRate(func() (float64, error) {
			return r.quota.GetBlendedSampleRate(shared, orgID)
		})
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}
	if res.Err != nil {
		return 0, fmt.Errorf("error fetching blended sample rate of organization %d: %w", orgID, res.Err)
	}
	rate := res.Val.(float64)
	if !validRate(rate) {
		return 0, fmt.Errorf("%w: organization %d has %f", errInvalidSampleRate, orgID, rate)
	}
	return rate, nil
}

// guard returns the overlay rate, or the quota rate when the overlay failed.
func (r *sampleRateResolver) guard(
	ctx context.Context,
	project tenant.Project,
	overlay string,
	overlayAttr metric.MeasurementOption,
	quotaRate, adapted float64,
	err error,
) float64 {
	if err == nil && !validRate(adapted) {
		err = fmt.Errorf("%w: %f", errInvalidOverlay, adapted)
	}
	if err != nil {
		r.log.Debug("sample rate overlay failed, using the quota rate",
			zap.String("overlay", overlay),
			zap.Int64("project_id", project.ID),
			zap.Float64("sample_rate", quotaRate),
			zap.Error(err),
		)
		r.telemetry.DynamicSamplingSampleRateFallbacks.Add(ctx, 1, overlayAttr)
		return quotaRate
	}
	return adapted
}

func validRate(rate float64) bool {
	return !math.IsNaN(rate) && rate > 0 && rate <= 1
}
