package dynamicsampling // import "github.com/atlassian-labs/atlassian-dynamic-sampling"

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/confmap"
	"go.uber.org/multierr"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

type Config struct {
	// LoggedProjectsCacheSize is the number of projects whose last logged rule set is remembered.
	// A project whose rule set is unchanged since it was last logged is not logged again.
	// Set to 0 to log every generated rule set.
	LoggedProjectsCacheSize int `mapstructure:"logged_projects_cache_size"`

	// BoostedReleasesLimit caps the number of releases boosted per project.
	// It cannot exceed the number of rule ids reserved for release boosting.
	BoostedReleasesLimit int `mapstructure:"boosted_releases_limit"`

	// Concurrency is the number of projects GenerateRulesForProjects works on at once.
	Concurrency int `mapstructure:"concurrency"`

	// DefaultBiases lists the biases that can be enabled, and whether they are enabled for
	// projects that have not customized them. Biases not listed here never run, except for
	// the uniform and recalibration biases which always run.
	DefaultBiases []tenant.BiasOption `mapstructure:"default_biases"`

	Features FeatureFlags `mapstructure:"features"`
}

// FeatureFlags names the organization feature flags the generator checks.
type FeatureFlags struct {
	// SlidingWindow enables the per-project sliding window sample rate.
	SlidingWindow string `mapstructure:"sliding_window"`
	// SlidingWindowOrg marks organizations using the organization level sliding window instead.
	// It takes precedence over SlidingWindow.
	SlidingWindowOrg string `mapstructure:"sliding_window_org"`
	// Recalibration enables the recalibration bias.
	Recalibration string `mapstructure:"recalibration"`
}

var (
	loggedProjectsCacheSizeError = errors.New("logged_projects_cache_size must not be negative")
	boostedReleasesLimitError    = errors.New("boosted_releases_limit must be greater than 0 and fit in the reserved rule ids")
	concurrencyError             = errors.New("concurrency must be greater than 0")
	featureFlagNameError         = errors.New("feature flag names must not be empty")
)

var _ component.Config = (*Config)(nil)

func NewDefaultConfig() *Config {
	return &Config{
		LoggedProjectsCacheSize: 1000,
		BoostedReleasesLimit:    10,
		Concurrency:             8,
		DefaultBiases: []tenant.BiasOption{
			{ID: rules.BoostEnvironments.String(), Active: true},
			{ID: rules.BoostLatestReleases.String(), Active: true},
			{ID: rules.IgnoreHealthChecks.String(), Active: true},
			{ID: rules.BoostLowVolumeTransactions.String(), Active: true},
		},
		Features: FeatureFlags{
			SlidingWindow:    "organizations:ds-sliding-window",
			SlidingWindowOrg: "organizations:ds-sliding-window-org",
			Recalibration:    "organizations:ds-org-recalibration",
		},
	}
}

func (cfg *Config) Validate() (errors error) {
	if cfg.LoggedProjectsCacheSize < 0 {
		errors = multierr.Append(errors, loggedProjectsCacheSizeError)
	}

	releaseIDs, _ := rules.BoostLatestReleases.ReservedIDs()
	if cfg.BoostedReleasesLimit <= 0 || cfg.BoostedReleasesLimit > releaseIDs.Size() {
		errors = multierr.Append(errors, boostedReleasesLimitError)
	}

	if cfg.Concurrency <= 0 {
		errors = multierr.Append(errors, concurrencyError)
	}

	seen := make(map[string]bool, len(cfg.DefaultBiases))
	for _, b := range cfg.DefaultBiases {
		if _, err := rules.ParseRuleType(b.ID); err != nil {
			errors = multierr.Append(errors, fmt.Errorf("default_biases: %w", err))
		}
		if seen[b.ID] {
			errors = multierr.Append(errors, fmt.Errorf("default_biases: duplicate bias %q", b.ID))
		}
		seen[b.ID] = true
	}

	if cfg.Features.SlidingWindow == "" || cfg.Features.SlidingWindowOrg == "" || cfg.Features.Recalibration == "" {
		errors = multierr.Append(errors, featureFlagNameError)
	}

	return errors
}

// UnmarshalConfig decodes conf over the default configuration and validates the result.
func UnmarshalConfig(conf *confmap.Conf) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := conf.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
