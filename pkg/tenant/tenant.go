// Package tenant holds the organization and project data the rule generator reads.
// It is populated by the caller from its own persistence layer.
package tenant // import "github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"

import "time"

type Organization struct {
	ID   int64
	Slug string
}

// BiasOption is a project-level override enabling or disabling one bias.
type BiasOption struct {
	ID     string `mapstructure:"id"`
	Active bool   `mapstructure:"active"`
}

type Project struct {
	ID           int64
	Slug         string
	Platform     Platform
	Organization Organization
	// Biases holds the bias overrides the project has customized. Nil means none.
	Biases []BiasOption
}

// Platform is the SDK platform a project reports from.
type Platform string

const (
	defaultTimeToAdoption = time.Hour
	mobileTimeToAdoption  = 24 * time.Hour
)

var mobilePlatforms = map[Platform]bool{
	"android":      true,
	"apple-ios":    true,
	"cocoa":        true,
	"dart":         true,
	"flutter":      true,
	"react-native": true,
	"unity":        true,
	"xamarin":      true,
}

// TimeToAdoption is how long a new release of this platform is expected to take to reach users.
func (p Platform) TimeToAdoption() time.Duration {
	if mobilePlatforms[p] {
		return mobileTimeToAdoption
	}
	return defaultTimeToAdoption
}

// BoostedRelease is a release observed recently enough to have its traces boosted.
type BoostedRelease struct {
	Version string
	// Environment is empty when the release was observed without one.
	Environment string
	// Timestamp is when the release was first observed.
	Timestamp time.Time
	// Platform overrides the project platform when computing the boost window.
	Platform Platform
}

// Window returns the interval during which the release is boosted.
// projectPlatform is used when the release carries no platform of its own.
func (r BoostedRelease) Window(projectPlatform Platform) (start, end time.Time) {
	platform := r.Platform
	if platform == "" {
		platform = projectPlatform
	}
	return r.Timestamp, r.Timestamp.Add(platform.TimeToAdoption())
}
