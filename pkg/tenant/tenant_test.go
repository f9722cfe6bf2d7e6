package tenant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeToAdoption(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Hour, Platform("python").TimeToAdoption())
	assert.Equal(t, time.Hour, Platform("").TimeToAdoption())
	assert.Equal(t, 24*time.Hour, Platform("android").TimeToAdoption())
	assert.Equal(t, 24*time.Hour, Platform("react-native").TimeToAdoption())
}

func TestBoostedReleaseWindow(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name            string
		release         BoostedRelease
		projectPlatform Platform
		expectedEnd     time.Time
	}{
		{
			name:            "project platform",
			release:         BoostedRelease{Version: "1.0", Timestamp: ts},
			projectPlatform: "python",
			expectedEnd:     ts.Add(time.Hour),
		},
		{
			name:            "release platform wins",
			release:         BoostedRelease{Version: "1.0", Timestamp: ts, Platform: "android"},
			projectPlatform: "python",
			expectedEnd:     ts.Add(24 * time.Hour),
		},
		{
			name:            "mobile project",
			release:         BoostedRelease{Version: "1.0", Timestamp: ts},
			projectPlatform: "cocoa",
			expectedEnd:     ts.Add(24 * time.Hour),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.release.Window(tt.projectPlatform)
			assert.Equal(t, ts, start)
			assert.Equal(t, tt.expectedEnd, end)
		})
	}
}
