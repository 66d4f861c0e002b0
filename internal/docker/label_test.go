package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// makeTestApp returns an AppInstance with all label-persisted fields set.
func makeTestApp() *model.AppInstance {
	return &model.AppInstance{
		Name:       "netdash",
		Image:      "netdash:latest",
		EntryPoint: "app.py",
		Launch: model.LaunchConfig{
			Port:        8501,
			BindAddress: "0.0.0.0",
		},
		HostPort:  8501,
		VCSRef:    "abc123def456abc123def456abc123def456abcd",
		CreatedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
}

// TestBuildLabels verifies the label map produced for a launch: all
// metadata keys present, timestamps in RFC3339 UTC.
func TestBuildLabels(t *testing.T) {
	labels := BuildLabels(makeTestApp())

	assert.Equal(t, "dashboard-container", labels[LabelManagedBy])
	assert.Equal(t, "netdash", labels[LabelAppName])
	assert.Equal(t, "netdash:latest", labels[LabelImage])
	assert.Equal(t, "app.py", labels[LabelEntryPoint])
	assert.Equal(t, "8501", labels[LabelPort])
	assert.Equal(t, "0.0.0.0", labels[LabelBindAddress])
	assert.Equal(t, "8501", labels[LabelHostPort])
	assert.Equal(t, "abc123def456abc123def456abc123def456abcd", labels[LabelVCSRef])
	assert.Equal(t, "2026-08-20T10:00:00Z", labels[LabelCreatedAt])
}

// TestBuildLabels_NoVCSRef verifies the provenance label is omitted
// entirely for non-Git build contexts, rather than set to empty.
func TestBuildLabels_NoVCSRef(t *testing.T) {
	app := makeTestApp()
	app.VCSRef = ""

	labels := BuildLabels(app)
	_, present := labels[LabelVCSRef]
	assert.False(t, present, "empty VCS ref should not produce a label")
}

// TestParseLabels_RoundTrip verifies that an AppInstance survives the
// label encode/decode cycle with all persisted fields intact.
func TestParseLabels_RoundTrip(t *testing.T) {
	original := makeTestApp()

	parsed, err := ParseLabels(BuildLabels(original))
	require.NoError(t, err)

	assert.Equal(t, original.Name, parsed.Name)
	assert.Equal(t, original.Image, parsed.Image)
	assert.Equal(t, original.EntryPoint, parsed.EntryPoint)
	assert.Equal(t, original.Launch, parsed.Launch)
	assert.Equal(t, original.HostPort, parsed.HostPort)
	assert.Equal(t, original.VCSRef, parsed.VCSRef)
	assert.True(t, original.CreatedAt.Equal(parsed.CreatedAt))
}

// TestParseLabels_MissingRequired verifies that every missing required
// label is reported in a single error message.
func TestParseLabels_MissingRequired(t *testing.T) {
	labels := BuildLabels(makeTestApp())
	delete(labels, LabelAppName)
	delete(labels, LabelPort)

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelAppName)
	assert.Contains(t, err.Error(), LabelPort)
}

// TestParseLabels_WrongManager verifies containers labeled by some other
// tool are rejected even if all keys happen to be present.
func TestParseLabels_WrongManager(t *testing.T) {
	labels := BuildLabels(makeTestApp())
	labels[LabelManagedBy] = "someone-else"

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected value")
}

// TestParseLabels_MalformedPort verifies numeric label validation.
func TestParseLabels_MalformedPort(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "container port", key: LabelPort},
		{name: "host port", key: LabelHostPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := BuildLabels(makeTestApp())
			labels[tt.key] = "eighty"

			_, err := ParseLabels(labels)
			assert.Error(t, err)
		})
	}
}

// TestParseLabels_MalformedTimestamp verifies created-at validation.
func TestParseLabels_MalformedTimestamp(t *testing.T) {
	labels := BuildLabels(makeTestApp())
	labels[LabelCreatedAt] = "yesterday"

	_, err := ParseLabels(labels)
	assert.Error(t, err)
}

// TestParseLabels_OptionalVCSRef verifies a label set without provenance
// still parses, with an empty VCSRef.
func TestParseLabels_OptionalVCSRef(t *testing.T) {
	app := makeTestApp()
	app.VCSRef = ""

	parsed, err := ParseLabels(BuildLabels(app))
	require.NoError(t, err)
	assert.Empty(t, parsed.VCSRef)
}
