package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// makeTestContainerInfo is a helper that creates a model.ContainerInfo
// with a complete dashboard label set, avoiding repetitive label
// construction across test cases.
func makeTestContainerInfo(id, name, state string) model.ContainerInfo {
	return model.ContainerInfo{
		ContainerID:   id,
		ContainerName: name,
		State:         state,
		Labels: map[string]string{
			LabelManagedBy:   ManagedByValue,
			LabelAppName:     "netdash",
			LabelImage:       "netdash:latest",
			LabelEntryPoint:  "app.py",
			LabelPort:        "8501",
			LabelBindAddress: "0.0.0.0",
			LabelHostPort:    "8501",
			LabelCreatedAt:   "2026-08-20T10:00:00Z",
		},
	}
}

// TestBuildAppInstance_Running verifies the domain object assembled for
// a running container: labels parsed, status derived from Docker state.
func TestBuildAppInstance_Running(t *testing.T) {
	info := makeTestContainerInfo("abc123", "netdash", "running")

	app, err := BuildAppInstance(info)
	require.NoError(t, err)

	assert.Equal(t, "netdash", app.Name)
	assert.Equal(t, model.StatusRunning, app.Status)
	assert.Equal(t, "abc123", app.Container.ContainerID)
	assert.Equal(t, 8501, app.HostPort)
	assert.Equal(t, "http://localhost:8501", app.URL())
}

// TestBuildAppInstance_Exited verifies an exited container maps to the
// terminal EXITED status.
func TestBuildAppInstance_Exited(t *testing.T) {
	info := makeTestContainerInfo("def456", "netdash", "exited")

	app, err := BuildAppInstance(info)
	require.NoError(t, err)

	assert.Equal(t, model.StatusExited, app.Status)
}

// TestBuildAppInstance_Created verifies a created-but-never-started
// container maps to NOT_STARTED.
func TestBuildAppInstance_Created(t *testing.T) {
	info := makeTestContainerInfo("aaa111", "netdash", "created")

	app, err := BuildAppInstance(info)
	require.NoError(t, err)

	assert.Equal(t, model.StatusNotStarted, app.Status)
}

// TestBuildAppInstance_CorruptLabels verifies label corruption is an
// error, not a silently skipped instance.
func TestBuildAppInstance_CorruptLabels(t *testing.T) {
	info := makeTestContainerInfo("bad999", "netdash", "running")
	delete(info.Labels, LabelImage)

	_, err := BuildAppInstance(info)
	assert.Error(t, err)
}

// TestShortID verifies the docker CLI style 12-character truncation,
// including the sha256: prefix strip.
func TestShortID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abc123def456abc123def456", "abc123def456"},
		{"sha256:abc123def456abc123def456", "abc123def456"},
		{"short", "short"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, shortID(tt.input), "input %q", tt.input)
	}
}
