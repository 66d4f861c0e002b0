package docker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// Label key constants define the Docker label keys used to persist app
// instance metadata on containers. These labels serve as the sole
// persistence mechanism — there is no external state file.
//
// All keys share the "dashboard." prefix to namespace them and avoid
// collisions with labels set by other tools.
const (
	// LabelPrefix is the common prefix for all dashboard-container labels.
	LabelPrefix = "dashboard."

	// LabelManagedBy identifies containers managed by dashboard-container.
	// This is the primary label used for filtering and discovery.
	// Key: "dashboard.managed-by", Value: always "dashboard-container".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelAppName stores the app instance's unique identifier.
	// Key: "dashboard.app-name", Value: app name (e.g. "netdash").
	LabelAppName = LabelPrefix + "app-name"

	// LabelImage stores the image tag the instance was created from.
	LabelImage = LabelPrefix + "image"

	// LabelEntryPoint stores the entry point filename staged into the
	// image (e.g. "app.py").
	LabelEntryPoint = LabelPrefix + "entrypoint"

	// LabelPort stores the in-container listening port.
	LabelPort = LabelPrefix + "port"

	// LabelBindAddress stores the in-container bind address.
	LabelBindAddress = LabelPrefix + "bind-address"

	// LabelHostPort stores the host-side port the container port is
	// published to. Differs from LabelPort when --auto-port picked an
	// alternative.
	LabelHostPort = LabelPrefix + "host-port"

	// LabelVCSRef stores the Git commit of the build context at build
	// time, if the context was a Git checkout. Optional.
	LabelVCSRef = LabelPrefix + "vcs-ref"

	// LabelCreatedAt stores the launch timestamp.
	// Value: RFC3339 formatted timestamp in UTC.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
// All containers created by this CLI are tagged with this value,
// enabling discovery via Docker API label filters.
const ManagedByValue = "dashboard-container"

// BuildLabels constructs a Docker label map from an AppInstance. These
// labels are applied to the instance's container, allowing full
// reconstruction of the AppInstance from container inspection alone
// (no external state file needed).
func BuildLabels(app *model.AppInstance) map[string]string {
	labels := map[string]string{
		LabelManagedBy:   ManagedByValue,
		LabelAppName:     app.Name,
		LabelImage:       app.Image,
		LabelEntryPoint:  app.EntryPoint,
		LabelPort:        strconv.Itoa(app.Launch.Port),
		LabelBindAddress: app.Launch.BindAddress,
		LabelHostPort:    strconv.Itoa(app.HostPort),
		// time.RFC3339 produces ISO-8601 compatible timestamps. Using UTC
		// ensures consistency regardless of the host machine's timezone.
		LabelCreatedAt: app.CreatedAt.UTC().Format(time.RFC3339),
	}

	// Build provenance is optional: only present when the build context
	// was a Git checkout.
	if app.VCSRef != "" {
		labels[LabelVCSRef] = app.VCSRef
	}

	return labels
}

// ParseLabels reconstructs an AppInstance from Docker container labels.
// This is the inverse of BuildLabels and is used when listing or
// inspecting containers to rebuild the domain model.
//
// Required labels: managed-by, app-name, image, entrypoint, port,
// bind-address, host-port, created-at. Missing required labels cause an
// error.
//
// Note: Status and Container are NOT reconstructed from labels because
// they are determined at runtime from Docker container state, not from
// static label values.
func ParseLabels(labels map[string]string) (*model.AppInstance, error) {
	// Check all required labels at once rather than failing on the first
	// missing one, so the error message can list everything for easier
	// debugging.
	requiredKeys := []string{
		LabelManagedBy,
		LabelAppName,
		LabelImage,
		LabelEntryPoint,
		LabelPort,
		LabelBindAddress,
		LabelHostPort,
		LabelCreatedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	// Verify this container is actually managed by dashboard-container.
	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	port, err := strconv.Atoi(labels[LabelPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelPort, labels[LabelPort], err)
	}

	hostPort, err := strconv.Atoi(labels[LabelHostPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelHostPort, labels[LabelHostPort], err)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	return &model.AppInstance{
		Name:       labels[LabelAppName],
		Image:      labels[LabelImage],
		EntryPoint: labels[LabelEntryPoint],
		Launch: model.LaunchConfig{
			Port:        port,
			BindAddress: labels[LabelBindAddress],
		},
		HostPort:  hostPort,
		VCSRef:    labels[LabelVCSRef],
		CreatedAt: createdAt,
	}, nil
}
