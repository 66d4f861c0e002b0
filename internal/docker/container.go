// container.go implements container lifecycle operations for dashboard
// app instances: create+start, list, stop, remove, inspect.
//
// All managed containers are identified by the "dashboard.managed-by"
// label, which enables filtering them from unrelated containers on the
// same host. The lifecycle intentionally has no restart path: an exited
// instance stays exited until the user runs it again or removes it.
package docker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/go-connections/nat"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// ListManagedContainers queries the Docker daemon for all containers
// that have the "dashboard.managed-by=dashboard-container" label. It
// returns a ContainerInfo for each, including stopped ones.
//
// This is the primary entry point for discovering what app instances
// currently exist. All state is derived from Docker labels rather than
// any external database. The All flag matters because an EXITED instance
// is still an instance: it must show up in list output with its exit
// code.
func ListManagedContainers(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	// Filter server-side on the management label; this is cheaper than
	// listing everything and filtering in Go.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToInfo(c))
	}

	return result, nil
}

// containerToInfo converts a Docker API container summary to our domain
// ContainerInfo. This is a pure mapping function with no side effects.
//
// The Docker API returns container names with a leading "/" prefix
// (e.g. "/netdash"), which we strip for cleaner display in CLI output.
func containerToInfo(c types.Container) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		State:         c.State,
		Labels:        c.Labels,
	}
}

// BuildAppInstance constructs an AppInstance domain object from a
// managed container's info. It parses the dashboard.* labels for the
// static metadata and derives the lifecycle status from the container's
// Docker state.
func BuildAppInstance(info model.ContainerInfo) (*model.AppInstance, error) {
	app, err := ParseLabels(info.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to parse labels for container %q: %w", info.ContainerName, err)
	}

	app.Container = info
	app.Status = model.StatusFromDockerState(info.State)
	return app, nil
}

// FindApp locates the managed container for the named app instance.
//
// Returns a CLIError with ExitAppNotFound if no managed container
// carries the app name. If label parsing fails on a matching container
// (which should not happen for containers this tool created), the error
// is surfaced rather than skipped — a corrupted instance needs the
// user's attention, not silence.
func FindApp(ctx context.Context, cli *Client, name string) (*model.AppInstance, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
		filters.Arg("label", LabelAppName+"="+name),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	if len(containers) == 0 {
		return nil, model.NewCLIError(
			model.ExitAppNotFound,
			fmt.Sprintf("no app instance named %q — run 'dashboard-container list' to see what exists", name),
		)
	}

	// One container per app name is an invariant this tool maintains at
	// launch time (see CreateAndStart). More than one means somebody
	// created containers with our labels by hand; use the first and let
	// list output reveal the rest.
	return BuildAppInstance(containerToInfo(containers[0]))
}

// CreateAndStart creates a container for the app instance and starts it.
//
// The container publishes app.Launch.Port (in-container) to app.HostPort
// (host side) on TCP and carries the full dashboard.* label set, so the
// instance can be reconstructed from Docker state alone. The image's
// baked-in CMD is used as-is — the invocation vector was fixed at build
// time — unless the launch port differs from the one baked into the
// image, in which case the same vector shape is passed with the updated
// values.
//
// Returns the new container's ID. A name collision with an existing
// container (same app launched twice) surfaces as a Docker error.
func CreateAndStart(ctx context.Context, cli *Client, app *model.AppInstance, spec *model.BuildSpec, env []string) (string, error) {
	containerPort, err := nat.NewPort("tcp", strconv.Itoa(app.Launch.Port))
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid container port %d", app.Launch.Port), err)
	}

	config := &container.Config{
		Image:  app.Image,
		Env:    env,
		Labels: BuildLabels(app),
		ExposedPorts: nat.PortSet{
			containerPort: struct{}{},
		},
	}

	// Override the image CMD only when the runtime launch configuration
	// diverges from the values baked in at build time. Keeping the baked
	// CMD in the common case preserves the "image is the contract"
	// property: what you inspect is what runs.
	if app.Launch.Port != spec.Launch.Port || app.Launch.BindAddress != spec.Launch.BindAddress {
		runSpec := *spec
		runSpec.Launch = app.Launch
		config.Cmd = runSpec.ServeArgs()
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			containerPort: []nat.PortBinding{
				{
					// Publish on all host interfaces; reachability from
					// outside the container's namespace is the point of
					// the 0.0.0.0 bind.
					HostIP:   "0.0.0.0",
					HostPort: strconv.Itoa(app.HostPort),
				},
			},
		},
		// No RestartPolicy: if the serving process exits, the instance
		// terminates. Supervision belongs to an external orchestrator.
	}

	created, err := cli.Inner().ContainerCreate(ctx, config, hostConfig, nil, nil, app.Container.ContainerName)
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create container for app %q", app.Name),
			err,
		)
	}

	if err := cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to start container %s for app %q", shortID(created.ID), app.Name),
			err,
		)
	}

	return created.ID, nil
}

// StopContainer gracefully stops a running container. Docker sends
// SIGTERM to the container's main process and waits up to timeoutSeconds
// before killing it with SIGKILL.
//
// The contract does not intercept or translate signals: default signal
// behavior of the serving process applies.
func StopContainer(ctx context.Context, cli *Client, containerID string, timeoutSeconds int) error {
	err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{
		Timeout: &timeoutSeconds,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop container %s", shortID(containerID)),
			err,
		)
	}
	return nil
}

// RemoveContainer removes a container by ID. The container must be
// stopped first unless force is true, in which case Docker kills it
// before removal.
func RemoveContainer(ctx context.Context, cli *Client, containerID string, force bool) error {
	err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: force,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %s", shortID(containerID)),
			err,
		)
	}
	return nil
}

// InspectState fetches the current Docker state string and exit code for
// a container. Used during startup to detect a serving process that
// exited before it ever listened, and in list output for exited
// instances.
func InspectState(ctx context.Context, cli *Client, containerID string) (string, int, error) {
	inspect, err := cli.Inner().ContainerInspect(ctx, containerID)
	if err != nil {
		return "", 0, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to inspect container %s", shortID(containerID)),
			err,
		)
	}
	if inspect.State == nil {
		return "", 0, fmt.Errorf("container %s has no state", shortID(containerID))
	}
	return inspect.State.Status, inspect.State.ExitCode, nil
}
