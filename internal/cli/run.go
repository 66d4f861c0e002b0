package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/dashboard-container/internal/docker"
	"github.com/shinji-kodama/dashboard-container/internal/dockerfile"
	"github.com/shinji-kodama/dashboard-container/internal/gitmeta"
	"github.com/shinji-kodama/dashboard-container/internal/model"
	"github.com/shinji-kodama/dashboard-container/internal/port"
)

// autoPortRange is how far above the requested port --auto-port searches
// for a free host port.
const autoPortRange = 100

// NewRunCommand creates the 'run' subcommand.
// It launches a container instance of the dashboard image, publishing
// the dashboard port, and waits until the service is actually accepting
// TCP connections before reporting success.
func NewRunCommand() *cobra.Command {
	var (
		projectDir     string
		name           string
		portFlag       int
		address        string
		hostPort       int
		autoPort       bool
		forceBuild     bool
		skipVerify     bool
		extraEnv       []string
		startupTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch a dashboard container instance",
		Long: `Launch a container instance of the project's dashboard image.

The image is built first if it does not exist yet (or when --build is
given). The dashboard port is published to the host; if the host port
is already bound the launch fails, unless --auto-port is given, in
which case the next free port above it is used.

The command reports success only once the serving process is accepting
TCP connections. A process that exits before listening, or never
listens within --startup-timeout, is a startup failure: the instance is
left in the EXITED state for inspection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, runParams{
				projectDir: projectDir,
				overrides: specOverrides{
					name:    name,
					port:    portFlag,
					address: address,
				},
				hostPort:       hostPort,
				autoPort:       autoPort,
				forceBuild:     forceBuild,
				skipVerify:     skipVerify,
				extraEnv:       extraEnv,
				startupTimeout: startupTimeout,
			})
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Project directory containing the entry point and manifest")
	cmd.Flags().StringVar(&name, "name", "", "App name (default: sanitized project directory name)")
	cmd.Flags().IntVar(&portFlag, "port", 0, "Container listening port (default: 8501)")
	cmd.Flags().StringVar(&address, "address", "", "In-container bind address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&hostPort, "host-port", 0, "Host port to publish to (default: same as container port)")
	cmd.Flags().BoolVar(&autoPort, "auto-port", false, "Pick the next free host port when the requested one is bound")
	cmd.Flags().BoolVar(&forceBuild, "build", false, "Rebuild the image even if it exists")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip entry point import verification")
	cmd.Flags().StringArrayVarP(&extraEnv, "env", "e", nil, "Environment variable for the container (KEY=value, repeatable)")
	cmd.Flags().DurationVar(&startupTimeout, "startup-timeout", 30*time.Second, "How long to wait for the service to start listening")

	return cmd
}

// runParams bundles the run command's inputs.
type runParams struct {
	projectDir     string
	overrides      specOverrides
	hostPort       int
	autoPort       bool
	forceBuild     bool
	skipVerify     bool
	extraEnv       []string
	startupTimeout time.Duration
}

func runRun(cmd *cobra.Command, params runParams) error {
	ctx := cmd.Context()

	spec, raw, err := resolveProject(params.projectDir, params.overrides)
	if err != nil {
		return err
	}

	if !params.skipVerify {
		if err := verifyProject(spec); err != nil {
			return err
		}
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	// A name identifies at most one instance. A running instance is never
	// silently replaced; an exited one is cleaned up and relaunched.
	if existing, err := docker.FindApp(ctx, cli, spec.AppName); err == nil {
		if existing.Status == model.StatusRunning {
			return model.NewCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("app %q is already running at %s — stop it first", spec.AppName, existing.URL()),
			)
		}
		VerboseLog("removing previous %s instance of %q", existing.Status, spec.AppName)
		if err := docker.RemoveContainer(ctx, cli, existing.Container.ContainerID, false); err != nil {
			return err
		}
	} else if cliErr, ok := err.(*model.CLIError); !ok || cliErr.Code != model.ExitAppNotFound {
		return err
	}

	if err := ensureImage(ctx, cli, spec, params.forceBuild); err != nil {
		return err
	}

	hostPort, err := chooseHostPort(spec, params.hostPort, params.autoPort)
	if err != nil {
		return err
	}

	env := containerEnvList(raw)
	env = append(env, params.extraEnv...)

	app := &model.AppInstance{
		Name:       spec.AppName,
		Image:      spec.ImageTag(),
		EntryPoint: spec.EntryPointFile,
		Launch:     spec.Launch,
		HostPort:   hostPort,
		VCSRef:     gitmeta.Describe(spec.ContextDir).Ref(),
		CreatedAt:  time.Now().UTC(),
		Container: model.ContainerInfo{
			ContainerName: spec.AppName,
		},
	}

	containerID, err := docker.CreateAndStart(ctx, cli, app, spec, env)
	if err != nil {
		return err
	}
	VerboseLog("started container %s for app %q", containerID, app.Name)

	if err := awaitListening(ctx, cli, containerID, app, params.startupTimeout); err != nil {
		return err
	}

	if IsJSONOutput() {
		app.Container.ContainerID = containerID
		app.Status = model.StatusRunning
		data, _ := json.MarshalIndent(app, "", "  ")
		fmt.Fprintln(os.Stdout, string(data))
	} else {
		fmt.Printf("App %q is running\n", app.Name)
		fmt.Printf("  url: %s\n", app.URL())
		if app.HostPort != app.Launch.Port {
			fmt.Printf("  note: host port %d differs from container port %d\n", app.HostPort, app.Launch.Port)
		}
		fmt.Printf("  stop it with: dashboard-container stop %s\n", app.Name)
	}

	return nil
}

// ensureImage builds the image when it is absent or a rebuild is forced.
func ensureImage(ctx context.Context, cli *docker.Client, spec *model.BuildSpec, force bool) error {
	if !force {
		exists, err := docker.ImageExists(ctx, cli, spec.ImageTag())
		if err != nil {
			return err
		}
		if exists {
			VerboseLog("image %s already exists, skipping build", spec.ImageTag())
			return nil
		}
	}

	content, err := dockerfile.Generate(spec)
	if err != nil {
		return err
	}

	VerboseLog("building image %s", spec.ImageTag())
	return docker.BuildImage(ctx, spec, content, docker.BuildOptions{})
}

// chooseHostPort picks the host port to publish to: the explicit
// --host-port, otherwise the container port. A bound port is an error
// unless autoPort allows searching upward for a free one.
func chooseHostPort(spec *model.BuildSpec, explicit int, autoPort bool) (int, error) {
	want := explicit
	if want == 0 {
		want = spec.Launch.Port
	}

	scanner := port.NewScanner()
	if scanner.IsPortAvailable(want) {
		return want, nil
	}

	if !autoPort {
		return 0, model.NewCLIError(
			model.ExitPortUnavailable,
			fmt.Sprintf("host port %d is already in use (use --auto-port or --host-port to pick another)", want),
		)
	}

	found, err := scanner.FindAvailablePort(want+1, want+autoPortRange)
	if err != nil {
		return 0, model.WrapCLIError(
			model.ExitPortUnavailable,
			fmt.Sprintf("no free host port between %d and %d", want+1, want+autoPortRange),
			err,
		)
	}
	VerboseLog("host port %d is bound, using %d instead", want, found)
	return found, nil
}

// awaitListening blocks until the published host port accepts TCP
// connections, the container exits, or the timeout elapses. Only the
// first outcome is success.
//
// Startup is probed in short slices so a serving process that dies
// immediately is reported with its exit code instead of burning the
// whole timeout.
//
// A bare TCP connect to a Docker-published port can succeed against
// Docker's userland proxy before the app inside listens, so a dial alone
// is not trusted: the container state is checked before each probe slice
// and once more after the successful dial, catching a process that never
// really served and died behind a false-positive connect.
func awaitListening(ctx context.Context, cli *docker.Client, containerID string, app *model.AppInstance, timeout time.Duration) error {
	const probeSlice = time.Second

	deadline := time.Now().Add(timeout)
	for {
		state, exitCode, err := docker.InspectState(ctx, cli, containerID)
		if err != nil {
			return err
		}
		if model.StatusFromDockerState(state) == model.StatusExited {
			return model.NewCLIError(
				model.ExitStartupFailed,
				fmt.Sprintf("app %q exited with code %d before it started listening — check 'docker logs %s'",
					app.Name, exitCode, app.Container.ContainerName),
			)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return model.NewCLIError(
				model.ExitStartupFailed,
				fmt.Sprintf("app %q did not start listening on port %d within %s",
					app.Name, app.HostPort, timeout),
			)
		}

		slice := probeSlice
		if remaining < slice {
			slice = remaining
		}
		if err := port.WaitForListen(ctx, "127.0.0.1", app.HostPort, slice); err == nil {
			// Confirm the process survived the dial before declaring
			// success; the proxy may have accepted on its behalf.
			state, exitCode, err := docker.InspectState(ctx, cli, containerID)
			if err != nil {
				return err
			}
			if model.StatusFromDockerState(state) == model.StatusExited {
				return model.NewCLIError(
					model.ExitStartupFailed,
					fmt.Sprintf("app %q exited with code %d before it started listening — check 'docker logs %s'",
						app.Name, exitCode, app.Container.ContainerName),
				)
			}
			return nil
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
