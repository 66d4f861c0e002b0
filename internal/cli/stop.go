package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/dashboard-container/internal/docker"
	"github.com/shinji-kodama/dashboard-container/internal/model"
	"github.com/shinji-kodama/dashboard-container/internal/port"
)

// NewStopCommand creates the 'stop' subcommand.
// It stops a running app instance and verifies that its published host
// port has actually been released.
func NewStopCommand() *cobra.Command {
	var (
		graceSeconds   int
		releaseTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stop <app-name>",
		Short: "Stop a running dashboard instance",
		Long: `Stop a running dashboard instance.

Docker sends SIGTERM to the serving process and waits up to --grace
seconds before killing it. After the container stops, the command waits
for the published host port to be released, so a follow-up run on the
same port cannot race the teardown.

The stopped container is kept (state EXITED) so its logs remain
inspectable; use 'remove' to delete it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, args[0], graceSeconds, releaseTimeout)
		},
	}

	cmd.Flags().IntVar(&graceSeconds, "grace", 10, "Seconds to wait for graceful shutdown before killing")
	cmd.Flags().DurationVar(&releaseTimeout, "release-timeout", 10*time.Second, "How long to wait for the host port to be released")

	return cmd
}

func runStop(cmd *cobra.Command, name string, graceSeconds int, releaseTimeout time.Duration) error {
	ctx := cmd.Context()

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	app, err := docker.FindApp(ctx, cli, name)
	if err != nil {
		return err
	}

	if app.Status != model.StatusRunning {
		return model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("app %q is not running (status: %s)", name, app.Status),
		)
	}

	VerboseLog("stopping container %s (grace %ds)", app.Container.ContainerID, graceSeconds)
	if err := docker.StopContainer(ctx, cli, app.Container.ContainerID, graceSeconds); err != nil {
		return err
	}

	// Docker reports the container stopped before the kernel has fully
	// torn down the port forward; confirm the port is reusable before
	// declaring success.
	scanner := port.NewScanner()
	if err := port.WaitForRelease(ctx, scanner, app.HostPort, releaseTimeout); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("app %q stopped but host port %d was not released", name, app.HostPort),
			err,
		)
	}

	if IsJSONOutput() {
		result := map[string]interface{}{
			"app":          name,
			"status":       string(model.StatusExited),
			"portReleased": app.HostPort,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(os.Stdout, string(data))
	} else {
		fmt.Printf("Stopped app %q (port %d released)\n", name, app.HostPort)
	}

	return nil
}
