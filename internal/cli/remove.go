package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/dashboard-container/internal/docker"
	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// NewRemoveCommand creates the 'remove' subcommand.
// It removes an app instance's container and, optionally, its image.
func NewRemoveCommand() *cobra.Command {
	var (
		force       bool
		removeImage bool
	)

	cmd := &cobra.Command{
		Use:     "remove <app-name>",
		Aliases: []string{"rm"},
		Short:   "Remove a dashboard instance",
		Long: `Remove a dashboard instance's container.

A running instance is refused unless --force is given, in which case it
is killed first. With --image the built image is removed as well,
returning the app fully to the NOT_STARTED-with-no-image state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args[0], force, removeImage)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove even if the instance is running")
	cmd.Flags().BoolVar(&removeImage, "image", false, "Also remove the app's image")

	return cmd
}

func runRemove(cmd *cobra.Command, name string, force, removeImage bool) error {
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

	if app.Status == model.StatusRunning && !force {
		return model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("app %q is still running — stop it first or use --force", name),
		)
	}

	VerboseLog("removing container %s", app.Container.ContainerID)
	if err := docker.RemoveContainer(ctx, cli, app.Container.ContainerID, force); err != nil {
		return err
	}

	imageRemoved := false
	if removeImage {
		VerboseLog("removing image %s", app.Image)
		if err := docker.RemoveImage(ctx, cli, app.Image, force); err != nil {
			return err
		}
		imageRemoved = true
	}

	if IsJSONOutput() {
		result := map[string]interface{}{
			"app":          name,
			"removed":      true,
			"imageRemoved": imageRemoved,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(os.Stdout, string(data))
	} else {
		fmt.Printf("Removed app %q\n", name)
		if imageRemoved {
			fmt.Printf("  image %s removed\n", app.Image)
		}
	}

	return nil
}
