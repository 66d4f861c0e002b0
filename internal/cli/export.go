package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/dashboard-container/internal/compose"
	"github.com/shinji-kodama/dashboard-container/internal/docker"
	"github.com/shinji-kodama/dashboard-container/internal/gitmeta"
	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// NewExportCommand creates the 'export' subcommand.
// It writes a docker-compose service definition for the project's image,
// the handoff point for users who want external supervision.
func NewExportCommand() *cobra.Command {
	var (
		projectDir string
		name       string
		tag        string
		hostPort   int
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a docker-compose definition for the dashboard",
		Long: `Export a docker-compose service definition for the project's image.

The generated service references the built image (it does not rebuild),
publishes the dashboard port, and carries the management labels so
Compose-launched containers still show up in 'dashboard-container list'.
Restart is pinned to "no"; enabling supervision is an explicit edit.

Use -o - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, projectDir, specOverrides{name: name, tag: tag}, hostPort, output)
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Project directory containing the entry point and manifest")
	cmd.Flags().StringVar(&name, "name", "", "App name (default: sanitized project directory name)")
	cmd.Flags().StringVar(&tag, "tag", "", "Image tag to reference (default: <name>:latest)")
	cmd.Flags().IntVar(&hostPort, "host-port", 0, "Host port to publish to (default: same as container port)")
	cmd.Flags().StringVarP(&output, "output", "o", "docker-compose.yaml", "Output path, or - for stdout")

	return cmd
}

func runExport(cmd *cobra.Command, projectDir string, overrides specOverrides, hostPort int, output string) error {
	spec, raw, err := resolveProject(projectDir, overrides)
	if err != nil {
		return err
	}

	if hostPort == 0 {
		hostPort = spec.Launch.Port
	}

	app := &model.AppInstance{
		Name:       spec.AppName,
		Image:      spec.ImageTag(),
		EntryPoint: spec.EntryPointFile,
		Launch:     spec.Launch,
		HostPort:   hostPort,
		VCSRef:     gitmeta.Describe(spec.ContextDir).Ref(),
		CreatedAt:  time.Now().UTC(),
	}

	data, err := compose.Generate(spec, hostPort, docker.BuildLabels(app), raw.ContainerEnv)
	if err != nil {
		return err
	}

	if output == "-" {
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	}

	if err := compose.Write(output, data); err != nil {
		return err
	}

	if !IsJSONOutput() {
		fmt.Printf("Wrote %s for app %q (image %s)\n", output, spec.AppName, spec.ImageTag())
	}
	return nil
}
