package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/dashboard-container/internal/docker"
	"github.com/shinji-kodama/dashboard-container/internal/dockerfile"
	"github.com/shinji-kodama/dashboard-container/internal/gitmeta"
)

// NewBuildCommand creates the 'build' subcommand.
// It verifies the project, generates the Dockerfile, and builds the
// dashboard image.
func NewBuildCommand() *cobra.Command {
	var (
		projectDir string
		name       string
		baseImage  string
		tag        string
		port       int
		address    string
		noCache    bool
		pull       bool
		skipVerify bool
		printOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the dashboard image for a project",
		Long: `Build a container image for the project's dashboard.

The build performs, in order:
  1. project resolution (config file, environment, flags)
  2. import verification: every module the entry point imports must
     resolve to a dependency manifest entry
  3. Dockerfile generation (manifest install layer before the entry
     point copy, so code edits never invalidate the dependency layer)
  4. docker build

With --print the generated Dockerfile is written to stdout and no
image is built.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, buildParams{
				projectDir: projectDir,
				overrides: specOverrides{
					name:      name,
					baseImage: baseImage,
					tag:       tag,
					port:      port,
					address:   address,
				},
				noCache:    noCache,
				pull:       pull,
				skipVerify: skipVerify,
				printOnly:  printOnly,
			})
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "Project directory containing the entry point and manifest")
	cmd.Flags().StringVar(&name, "name", "", "App name (default: sanitized project directory name)")
	cmd.Flags().StringVar(&baseImage, "base-image", "", "Base runtime image (default: python:3.11-slim)")
	cmd.Flags().StringVar(&tag, "tag", "", "Image tag (default: <name>:latest)")
	cmd.Flags().IntVar(&port, "port", 0, "Listening port baked into the image (default: 8501)")
	cmd.Flags().StringVar(&address, "address", "", "Bind address baked into the image (default: 0.0.0.0)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the docker layer cache")
	cmd.Flags().BoolVar(&pull, "pull", false, "Always pull a newer base image")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip entry point import verification")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the generated Dockerfile instead of building")

	return cmd
}

// buildParams bundles the build command's inputs so runBuild stays
// testable without a cobra flag set.
type buildParams struct {
	projectDir string
	overrides  specOverrides
	noCache    bool
	pull       bool
	skipVerify bool
	printOnly  bool
}

func runBuild(cmd *cobra.Command, params buildParams) error {
	spec, _, err := resolveProject(params.projectDir, params.overrides)
	if err != nil {
		return err
	}

	if params.skipVerify {
		VerboseLog("import verification skipped by flag")
	} else {
		if err := verifyProject(spec); err != nil {
			return err
		}
	}

	content, err := dockerfile.Generate(spec)
	if err != nil {
		return err
	}

	if params.printOnly {
		fmt.Fprint(cmd.OutOrStdout(), string(content))
		return nil
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(cmd.Context()); err != nil {
		return err
	}

	VerboseLog("building image %s from context %s", spec.ImageTag(), spec.ContextDir)
	err = docker.BuildImage(cmd.Context(), spec, content, docker.BuildOptions{
		NoCache: params.noCache,
		Pull:    params.pull,
	})
	if err != nil {
		return err
	}

	// Provenance is informational only; a non-Git context builds fine.
	vcs := gitmeta.Describe(spec.ContextDir)

	if IsJSONOutput() {
		result := map[string]interface{}{
			"app":   spec.AppName,
			"image": spec.ImageTag(),
			"port":  spec.Launch.Port,
		}
		if ref := vcs.Ref(); ref != "" {
			result["vcsRef"] = ref
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(os.Stdout, string(data))
	} else {
		fmt.Printf("Built image %s for app %q\n", spec.ImageTag(), spec.AppName)
		if ref := vcs.Ref(); ref != "" {
			fmt.Printf("  source: %s\n", ref)
		}
		fmt.Printf("  run it with: dashboard-container run --project %s\n", params.projectDir)
	}

	return nil
}
