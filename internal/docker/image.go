// image.go implements image-level operations: building the dashboard
// image from a generated Dockerfile, checking for its existence, and
// removing it.
//
// The build shells out to the docker CLI rather than using the SDK's
// ImageBuild endpoint, because the CLI provides BuildKit, build-context
// tar handling, and progress output for free, and build failures surface
// with the exact error text users would see running docker by hand. All
// other image operations use the SDK.
package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// BuildOptions controls optional docker build behavior.
type BuildOptions struct {
	// NoCache disables the layer cache entirely, forcing every step to
	// re-run. Note that the generated Dockerfile already disables pip's
	// download cache unconditionally; this flag is the bigger hammer for
	// full rebuilds.
	NoCache bool

	// Pull always attempts to pull a newer version of the base image.
	Pull bool
}

// BuildImage builds a container image from the given Dockerfile content
// against spec.ContextDir as the build context.
//
// The Dockerfile is written to a temporary file outside the context so
// it never pollutes the project directory or the image itself. Failure
// is FATAL to the build in the contract's sense: docker produces no
// (tagged) image, and the error carries docker's own output.
func BuildImage(ctx context.Context, spec *model.BuildSpec, dockerfile []byte, opts BuildOptions) error {
	// Write the generated Dockerfile to a temp file. docker build accepts
	// a Dockerfile path outside the build context via -f.
	tmpDir, err := os.MkdirTemp("", "dashboard-container-build-")
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to create temp build directory", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	dockerfilePath := filepath.Join(tmpDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, dockerfile, 0o644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to write generated Dockerfile", err)
	}

	args := []string{"build", "-t", spec.ImageTag(), "-f", dockerfilePath}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	if opts.Pull {
		args = append(args, "--pull")
	}
	args = append(args, spec.ContextDir)

	cmd := exec.CommandContext(ctx, "docker", args...)

	// Stream build progress to the user's terminal. Build output is the
	// primary feedback during a multi-minute dependency installation, and
	// on failure docker's own error text is what the user needs to see.
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("docker build failed for image %q", spec.ImageTag()),
			err,
		)
	}

	return nil
}

// ImageExists reports whether an image with the given tag exists locally.
func ImageExists(ctx context.Context, cli *Client, tag string) (bool, error) {
	// Filter server-side on the reference so we don't page through every
	// local image.
	filterArgs := filters.NewArgs(filters.Arg("reference", tag))

	images, err := cli.Inner().ImageList(ctx, image.ListOptions{Filters: filterArgs})
	if err != nil {
		return false, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker images",
			err,
		)
	}

	return len(images) > 0, nil
}

// RemoveImage removes a local image by tag. When force is true, the
// image is removed even if (stopped) containers still reference it.
func RemoveImage(ctx context.Context, cli *Client, tag string, force bool) error {
	_, err := cli.Inner().ImageRemove(ctx, tag, image.RemoveOptions{Force: force})
	if err != nil {
		// "No such image" is not worth failing a cleanup over, but we
		// cannot distinguish it portably without string matching, which
		// the SDK discourages. Let the caller decide via the error.
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove image %q", tag),
			err,
		)
	}
	return nil
}

// shortID truncates a container or image ID for display, matching the
// docker CLI's 12-character convention.
func shortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
