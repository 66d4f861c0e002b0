// Package compose generates a Docker Compose service definition for a
// built dashboard image.
//
// The launch contract itself contains no supervision: an exited instance
// stays exited. Users who want restart-on-failure are expected to hand
// the image to an orchestrator, and a Compose file is the smallest such
// handoff. The generated service pins restart to "no" so the file
// documents the contract's own semantics until the user opts into more.
package compose

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// fileHeader is prepended to the generated YAML so readers know the file
// is tool-output.
const fileHeader = "# Generated by dashboard-container export. Edit freely — the tool does not read this back.\n"

// composeFile represents the structure of the generated docker-compose
// YAML, serialized via yaml.v3.
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

// composeService is the single dashboard service definition.
type composeService struct {
	// Image is the built image tag; the Compose user does not rebuild.
	Image string `yaml:"image"`

	// Ports holds the single "hostPort:containerPort" publication. The
	// entries are yaml.Nodes so they render double-quoted: a plain
	// 9001:8501 scalar is a YAML 1.1 sexagesimal integer to some compose
	// parsers.
	Ports []yaml.Node `yaml:"ports"`

	// Environment carries the container environment in "KEY=value" form,
	// sorted for deterministic output.
	Environment []string `yaml:"environment,omitempty"`

	// Labels carries the dashboard.* management labels so instances
	// started via Compose remain discoverable by `dashboard-container list`.
	Labels map[string]string `yaml:"labels"`

	// Restart is always "no": supervision is the orchestrator user's
	// explicit choice, not a default this tool smuggles in.
	Restart string `yaml:"restart"`
}

// Generate renders a docker-compose YAML for one app instance.
//
// Parameters:
//   - spec: the build spec the image was produced from (service name,
//     image tag, container port)
//   - hostPort: the host-side port to publish to
//   - labels: the dashboard.* management labels for the service
//   - env: container environment variables
//
// Returns the YAML bytes with a header comment.
func Generate(spec *model.BuildSpec, hostPort int, labels map[string]string, env map[string]string) ([]byte, error) {
	svc := composeService{
		Image:   spec.ImageTag(),
		Ports:   []yaml.Node{quotedScalar(fmt.Sprintf("%d:%d", hostPort, spec.Launch.Port))},
		Labels:  labels,
		Restart: "no",
	}

	// Environment entries are emitted sorted so the output is
	// deterministic and diff-friendly.
	if len(env) > 0 {
		keys := make([]string, 0, len(env))
		for k := range env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			svc.Environment = append(svc.Environment, k+"="+env[k])
		}
	}

	out := composeFile{
		Services: map[string]composeService{
			spec.AppName: svc,
		},
	}

	var b strings.Builder
	b.WriteString(fileHeader)

	encoder := yaml.NewEncoder(&b)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to serialize compose file: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize compose file: %w", err)
	}

	return []byte(b.String()), nil
}

// quotedScalar wraps a string in a YAML node that always renders
// double-quoted, regardless of what the plain scalar would parse as.
func quotedScalar(value string) yaml.Node {
	return yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.DoubleQuotedStyle,
		Value: value,
	}
}

// Write saves generated compose YAML to the given path with standard
// file permissions.
func Write(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write compose file %s: %w", path, err)
	}
	return nil
}
