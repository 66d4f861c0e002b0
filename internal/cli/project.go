// project.go holds the shared project resolution and verification logic
// used by the build, run, and export commands.
//
// Resolution layering (highest precedence first) is assembled here:
//
//	CLI flags > environment variables > dashboard-container.json > defaults
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shinji-kodama/dashboard-container/internal/appconfig"
	"github.com/shinji-kodama/dashboard-container/internal/manifest"
	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// specOverrides carries the per-command flag values that can override the
// resolved build spec. Zero values mean "flag not set, keep the resolved
// value".
type specOverrides struct {
	name      string
	baseImage string
	tag       string
	port      int
	address   string
}

// resolveProject turns a project directory argument into a validated
// BuildSpec plus the raw config (for containerEnv), applying the full
// precedence chain.
//
// The directory must exist; a missing directory is ExitProjectNotFound.
func resolveProject(projectDir string, overrides specOverrides) (*model.BuildSpec, *appconfig.RawConfig, error) {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve project directory %q: %w", projectDir, err)
	}

	info, err := os.Stat(absDir)
	if err != nil || !info.IsDir() {
		return nil, nil, model.NewCLIError(
			model.ExitProjectNotFound,
			fmt.Sprintf("project directory not found: %s", absDir),
		)
	}

	// Project config file is optional; absence means all-defaults.
	var raw *appconfig.RawConfig
	if path := appconfig.Find(absDir); path != "" {
		VerboseLog("loading project config from %s", path)
		raw, err = appconfig.Load(path)
		if err != nil {
			return nil, nil, err
		}
	}

	spec, err := appconfig.Resolve(absDir, raw)
	if err != nil {
		return nil, nil, err
	}

	// Environment variables sit between the config file and CLI flags.
	if err := appconfig.ApplyEnvOverrides(&spec.Launch); err != nil {
		return nil, nil, model.WrapCLIError(model.ExitGeneralError, "invalid environment override", err)
	}

	// CLI flags win over everything.
	if overrides.name != "" {
		spec.AppName = overrides.name
	}
	if overrides.baseImage != "" {
		spec.BaseImage = overrides.baseImage
	}
	if overrides.tag != "" {
		spec.Tag = overrides.tag
	}
	if overrides.port != 0 {
		spec.Launch.Port = overrides.port
	}
	if overrides.address != "" {
		spec.Launch.BindAddress = overrides.address
	}

	if err := spec.Validate(); err != nil {
		return nil, nil, model.WrapCLIError(model.ExitGeneralError, "invalid build configuration", err)
	}

	if raw == nil {
		raw = &appconfig.RawConfig{}
	}
	return spec, raw, nil
}

// verifyProject checks that the two staged files exist and that every
// module the entry point imports resolves to a manifest entry.
//
// This runs before any docker command: a build that would produce an
// image whose serving process dies on the first import is refused up
// front, with the missing distributions named.
func verifyProject(spec *model.BuildSpec) error {
	manifestPath := filepath.Join(spec.ContextDir, spec.ManifestFile)
	entryPath := filepath.Join(spec.ContextDir, spec.EntryPointFile)

	if _, err := os.Stat(entryPath); err != nil {
		return model.NewCLIError(
			model.ExitProjectNotFound,
			fmt.Sprintf("entry point file not found: %s", entryPath),
		)
	}

	m, err := manifest.Parse(manifestPath)
	if err != nil {
		return err
	}
	VerboseLog("manifest %s: %d requirements, %d directives",
		spec.ManifestFile, len(m.Requirements), len(m.Directives))

	imports, err := manifest.ScanImports(entryPath)
	if err != nil {
		return err
	}
	VerboseLog("entry point %s imports: %v", spec.EntryPointFile, imports)

	if missing := manifest.Verify(m, imports); len(missing) > 0 {
		return model.NewCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("entry point imports not covered by %s:\n%s",
				spec.ManifestFile, manifest.FormatMissing(missing)),
		)
	}

	return nil
}

// containerEnvList flattens the config's containerEnv map into the
// sorted KEY=value form the Docker API expects. Sorted so that repeated
// launches produce identical container configs.
func containerEnvList(raw *appconfig.RawConfig) []string {
	if len(raw.ContainerEnv) == 0 {
		return nil
	}
	env := make([]string, 0, len(raw.ContainerEnv))
	for k, v := range raw.ContainerEnv {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
