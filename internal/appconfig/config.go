// Package appconfig handles loading and resolution of the optional
// dashboard-container.json project configuration file.
//
// The file uses JSONC (JSON with Comments), so this package uses
// github.com/tidwall/jsonc to strip comments before parsing with the
// standard encoding/json library.
//
// Resolution layers the configuration sources, highest precedence first:
//
//	CLI flags > environment variables > project config file > defaults
//
// The defaults are the launch contract's original hard-coded values
// (port 8501, bind 0.0.0.0, streamlit serve command), so a project with
// no config file behaves exactly like the original packaging recipe.
package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// ConfigFileName is the conventional project configuration filename.
// A dot-prefixed variant is also recognized for projects that prefer
// hidden tool configuration.
const ConfigFileName = "dashboard-container.json"

// EnvPort and EnvBindAddress are the environment variables that override
// the listening port and bind address without touching the project file.
const (
	EnvPort        = "DASHBOARD_PORT"
	EnvBindAddress = "DASHBOARD_ADDRESS"
)

// RawConfig represents the raw JSON structure of dashboard-container.json.
// All fields are optional; zero values mean "use the default".
type RawConfig struct {
	// Name is the app instance name. Defaults to the sanitized project
	// directory name.
	Name string `json:"name,omitempty"`

	// BaseImage is the base runtime environment identifier.
	BaseImage string `json:"baseImage,omitempty"`

	// EntryPoint is the entry point filename, relative to the project
	// directory.
	EntryPoint string `json:"entrypoint,omitempty"`

	// Requirements is the dependency manifest filename, relative to the
	// project directory.
	Requirements string `json:"requirements,omitempty"`

	// Workdir is the in-image working directory.
	Workdir string `json:"workdir,omitempty"`

	// ServeCommand is the serve command prefix, e.g. ["streamlit", "run"].
	ServeCommand []string `json:"serveCommand,omitempty"`

	// Port is the listening port. 0 means default (8501).
	Port int `json:"port,omitempty"`

	// Address is the in-container bind address. Empty means default
	// (0.0.0.0).
	Address string `json:"address,omitempty"`

	// Tag is an explicit image tag. Empty means "<name>:latest".
	Tag string `json:"tag,omitempty"`

	// ContainerEnv sets environment variables inside the container
	// instance at launch time.
	ContainerEnv map[string]string `json:"containerEnv,omitempty"`
}

// Find locates the project configuration file in the given directory.
// It checks "dashboard-container.json" first, then the dot-prefixed
// variant. Returns an empty string (and no error) when neither exists —
// the config file is optional.
func Find(projectDir string) string {
	for _, name := range []string{ConfigFileName, "." + ConfigFileName} {
		path := filepath.Join(projectDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads a dashboard-container.json file, strips JSONC comments, and
// parses it into a RawConfig.
//
// Returns a CLIError with ExitProjectNotFound if the file does not exist.
func Load(path string) (*RawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitProjectNotFound,
				fmt.Sprintf("project config not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// parsing. Tool configuration files commonly carry comments.
	cleanJSON := jsonc.ToJSON(data)

	var raw RawConfig
	if err := json.Unmarshal(cleanJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse project config at %s: %w", path, err)
	}

	return &raw, nil
}

// Resolve combines a (possibly nil) RawConfig with the contract defaults
// and the project directory to produce a validated BuildSpec.
//
// The projectDir must be an absolute path; it becomes the build context.
// Environment variable overrides are NOT applied here — callers layer
// them (and CLI flags) on top via ApplyEnvOverrides, keeping precedence
// explicit at the call site.
func Resolve(projectDir string, raw *RawConfig) (*model.BuildSpec, error) {
	if raw == nil {
		raw = &RawConfig{}
	}

	name := raw.Name
	if name == "" {
		name = SanitizeAppName(filepath.Base(projectDir))
	}

	spec := &model.BuildSpec{
		AppName:        name,
		ContextDir:     projectDir,
		BaseImage:      stringOr(raw.BaseImage, model.DefaultBaseImage),
		Workdir:        stringOr(raw.Workdir, model.DefaultWorkdir),
		ManifestFile:   stringOr(raw.Requirements, model.DefaultManifestFile),
		EntryPointFile: stringOr(raw.EntryPoint, model.DefaultEntryPointFile),
		ServeCommand:   raw.ServeCommand,
		Tag:            raw.Tag,
		Launch: model.LaunchConfig{
			Port:        raw.Port,
			BindAddress: raw.Address,
		},
	}

	if len(spec.ServeCommand) == 0 {
		spec.ServeCommand = model.DefaultServeCommand()
	}
	if spec.Launch.Port == 0 {
		spec.Launch.Port = model.DefaultPort
	}
	if spec.Launch.BindAddress == "" {
		spec.Launch.BindAddress = model.DefaultBindAddress
	}

	if err := spec.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid project configuration", err)
	}

	return spec, nil
}

// ApplyEnvOverrides overlays DASHBOARD_PORT and DASHBOARD_ADDRESS onto a
// launch configuration. Unset or empty variables leave the existing
// values untouched; a malformed port is an error rather than a silent
// fallback.
func ApplyEnvOverrides(launch *model.LaunchConfig) error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvPort, v, err)
		}
		launch.Port = port
	}

	if v := os.Getenv(EnvBindAddress); v != "" {
		launch.BindAddress = v
	}

	return launch.Validate()
}

// invalidNameChars matches every character that is not allowed in an app
// name, for sanitization.
var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// SanitizeAppName converts an arbitrary string (typically a directory
// name) into a valid app name: lowercase, invalid characters replaced by
// hyphens, leading/trailing hyphens trimmed.
func SanitizeAppName(s string) string {
	name := strings.ToLower(s)
	name = invalidNameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "dashboard"
	}
	return name
}

// stringOr returns v if non-empty, otherwise def.
func stringOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
