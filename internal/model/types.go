// Package model defines the domain types for the dashboard-container CLI.
//
// All entities in this package represent the artifacts of the launch
// contract: the build specification that produces an image, the launch
// configuration that produces a container instance, and the instance
// lifecycle state.
//
// Key design decision: all instance state is persisted via Docker container
// labels, so these types are transient representations reconstructed from
// Docker API queries at runtime.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// AppStatus represents the lifecycle state of a dashboard container instance.
// The state transitions are strictly linear and terminal:
//
//	NOT_STARTED → RUNNING → EXITED
//
// There is no RESTARTING or RECOVERING state: when the serving process
// exits, the instance is terminal. Supervision, if wanted, belongs to an
// external orchestrator, not to this tool.
type AppStatus string

const (
	// StatusNotStarted indicates an image exists for the app but no
	// container instance has been started yet.
	StatusNotStarted AppStatus = "not-started"

	// StatusRunning indicates the container instance is running and the
	// serving process is alive.
	StatusRunning AppStatus = "running"

	// StatusExited indicates the serving process has exited (crash or
	// normal exit) and the container instance is terminal.
	StatusExited AppStatus = "exited"
)

// String returns the string representation of AppStatus.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (s AppStatus) String() string {
	return string(s)
}

// IsValid checks whether the AppStatus value is one of the
// predefined valid states.
func (s AppStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusRunning, StatusExited:
		return true
	default:
		return false
	}
}

// ParseAppStatus converts a string to an AppStatus.
// Returns an error if the string does not match any valid status.
func ParseAppStatus(s string) (AppStatus, error) {
	status := AppStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid app status: %q (valid: not-started, running, exited)", s)
	}
	return status, nil
}

// StatusFromDockerState maps a Docker container state string (as returned
// by the Docker API, e.g. "running", "exited", "created", "dead") onto the
// three-state lifecycle of the launch contract.
//
// "created" maps to NOT_STARTED because a created-but-never-started
// container has not yet entered the RUNNING state. Every other non-running
// state ("exited", "dead", "removing") is terminal and maps to EXITED.
func StatusFromDockerState(state string) AppStatus {
	switch state {
	case "running", "restarting", "paused":
		// "restarting" and "paused" should not occur for containers this
		// tool creates (no restart policy, no pause operation), but if an
		// operator pauses an instance manually the process still exists.
		return StatusRunning
	case "created":
		return StatusNotStarted
	default:
		return StatusExited
	}
}

// LaunchConfig holds the network configuration for the serving process.
// These were hard-coded literals in the original packaging recipe; they are
// externalized here as a configuration structure with the original values
// as defaults, so changing network exposure does not require an image
// rebuild.
type LaunchConfig struct {
	// Port is the TCP port the serving process listens on inside the
	// container, and the default host port it is published to.
	Port int `json:"port"`

	// BindAddress is the in-container bind address. The default 0.0.0.0
	// (all interfaces) is required for the port to be reachable from
	// outside the container's network namespace.
	BindAddress string `json:"bindAddress"`
}

const (
	// DefaultPort is the default listening port for the dashboard
	// serving process.
	DefaultPort = 8501

	// DefaultBindAddress binds all interfaces. Binding localhost inside a
	// container would make the published port unreachable from the host.
	DefaultBindAddress = "0.0.0.0"
)

// DefaultLaunchConfig returns a LaunchConfig populated with the contract's
// default values (port 8501, bind 0.0.0.0).
func DefaultLaunchConfig() LaunchConfig {
	return LaunchConfig{
		Port:        DefaultPort,
		BindAddress: DefaultBindAddress,
	}
}

// Validate checks the LaunchConfig field values.
func (c *LaunchConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("launch config: port %d out of range (1-65535)", c.Port)
	}
	if c.BindAddress == "" {
		return fmt.Errorf("launch config: bind address must not be empty")
	}
	return nil
}

// BuildSpec describes everything the Image Builder needs to produce an
// immutable image: the base runtime environment, the working directory,
// the two staged files, and the declared port.
type BuildSpec struct {
	// AppName is the logical name of the dashboard app. It is used for
	// the default image tag and container name.
	AppName string `json:"appName"`

	// ContextDir is the absolute path to the build context root — the
	// directory containing the Dependency Manifest and Entry Point File.
	ContextDir string `json:"contextDir"`

	// BaseImage is the base runtime environment identifier
	// (language version + minimal OS layer), e.g. "python:3.11-slim".
	BaseImage string `json:"baseImage"`

	// Workdir is the working directory established inside the image.
	// All staging and the process invocation happen relative to it.
	Workdir string `json:"workdir"`

	// ManifestFile is the Dependency Manifest filename, relative to
	// ContextDir (typically "requirements.txt").
	ManifestFile string `json:"manifestFile"`

	// EntryPointFile is the application entry point filename, relative to
	// ContextDir (typically "app.py"). Its content is opaque to the build:
	// it is copied verbatim and owned entirely by the application.
	EntryPointFile string `json:"entryPointFile"`

	// ServeCommand is the command prefix that serves the entry point,
	// e.g. ["streamlit", "run"]. The full CMD is the prefix followed by
	// the entry point file and the --server.port / --server.address flags.
	ServeCommand []string `json:"serveCommand"`

	// Launch carries the port and bind address baked into the image CMD
	// and declared via EXPOSE.
	Launch LaunchConfig `json:"launch"`

	// Tag is the image tag to build. Defaults to "<appName>:latest".
	Tag string `json:"tag"`
}

const (
	// DefaultBaseImage is the base runtime environment used when the
	// project config does not specify one.
	DefaultBaseImage = "python:3.11-slim"

	// DefaultWorkdir is the in-image working directory.
	DefaultWorkdir = "/app"

	// DefaultManifestFile is the conventional pip manifest filename.
	DefaultManifestFile = "requirements.txt"

	// DefaultEntryPointFile is the conventional dashboard entry point.
	DefaultEntryPointFile = "app.py"
)

// DefaultServeCommand returns the default serve command prefix.
// A fresh slice is returned on every call so callers can append to it
// without aliasing a shared backing array.
func DefaultServeCommand() []string {
	return []string{"streamlit", "run"}
}

// Validate checks the BuildSpec for required fields and obvious
// misconfiguration. Path existence is checked by the builder, not here —
// this validation is pure and filesystem-free.
func (s *BuildSpec) Validate() error {
	if err := ValidateAppName(s.AppName); err != nil {
		return err
	}
	if s.ContextDir == "" {
		return fmt.Errorf("build spec: context directory must not be empty")
	}
	if s.BaseImage == "" {
		return fmt.Errorf("build spec: base image must not be empty")
	}
	if s.Workdir == "" || !strings.HasPrefix(s.Workdir, "/") {
		return fmt.Errorf("build spec: workdir %q must be an absolute path", s.Workdir)
	}
	if s.ManifestFile == "" {
		return fmt.Errorf("build spec: manifest file must not be empty")
	}
	if s.EntryPointFile == "" {
		return fmt.Errorf("build spec: entry point file must not be empty")
	}
	if strings.Contains(s.ManifestFile, "..") || strings.Contains(s.EntryPointFile, "..") {
		return fmt.Errorf("build spec: staged files must live inside the build context")
	}
	if len(s.ServeCommand) == 0 {
		return fmt.Errorf("build spec: serve command must not be empty")
	}
	return s.Launch.Validate()
}

// ImageTag returns the image tag for this spec, applying the
// "<appName>:latest" default when no explicit tag is set.
func (s *BuildSpec) ImageTag() string {
	if s.Tag != "" {
		return s.Tag
	}
	return s.AppName + ":latest"
}

// ServeArgs returns the full process invocation vector baked into the
// image CMD:
//
//	<serveCommand...> <entryPointFile> --server.port <port> --server.address <addr>
//
// The vector shape is fixed by the launch contract; only the values are
// configurable.
func (s *BuildSpec) ServeArgs() []string {
	args := make([]string, 0, len(s.ServeCommand)+5)
	args = append(args, s.ServeCommand...)
	args = append(args, s.EntryPointFile)
	args = append(args, "--server.port", fmt.Sprintf("%d", s.Launch.Port))
	args = append(args, "--server.address", s.Launch.BindAddress)
	return args
}

// AppInstance represents a managed dashboard container instance — the pairing
// of a built image with a (possibly exited) container created from it. This
// is the primary aggregate entity in the domain.
//
// All fields are reconstructed at runtime from Docker container labels.
// There is no persistent state file on disk.
type AppInstance struct {
	// Name is the unique identifier for this app instance.
	// Must contain only alphanumeric characters and hyphens.
	Name string `json:"name"`

	// Image is the image tag the instance was created from.
	Image string `json:"image"`

	// EntryPoint is the entry point filename staged into the image.
	EntryPoint string `json:"entryPoint"`

	// Launch is the network configuration the instance was started with.
	Launch LaunchConfig `json:"launch"`

	// HostPort is the host-side port the container port is published to.
	// Usually equal to Launch.Port unless --auto-port picked another.
	HostPort int `json:"hostPort"`

	// Status is the current lifecycle state of the instance.
	Status AppStatus `json:"status"`

	// VCSRef is the Git commit of the build context at build time, if the
	// context was a Git checkout. Empty otherwise.
	VCSRef string `json:"vcsRef,omitempty"`

	// Container holds runtime information about the Docker container,
	// fetched from the Docker API.
	Container ContainerInfo `json:"container"`

	// CreatedAt is the timestamp when the instance was launched.
	CreatedAt time.Time `json:"createdAt"`
}

// URL returns the host-side address the dashboard is reachable at,
// e.g. "http://localhost:8501".
func (a *AppInstance) URL() string {
	return fmt.Sprintf("http://localhost:%d", a.HostPort)
}

// ContainerInfo holds runtime information about a Docker container.
// This data is fetched dynamically from the Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// State is the raw Docker container state (e.g. "running", "exited").
	State string `json:"state"`

	// ExitCode is the process exit code for exited containers. The launch
	// contract defines no custom mapping: this is whatever the serving
	// process returned.
	ExitCode int `json:"exitCode"`

	// Labels is the full set of Docker labels on the container, including
	// the dashboard.* management labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// appNameRegex validates app names: lowercase alphanumeric + hyphens
// only, must start and end with alphanumeric.
var appNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$|^[a-z0-9]$`)

// ValidateAppName checks if the given name is a valid app instance name.
// Valid names contain only lowercase alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character. Lowercase is
// required because the name doubles as the image repository component in
// the default "<name>:latest" tag, and Docker rejects uppercase
// repository names; the same rule keeps it valid as a container name.
func ValidateAppName(name string) error {
	if name == "" {
		return fmt.Errorf("app name must not be empty")
	}
	if !appNameRegex.MatchString(name) {
		return fmt.Errorf("invalid app name %q: must contain only lowercase alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitProjectNotFound indicates the project directory, entry point
	// file, or dependency manifest was not found.
	ExitProjectNotFound ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitPortUnavailable indicates the requested host port is already
	// bound and --auto-port was not given (or found nothing).
	ExitPortUnavailable ExitCode = 4

	// ExitManifestInvalid indicates the dependency manifest failed to
	// parse, or verification found entry point imports with no matching
	// manifest entry.
	ExitManifestInvalid ExitCode = 5

	// ExitAppNotFound indicates the named app instance does not exist.
	ExitAppNotFound ExitCode = 6

	// ExitStartupFailed indicates the container started but the serving
	// process exited or never began listening within the startup timeout.
	ExitStartupFailed ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
