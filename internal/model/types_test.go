package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseAppStatus verifies that valid status strings parse to the
// expected AppStatus values and that invalid strings are rejected.
func TestParseAppStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AppStatus
		wantErr bool
	}{
		{name: "running", input: "running", want: StatusRunning},
		{name: "exited", input: "exited", want: StatusExited},
		{name: "not started", input: "not-started", want: StatusNotStarted},
		{name: "case insensitive", input: "RUNNING", want: StatusRunning},
		{name: "unknown", input: "restarting", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAppStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestStatusFromDockerState verifies the mapping from raw Docker container
// states onto the three-state lifecycle. There is no RESTARTING state in
// the lifecycle, so every terminal Docker state must map to EXITED.
func TestStatusFromDockerState(t *testing.T) {
	tests := []struct {
		dockerState string
		want        AppStatus
	}{
		{"running", StatusRunning},
		{"created", StatusNotStarted},
		{"exited", StatusExited},
		{"dead", StatusExited},
		{"removing", StatusExited},
		// Paused containers still have a live process tree.
		{"paused", StatusRunning},
	}

	for _, tt := range tests {
		t.Run(tt.dockerState, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromDockerState(tt.dockerState))
		})
	}
}

// TestDefaultLaunchConfig verifies the contract's default network
// configuration: port 8501, bound to all interfaces.
func TestDefaultLaunchConfig(t *testing.T) {
	cfg := DefaultLaunchConfig()
	assert.Equal(t, 8501, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.BindAddress)
	assert.NoError(t, cfg.Validate())
}

// TestLaunchConfigValidate verifies range and presence checks for the
// externalized launch configuration.
func TestLaunchConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LaunchConfig
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultLaunchConfig()},
		{name: "custom port", cfg: LaunchConfig{Port: 9000, BindAddress: "0.0.0.0"}},
		{name: "port zero", cfg: LaunchConfig{Port: 0, BindAddress: "0.0.0.0"}, wantErr: true},
		{name: "port too large", cfg: LaunchConfig{Port: 70000, BindAddress: "0.0.0.0"}, wantErr: true},
		{name: "empty address", cfg: LaunchConfig{Port: 8501}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// makeValidBuildSpec returns a BuildSpec that passes validation,
// for use as a baseline in mutation-style tests.
func makeValidBuildSpec() BuildSpec {
	return BuildSpec{
		AppName:        "netdash",
		ContextDir:     "/tmp/netdash",
		BaseImage:      DefaultBaseImage,
		Workdir:        DefaultWorkdir,
		ManifestFile:   DefaultManifestFile,
		EntryPointFile: DefaultEntryPointFile,
		ServeCommand:   DefaultServeCommand(),
		Launch:         DefaultLaunchConfig(),
	}
}

// TestBuildSpecValidate verifies that each required field is enforced
// by mutating one field at a time from a known-good baseline.
func TestBuildSpecValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BuildSpec)
	}{
		{name: "empty app name", mutate: func(s *BuildSpec) { s.AppName = "" }},
		{name: "bad app name", mutate: func(s *BuildSpec) { s.AppName = "net_dash!" }},
		{name: "empty context", mutate: func(s *BuildSpec) { s.ContextDir = "" }},
		{name: "empty base image", mutate: func(s *BuildSpec) { s.BaseImage = "" }},
		{name: "relative workdir", mutate: func(s *BuildSpec) { s.Workdir = "app" }},
		{name: "empty manifest", mutate: func(s *BuildSpec) { s.ManifestFile = "" }},
		{name: "empty entry point", mutate: func(s *BuildSpec) { s.EntryPointFile = "" }},
		{name: "manifest escapes context", mutate: func(s *BuildSpec) { s.ManifestFile = "../requirements.txt" }},
		{name: "entry point escapes context", mutate: func(s *BuildSpec) { s.EntryPointFile = "../../app.py" }},
		{name: "empty serve command", mutate: func(s *BuildSpec) { s.ServeCommand = nil }},
		{name: "bad port", mutate: func(s *BuildSpec) { s.Launch.Port = -1 }},
	}

	// Baseline must be valid, otherwise the mutations prove nothing.
	valid := makeValidBuildSpec()
	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := makeValidBuildSpec()
			tt.mutate(&spec)
			assert.Error(t, spec.Validate())
		})
	}
}

// TestBuildSpecImageTag verifies the "<appName>:latest" default and that
// an explicit tag takes precedence.
func TestBuildSpecImageTag(t *testing.T) {
	spec := makeValidBuildSpec()
	assert.Equal(t, "netdash:latest", spec.ImageTag())

	spec.Tag = "registry.example.com/netdash:v2"
	assert.Equal(t, "registry.example.com/netdash:v2", spec.ImageTag())
}

// TestBuildSpecServeArgs verifies the exact shape of the process invocation
// vector: serve command, entry point, then the port and address flags.
func TestBuildSpecServeArgs(t *testing.T) {
	spec := makeValidBuildSpec()

	args := spec.ServeArgs()

	assert.Equal(t, []string{
		"streamlit", "run", "app.py",
		"--server.port", "8501",
		"--server.address", "0.0.0.0",
	}, args)
}

// TestBuildSpecServeArgs_CustomLaunch verifies that overridden launch
// values flow through into the argument vector.
func TestBuildSpecServeArgs_CustomLaunch(t *testing.T) {
	spec := makeValidBuildSpec()
	spec.ServeCommand = []string{"panel", "serve"}
	spec.EntryPointFile = "dashboard.py"
	spec.Launch = LaunchConfig{Port: 9100, BindAddress: "127.0.0.1"}

	args := spec.ServeArgs()

	assert.Equal(t, []string{
		"panel", "serve", "dashboard.py",
		"--server.port", "9100",
		"--server.address", "127.0.0.1",
	}, args)
}

// TestValidateAppName verifies the app name rules: lowercase
// alphanumeric plus hyphens, starting and ending alphanumeric. Uppercase
// is rejected because the name becomes the image repository component of
// the default tag, and docker build refuses uppercase references.
func TestValidateAppName(t *testing.T) {
	valid := []string{"netdash", "net-dash", "a", "app2", "2app"}
	for _, name := range valid {
		assert.NoError(t, ValidateAppName(name), "name %q should be valid", name)
	}

	invalid := []string{"", "-netdash", "netdash-", "net_dash", "net dash", "net/dash", "MyApp", "netDash"}
	for _, name := range invalid {
		assert.Error(t, ValidateAppName(name), "name %q should be invalid", name)
	}
}

// TestCLIError verifies the error message format, unwrapping behavior,
// and exit code propagation of CLIError.
func TestCLIError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := WrapCLIError(ExitDockerNotRunning, "Docker daemon is not responding", underlying)

	assert.Equal(t, "Docker daemon is not responding: connection refused", err.Error())
	assert.Equal(t, ExitDockerNotRunning, err.Code)
	assert.True(t, errors.Is(err, underlying), "CLIError should unwrap to the underlying error")

	// Without an underlying error, only the message is shown.
	plain := NewCLIError(ExitAppNotFound, "no such app")
	assert.Equal(t, "no such app", plain.Error())
	assert.Nil(t, plain.Unwrap())
}
