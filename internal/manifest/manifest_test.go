package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// TestParseBytes_Basic verifies parsing of a realistic requirements file
// with pins, ranges, comments, and blank lines.
func TestParseBytes_Basic(t *testing.T) {
	input := `# Dashboard dependencies
streamlit==1.30.0

PyYAML>=6.0,<7  # config parsing
requests
`

	m, err := ParseBytes([]byte(input))
	require.NoError(t, err)
	require.Len(t, m.Requirements, 3)

	assert.Equal(t, "streamlit", m.Requirements[0].Name)
	assert.Equal(t, "==1.30.0", m.Requirements[0].Constraint)
	assert.Equal(t, 2, m.Requirements[0].Line)

	assert.Equal(t, "PyYAML", m.Requirements[1].Name)
	assert.Equal(t, ">=6.0,<7", m.Requirements[1].Constraint)

	assert.Equal(t, "requests", m.Requirements[2].Name)
	assert.Empty(t, m.Requirements[2].Constraint)
}

// TestParseBytes_ExtrasAndMarkers verifies extras brackets and PEP 508
// environment markers are captured.
func TestParseBytes_ExtrasAndMarkers(t *testing.T) {
	input := `requests[security,socks]>=2.28
uvloop>=0.17; sys_platform != "win32"
`

	m, err := ParseBytes([]byte(input))
	require.NoError(t, err)
	require.Len(t, m.Requirements, 2)

	assert.Equal(t, []string{"security", "socks"}, m.Requirements[0].Extras)
	assert.Equal(t, ">=2.28", m.Requirements[0].Constraint)

	assert.Equal(t, "uvloop", m.Requirements[1].Name)
	assert.Equal(t, `sys_platform != "win32"`, m.Requirements[1].Marker)
}

// TestParseBytes_Directives verifies that pip option/include lines are
// retained as opaque directives, not parsed as requirements.
func TestParseBytes_Directives(t *testing.T) {
	input := `-r base.txt
--index-url https://pypi.example.com/simple
streamlit
`

	m, err := ParseBytes([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"-r base.txt", "--index-url https://pypi.example.com/simple"}, m.Directives)
	require.Len(t, m.Requirements, 1)
	assert.Equal(t, "streamlit", m.Requirements[0].Name)
}

// TestParseBytes_LineContinuation verifies backslash continuations are
// folded into one logical requirement line.
func TestParseBytes_LineContinuation(t *testing.T) {
	input := "pandas \\\n>=2.0\n"

	m, err := ParseBytes([]byte(input))
	require.NoError(t, err)
	require.Len(t, m.Requirements, 1)
	assert.Equal(t, "pandas", m.Requirements[0].Name)
	assert.Equal(t, ">=2.0", m.Requirements[0].Constraint)
}

// TestParseBytes_Invalid verifies that malformed lines produce a
// CLIError with the manifest-invalid exit code.
func TestParseBytes_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "bad constraint operator", input: "streamlit @@ 1.0\n"},
		{name: "leading garbage", input: "==1.0\n"},
		{name: "space separated version", input: "streamlit 1.30\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.input))
			require.Error(t, err)

			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr), "error should be a CLIError")
			assert.Equal(t, model.ExitManifestInvalid, cliErr.Code)
		})
	}
}

// TestParse_MissingFile verifies the not-found exit code when the
// manifest file does not exist on disk.
func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "requirements.txt"))
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitProjectNotFound, cliErr.Code)
}

// TestParse_FromDisk verifies the file-reading path end to end.
func TestParse_FromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("streamlit==1.30.0\npyyaml\n"), 0o644))

	m, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path)
	assert.Equal(t, []string{"streamlit", "pyyaml"}, m.Names())
}

// TestNormalizeName verifies PEP 503 normalization: case folding and
// separator collapsing.
func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PyYAML", "pyyaml"},
		{"python-dateutil", "python-dateutil"},
		{"python_dateutil", "python-dateutil"},
		{"zope.interface", "zope-interface"},
		{"A__b--c..d", "a-b-c-d"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.input), "input %q", tt.input)
	}
}

// TestManifestHas verifies name lookup under normalization: the manifest
// spelling and the query spelling may differ and still match.
func TestManifestHas(t *testing.T) {
	m, err := ParseBytes([]byte("PyYAML>=6.0\nscikit_learn\n"))
	require.NoError(t, err)

	assert.True(t, m.Has("pyyaml"))
	assert.True(t, m.Has("PyYAML"))
	assert.True(t, m.Has("scikit-learn"))
	assert.False(t, m.Has("streamlit"))
}

// TestRequirementString verifies round-trip rendering of a requirement
// back into manifest syntax.
func TestRequirementString(t *testing.T) {
	req := Requirement{
		Name:       "requests",
		Extras:     []string{"security"},
		Constraint: ">=2.28",
		Marker:     `python_version >= "3.8"`,
	}
	assert.Equal(t, `requests[security]>=2.28; python_version >= "3.8"`, req.String())
}
