package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVerify_AllResolvable verifies the happy path of the manifest
// invariant: every third-party import has a manifest entry, including one
// reached through the module→distribution alias table (yaml → PyYAML).
func TestVerify_AllResolvable(t *testing.T) {
	m, err := ParseBytes([]byte("streamlit==1.30.0\nPyYAML>=6.0\n"))
	require.NoError(t, err)

	imports := []string{"os", "pathlib", "streamlit", "yaml"}

	missing := Verify(m, imports)
	assert.Empty(t, missing, "all imports should resolve")
}

// TestVerify_MissingDependency verifies that an import with no manifest
// entry is reported, with the distribution name it was expected under.
func TestVerify_MissingDependency(t *testing.T) {
	m, err := ParseBytes([]byte("streamlit==1.30.0\n"))
	require.NoError(t, err)

	// ScanImports returns sorted module names; Verify preserves that
	// order, so the missing list comes back sorted too.
	imports := []string{"requests", "streamlit", "yaml"}

	missing := Verify(m, imports)
	require.Len(t, missing, 2)

	assert.Equal(t, "requests", missing[0].Module)
	assert.Equal(t, "requests", missing[0].Distribution)
	assert.Equal(t, "yaml", missing[1].Module)
	assert.Equal(t, "pyyaml", missing[1].Distribution)
}

// TestVerify_CommentedImport verifies the scan-then-verify pipeline on an
// entry point whose imports carry trailing comments: the commented import
// must still be seen and reported as missing.
func TestVerify_CommentedImport(t *testing.T) {
	m, err := ParseBytes([]byte("streamlit==1.30.0\n"))
	require.NoError(t, err)

	imports := ScanImportsBytes([]byte("import streamlit\nimport pandas  # data wrangling\n"))

	missing := Verify(m, imports)
	require.Len(t, missing, 1)
	assert.Equal(t, "pandas", missing[0].Module)
}

// TestVerify_StdlibExcluded verifies that standard-library imports never
// require a manifest entry.
func TestVerify_StdlibExcluded(t *testing.T) {
	m, err := ParseBytes([]byte("streamlit\n"))
	require.NoError(t, err)

	imports := []string{"json", "os", "pathlib", "subprocess", "typing", "__future__"}

	assert.Empty(t, Verify(m, imports))
}

// TestDistributionForModule verifies alias resolution and the normalized
// identity fallback.
func TestDistributionForModule(t *testing.T) {
	tests := []struct {
		module string
		want   string
	}{
		{"yaml", "pyyaml"},
		{"PIL", "pillow"},
		{"sklearn", "scikit-learn"},
		{"cv2", "opencv-python"},
		{"requests", "requests"},
		{"My_Module", "my-module"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DistributionForModule(tt.module), "module %q", tt.module)
	}
}

// TestFormatMissing verifies the human-readable rendering used in the
// build failure message, including the alias annotation.
func TestFormatMissing(t *testing.T) {
	missing := []MissingDependency{
		{Module: "requests", Distribution: "requests"},
		{Module: "yaml", Distribution: "pyyaml"},
	}

	assert.Equal(t, `requests, yaml (provided by "pyyaml")`, FormatMissing(missing))
}
