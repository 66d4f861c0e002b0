package gitmeta

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDescribe_NotARepo verifies that a plain directory yields the zero
// Info with no error — provenance is optional.
func TestDescribe_NotARepo(t *testing.T) {
	info := Describe(t.TempDir())

	assert.Empty(t, info.Commit)
	assert.Empty(t, info.Branch)
	assert.False(t, info.Dirty)
	assert.Empty(t, info.Ref())
}

// initRepo creates a Git repository with one commit in a temp directory.
// The test is skipped when git is not installed.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		// Identity config via env avoids touching global git config.
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("import streamlit\n"), 0o644))
	run("add", "app.py")
	run("commit", "-m", "initial")

	return dir
}

// TestDescribe_CleanRepo verifies commit and branch extraction from a
// clean checkout.
func TestDescribe_CleanRepo(t *testing.T) {
	dir := initRepo(t)

	info := Describe(dir)

	require.NotEmpty(t, info.Commit)
	assert.Len(t, info.Commit, 40, "commit should be a full SHA")
	assert.Equal(t, "main", info.Branch)
	assert.False(t, info.Dirty)
	assert.Equal(t, info.Commit, info.Ref())
}

// TestDescribe_DirtyRepo verifies the dirty flag and the "-dirty" ref
// suffix when the tree has uncommitted changes.
func TestDescribe_DirtyRepo(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.py"), []byte("x = 1\n"), 0o644))

	info := Describe(dir)

	assert.True(t, info.Dirty)
	assert.Equal(t, info.Commit+"-dirty", info.Ref())
}
