// Package gitmeta provides best-effort Git metadata about a build context
// directory. The metadata (commit, branch, dirty flag) is recorded as
// build provenance on images and container instances.
//
// Design decisions:
//   - We shell out to `git` rather than using a Go Git library because
//     the probe is trivial (three read-only queries) and must match the
//     CLI's view of the checkout exactly.
//   - A context directory that is not a Git checkout is not an error:
//     the launch contract does not require version control, so every
//     probe failure degrades to "no metadata".
package gitmeta

import (
	"os/exec"
	"strings"
)

// Info holds the Git state of a build context directory at build time.
// The zero value means "not a Git checkout".
type Info struct {
	// Commit is the full SHA of HEAD.
	Commit string

	// Branch is the current branch name, or empty for a detached HEAD.
	Branch string

	// Dirty reports whether the working tree had uncommitted changes.
	// A dirty build context means the commit SHA does not fully describe
	// the image contents.
	Dirty bool
}

// Ref returns the provenance reference recorded in labels: the commit
// SHA, suffixed with "-dirty" when the tree had uncommitted changes.
// Empty when the directory was not a Git checkout.
func (i Info) Ref() string {
	if i.Commit == "" {
		return ""
	}
	if i.Dirty {
		return i.Commit + "-dirty"
	}
	return i.Commit
}

// Describe probes the Git state of dir. All failures (git missing, dir
// not a repository) return the zero Info and no error — provenance is
// strictly optional.
func Describe(dir string) Info {
	commit, err := runGit(dir, "rev-parse", "HEAD")
	if err != nil || commit == "" {
		return Info{}
	}

	info := Info{Commit: commit}

	// Branch: "HEAD" is printed for a detached HEAD, which we report as
	// no branch.
	if branch, err := runGit(dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil && branch != "HEAD" {
		info.Branch = branch
	}

	// Any output from status --porcelain means uncommitted changes.
	if status, err := runGit(dir, "status", "--porcelain"); err == nil && status != "" {
		info.Dirty = true
	}

	return info
}

// runGit executes a git subcommand in dir and returns its trimmed stdout.
func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
