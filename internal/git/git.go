// Package git is the source-control gate for the control plane. It shells out
// to the git binary and exposes exactly what the registry workflow needs: the
// current commit identifier and a clean/dirty signal. Nothing else about the
// repository crosses this boundary.
package git

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// shortHashLen is the number of commit-hash characters used to identify an
// artifact version. Matches the storage key convention, so changing it would
// orphan previously uploaded artifacts.
const shortHashLen = 12

var (
	// ErrNotARepository means the working directory is not inside a git
	// repository.
	ErrNotARepository = errors.New("not a git repository")

	// ErrDirtyWorkTree means the repository has uncommitted changes. Storing
	// an artifact from a dirty tree would record a commit hash that does not
	// describe the code that produced the model.
	ErrDirtyWorkTree = errors.New("repository has uncommitted changes")
)

// Gate inspects the git repository at a fixed directory.
type Gate struct {
	dir string
}

// NewGate returns a Gate for the repository containing dir. It fails with
// ErrNotARepository when dir is not inside a git work tree.
func NewGate(dir string) (*Gate, error) {
	g := &Gate{dir: dir}
	out, err := g.run("rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(out) != "true" {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, dir)
	}
	return g, nil
}

// Head returns the short commit hash of HEAD.
func (g *Gate) Head() (string, error) {
	out, err := g.run("rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD commit: %w", err)
	}
	hash := strings.TrimSpace(out)
	if len(hash) > shortHashLen {
		hash = hash[:shortHashLen]
	}
	if hash == "" {
		return "", fmt.Errorf("repository has no commits yet")
	}
	return hash, nil
}

// IsClean reports whether the work tree has no uncommitted changes. Untracked
// files count as dirty: an untracked training script can influence the model
// just as much as a modified one.
func (g *Gate) IsClean() (bool, error) {
	files, err := g.UncommittedFiles()
	if err != nil {
		return false, err
	}
	return len(files) == 0, nil
}

// UncommittedFiles returns the paths git status reports as changed or
// untracked.
func (g *Gate) UncommittedFiles() ([]string, error) {
	out, err := g.run("status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to read repository status: %w", err)
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		// Porcelain format: two status columns, a space, then the path.
		if len(line) > 3 {
			files = append(files, strings.TrimSpace(line[3:]))
		}
	}
	return files, nil
}

// EnsureClean fails with ErrDirtyWorkTree, listing the offending paths, when
// the repository has uncommitted changes.
func (g *Gate) EnsureClean() error {
	files, err := g.UncommittedFiles()
	if err != nil {
		return err
	}
	if len(files) > 0 {
		return fmt.Errorf("%w: %s (commit or stash before storing an artifact)",
			ErrDirtyWorkTree, strings.Join(files, ", "))
	}
	return nil
}

func (g *Gate) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}
