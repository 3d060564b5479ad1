// Package gitops commits the books to git after every write.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo is a git working tree committed to under a fixed author.
type Repo struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// Open returns the Repo at dir.
func Open(dir, authorName, authorEmail string) *Repo {
	return &Repo{Dir: dir, AuthorName: authorName, AuthorEmail: authorEmail}
}

// Init initializes a new git repository at r.Dir.
func (r *Repo) Init() error {
	if _, err := r.git("init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// IsRepo reports whether r.Dir is a git repository root.
func (r *Repo) IsRepo() bool {
	_, err := os.Stat(filepath.Join(r.Dir, ".git"))
	return err == nil
}

// Changed returns the paths git reports as modified or untracked, limited
// to paths when any are given.
func (r *Repo) Changed(paths ...string) ([]string, error) {
	args := append([]string{"status", "--porcelain", "--untracked-files=all", "--"}, paths...)
	out, err := r.git(args...)
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	var changed []string
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if len(line) > 3 {
			changed = append(changed, strings.TrimSpace(line[3:]))
		}
	}
	return changed, nil
}

// Commit stages paths (everything when none are given) and commits them.
// It returns the short hash, or "" when there was nothing to commit.
func (r *Repo) Commit(message string, paths ...string) (string, error) {
	changed, err := r.Changed(paths...)
	if err != nil {
		return "", err
	}
	if len(changed) == 0 {
		return "", nil
	}

	add := []string{"add", "-A", "--"}
	if len(paths) == 0 {
		add = append(add, ".")
	}
	if _, err := r.git(append(add, paths...)...); err != nil {
		return "", fmt.Errorf("git add: %w", err)
	}

	author := fmt.Sprintf("%s <%s>", r.AuthorName, r.AuthorEmail)
	commit := []string{
		"-c", "user.name=" + r.AuthorName,
		"-c", "user.email=" + r.AuthorEmail,
		"commit", "--quiet", "-m", message, "--author", author,
	}
	if _, err := r.git(commit...); err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}

	out, err := r.git("rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}
