// Package repo locates the git repository gitu is working in.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// ErrNotRepository is returned when no repository encloses the directory.
var ErrNotRepository = errors.New("not a git repository")

// Repository wraps a go-git repository
type Repository struct {
	*gogit.Repository
	root   string
	gitDir string
}

// Open finds the repository enclosing dir, or the working directory when dir
// is empty.
func Open(dir string) (*Repository, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	r, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%s: %w", absPath, ErrNotRepository)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	repo := &Repository{Repository: r}
	if wt, err := r.Worktree(); err == nil {
		repo.root = wt.Filesystem.Root()
	}
	if fs, ok := r.Storer.(*filesystem.Storage); ok {
		repo.gitDir = fs.Filesystem().Root()
	}
	if repo.gitDir == "" {
		repo.gitDir = filepath.Join(repo.root, ".git")
	}
	return repo, nil
}

// Root returns the top of the work tree; empty for a bare repository.
func (r *Repository) Root() string {
	return r.root
}

// GitDir returns the repository's git directory.
func (r *Repository) GitDir() string {
	return r.gitDir
}

// HooksDir returns the directory git runs hooks from: core.hooksPath when
// set in the repository config, resolved against the work tree, otherwise
// the hooks directory inside the git directory.
func (r *Repository) HooksDir() (string, error) {
	cfg, err := r.Config()
	if err != nil {
		return "", fmt.Errorf("failed to read repository config: %w", err)
	}
	if p := cfg.Raw.Section("core").Option("hooksPath"); p != "" {
		if filepath.IsAbs(p) {
			return p, nil
		}
		base := r.root
		if base == "" {
			base = r.gitDir
		}
		return filepath.Join(base, p), nil
	}
	return filepath.Join(r.gitDir, "hooks"), nil
}

// HasHead reports whether HEAD resolves to a commit. It is false in a
// repository with no commits yet.
func (r *Repository) HasHead() (bool, error) {
	_, err := r.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return true, nil
}
