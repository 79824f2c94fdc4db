package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, r
}

func commitFile(t *testing.T, dir string, r *gogit.Repository) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hello\n"), 0644))
	wt, err := r.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestOpenDetectsFromSubdirectory(t *testing.T) {
	dir, _ := initRepo(t)
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	repo, err := Open(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, repo.Root())
	assert.Equal(t, filepath.Join(dir, ".git"), repo.GitDir())
}

func TestOpenNotRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotRepository))
}

func TestHasHead(t *testing.T) {
	dir, r := initRepo(t)

	repo, err := Open(dir)
	require.NoError(t, err)
	has, err := repo.HasHead()
	require.NoError(t, err)
	assert.False(t, has, "fresh repository has no commits")

	commitFile(t, dir, r)
	has, err = repo.HasHead()
	require.NoError(t, err)
	assert.True(t, has)
}

func TestHooksDir(t *testing.T) {
	dir, r := initRepo(t)

	repo, err := Open(dir)
	require.NoError(t, err)
	hooks, err := repo.HooksDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".git", "hooks"), hooks)

	cfg, err := r.Config()
	require.NoError(t, err)
	cfg.Raw.Section("core").SetOption("hooksPath", ".githooks")
	require.NoError(t, r.SetConfig(cfg))

	hooks, err = repo.HooksDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".githooks"), hooks)

	cfg.Raw.Section("core").SetOption("hooksPath", "/etc/hooks")
	require.NoError(t, r.SetConfig(cfg))
	hooks, err = repo.HooksDir()
	require.NoError(t, err)
	assert.Equal(t, "/etc/hooks", hooks)
}
