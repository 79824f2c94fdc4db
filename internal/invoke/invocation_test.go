package invoke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocationImmutable(t *testing.T) {
	args := []string{"status", "--short"}
	inv := New("git", args...)
	args[0] = "mutated"

	assert.Equal(t, []string{"status", "--short"}, inv.Args())

	got := inv.Args()
	got[1] = "--long"
	assert.Equal(t, []string{"status", "--short"}, inv.Args())

	withDir := inv.WithDir("/tmp/repo")
	assert.Equal(t, "", inv.Dir())
	assert.Equal(t, "/tmp/repo", withDir.Dir())

	more := inv.WithArgs("--", "file")
	assert.Equal(t, []string{"status", "--short"}, inv.Args())
	assert.Equal(t, []string{"status", "--short", "--", "file"}, more.Args())
}

func TestInvocationStdin(t *testing.T) {
	inv := New("git", "hash-object", "--stdin")
	_, ok := inv.Stdin()
	assert.False(t, ok)

	payload := []byte("hello")
	withIn := inv.WithStdin(payload)
	payload[0] = 'j'

	data, ok := withIn.Stdin()
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))
	assert.False(t, inv.Equal(withIn))
}

func TestInvocationString(t *testing.T) {
	tests := []struct {
		name string
		inv  Invocation
		want string
	}{
		{"plain", New("git", "status", "--short"), "git status --short"},
		{"space", New("git", "commit", "-m", "fix bug"), "git commit -m 'fix bug'"},
		{"empty arg", New("git", "log", ""), "git log ''"},
		{"backslash", New("git", "config", "--get-regexp", `^alias\.`), `git config --get-regexp '^alias\.'`},
		{"dir", New("git", "status").WithDir("/tmp/my repo"), "(cd '/tmp/my repo' && git status)"},
		{"tilde inside", New("git", "reset", "--mixed", "HEAD~2"), "git reset --mixed HEAD~2"},
		{"leading tilde", New("git", "add", "~file"), "git add '~file'"},
		{"key value", New("git", "-c", "core.pager=cat", "log", "--max-count=5"), "git -c core.pager=cat log --max-count=5"},
		{"glob", New("git", "add", "*.go"), "git add '*.go'"},
		{"dollar", New("git", "commit", "-m", "$HOME"), "git commit -m '$HOME'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.inv.String())
		})
	}
}

func TestInvocationEqual(t *testing.T) {
	a := New("git", "add", "--all")
	assert.True(t, a.Equal(New("git", "add", "--all")))
	assert.False(t, a.Equal(New("git", "add", "--update")))
	assert.False(t, a.Equal(New("git", "add")))
	assert.False(t, a.Equal(a.WithDir("x")))
}
