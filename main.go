// gitu - shorthand operations for git
//
// gitu expands short operation names into chains of git commands and passes
// everything else to git unchanged:
//
//	gitu aa           # git add --all && git status --short
//	gitu l 10         # compact log of the last 10 commits
//	gitu rebase -i    # not an operation: runs git rebase -i
//
// It also provides a pre-commit hook that rejects commits adding disallowed
// text:
//
//	gitu hook install
package main

import (
	"os"

	"github.com/dgerlanc/gitu/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
