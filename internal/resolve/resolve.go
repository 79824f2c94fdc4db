// Package resolve maps an operation name and its arguments to the ordered
// chain of git invocations that carries it out.
//
// Known operations come from a fixed table. Anything else is passed through
// to git verbatim.
package resolve

import (
	"fmt"
	"io"

	"github.com/dgerlanc/gitu/internal/invoke"
)

// Separator ends the arguments an operation interprets. Everything after it
// is appended unparsed to the last invocation of the chain.
const Separator = "--"

// Precondition is a check the dispatcher runs before the chain.
type Precondition int

const (
	// None requires nothing.
	None Precondition = iota
	// CleanIndex requires that nothing is staged yet.
	CleanIndex
)

func (p Precondition) String() string {
	switch p {
	case None:
		return "none"
	case CleanIndex:
		return "clean-index"
	}
	return fmt.Sprintf("Precondition(%d)", int(p))
}

// Presenter formats the captured stdout of the last invocation.
type Presenter func(stdout []byte, w io.Writer) error

// Plan is a resolved operation.
type Plan struct {
	Operation string
	Chain     []invoke.Invocation
	Require   Precondition
	// Present is nil for plans whose output goes straight to the terminal.
	Present Presenter
	// PassThrough is true when the name matched no table entry.
	PassThrough bool
}

// Builder creates invocations of git with the resolver's program, working
// directory and global options already applied.
type Builder struct {
	opts Options
}

// Git returns an invocation of git with args after the global options.
func (b Builder) Git(args ...string) invoke.Invocation {
	full := make([]string, 0, len(b.opts.GlobalArgs)+len(args))
	full = append(full, b.opts.GlobalArgs...)
	full = append(full, args...)
	return invoke.New(b.opts.Program, full...).WithDir(b.opts.Dir)
}

// Program returns the git executable invocations run.
func (b Builder) Program() string { return b.opts.Program }

// OperationSpec is one entry of the operation table.
type OperationSpec struct {
	Name    string
	Aliases []string
	Summary string
	Usage   string
	// Expand builds the plan from the arguments before the separator. Resolve
	// appends the tail to the final invocation.
	Expand func(b Builder, args []string) (Plan, error)
	// ExpandTail is used instead of Expand for operations whose positional
	// arguments may follow the separator. It places the tail itself.
	ExpandTail func(b Builder, head, tail []string) (Plan, error)
}

// Options configures every invocation a Resolver builds.
type Options struct {
	// Program is the git executable; empty means "git".
	Program string
	// Dir is the working directory of every invocation.
	Dir string
	// GlobalArgs are placed before the subcommand, e.g. "-c", "k=v".
	GlobalArgs []string
}

// ResolutionError reports arguments an operation cannot accept. No
// invocation is built when it is returned.
type ResolutionError struct {
	Operation string
	Problem   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Problem)
}

// problemf describes invalid arguments; Resolve attaches the operation name.
func problemf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Resolver looks up operations. It is immutable after New and safe to share.
type Resolver struct {
	opts  Options
	ops   []OperationSpec
	index map[string]int
}

// New returns a Resolver over the built-in operation table.
func New(opts Options) *Resolver {
	return NewWithOperations(opts, Operations())
}

// NewWithOperations returns a Resolver over ops. It panics if a name or alias
// is empty or used twice, since the table is fixed at build time.
func NewWithOperations(opts Options, ops []OperationSpec) *Resolver {
	if opts.Program == "" {
		opts.Program = "git"
	}
	opts.GlobalArgs = append([]string(nil), opts.GlobalArgs...)

	r := &Resolver{
		opts:  opts,
		ops:   append([]OperationSpec(nil), ops...),
		index: make(map[string]int),
	}
	for i, op := range r.ops {
		if (op.Expand == nil) == (op.ExpandTail == nil) {
			panic(fmt.Sprintf("resolve: operation %q needs exactly one expansion", op.Name))
		}
		for _, name := range append([]string{op.Name}, op.Aliases...) {
			if name == "" {
				panic(fmt.Sprintf("resolve: operation %d has an empty name", i))
			}
			if prev, dup := r.index[name]; dup {
				panic(fmt.Sprintf("resolve: %q used by both %q and %q", name, r.ops[prev].Name, op.Name))
			}
			r.index[name] = i
		}
	}
	return r
}

// Git returns an invocation of git with args after the global options.
func (r *Resolver) Git(args ...string) invoke.Invocation {
	return Builder{opts: r.opts}.Git(args...)
}

// Lookup returns the table entry for name or one of its aliases.
func (r *Resolver) Lookup(name string) (OperationSpec, bool) {
	i, ok := r.index[name]
	if !ok {
		return OperationSpec{}, false
	}
	return r.ops[i], true
}

// Operations returns the table in declaration order.
func (r *Resolver) Operations() []OperationSpec {
	return append([]OperationSpec(nil), r.ops...)
}

// Resolve maps name and args to a plan. Lookup is exact and case sensitive.
// Unknown names resolve to a single pass-through invocation carrying args
// verbatim, separator included.
func (r *Resolver) Resolve(name string, args []string) (Plan, error) {
	i, ok := r.index[name]
	if !ok {
		return Plan{
			Operation:   name,
			Chain:       []invoke.Invocation{r.Git(append([]string{name}, args...)...)},
			PassThrough: true,
		}, nil
	}

	op := r.ops[i]
	head, tail := splitSeparator(args)

	b := Builder{opts: r.opts}
	if op.ExpandTail != nil {
		plan, err := op.ExpandTail(b, head, tail)
		if err != nil {
			return Plan{}, &ResolutionError{Operation: name, Problem: err.Error()}
		}
		plan.Operation = op.Name
		return plan, nil
	}

	plan, err := op.Expand(b, head)
	if err != nil {
		return Plan{}, &ResolutionError{Operation: name, Problem: err.Error()}
	}
	plan.Operation = op.Name

	if len(tail) > 0 && len(plan.Chain) > 0 {
		last := len(plan.Chain) - 1
		plan.Chain[last] = plan.Chain[last].WithArgs(tail...)
	}
	return plan, nil
}

// CleanIndexCheck returns the read-only invocation whose output lists staged
// paths. Empty output means the index matches HEAD.
func (r *Resolver) CleanIndexCheck() invoke.Invocation {
	return r.Git("diff", "--staged", "--name-only")
}

// splitSeparator splits args at the first Separator, dropping it.
func splitSeparator(args []string) (head, tail []string) {
	for i, a := range args {
		if a == Separator {
			return args[:i:i], args[i+1:]
		}
	}
	return args, nil
}
