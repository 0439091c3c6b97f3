package funcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Command is a compiled callable: an engine holding the registered
// arguments plus the dispatcher that reconstructs the call. The handle is
// immutable; WithState derives new handles instead of mutating.
type Command struct {
	meta       Meta
	engine     Engine
	dispatcher *dispatcher
	state      Values
	out        io.Writer
}

// Name returns the command name.
func (c *Command) Name() string {
	return c.meta.Name
}

// Description returns the resolved overall description.
func (c *Command) Description() string {
	return c.meta.Description
}

// WithState returns a derived command whose bound state is replaced by the
// given values. The receiver is left untouched, so a base command can be
// shared and bound differently per call site. The values are snapshotted;
// later changes to the caller's map do not reach the derived command.
func (c *Command) WithState(state Values) *Command {
	dup := *c
	dup.state = state.clone()
	return &dup
}

// State returns the currently bound state values as a copy.
func (c *Command) State() Values {
	return c.state.clone()
}

// Parse runs the engine over the tokens without dispatching, returning the
// parsed values keyed by parameter name.
func (c *Command) Parse(ctx context.Context, args []string) (Values, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.engine.Parse(ctx, args)
}

// Run parses os.Args[1:] and dispatches the callable.
func (c *Command) Run() (any, error) {
	return c.RunWithArgs(context.Background(), os.Args[1:])
}

// RunContext is Run with a caller-supplied context.
func (c *Command) RunContext(ctx context.Context) (any, error) {
	return c.RunWithArgs(ctx, os.Args[1:])
}

// RunWithArgs parses the tokens, merges bound state and dispatches the
// callable, returning whatever it returned. A help request prints help and
// returns ErrHelpShown. Parse and dispatch failures come back as errors;
// the process is never terminated here.
func (c *Command) RunWithArgs(ctx context.Context, args []string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parsed, err := c.engine.Parse(ctx, args)
	if err != nil {
		return nil, err
	}
	return c.dispatcher.call(ctx, c.state, parsed)
}

// ShowHelp prints the full help text by running a help request through the
// engine, so custom engines keep control of the rendering.
func (c *Command) ShowHelp() error {
	_, err := c.engine.Parse(context.Background(), []string{"--help"})
	if errors.Is(err, ErrHelpShown) {
		return nil
	}
	return err
}

// FormatUsage returns the one-line usage string.
func (c *Command) FormatUsage() string {
	return c.engine.FormatUsage()
}

// FormatHelp returns the full help text.
func (c *Command) FormatHelp() string {
	return c.engine.FormatHelp()
}

// PrintUsage writes the usage line to the configured output.
func (c *Command) PrintUsage() {
	fmt.Fprint(c.writer(), c.FormatUsage())
}

// PrintHelp writes the full help text to the configured output.
func (c *Command) PrintHelp() {
	fmt.Fprint(c.writer(), c.FormatHelp())
}

func (c *Command) writer() io.Writer {
	if c.out != nil {
		return c.out
	}
	return os.Stdout
}
