package funcli

import (
	"context"
	"io"
	"strings"
	"time"
)

// Values maps parameter names to typed values. The parsing engine produces
// one per invocation; callers use the same type to pre-bind state.
type Values map[string]any

// GetString returns a string value by parameter name.
func (v Values) GetString(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

// GetInt returns an int value by parameter name.
func (v Values) GetInt(name string) (int, bool) {
	i, ok := v[name].(int)
	return i, ok
}

// GetBool returns a bool value by parameter name.
func (v Values) GetBool(name string) (bool, bool) {
	b, ok := v[name].(bool)
	return b, ok
}

// GetFloat returns a float64 value by parameter name.
func (v Values) GetFloat(name string) (float64, bool) {
	f, ok := v[name].(float64)
	return f, ok
}

// GetDuration returns a time.Duration value by parameter name.
func (v Values) GetDuration(name string) (time.Duration, bool) {
	d, ok := v[name].(time.Duration)
	return d, ok
}

// GetStringSlice returns a []string value by parameter name.
func (v Values) GetStringSlice(name string) ([]string, bool) {
	s, ok := v[name].([]string)
	return s, ok
}

// clone returns a shallow copy, so derived handles never share state.
func (v Values) clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// ArgSpec is the engine-facing projection of one parameter: everything the
// external parsing engine needs to register and parse it.
type ArgSpec struct {
	// Name is the canonical parameter name and the key in parsed Values.
	Name string

	// Flag selects a long flag; otherwise the argument is a required
	// positional.
	Flag bool

	// Action is one of store, store_true, store_false, append.
	Action Action

	// Convert turns one token into a typed value. Nil only for the toggle
	// actions.
	Convert Converter

	// Default is applied when a flag is absent and no environment fallback
	// matches. May be nil for optional parameters.
	Default any

	// Choices lists allowed enum member names for help display. Matching
	// itself goes through Convert, which is what keeps lookup
	// case-insensitive.
	Choices []string

	// Help is the composed per-argument help text.
	Help string

	// Variadic marks the one-or-more trailing positional capture.
	Variadic bool

	// Elem is the element kind for append and variadic arguments, so
	// engines can aggregate converted tokens into a typed slice. Zero for
	// single-value arguments.
	Elem Kind

	// EnvVars lists environment fallbacks, first set one wins.
	EnvVars []string
}

// CLIName returns the argument's external name without the flag prefix:
// underscores rendered as hyphens.
func (s ArgSpec) CLIName() string {
	return strings.ReplaceAll(s.Name, "_", "-")
}

// DisplayName returns the name as shown in messages: with the long-flag
// prefix for flags, bare for positionals.
func (s ArgSpec) DisplayName() string {
	return flagName(s.Name, s.Flag)
}

// Meta describes the command to the engine.
type Meta struct {
	Name        string
	Description string
}

// Engine is the external flag-parsing boundary. Register is the
// configuration surface, Parse the query surface, and the Format methods the
// presentation surface. Implementations must report failures as errors, not
// terminate the process, and must be safe to Parse repeatedly.
type Engine interface {
	Register(spec ArgSpec) error
	Parse(ctx context.Context, args []string) (Values, error)
	FormatUsage() string
	FormatHelp() string
	SetOutput(w io.Writer)
}

// EngineFactory builds an engine for one compiled command. Supplying a
// custom factory swaps the parsing backend.
type EngineFactory func(meta Meta) Engine
