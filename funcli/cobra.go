package funcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dzonerzy/go-funcli/internal/fuzzy"
)

// cobraEngine is the default Engine, backed by spf13/cobra and spf13/pflag.
// Registered specs are kept as data; every Parse builds a fresh
// cobra.Command from them, so repeated invocations never share flag state.
type cobraEngine struct {
	meta  Meta
	specs []ArgSpec
	out   io.Writer
}

// NewCobraEngine builds the default parsing engine. It reports failures as
// errors instead of exiting and delegates usage/help rendering to cobra.
func NewCobraEngine(meta Meta) Engine {
	return &cobraEngine{
		meta: meta,
		out:  os.Stdout,
	}
}

func (e *cobraEngine) Register(spec ArgSpec) error {
	switch spec.Action {
	case ActionStore, ActionStoreTrue, ActionStoreFalse, ActionAppend:
	default:
		return newCompileError(ErrorTypeUnsupportedAction, spec.Name,
			"unknown parsing action %q", spec.Action)
	}
	if spec.Action == ActionStore && spec.Convert == nil {
		return newCompileError(ErrorTypeUnsupportedAction, spec.Name,
			"store action requires a value constructor")
	}
	for _, have := range e.specs {
		if have.Name == spec.Name {
			return newCompileError(ErrorTypeBadSignature, spec.Name,
				"argument registered twice")
		}
	}
	e.specs = append(e.specs, spec)
	return nil
}

func (e *cobraEngine) SetOutput(w io.Writer) {
	e.out = w
}

// parseSink collects the outcome of one Parse: the values written by the
// pflag adapters, which flags were explicitly set, and the first typed
// conversion error (pflag flattens Set errors into plain strings, so the
// adapters record theirs here as well).
type parseSink struct {
	vals    Values
	appends map[string][]any
	changed map[string]struct{}
	convErr *ParseError
	ran     bool
}

func newParseSink() *parseSink {
	return &parseSink{
		vals:    make(Values),
		appends: make(map[string][]any),
		changed: make(map[string]struct{}),
	}
}

func (s *parseSink) fail(err *ParseError) {
	if s.convErr == nil {
		s.convErr = err
	}
}

func (e *cobraEngine) Parse(ctx context.Context, args []string) (Values, error) {
	sink := newParseSink()
	cmd := e.build(sink)
	if args == nil {
		// nil means no tokens; cobra would substitute os.Args otherwise
		args = []string{}
	}
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		return nil, e.wrapError(err, sink)
	}
	if !sink.ran {
		// cobra handled --help itself and skipped RunE
		return nil, ErrHelpShown
	}
	return sink.vals, nil
}

func (e *cobraEngine) FormatUsage() string {
	return e.build(newParseSink()).UsageString()
}

func (e *cobraEngine) FormatHelp() string {
	var buf bytes.Buffer
	cmd := e.build(newParseSink())
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	_ = cmd.Help()
	return buf.String()
}

// build assembles a fresh cobra.Command wired to write into sink.
func (e *cobraEngine) build(sink *parseSink) *cobra.Command {
	cmd := &cobra.Command{
		Use:           e.useLine(),
		Short:         firstLine(e.meta.Description),
		Long:          e.longText(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, pos []string) error {
			sink.ran = true
			if err := e.bindPositionals(sink, pos); err != nil {
				return err
			}
			return e.applyFallbacks(sink)
		},
	}
	cmd.SetOut(e.out)
	cmd.SetErr(e.out)

	fl := cmd.Flags()
	for _, spec := range e.specs {
		if !spec.Flag {
			continue
		}
		switch spec.Action {
		case ActionStoreTrue:
			fl.Var(&toggleValue{spec: spec, sink: sink}, spec.CLIName(), spec.Help)
			fl.Lookup(spec.CLIName()).NoOptDefVal = "true"
		case ActionStoreFalse:
			fl.Var(&toggleValue{spec: spec, sink: sink}, spec.CLIName(), spec.Help)
			fl.Lookup(spec.CLIName()).NoOptDefVal = "false"
		case ActionAppend:
			fl.Var(&appendValue{spec: spec, sink: sink}, spec.CLIName(), spec.Help)
		default:
			fl.Var(&storeValue{spec: spec, sink: sink}, spec.CLIName(), spec.Help)
		}
	}
	// After user flags so a parameter named "help" keeps its registration.
	cmd.InitDefaultHelpFlag()
	return cmd
}

// useLine renders the one-line synopsis: command name, then the positional
// arguments in order, the variadic one marked with an ellipsis.
func (e *cobraEngine) useLine() string {
	parts := []string{e.commandName()}
	for _, spec := range e.specs {
		if spec.Flag {
			continue
		}
		if spec.Variadic {
			parts = append(parts, "<"+spec.CLIName()+">...")
		} else {
			parts = append(parts, "<"+spec.CLIName()+">")
		}
	}
	return strings.Join(parts, " ")
}

func (e *cobraEngine) commandName() string {
	if e.meta.Name != "" {
		return e.meta.Name
	}
	return "command"
}

// longText composes the overall description plus an arguments section for
// positionals, which cobra's own templates do not render.
func (e *cobraEngine) longText() string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(e.meta.Description, "\n"))

	width := 0
	count := 0
	for _, spec := range e.specs {
		if spec.Flag {
			continue
		}
		count++
		if n := len(spec.CLIName()); n > width {
			width = n
		}
	}
	if count == 0 {
		return b.String()
	}
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString("Arguments:")
	for _, spec := range e.specs {
		if spec.Flag {
			continue
		}
		b.WriteString(fmt.Sprintf("\n  %-*s  %s", width, spec.CLIName(), spec.Help))
	}
	return b.String()
}

// bindPositionals assigns leftover tokens to positional specs: fixed
// arguments before the variadic fill from the front, fixed arguments after
// it from the back, and the variadic takes the middle (at least one token).
func (e *cobraEngine) bindPositionals(sink *parseSink, pos []string) error {
	var front, back []ArgSpec
	var variadic *ArgSpec
	for i := range e.specs {
		spec := e.specs[i]
		if spec.Flag {
			continue
		}
		switch {
		case spec.Variadic:
			variadic = &e.specs[i]
		case variadic == nil:
			front = append(front, spec)
		default:
			back = append(back, spec)
		}
	}

	required := make([]string, 0, len(front)+len(back)+1)
	for _, spec := range front {
		required = append(required, spec.CLIName())
	}
	if variadic != nil {
		required = append(required, variadic.CLIName())
	}
	for _, spec := range back {
		required = append(required, spec.CLIName())
	}

	need := len(required)
	if len(pos) < need {
		missing := strings.Join(required[len(pos):], ", ")
		return newParseError(ErrorTypeMissingRequired, missing, "",
			"missing required arguments: %s", missing)
	}
	if variadic == nil && len(pos) > need {
		return newParseError(ErrorTypeTooManyArgs, "", strings.Join(pos[need:], " "),
			"too many positional arguments: expected %d, got %d", need, len(pos))
	}

	for i, spec := range front {
		if err := e.bindOne(sink, spec, pos[i]); err != nil {
			return err
		}
	}
	for i, spec := range back {
		if err := e.bindOne(sink, spec, pos[len(pos)-len(back)+i]); err != nil {
			return err
		}
	}
	if variadic != nil {
		middle := pos[len(front) : len(pos)-len(back)]
		items := make([]any, 0, len(middle))
		for _, token := range middle {
			v, err := variadic.Convert(token)
			if err != nil {
				return err
			}
			items = append(items, v)
		}
		sink.vals[variadic.Name] = collectTyped(variadic.Elem, items)
	}
	return nil
}

// bindOne assigns one token to a fixed positional. A sequence-typed
// positional keeps append semantics: its single token becomes a one-element
// list.
func (e *cobraEngine) bindOne(sink *parseSink, spec ArgSpec, token string) error {
	v, err := spec.Convert(token)
	if err != nil {
		return err
	}
	if spec.Action == ActionAppend {
		sink.vals[spec.Name] = collectTyped(spec.Elem, []any{v})
		return nil
	}
	sink.vals[spec.Name] = v
	return nil
}

// applyFallbacks fills values for flags that were not supplied: environment
// variables first (in declaration order, first non-empty wins), then the
// compiled default. Appended flags are also finalized into typed slices
// here.
func (e *cobraEngine) applyFallbacks(sink *parseSink) error {
	for _, spec := range e.specs {
		if !spec.Flag {
			continue
		}
		if _, set := sink.changed[spec.Name]; set {
			if spec.Action == ActionAppend {
				sink.vals[spec.Name] = collectTyped(spec.Elem, sink.appends[spec.Name])
			}
			continue
		}
		if v, ok, err := e.fromEnv(spec); err != nil {
			return err
		} else if ok {
			sink.vals[spec.Name] = v
			continue
		}
		sink.vals[spec.Name] = spec.Default
	}
	return nil
}

// fromEnv resolves the first non-empty environment fallback for a flag.
// Append flags split the variable on commas, one element per piece.
func (e *cobraEngine) fromEnv(spec ArgSpec) (any, bool, error) {
	for _, env := range spec.EnvVars {
		token := os.Getenv(env)
		if token == "" {
			continue
		}
		switch spec.Action {
		case ActionStoreTrue, ActionStoreFalse:
			v, ok := boolTokens[strings.ToLower(token)]
			if !ok {
				return nil, false, newParseError(ErrorTypeInvalidValue, spec.Name, token,
					"invalid bool value %q for %q from $%s", token, spec.Name, env)
			}
			return v, true, nil
		case ActionAppend:
			pieces := strings.Split(token, ",")
			items := make([]any, 0, len(pieces))
			for _, piece := range pieces {
				v, err := spec.Convert(strings.TrimSpace(piece))
				if err != nil {
					return nil, false, err
				}
				items = append(items, v)
			}
			return collectTyped(spec.Elem, items), true, nil
		default:
			v, err := spec.Convert(token)
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		}
	}
	return nil, false, nil
}

// wrapError turns cobra/pflag failures into the invocation-time taxonomy.
// A conversion error recorded by an adapter wins, since pflag flattens the
// typed error into a plain string on its way out.
func (e *cobraEngine) wrapError(err error, sink *parseSink) error {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr
	}
	if sink.convErr != nil {
		return sink.convErr
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "unknown flag:") || strings.HasPrefix(msg, "unknown shorthand flag:"):
		name := flagNameFromMessage(msg)
		perr := newParseError(ErrorTypeUnknownFlag, strings.ReplaceAll(name, "-", "_"), name, "%s", msg)
		if closest := fuzzy.Closest(name, e.flagNames(), 2); closest != "" {
			perr = perr.WithSuggestion(fmt.Sprintf("Did you mean %q?", "--"+closest))
		}
		return perr
	case strings.HasPrefix(msg, "flag needs an argument:"):
		name := flagNameFromMessage(msg)
		return newParseError(ErrorTypeMissingValue, strings.ReplaceAll(name, "-", "_"), name, "%s", msg)
	default:
		return newParseError(ErrorTypeInvalidArgument, "", "", "%s", msg)
	}
}

// flagNameFromMessage extracts the bare flag name from a pflag error string.
func flagNameFromMessage(msg string) string {
	if i := strings.Index(msg, "--"); i >= 0 {
		name := msg[i+2:]
		if j := strings.IndexAny(name, " ='"); j >= 0 {
			name = name[:j]
		}
		return name
	}
	if i := strings.Index(msg, ": "); i >= 0 {
		return strings.Trim(msg[i+2:], "'- ")
	}
	return msg
}

func (e *cobraEngine) flagNames() []string {
	names := make([]string, 0, len(e.specs))
	for _, spec := range e.specs {
		if spec.Flag {
			names = append(names, spec.CLIName())
		}
	}
	return names
}

// collectTyped turns converted elements into a typed slice for the element
// kind, so parsed Values hold []string rather than []any.
func collectTyped(elem Kind, items []any) any {
	switch elem {
	case KindString, KindEnum:
		out := make([]string, len(items))
		for i, v := range items {
			out[i] = v.(string)
		}
		return out
	case KindInt:
		out := make([]int, len(items))
		for i, v := range items {
			out[i] = v.(int)
		}
		return out
	case KindFloat:
		out := make([]float64, len(items))
		for i, v := range items {
			out[i] = v.(float64)
		}
		return out
	case KindDuration:
		out := make([]time.Duration, len(items))
		for i, v := range items {
			out[i] = v.(time.Duration)
		}
		return out
	case KindBool:
		out := make([]bool, len(items))
		for i, v := range items {
			out[i] = v.(bool)
		}
		return out
	default:
		return items
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// pflag.Value adapters. Each writes through to the parse sink so values and
// errors survive pflag's own error formatting.

// storeValue adapts a single-value argument.
type storeValue struct {
	spec ArgSpec
	sink *parseSink
}

func (v *storeValue) Set(token string) error {
	val, err := v.spec.Convert(token)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			v.sink.fail(perr)
		}
		return err
	}
	v.sink.vals[v.spec.Name] = val
	v.sink.changed[v.spec.Name] = struct{}{}
	return nil
}

func (v *storeValue) String() string { return "" }
func (v *storeValue) Type() string   { return "" }

// appendValue adapts a repeatable flag: each occurrence appends one element.
// The accumulated elements are finalized into a typed slice after parsing.
type appendValue struct {
	spec ArgSpec
	sink *parseSink
}

func (v *appendValue) Set(token string) error {
	val, err := v.spec.Convert(token)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			v.sink.fail(perr)
		}
		return err
	}
	v.sink.appends[v.spec.Name] = append(v.sink.appends[v.spec.Name], val)
	v.sink.changed[v.spec.Name] = struct{}{}
	return nil
}

func (v *appendValue) String() string { return "" }
func (v *appendValue) Type() string   { return "" }

// toggleValue adapts the store_true/store_false polarities. Bare presence
// arrives as the flag's NoOptDefVal; an explicit =value goes through the
// same fixed vocabulary as boolean positionals.
type toggleValue struct {
	spec ArgSpec
	sink *parseSink
}

func (v *toggleValue) Set(token string) error {
	val, ok := boolTokens[strings.ToLower(token)]
	if !ok {
		perr := newParseError(ErrorTypeInvalidValue, v.spec.Name, token,
			"invalid bool value %q for %q: expected one of y/yes/true/1/n/no/false/0", token, v.spec.Name)
		v.sink.fail(perr)
		return perr
	}
	v.sink.vals[v.spec.Name] = val
	v.sink.changed[v.spec.Name] = struct{}{}
	return nil
}

func (v *toggleValue) String() string { return "" }
func (v *toggleValue) Type() string   { return "" }

var _ pflag.Value = (*storeValue)(nil)
var _ pflag.Value = (*appendValue)(nil)
var _ pflag.Value = (*toggleValue)(nil)
