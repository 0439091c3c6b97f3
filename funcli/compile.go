package funcli

import (
	"fmt"
	"io"
	"os"
)

// Compiler turns signatures into runnable commands. Configuration is
// fluent and optional; NewCompiler supplies the defaults (the cobra-backed
// engine, standard output, no documentation parsing).
type Compiler struct {
	ignore  []string
	style   DocStyle
	parser  DocParser
	factory EngineFactory
	out     io.Writer
}

// NewCompiler returns a compiler with the default engine and output.
func NewCompiler() *Compiler {
	return &Compiler{factory: NewCobraEngine, out: os.Stdout}
}

// Ignore excludes the named parameters from the command line. Ignored
// parameters are never registered with the engine; their values must arrive
// through bound state at dispatch time.
func (c *Compiler) Ignore(names ...string) *Compiler {
	c.ignore = append(c.ignore, names...)
	return c
}

// Docstring enables documentation parsing. The parser is an injected
// capability; requesting a style without one fails compilation.
func (c *Compiler) Docstring(style DocStyle, parser DocParser) *Compiler {
	c.style = style
	c.parser = parser
	return c
}

// Engine swaps the parsing backend for commands compiled afterwards.
func (c *Compiler) Engine(factory EngineFactory) *Compiler {
	c.factory = factory
	return c
}

// Output redirects help and usage text, os.Stdout by default.
func (c *Compiler) Output(w io.Writer) *Compiler {
	c.out = w
	return c
}

// Compile validates the signature against fn and builds a command. Any rule
// violation aborts the whole compilation; nothing is partially registered.
func (c *Compiler) Compile(sig Signature, fn any) (*Command, error) {
	if err := sig.validate(); err != nil {
		return nil, err
	}
	d, err := newFuncDispatcher(fn, sig)
	if err != nil {
		return nil, err
	}
	return c.build(sig, d)
}

// Compile builds a command from a signature with the default settings.
func Compile(sig Signature, fn any) (*Command, error) {
	return NewCompiler().Compile(sig, fn)
}

// build runs the shared back half of compilation: resolve documentation,
// classify and register every exposed parameter, assemble the command.
func (c *Compiler) build(sig Signature, d *dispatcher) (*Command, error) {
	ignored, err := c.ignoreSet(sig)
	if err != nil {
		return nil, err
	}

	desc, docParams, err := resolveDocs(sig.Doc, c.style, c.parser)
	if err != nil {
		return nil, err
	}

	meta := Meta{Name: sig.Name, Description: desc}
	engine := c.factory(meta)
	if engine == nil {
		return nil, newCompileError(ErrorTypeMissingCapability, "",
			"engine factory returned no engine")
	}
	if c.out != nil {
		engine.SetOutput(c.out)
	}

	for _, p := range sig.Params {
		if _, skip := ignored[p.Name]; skip {
			if p.Type.isZero() {
				return nil, newCompileError(ErrorTypeMissingType, p.Name,
					"parameter has no declared type")
			}
			continue
		}
		cls, err := classify(p)
		if err != nil {
			return nil, err
		}
		spec := ArgSpec{
			Name:     p.Name,
			Flag:     cls.flag,
			Action:   cls.action,
			Convert:  cls.convert,
			Default:  cls.def,
			Choices:  cls.choices,
			Help:     composeHelp(cls, docParams[p.Name]),
			Variadic: p.Variadic,
			EnvVars:  p.EnvVars,
		}
		if cls.action == ActionAppend || p.Variadic {
			spec.Elem = shapeOf(p.Type).elem
		}
		if err := engine.Register(spec); err != nil {
			return nil, err
		}
	}

	return &Command{
		meta:       meta,
		engine:     engine,
		dispatcher: d,
		out:        c.out,
	}, nil
}

// ignoreSet resolves the ignore list against the signature. Unknown names
// and the variadic capture are rejected rather than silently dropped.
func (c *Compiler) ignoreSet(sig Signature) (map[string]struct{}, error) {
	if len(c.ignore) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(c.ignore))
	for _, name := range c.ignore {
		p, ok := sig.param(name)
		if !ok {
			return nil, newCompileError(ErrorTypeBadSignature, name,
				"ignored parameter is not in the signature")
		}
		if p.Variadic {
			return nil, newCompileError(ErrorTypeBadSignature, name,
				"variadic parameter cannot be ignored: no state can supply it")
		}
		set[name] = struct{}{}
	}
	return set, nil
}

// composeHelp renders one argument's help text: the type name, the default
// for flags and the resolved description. Inline Doc text wins over a
// docstring entry for the same parameter.
func composeHelp(cls classification, docDesc string) string {
	help := "<" + cls.typeName + ">"
	if cls.flag {
		help += fmt.Sprintf(" (default=%s)", displayValue(cls.def))
	}
	desc := cls.docText
	if desc == "" {
		desc = docDesc
	}
	if desc != "" {
		help += ": " + desc
	}
	return help
}

func displayValue(v any) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%v", v)
}
