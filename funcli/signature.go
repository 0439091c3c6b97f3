package funcli

import "strings"

// Param describes one parameter of a callable.
type Param struct {
	// Name is the parameter's identifier, unique within the signature.
	// Underscores are rendered as hyphens on the command line.
	Name string

	// Type is the declared type. A zero TypeSpec fails compilation.
	Type TypeSpec

	// Default is the default value, or nil for none. A parameter with a
	// default (or an Optional type) is exposed as a long flag; everything
	// else is a required positional.
	Default any

	// Variadic marks the parameter as the signature's variadic-positional
	// capture: it collects one or more positional tokens not claimed by the
	// other positionals. At most one per signature.
	Variadic bool

	// EnvVars lists environment variables consulted, in order, when the
	// flag is not supplied on the command line. Only meaningful for flags.
	EnvVars []string
}

// Signature is the declarative schema of a callable: its name, an optional
// free-text documentation block and the ordered parameter list. It is the
// explicit equivalent of inspecting a function's declaration.
type Signature struct {
	Name   string
	Doc    string
	Params []Param
}

// flagName renders a parameter's external name: hyphens for underscores,
// with the long-flag prefix when the parameter is defaulted or optional.
func flagName(name string, flag bool) string {
	hyphenated := strings.ReplaceAll(name, "_", "-")
	if flag {
		return "--" + hyphenated
	}
	return hyphenated
}

// validate checks the structural rules: non-empty unique names, at most one
// variadic parameter, and variadic constraints (no default, no wrappers,
// scalar or enum element type).
func (s Signature) validate() error {
	if len(s.Params) == 0 {
		return newCompileError(ErrorTypeBadSignature, "", "signature has no parameters")
	}
	seen := make(map[string]struct{}, len(s.Params))
	variadic := ""
	for _, p := range s.Params {
		if p.Name == "" {
			return newCompileError(ErrorTypeBadSignature, "", "parameter has an empty name")
		}
		if _, dup := seen[p.Name]; dup {
			return newCompileError(ErrorTypeBadSignature, p.Name, "duplicate parameter name")
		}
		seen[p.Name] = struct{}{}
		if !p.Variadic {
			continue
		}
		if variadic != "" {
			return newCompileError(ErrorTypeBadSignature, p.Name,
				"more than one variadic parameter (previous: %q)", variadic)
		}
		variadic = p.Name
		if p.Default != nil {
			return newCompileError(ErrorTypeBadSignature, p.Name,
				"variadic parameter cannot have a default")
		}
		switch p.Type.Kind() {
		case KindString, KindInt, KindFloat, KindDuration, KindBool, KindEnum:
			// element type; tokens are converted one by one
		case KindDoc:
			if k := p.Type.Elem().Kind(); k == KindOptional || k == KindSlice || k == KindDoc {
				return newCompileError(ErrorTypeBadSignature, p.Name,
					"variadic parameter must have a scalar element type, got %q", p.Type.Name())
			}
		default:
			return newCompileError(ErrorTypeBadSignature, p.Name,
				"variadic parameter must have a scalar element type, got %q", p.Type.Name())
		}
	}
	return nil
}

// variadicName returns the name of the variadic-capture parameter, or "".
func (s Signature) variadicName() string {
	for _, p := range s.Params {
		if p.Variadic {
			return p.Name
		}
	}
	return ""
}

// param looks up a parameter by name.
func (s Signature) param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// paramNames returns the parameter names in declaration order.
func (s Signature) paramNames() []string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	return names
}
