package funcli

import (
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Documented lets a struct prototype carry the documentation block that a
// plain signature passes as Signature.Doc.
type Documented interface {
	Doc() string
}

// SignatureOf derives a signature from a tagged struct prototype. Exported
// fields become parameters in declaration order; the struct's Run method is
// the callable. Supported tags:
//
//	arg:"name,variadic"  override the parameter name, mark the capture;
//	                     arg:"-" skips the field entirely
//	default:"..."        default value, parsed per the field's type
//	doc:"..."            inline description
//	choices:"A,B,C"      enum members for string-kinded fields
//	env:"VAR1,VAR2"      environment fallbacks, first set one wins
//
// Field names are rendered in snake case, so YourName parses as your_name
// and surfaces as --your-name when defaulted.
func SignatureOf(prototype any) (Signature, error) {
	sig, _, err := deriveStruct(prototype)
	return sig, err
}

// CompileStruct compiles a tagged struct prototype: the derived signature
// plus the prototype's Run method as the callable. Parsed values are set on
// a fresh instance per invocation.
func (c *Compiler) CompileStruct(prototype any) (*Command, error) {
	sig, fields, err := deriveStruct(prototype)
	if err != nil {
		return nil, err
	}
	if err := sig.validate(); err != nil {
		return nil, err
	}
	d, err := newStructDispatcher(prototype, sig, fields)
	if err != nil {
		return nil, err
	}
	return c.build(sig, d)
}

// CompileStruct compiles a struct prototype with the default settings.
func CompileStruct(prototype any) (*Command, error) {
	return NewCompiler().CompileStruct(prototype)
}

func deriveStruct(prototype any) (Signature, [][]int, error) {
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return Signature{}, nil, newCompileError(ErrorTypeBadCallable, "",
			"prototype must be a pointer to a struct, got %T", prototype)
	}
	st := t.Elem()

	sig := Signature{Name: snakeCase(st.Name())}
	if doc, ok := prototype.(Documented); ok {
		sig.Doc = doc.Doc()
	}

	var fields [][]int
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}

		argTag := field.Tag.Get("arg")
		if argTag == "-" {
			continue
		}
		name, variadic := parseArgTag(argTag)
		if name == "" {
			name = snakeCase(field.Name)
		}

		p := Param{Name: name, Variadic: variadic}

		spec, err := fieldTypeSpec(name, field, variadic)
		if err != nil {
			return Signature{}, nil, err
		}
		if doc := field.Tag.Get("doc"); doc != "" {
			spec = Doc(spec, doc)
		}
		p.Type = spec

		if raw, ok := field.Tag.Lookup("default"); ok {
			def, err := parseDefaultTag(name, raw, p.Type, variadic)
			if err != nil {
				return Signature{}, nil, err
			}
			p.Default = def
		}
		if env := field.Tag.Get("env"); env != "" {
			for _, v := range strings.Split(env, ",") {
				if v = strings.TrimSpace(v); v != "" {
					p.EnvVars = append(p.EnvVars, v)
				}
			}
		}

		sig.Params = append(sig.Params, p)
		fields = append(fields, field.Index)
	}

	return sig, fields, nil
}

// parseArgTag splits an arg tag into the name part and its options.
func parseArgTag(tag string) (name string, variadic bool) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "variadic" {
			variadic = true
		}
	}
	return name, variadic
}

// fieldTypeSpec maps a struct field's Go type to a declared type: pointers
// become Optional, slices become Slice, string-kinded fields with a choices
// tag become enums named after their defined type. Variadic fields are
// declared as slices but contribute their element type.
func fieldTypeSpec(param string, field reflect.StructField, variadic bool) (TypeSpec, error) {
	t := field.Type

	if variadic {
		if t.Kind() != reflect.Slice {
			return TypeSpec{}, newCompileError(ErrorTypeBadSignature, param,
				"variadic field must be a slice, got %s", t)
		}
		return scalarTypeSpec(param, field, t.Elem())
	}

	switch t.Kind() {
	case reflect.Ptr:
		inner, err := scalarTypeSpec(param, field, t.Elem())
		if err != nil {
			return TypeSpec{}, err
		}
		return Optional(inner), nil
	case reflect.Slice:
		elem, err := scalarTypeSpec(param, field, t.Elem())
		if err != nil {
			return TypeSpec{}, err
		}
		return Slice(elem), nil
	default:
		return scalarTypeSpec(param, field, t)
	}
}

func scalarTypeSpec(param string, field reflect.StructField, t reflect.Type) (TypeSpec, error) {
	if t == durationType {
		return Duration, nil
	}
	switch t.Kind() {
	case reflect.String:
		if choices := field.Tag.Get("choices"); choices != "" {
			members := splitTrimmed(choices)
			if len(members) == 0 {
				return TypeSpec{}, newCompileError(ErrorTypeBadSignature, param,
					"choices tag is empty")
			}
			name := t.Name()
			if name == "" || name == "string" {
				name = param
			}
			return Enum(NewEnum(name, members...)), nil
		}
		return String, nil
	case reflect.Bool:
		return Bool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int, nil
	case reflect.Float32, reflect.Float64:
		return Float, nil
	default:
		return TypeSpec{}, newCompileError(ErrorTypeUnsupportedType, param,
			"field type %s is not supported", t)
	}
}

// parseDefaultTag converts a default tag's text to the declared type, one
// element per comma for sequences.
func parseDefaultTag(param, raw string, spec TypeSpec, variadic bool) (any, error) {
	sh := shapeOf(spec)
	if variadic {
		// validate() rejects variadic defaults with a precise message
		return raw, nil
	}
	if sh.slice {
		return parseSliceDefault(param, raw, sh.elem)
	}
	return parseScalarDefault(param, raw, sh.elem)
}

func parseScalarDefault(param, raw string, kind Kind) (any, error) {
	switch kind {
	case KindString, KindEnum:
		return raw, nil
	case KindBool:
		v, ok := boolTokens[strings.ToLower(raw)]
		if !ok {
			return nil, badDefaultTag(param, raw, kind)
		}
		return v, nil
	case KindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, badDefaultTag(param, raw, kind)
		}
		return v, nil
	case KindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, badDefaultTag(param, raw, kind)
		}
		return v, nil
	case KindDuration:
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, badDefaultTag(param, raw, kind)
		}
		return v, nil
	default:
		return nil, badDefaultTag(param, raw, kind)
	}
}

func parseSliceDefault(param, raw string, elem Kind) (any, error) {
	pieces := splitTrimmed(raw)
	switch elem {
	case KindString, KindEnum:
		return pieces, nil
	case KindInt:
		out := make([]int, 0, len(pieces))
		for _, piece := range pieces {
			v, err := strconv.Atoi(piece)
			if err != nil {
				return nil, badDefaultTag(param, piece, elem)
			}
			out = append(out, v)
		}
		return out, nil
	case KindFloat:
		out := make([]float64, 0, len(pieces))
		for _, piece := range pieces {
			v, err := strconv.ParseFloat(piece, 64)
			if err != nil {
				return nil, badDefaultTag(param, piece, elem)
			}
			out = append(out, v)
		}
		return out, nil
	case KindDuration:
		out := make([]time.Duration, 0, len(pieces))
		for _, piece := range pieces {
			v, err := time.ParseDuration(piece)
			if err != nil {
				return nil, badDefaultTag(param, piece, elem)
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, badDefaultTag(param, raw, elem)
	}
}

func badDefaultTag(param, raw string, kind Kind) error {
	return newCompileError(ErrorTypeBadSignature, param,
		"default tag %q does not parse as %s", raw, kind)
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// snakeCase renders a Go identifier in snake case: YourName to your_name,
// HTTPPort to http_port.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
