package funcli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dzonerzy/go-funcli/internal/fuzzy"
)

// Action represents the parsing behavior bound to an argument.
type Action string

const (
	ActionStore      Action = "store"
	ActionStoreTrue  Action = "store_true"
	ActionStoreFalse Action = "store_false"
	ActionAppend     Action = "append"
)

// Converter turns one command-line token into a typed value.
type Converter func(token string) (any, error)

// boolTokens is the fixed vocabulary for explicit boolean values.
// Matching is case-insensitive; anything outside the vocabulary is rejected.
var boolTokens = map[string]bool{
	"y": true, "yes": true, "true": true, "1": true,
	"n": false, "no": false, "false": false, "0": false,
}

// classification is the classifier's verdict for one parameter: how the
// command line represents it and how tokens become typed values.
type classification struct {
	action   Action
	convert  Converter // nil for store_true/store_false
	choices  []string  // enum member names, shown in help only
	def      any       // effective default; nil means none (or null for optionals)
	flag     bool      // defaulted or optional parameters become long flags
	docText  string    // inline description attached via Doc
	typeName string    // display name for help text
}

// classify applies the type rules to one parameter, in priority order:
// boolean polarities first, then enums, scalars, optional unwrapping,
// sequences and inline documentation, with everything else rejected.
func classify(p Param) (classification, error) {
	t := p.Type
	if t.isZero() {
		return classification{}, newCompileError(ErrorTypeMissingType, p.Name,
			"parameter has no declared type")
	}

	cls := classification{def: p.Default}
	optional := false

	// Unwrap Doc and Optional layers. One of each at most.
	for t.Kind() == KindDoc || t.Kind() == KindOptional {
		switch t.Kind() {
		case KindDoc:
			if cls.docText != "" {
				return classification{}, newCompileError(ErrorTypeUnsupportedType, p.Name,
					"nested Doc annotations are not supported")
			}
			cls.docText = t.DocText()
		case KindOptional:
			if optional {
				return classification{}, newCompileError(ErrorTypeUnsupportedType, p.Name,
					"Optional of Optional is not supported")
			}
			optional = true
		}
		t = t.Elem()
		if t.isZero() {
			return classification{}, newCompileError(ErrorTypeUnsupportedType, p.Name,
				"wrapper around an undeclared type")
		}
	}

	cls.flag = optional || p.Default != nil
	cls.typeName = t.Name()

	switch t.Kind() {
	case KindBool:
		def, err := normalizeDefault(p.Name, KindBool, cls.def)
		if err != nil {
			return classification{}, err
		}
		cls.def = def
		switch def {
		case true:
			cls.action = ActionStoreFalse
		case false:
			cls.action = ActionStoreTrue
		default: // no default: value parsed from the fixed vocabulary
			cls.action = ActionStore
			cls.convert = convertBool(p.Name)
		}

	case KindEnum:
		set := t.Enum()
		if set == nil {
			return classification{}, newCompileError(ErrorTypeUnsupportedType, p.Name,
				"enum type has no member set")
		}
		if cls.def != nil {
			name, ok := cls.def.(string)
			if !ok || !set.Contains(name) {
				return classification{}, newCompileError(ErrorTypeBadSignature, p.Name,
					"default %v is not a member of %s", cls.def, set.Name())
			}
		}
		cls.action = ActionStore
		cls.convert = convertEnum(p.Name, set)
		cls.choices = set.Members()

	case KindString, KindInt, KindFloat, KindDuration:
		def, err := normalizeDefault(p.Name, t.Kind(), cls.def)
		if err != nil {
			return classification{}, err
		}
		cls.def = def
		cls.action = ActionStore
		cls.convert = convertScalar(p.Name, t.Kind())

	case KindSlice:
		elem := t.Elem()
		switch elem.Kind() {
		case KindString, KindInt, KindFloat, KindDuration:
			cls.convert = convertScalar(p.Name, elem.Kind())
		case KindEnum:
			set := elem.Enum()
			if set == nil {
				return classification{}, newCompileError(ErrorTypeUnsupportedType, p.Name,
					"enum element type has no member set")
			}
			cls.convert = convertEnum(p.Name, set)
			cls.choices = set.Members()
			if members, ok := cls.def.([]string); ok {
				for _, m := range members {
					if !set.Contains(m) {
						return classification{}, newCompileError(ErrorTypeBadSignature, p.Name,
							"default member %q is not a member of %s", m, set.Name())
					}
				}
			}
		default:
			return classification{}, newCompileError(ErrorTypeUnsupportedType, p.Name,
				"slice element type %q is not a supported scalar", elem.Name())
		}
		if err := checkSliceDefault(p.Name, elem.Kind(), cls.def); err != nil {
			return classification{}, err
		}
		cls.action = ActionAppend

	default:
		return classification{}, newCompileError(ErrorTypeUnsupportedType, p.Name,
			"type %q is not supported", t.Name())
	}

	return cls, nil
}

// convertBool parses the fixed yes/no vocabulary, case-insensitively.
func convertBool(param string) Converter {
	return func(token string) (any, error) {
		v, ok := boolTokens[strings.ToLower(token)]
		if !ok {
			return nil, newParseError(ErrorTypeInvalidValue, param, token,
				"invalid bool value %q for %q: expected one of y/yes/true/1/n/no/false/0", token, param)
		}
		return v, nil
	}
}

// convertEnum resolves member names, exact first and then uppercased, and
// suggests the closest member on a miss.
func convertEnum(param string, set *EnumSet) Converter {
	return func(token string) (any, error) {
		name, ok := set.Lookup(token)
		if !ok {
			err := newParseError(ErrorTypeInvalidValue, param, token,
				"invalid value %q for %q: not a member of %s", token, param, set.Name())
			if closest := fuzzy.Closest(token, set.Members(), 2); closest != "" {
				err = err.WithSuggestion(fmt.Sprintf("Did you mean %q?", closest))
			}
			return nil, err
		}
		return name, nil
	}
}

// convertScalar returns the parse-from-text operation for a primitive scalar.
func convertScalar(param string, kind Kind) Converter {
	return func(token string) (any, error) {
		switch kind {
		case KindString:
			return token, nil
		case KindInt:
			v, err := strconv.Atoi(token)
			if err != nil {
				return nil, newParseError(ErrorTypeInvalidValue, param, token,
					"invalid int value %q for %q", token, param)
			}
			return v, nil
		case KindFloat:
			v, err := strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, newParseError(ErrorTypeInvalidValue, param, token,
					"invalid float value %q for %q", token, param)
			}
			return v, nil
		case KindDuration:
			v, err := time.ParseDuration(token)
			if err != nil {
				return nil, newParseError(ErrorTypeInvalidValue, param, token,
					"invalid duration value %q for %q", token, param)
			}
			return v, nil
		default:
			return nil, newParseError(ErrorTypeInvalidValue, param, token,
				"no parser for type %q", kind)
		}
	}
}

// normalizeDefault validates a scalar default against the declared kind and
// normalizes numeric spellings (an int default for a float parameter).
func normalizeDefault(param string, kind Kind, def any) (any, error) {
	if def == nil {
		return nil, nil
	}
	switch kind {
	case KindBool:
		if v, ok := def.(bool); ok {
			return v, nil
		}
	case KindString:
		if v, ok := def.(string); ok {
			return v, nil
		}
	case KindInt:
		if v, ok := def.(int); ok {
			return v, nil
		}
	case KindFloat:
		switch v := def.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		}
	case KindDuration:
		if v, ok := def.(time.Duration); ok {
			return v, nil
		}
	}
	return nil, newCompileError(ErrorTypeBadSignature, param,
		"default %v (%T) does not match declared type %q", def, def, kind)
}

// checkSliceDefault validates a slice default against the element kind.
func checkSliceDefault(param string, elem Kind, def any) error {
	if def == nil {
		return nil
	}
	ok := false
	switch elem {
	case KindString, KindEnum:
		_, ok = def.([]string)
	case KindInt:
		_, ok = def.([]int)
	case KindFloat:
		_, ok = def.([]float64)
	case KindDuration:
		_, ok = def.([]time.Duration)
	}
	if !ok {
		return newCompileError(ErrorTypeBadSignature, param,
			"default %v (%T) does not match declared element type %q", def, def, elem)
	}
	return nil
}
