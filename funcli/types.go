package funcli

// Kind identifies one shape in the closed set of declarable parameter types.
type Kind string

const (
	// Scalar kinds
	KindString   Kind = "string"
	KindInt      Kind = "int"
	KindFloat    Kind = "float64"
	KindBool     Kind = "bool"
	KindDuration Kind = "duration"
	KindEnum     Kind = "enum"

	// Wrapper kinds
	KindOptional Kind = "optional"
	KindSlice    Kind = "slice"
	KindDoc      Kind = "doc"
)

// TypeSpec is a declared parameter type. The zero value means "no declared
// type" and is rejected at compile time. TypeSpecs are built from the
// package-level scalar values (String, Int, Float, Bool, Duration) and the
// Enum, Optional, Slice and Doc combinators; there is no open extension
// point.
type TypeSpec struct {
	kind Kind
	elem *TypeSpec
	enum *EnumSet
	doc  string
}

// Scalar type values.
var (
	String   = TypeSpec{kind: KindString}
	Int      = TypeSpec{kind: KindInt}
	Float    = TypeSpec{kind: KindFloat}
	Bool     = TypeSpec{kind: KindBool}
	Duration = TypeSpec{kind: KindDuration}
)

// Enum declares a parameter restricted to the members of set.
// Parsed values are the canonical member names.
func Enum(set *EnumSet) TypeSpec {
	return TypeSpec{kind: KindEnum, enum: set}
}

// Optional declares a parameter that may be absent. A parameter with an
// Optional type and no explicit default gets an effective default of nil and
// is exposed as a flag.
func Optional(inner TypeSpec) TypeSpec {
	return TypeSpec{kind: KindOptional, elem: &inner}
}

// Slice declares a repeatable flag: each occurrence appends one parsed
// element. There is no single-flag comma-separated form.
func Slice(elem TypeSpec) TypeSpec {
	return TypeSpec{kind: KindSlice, elem: &elem}
}

// Doc attaches an inline description to a type. Inline descriptions take
// precedence over docstring-derived descriptions for the same parameter.
func Doc(inner TypeSpec, text string) TypeSpec {
	return TypeSpec{kind: KindDoc, elem: &inner, doc: text}
}

// Kind returns the outermost kind of the type. The zero TypeSpec reports "".
func (t TypeSpec) Kind() Kind {
	return t.kind
}

// Elem returns the wrapped type of an Optional, Slice or Doc.
func (t TypeSpec) Elem() TypeSpec {
	if t.elem == nil {
		return TypeSpec{}
	}
	return *t.elem
}

// Enum returns the member set of an enum type, or nil.
func (t TypeSpec) Enum() *EnumSet {
	return t.enum
}

// DocText returns the attached description of a Doc type.
func (t TypeSpec) DocText() string {
	return t.doc
}

// Name returns the display name used in help text: the scalar name, the enum
// set's name, or "[]" plus the element name for slices. Optional and Doc
// wrappers are transparent.
func (t TypeSpec) Name() string {
	switch t.kind {
	case KindString, KindInt, KindFloat, KindBool, KindDuration:
		return string(t.kind)
	case KindEnum:
		if t.enum != nil {
			return t.enum.Name()
		}
		return string(KindEnum)
	case KindOptional, KindDoc:
		return t.Elem().Name()
	case KindSlice:
		return "[]" + t.Elem().Name()
	default:
		return "<none>"
	}
}

func (t TypeSpec) String() string {
	return t.Name()
}

// isZero reports whether the type was never declared.
func (t TypeSpec) isZero() bool {
	return t.kind == ""
}
