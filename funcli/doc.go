package funcli

// DocStyle selects the grammar used to parse a signature's documentation
// block. The zero value disables parsing: the raw text becomes the overall
// description and no per-parameter descriptions are extracted.
type DocStyle string

const (
	StyleNone     DocStyle = ""
	StyleAuto     DocStyle = "auto"
	StyleREST     DocStyle = "rest"
	StyleGoogle   DocStyle = "google"
	StyleNumpydoc DocStyle = "numpydoc"
	StyleEpydoc   DocStyle = "epydoc"
)

// ParsedDoc is a parsed documentation block.
type ParsedDoc struct {
	Short  string
	Long   string
	Params map[string]string
}

// DocParser is the docstring-parsing capability. It is injected at compile
// time rather than discovered globally; requesting a style without supplying
// a parser is a MissingCapability compile error. The docparse package
// provides the standard implementation.
type DocParser interface {
	Parse(text string, style DocStyle) (ParsedDoc, error)
}

// resolveDocs produces the overall description and the per-parameter
// description map from a documentation block. Inline Doc annotations are
// merged in later by the compiler and win over entries produced here.
func resolveDocs(doc string, style DocStyle, parser DocParser) (string, map[string]string, error) {
	if style == StyleNone {
		return doc, nil, nil
	}
	if parser == nil {
		return "", nil, newCompileError(ErrorTypeMissingCapability, "",
			"documentation style %q requested but no parser was supplied", style)
	}
	parsed, err := parser.Parse(doc, style)
	if err != nil {
		return "", nil, newCompileError(ErrorTypeBadSignature, "",
			"documentation block could not be parsed: %v", err)
	}
	description := parsed.Long
	if description == "" {
		description = parsed.Short
	}
	return description, parsed.Params, nil
}
