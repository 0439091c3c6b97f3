// Package docparse extracts structured documentation from free-text
// documentation blocks in the four common grammars (REST field lists,
// Google sections, Numpydoc underlined sections, Epydoc fields). It is the
// standard implementation of the funcli.DocParser capability; compilation
// only consults it when a documentation style is requested.
package docparse

import (
	"fmt"
	"strings"

	"github.com/dzonerzy/go-funcli/funcli"
)

// Parser parses documentation blocks. The zero value is ready to use.
type Parser struct{}

// New returns a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse extracts the short and long descriptions and the per-parameter
// descriptions from text. StyleAuto detects the grammar from the first
// marker found; an unrecognized explicit style is an error.
func (p *Parser) Parse(text string, style funcli.DocStyle) (funcli.ParsedDoc, error) {
	if style == funcli.StyleAuto || style == funcli.StyleNone {
		style = Detect(text)
	}
	lines := splitLines(dedent(text))
	switch style {
	case funcli.StyleREST:
		return parseFields(lines, ":param", ":"), nil
	case funcli.StyleEpydoc:
		return parseFields(lines, "@param", "@"), nil
	case funcli.StyleGoogle:
		return parseGoogle(lines), nil
	case funcli.StyleNumpydoc:
		return parseNumpydoc(lines), nil
	default:
		return funcli.ParsedDoc{}, fmt.Errorf("unknown documentation style %q", style)
	}
}

// Detect guesses the grammar from the first style marker in the text. A
// block with no markers falls back to REST, which leaves the whole text as
// the description.
func Detect(text string) funcli.DocStyle {
	lines := splitLines(text)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, ":param") || strings.HasPrefix(trimmed, ":returns") ||
			strings.HasPrefix(trimmed, ":return:"):
			return funcli.StyleREST
		case strings.HasPrefix(trimmed, "@param") || strings.HasPrefix(trimmed, "@return"):
			return funcli.StyleEpydoc
		case trimmed == "Args:" || trimmed == "Arguments:" || trimmed == "Parameters:":
			return funcli.StyleGoogle
		case trimmed == "Parameters" && i+1 < len(lines) && isUnderline(lines[i+1]):
			return funcli.StyleNumpydoc
		}
	}
	return funcli.StyleREST
}

// parseFields handles the line-per-field grammars: REST (":param name:
// description") and Epydoc ("@param name: description"). The description is
// everything before the first field line; indented follow-up lines continue
// the previous field.
func parseFields(lines []string, marker, fieldPrefix string) funcli.ParsedDoc {
	doc := funcli.ParsedDoc{Params: make(map[string]string)}

	i := 0
	var desc []string
	for ; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), fieldPrefix) {
			break
		}
		desc = append(desc, lines[i])
	}
	doc.Short, doc.Long = splitDescription(desc)

	name := ""
	var body []string
	flush := func() {
		if name != "" {
			doc.Params[name] = strings.Join(body, " ")
		}
		name, body = "", nil
	}
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, marker+" ") || strings.HasPrefix(trimmed, marker+"\t"):
			flush()
			head, tail, ok := strings.Cut(trimmed[len(marker):], ":")
			if !ok {
				continue
			}
			name = paramName(head)
			if text := strings.TrimSpace(tail); text != "" {
				body = append(body, text)
			}
		case strings.HasPrefix(trimmed, fieldPrefix):
			// another field kind (:returns:, @type, ...) ends the entry
			flush()
		case name != "":
			body = append(body, trimmed)
		}
	}
	flush()
	return doc
}

// parseGoogle handles section grammars: an "Args:" header followed by
// indented "name: description" entries, deeper indentation continuing the
// previous entry.
func parseGoogle(lines []string) funcli.ParsedDoc {
	doc := funcli.ParsedDoc{Params: make(map[string]string)}

	section := -1
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if t == "Args:" || t == "Arguments:" || t == "Parameters:" {
			section = i
			break
		}
	}
	if section < 0 {
		doc.Short, doc.Long = splitDescription(lines)
		return doc
	}
	doc.Short, doc.Long = splitDescription(lines[:section])

	headerIndent := indentOf(lines[section])
	entryIndent := -1
	name := ""
	var body []string
	flush := func() {
		if name != "" {
			doc.Params[name] = strings.Join(body, " ")
		}
		name, body = "", nil
	}
	for _, line := range lines[section+1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := indentOf(line)
		if indent <= headerIndent {
			break // section over, next header or dedented text
		}
		if entryIndent < 0 {
			entryIndent = indent
		}
		if indent > entryIndent {
			body = append(body, trimmed)
			continue
		}
		head, tail, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		flush()
		name = paramName(head)
		if text := strings.TrimSpace(tail); text != "" {
			body = append(body, text)
		}
	}
	flush()
	return doc
}

// parseNumpydoc handles the underlined-section grammar: a "Parameters"
// header underlined with dashes, entries of the form "name : type" with
// their description on the following indented lines.
func parseNumpydoc(lines []string) funcli.ParsedDoc {
	doc := funcli.ParsedDoc{Params: make(map[string]string)}

	section := -1
	for i := 0; i+1 < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "Parameters" && isUnderline(lines[i+1]) {
			section = i
			break
		}
	}
	if section < 0 {
		doc.Short, doc.Long = splitDescription(lines)
		return doc
	}
	doc.Short, doc.Long = splitDescription(lines[:section])

	base := indentOf(lines[section])
	name := ""
	var body []string
	flush := func() {
		if name != "" {
			doc.Params[name] = strings.Join(body, " ")
		}
		name, body = "", nil
	}
	rest := lines[section+2:]
	for i := 0; i < len(rest); i++ {
		trimmed := strings.TrimSpace(rest[i])
		if trimmed == "" {
			continue
		}
		if i+1 < len(rest) && isUnderline(rest[i+1]) {
			break // next underlined section
		}
		if indentOf(rest[i]) > base {
			body = append(body, trimmed)
			continue
		}
		flush()
		head, _, _ := strings.Cut(trimmed, ":")
		name = paramName(head)
	}
	flush()
	return doc
}

// paramName extracts the parameter name from a field head. A trailing
// parenthesized type ("name (str)") is dropped, then the last
// whitespace-separated token wins (REST allows ":param type name:"), with
// variadic stars stripped.
func paramName(head string) string {
	if cut, _, ok := strings.Cut(head, "("); ok {
		head = cut
	}
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimLeft(fields[len(fields)-1], "*")
}

// splitDescription splits the free-text part into the short description
// (first paragraph) and the long description (the rest, paragraph breaks
// preserved).
func splitDescription(lines []string) (string, string) {
	var paragraphs []string
	var current []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		current = append(current, trimmed)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	if len(paragraphs) == 0 {
		return "", ""
	}
	return paragraphs[0], strings.Join(paragraphs[1:], "\n\n")
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// dedent normalizes a documentation literal: the first line keeps only its
// text, and the remaining lines lose their common leading whitespace. The
// first line is excluded from the margin because string literals usually
// start right after the quote.
func dedent(text string) string {
	lines := splitLines(text)
	if len(lines) <= 1 {
		return strings.TrimLeft(text, " \t")
	}
	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}
	out := make([]string, len(lines))
	out[0] = strings.TrimLeft(lines[0], " \t")
	for i, line := range lines[1:] {
		switch {
		case margin <= 0:
			out[i+1] = line
		case len(line) >= margin && strings.TrimLeft(line[:margin], " \t") == "":
			out[i+1] = line[margin:]
		default:
			out[i+1] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(out, "\n")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func isUnderline(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return false
	}
	for _, r := range trimmed {
		if r != '-' {
			return false
		}
	}
	return true
}
