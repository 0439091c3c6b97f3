package funcli

import (
	"fmt"
	"strings"
)

// EnumSet is a CLI-friendly enumeration: an ordered list of member names
// whose textual rendering is the name itself. Tokens are matched first by
// exact name, then by the token uppercased, so conventional UPPER_SNAKE
// members accept lower-case command-line spellings.
type EnumSet struct {
	name    string
	members []string
	index   map[string]int
}

// NewEnum creates an enumeration with the given display name and members.
// Members keep their declaration order in help output. Panics on an empty or
// duplicated member list, as that is a programming error in the schema.
func NewEnum(name string, members ...string) *EnumSet {
	if len(members) == 0 {
		panic(fmt.Sprintf("funcli: enum %q has no members", name))
	}
	index := make(map[string]int, len(members))
	for i, m := range members {
		if m == "" {
			panic(fmt.Sprintf("funcli: enum %q has an empty member name", name))
		}
		if _, dup := index[m]; dup {
			panic(fmt.Sprintf("funcli: enum %q has duplicate member %q", name, m))
		}
		index[m] = i
	}
	return &EnumSet{
		name:    name,
		members: members,
		index:   index,
	}
}

// Name returns the enumeration's display name.
func (e *EnumSet) Name() string {
	return e.name
}

// Members returns the member names in declaration order.
func (e *EnumSet) Members() []string {
	out := make([]string, len(e.members))
	copy(out, e.members)
	return out
}

// Contains reports whether name is an exact member.
func (e *EnumSet) Contains(name string) bool {
	_, ok := e.index[name]
	return ok
}

// Lookup resolves a command-line token to a canonical member name: exact
// match first, then the token uppercased.
func (e *EnumSet) Lookup(token string) (string, bool) {
	if _, ok := e.index[token]; ok {
		return token, true
	}
	upper := strings.ToUpper(token)
	if _, ok := e.index[upper]; ok {
		return upper, true
	}
	return "", false
}

func (e *EnumSet) String() string {
	return e.name
}
