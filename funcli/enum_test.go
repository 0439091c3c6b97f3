//nolint:testpackage // using package name 'funcli' to match the rest of the suite
package funcli

import "testing"

func TestEnumLookup(t *testing.T) {
	modes := NewEnum("modes", "CREATE_USER", "LIST_USERS")

	tests := []struct {
		token    string
		expected string
		ok       bool
	}{
		{"CREATE_USER", "CREATE_USER", true},
		{"create_user", "CREATE_USER", true},
		{"crEatE_usEr", "CREATE_USER", true},
		{"list_users", "LIST_USERS", true},
		{"UNKNOWN", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := modes.Lookup(tt.token)
		if ok != tt.ok || got != tt.expected {
			t.Errorf("Lookup(%q) = (%q, %v), expected (%q, %v)", tt.token, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestEnumCaseSensitiveWhenMembersAreNotUpper(t *testing.T) {
	// Lowercase members only match exactly, since the fallback uppercases
	// the token.
	quiet := NewEnum("quiet", "soft", "loud")
	if _, ok := quiet.Lookup("SOFT"); ok {
		t.Error("Expected uppercase token not to match a lowercase member")
	}
	if got, ok := quiet.Lookup("soft"); !ok || got != "soft" {
		t.Errorf("Expected exact match, got (%q, %v)", got, ok)
	}
}

func TestEnumMembersAreCopied(t *testing.T) {
	set := NewEnum("color", "RED", "GREEN")
	members := set.Members()
	members[0] = "MUTATED"
	if again := set.Members(); again[0] != "RED" {
		t.Errorf("Expected internal members to be unaffected, got %v", again)
	}
}

func TestNewEnumPanics(t *testing.T) {
	tests := []struct {
		name    string
		members []string
	}{
		{"no members", nil},
		{"duplicate member", []string{"A", "A"}},
		{"empty member", []string{"A", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Expected NewEnum to panic")
				}
			}()
			NewEnum("bad", tt.members...)
		})
	}
}
