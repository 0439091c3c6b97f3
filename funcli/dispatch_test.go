//nolint:testpackage // using package name 'funcli' to reach the dispatcher internals
package funcli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func greetSignature() Signature {
	return Signature{
		Name: "greet",
		Params: []Param{
			{Name: "your_name", Type: String},
			{Name: "your_age", Type: Int, Default: 33},
		},
	}
}

func TestFuncDispatcherRejectsNonFunctions(t *testing.T) {
	for _, fn := range []any{nil, 42, "not a function", struct{}{}} {
		_, err := newFuncDispatcher(fn, greetSignature())
		var cerr *CompileError
		if !errors.As(err, &cerr) {
			t.Fatalf("Expected a CompileError for %T, got %v", fn, err)
		}
		if cerr.Type != ErrorTypeBadCallable {
			t.Errorf("Expected bad_callable, got %s", cerr.Type)
		}
	}
}

func TestFuncDispatcherArityMismatch(t *testing.T) {
	_, err := newFuncDispatcher(func(name string) {}, greetSignature())
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected a CompileError, got %v", err)
	}
	if !strings.Contains(cerr.Message, "takes 1 parameters, signature declares 2") {
		t.Errorf("Unexpected message: %q", cerr.Message)
	}
}

func TestFuncDispatcherParameterTypeChecks(t *testing.T) {
	tests := []struct {
		name string
		sig  Signature
		fn   any
	}{
		{
			"int param on string type",
			Signature{Name: "x", Params: []Param{{Name: "n", Type: Int}}},
			func(n string) {},
		},
		{
			"optional needs a pointer",
			Signature{Name: "x", Params: []Param{{Name: "n", Type: Optional(Int)}}},
			func(n int) {},
		},
		{
			"sequence needs a slice",
			Signature{Name: "x", Params: []Param{{Name: "xs", Type: Slice(String)}}},
			func(xs string) {},
		},
		{
			"duration is not a plain int",
			Signature{Name: "x", Params: []Param{{Name: "n", Type: Int}}},
			func(n time.Duration) {},
		},
		{
			"second return must be error",
			Signature{Name: "x", Params: []Param{{Name: "n", Type: Int}}},
			func(n int) (int, int) { return 0, 0 },
		},
		{
			"too many returns",
			Signature{Name: "x", Params: []Param{{Name: "n", Type: Int}}},
			func(n int) (int, int, error) { return 0, 0, nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newFuncDispatcher(tt.fn, tt.sig)
			var cerr *CompileError
			if !errors.As(err, &cerr) {
				t.Fatalf("Expected a CompileError, got %v", err)
			}
			if cerr.Type != ErrorTypeBadCallable {
				t.Errorf("Expected bad_callable, got %s", cerr.Type)
			}
		})
	}
}

func TestFuncDispatcherAcceptsNamedTypes(t *testing.T) {
	type color string
	type port int

	sig := Signature{Name: "x", Params: []Param{
		{Name: "color", Type: Enum(NewEnum("color", "RED", "GREEN"))},
		{Name: "port", Type: Int, Default: 8080},
	}}
	d, err := newFuncDispatcher(func(c color, p port) (string, error) {
		return fmt.Sprintf("%s:%d", c, p), nil
	}, sig)
	if err != nil {
		t.Fatalf("Expected named scalar types to be accepted, got %v", err)
	}

	out, err := d.call(context.Background(), nil, Values{"color": "RED", "port": 8080})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if out != "RED:8080" {
		t.Errorf("Expected converted named types in the call, got %v", out)
	}
}

func TestDispatcherCallsInDeclaredOrder(t *testing.T) {
	var gotName string
	var gotAge int
	d, err := newFuncDispatcher(func(name string, age int) {
		gotName, gotAge = name, age
	}, greetSignature())
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	if _, err := d.call(context.Background(), nil, Values{"your_name": "Johnny", "your_age": 33}); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if gotName != "Johnny" || gotAge != 33 {
		t.Errorf("Expected (Johnny, 33), got (%s, %d)", gotName, gotAge)
	}
}

func TestDispatcherPassesContext(t *testing.T) {
	type key struct{}
	var got any
	sig := Signature{Name: "x", Params: []Param{{Name: "n", Type: Int}}}
	d, err := newFuncDispatcher(func(ctx context.Context, n int) {
		got = ctx.Value(key{})
	}, sig)
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	ctx := context.WithValue(context.Background(), key{}, "present")
	if _, err := d.call(ctx, nil, Values{"n": 1}); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if got != "present" {
		t.Errorf("Expected the context to reach the callable, got %v", got)
	}
}

func TestDispatcherOptionalValues(t *testing.T) {
	sig := Signature{Name: "x", Params: []Param{
		{Name: "limit", Type: Optional(Int)},
	}}
	var got *int
	d, err := newFuncDispatcher(func(limit *int) { got = limit }, sig)
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	// absent: nil pointer
	if _, err := d.call(context.Background(), nil, Values{"limit": nil}); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected a nil pointer for an absent optional, got %v", *got)
	}

	// present: boxed value
	if _, err := d.call(context.Background(), nil, Values{"limit": 10}); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if got == nil || *got != 10 {
		t.Errorf("Expected *10, got %v", got)
	}
}

func TestDispatcherVariadicFunction(t *testing.T) {
	sig := Signature{Name: "x", Params: []Param{
		{Name: "pet_names", Type: String, Variadic: true},
		{Name: "your_name", Type: String, Default: "John"},
	}}
	var pets []string
	var name string
	d, err := newFuncDispatcher(func(petNames []string, yourName string) {
		pets, name = petNames, yourName
	}, sig)
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	parsed := Values{"pet_names": []string{"Goofy", "Larry"}, "your_name": "Johnny"}
	if _, err := d.call(context.Background(), nil, parsed); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if len(pets) != 2 || pets[0] != "Goofy" || pets[1] != "Larry" {
		t.Errorf("Expected [Goofy Larry], got %v", pets)
	}
	if name != "Johnny" {
		t.Errorf("Expected Johnny, got %q", name)
	}
}

func TestDispatcherTrailingGoVariadic(t *testing.T) {
	sig := Signature{Name: "x", Params: []Param{
		{Name: "greeting", Type: String},
		{Name: "names", Type: String, Variadic: true},
	}}
	var got []string
	d, err := newFuncDispatcher(func(greeting string, names ...string) {
		got = append([]string{greeting}, names...)
	}, sig)
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	parsed := Values{"greeting": "hi", "names": []string{"a", "b", "c"}}
	if _, err := d.call(context.Background(), nil, parsed); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if len(got) != 4 || got[3] != "c" {
		t.Errorf("Expected the variadic tail to arrive, got %v", got)
	}
}

func TestDispatcherReturnShapes(t *testing.T) {
	sig := Signature{Name: "x", Params: []Param{{Name: "n", Type: Int}}}
	parsed := Values{"n": 2}

	t.Run("no returns", func(t *testing.T) {
		d, _ := newFuncDispatcher(func(n int) {}, sig)
		out, err := d.call(context.Background(), nil, parsed)
		if err != nil || out != nil {
			t.Errorf("Expected (nil, nil), got (%v, %v)", out, err)
		}
	})
	t.Run("error only", func(t *testing.T) {
		boom := errors.New("boom")
		d, _ := newFuncDispatcher(func(n int) error { return boom }, sig)
		out, err := d.call(context.Background(), nil, parsed)
		if out != nil || !errors.Is(err, boom) {
			t.Errorf("Expected the callable's error, got (%v, %v)", out, err)
		}
	})
	t.Run("value only", func(t *testing.T) {
		d, _ := newFuncDispatcher(func(n int) int { return n * 2 }, sig)
		out, err := d.call(context.Background(), nil, parsed)
		if err != nil || out != 4 {
			t.Errorf("Expected 4, got (%v, %v)", out, err)
		}
	})
	t.Run("value and nil error", func(t *testing.T) {
		d, _ := newFuncDispatcher(func(n int) (int, error) { return n * 3, nil }, sig)
		out, err := d.call(context.Background(), nil, parsed)
		if err != nil || out != 6 {
			t.Errorf("Expected 6, got (%v, %v)", out, err)
		}
	})
}

func TestDispatcherStateSuppliesIgnoredParams(t *testing.T) {
	sig := Signature{Name: "x", Params: []Param{
		{Name: "user_count", Type: Int},
		{Name: "user_name", Type: String},
		{Name: "user_address", Type: String},
	}}
	var got string
	d, err := newFuncDispatcher(func(count int, name, address string) {
		got = fmt.Sprintf("%d %s %s", count, name, address)
	}, sig)
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	state := Values{"user_count": 33, "user_name": "Josh"}
	parsed := Values{"user_address": "some address..."}
	if _, err := d.call(context.Background(), state, parsed); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if got != "33 Josh some address..." {
		t.Errorf("Unexpected call: %q", got)
	}
}

func TestDispatcherRejectsDuplicateValues(t *testing.T) {
	d, err := newFuncDispatcher(func(name string, age int) {}, greetSignature())
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	state := Values{"your_age": 50}
	parsed := Values{"your_name": "Johnny", "your_age": 33}
	_, callErr := d.call(context.Background(), state, parsed)
	var derr *DispatchError
	if !errors.As(callErr, &derr) {
		t.Fatalf("Expected a DispatchError, got %v", callErr)
	}
	if !strings.Contains(derr.Message, "multiple values") || derr.Param != "your_age" {
		t.Errorf("Expected a multiple-values error for your_age, got %+v", derr)
	}
}

func TestDispatcherRejectsUnknownStateName(t *testing.T) {
	d, err := newFuncDispatcher(func(name string, age int) {}, greetSignature())
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	state := Values{"your_nane": "typo"}
	parsed := Values{"your_name": "Johnny", "your_age": 33}
	_, callErr := d.call(context.Background(), state, parsed)
	var derr *DispatchError
	if !errors.As(callErr, &derr) {
		t.Fatalf("Expected a DispatchError, got %v", callErr)
	}
	if len(derr.Suggestions) == 0 || derr.Suggestions[0] != `Did you mean "your_name"?` {
		t.Errorf("Expected a suggestion for the near-miss name, got %v", derr.Suggestions)
	}
}

func TestDispatcherRejectsVariadicState(t *testing.T) {
	sig := Signature{Name: "x", Params: []Param{
		{Name: "rest", Type: String, Variadic: true},
	}}
	d, err := newFuncDispatcher(func(rest []string) {}, sig)
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	_, callErr := d.call(context.Background(), Values{"rest": []string{"x"}}, Values{"rest": []string{"y"}})
	var derr *DispatchError
	if !errors.As(callErr, &derr) {
		t.Fatalf("Expected a DispatchError, got %v", callErr)
	}
	if !strings.Contains(derr.Message, "variadic") {
		t.Errorf("Unexpected message: %q", derr.Message)
	}
}

func TestDispatcherMissingValue(t *testing.T) {
	d, err := newFuncDispatcher(func(name string, age int) {}, greetSignature())
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	// your_age neither parsed nor bound, as happens for ignored parameters
	_, callErr := d.call(context.Background(), nil, Values{"your_name": "Johnny"})
	var derr *DispatchError
	if !errors.As(callErr, &derr) {
		t.Fatalf("Expected a DispatchError, got %v", callErr)
	}
	if derr.Param != "your_age" {
		t.Errorf("Expected the error to name your_age, got %q", derr.Param)
	}
}

func TestDispatcherRejectsMistypedStateValue(t *testing.T) {
	d, err := newFuncDispatcher(func(name string, age int) {}, greetSignature())
	if err != nil {
		t.Fatalf("newFuncDispatcher failed: %v", err)
	}

	state := Values{"your_age": "not an int"}
	parsed := Values{"your_name": "Johnny"}
	_, callErr := d.call(context.Background(), state, parsed)
	var derr *DispatchError
	if !errors.As(callErr, &derr) {
		t.Fatalf("Expected a DispatchError, got %v", callErr)
	}
	if derr.Param != "your_age" {
		t.Errorf("Expected the error to name your_age, got %q", derr.Param)
	}
}

func TestStructDispatcher(t *testing.T) {
	sig := Signature{Name: "x", Params: []Param{
		{Name: "host", Type: String},
		{Name: "port", Type: Int, Default: 8080},
	}}

	d, err := newStructDispatcher(&addrPrototype{}, sig, [][]int{{0}, {1}})
	if err != nil {
		t.Fatalf("newStructDispatcher failed: %v", err)
	}
	out, err := d.call(context.Background(), nil, Values{"host": "localhost", "port": 9090})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if out != "localhost:9090" {
		t.Errorf("Expected localhost:9090, got %v", out)
	}
}

type addrPrototype struct {
	Host string
	Port int
}

func (p *addrPrototype) Run() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

func TestStructDispatcherRequiresRunMethod(t *testing.T) {
	type noRun struct{ X int }
	_, err := newStructDispatcher(&noRun{}, Signature{Name: "x", Params: []Param{{Name: "x", Type: Int}}}, [][]int{{0}})
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected a CompileError, got %v", err)
	}
	if cerr.Type != ErrorTypeBadCallable {
		t.Errorf("Expected bad_callable, got %s", cerr.Type)
	}
}
