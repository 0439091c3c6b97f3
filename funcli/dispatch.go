package funcli

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/dzonerzy/go-funcli/internal/fuzzy"
)

var (
	ctxType      = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType      = reflect.TypeOf((*error)(nil)).Elem()
	durationType = reflect.TypeOf(time.Duration(0))
)

// returnMode captures the accepted callable return shapes.
type returnMode int

const (
	returnNothing returnMode = iota
	returnError
	returnValue
	returnValueError
)

// dispatcher reconstructs the call: it validates a signature against a real
// Go function (or a struct's Run method) at compile time, then merges bound
// state and parsed values into reflect arguments per invocation.
type dispatcher struct {
	sig      Signature
	wantsCtx bool
	targets  []reflect.Type // Go parameter type per signature parameter
	outMode  returnMode

	fn reflect.Value // func mode

	structType reflect.Type // struct mode
	fields     [][]int      // field index path per signature parameter
	methodIdx  int
}

// newFuncDispatcher validates fn against the signature: an optional leading
// context.Context, then one Go parameter per declared parameter in order,
// returning nothing, error, a value, or a value and an error.
func newFuncDispatcher(fn any, sig Signature) (*dispatcher, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, newCompileError(ErrorTypeBadCallable, "",
			"callable must be a function, got %T", fn)
	}
	t := v.Type()

	d := &dispatcher{sig: sig, fn: v}
	d.wantsCtx = t.NumIn() > 0 && t.In(0) == ctxType
	base := 0
	if d.wantsCtx {
		base = 1
	}
	if t.NumIn()-base != len(sig.Params) {
		return nil, newCompileError(ErrorTypeBadCallable, "",
			"function takes %d parameters, signature declares %d", t.NumIn()-base, len(sig.Params))
	}

	d.targets = make([]reflect.Type, len(sig.Params))
	for i, p := range sig.Params {
		target := t.In(base + i)
		if err := checkParamTarget(p, target); err != nil {
			return nil, err
		}
		d.targets[i] = target
	}

	mode, err := checkReturns(t)
	if err != nil {
		return nil, err
	}
	d.outMode = mode
	return d, nil
}

// newStructDispatcher validates a struct prototype whose fields carry the
// parameter values and whose Run method is the callable. fields maps each
// signature parameter to its field index path.
func newStructDispatcher(prototype any, sig Signature, fields [][]int) (*dispatcher, error) {
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil, newCompileError(ErrorTypeBadCallable, "",
			"prototype must be a pointer to a struct, got %T", prototype)
	}
	method, ok := t.MethodByName("Run")
	if !ok {
		return nil, newCompileError(ErrorTypeBadCallable, "",
			"%s has no Run method", t.Elem().Name())
	}

	d := &dispatcher{
		sig:        sig,
		structType: t.Elem(),
		fields:     fields,
		methodIdx:  method.Index,
	}

	mt := method.Type // receiver is In(0)
	d.wantsCtx = mt.NumIn() > 1 && mt.In(1) == ctxType
	want := 1
	if d.wantsCtx {
		want = 2
	}
	if mt.NumIn() != want {
		return nil, newCompileError(ErrorTypeBadCallable, "",
			"Run method must take no parameters beyond an optional context.Context")
	}

	d.targets = make([]reflect.Type, len(sig.Params))
	for i, p := range sig.Params {
		field := d.structType.FieldByIndex(fields[i])
		if err := checkParamTarget(p, field.Type); err != nil {
			return nil, err
		}
		d.targets[i] = field.Type
	}

	mode, err := checkReturns(mt)
	if err != nil {
		return nil, err
	}
	d.outMode = mode
	return d, nil
}

// call merges bound state and parsed values, converts them to the callable's
// parameter types and invokes it. The variadic capture arrives from parsing
// only; a name present in both sources is rejected like a duplicate keyword.
func (d *dispatcher) call(ctx context.Context, state, parsed Values) (any, error) {
	merged := make(Values, len(parsed)+len(state))
	for k, v := range parsed {
		merged[k] = v
	}
	for k, v := range state {
		p, ok := d.sig.param(k)
		if !ok {
			derr := newDispatchError(k, "bound state names unknown parameter %q", k)
			if closest := fuzzy.Closest(k, d.sig.paramNames(), 2); closest != "" {
				derr.Suggestions = append(derr.Suggestions, fmt.Sprintf("Did you mean %q?", closest))
			}
			return nil, derr
		}
		if p.Variadic {
			return nil, newDispatchError(k, "variadic parameter %q cannot be bound as state", k)
		}
		if _, dup := merged[k]; dup {
			return nil, newDispatchError(k, "got multiple values for parameter %q", k)
		}
		merged[k] = v
	}

	args := make([]reflect.Value, 0, len(d.sig.Params)+1)
	if d.wantsCtx {
		args = append(args, reflect.ValueOf(ctx))
	}

	if d.structType != nil {
		inst := reflect.New(d.structType)
		for i, p := range d.sig.Params {
			rv, err := d.paramValue(merged, i, p)
			if err != nil {
				return nil, err
			}
			inst.Elem().FieldByIndex(d.fields[i]).Set(rv)
		}
		return d.finish(inst.Method(d.methodIdx).Call(args))
	}

	for i, p := range d.sig.Params {
		rv, err := d.paramValue(merged, i, p)
		if err != nil {
			return nil, err
		}
		args = append(args, rv)
	}
	if d.fn.Type().IsVariadic() {
		return d.finish(d.fn.CallSlice(args))
	}
	return d.finish(d.fn.Call(args))
}

func (d *dispatcher) paramValue(merged Values, i int, p Param) (reflect.Value, error) {
	v, ok := merged[p.Name]
	if !ok {
		return reflect.Value{}, newDispatchError(p.Name,
			"missing value for parameter %q: not parsed and not bound", p.Name)
	}
	return convertAssign(v, p, d.targets[i])
}

func (d *dispatcher) finish(rets []reflect.Value) (any, error) {
	switch d.outMode {
	case returnError:
		return nil, retError(rets[0])
	case returnValue:
		return rets[0].Interface(), nil
	case returnValueError:
		return rets[0].Interface(), retError(rets[1])
	default:
		return nil, nil
	}
}

func retError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

// valueShape is the runtime shape a parameter's values take after parsing.
type valueShape struct {
	optional bool
	slice    bool
	elem     Kind
}

func shapeOf(t TypeSpec) valueShape {
	var s valueShape
	for t.Kind() == KindDoc || t.Kind() == KindOptional {
		if t.Kind() == KindOptional {
			s.optional = true
		}
		t = t.Elem()
	}
	if t.Kind() == KindSlice {
		s.slice = true
		t = t.Elem()
	}
	s.elem = t.Kind()
	return s
}

// checkParamTarget verifies the Go parameter type can receive the values a
// declared type produces: slices for sequences and variadics, pointers for
// optional scalars, kind-compatible scalars otherwise.
func checkParamTarget(p Param, target reflect.Type) error {
	if p.Type.isZero() {
		return newCompileError(ErrorTypeMissingType, p.Name,
			"parameter has no declared type")
	}
	sh := shapeOf(p.Type)
	switch {
	case p.Variadic, sh.slice:
		if target.Kind() != reflect.Slice {
			return newCompileError(ErrorTypeBadCallable, p.Name,
				"parameter %q yields a sequence but the function takes %s", p.Name, target)
		}
		return checkScalarTarget(p.Name, sh.elem, target.Elem())
	case sh.optional:
		if target.Kind() != reflect.Ptr {
			return newCompileError(ErrorTypeBadCallable, p.Name,
				"optional parameter %q requires a pointer parameter, the function takes %s", p.Name, target)
		}
		return checkScalarTarget(p.Name, sh.elem, target.Elem())
	default:
		return checkScalarTarget(p.Name, sh.elem, target)
	}
}

func checkScalarTarget(param string, kind Kind, target reflect.Type) error {
	ok := false
	switch kind {
	case KindString, KindEnum:
		ok = target.Kind() == reflect.String
	case KindInt:
		switch target.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			ok = target != durationType
		}
	case KindFloat:
		ok = target.Kind() == reflect.Float32 || target.Kind() == reflect.Float64
	case KindBool:
		ok = target.Kind() == reflect.Bool
	case KindDuration:
		ok = target == durationType
	}
	if !ok {
		return newCompileError(ErrorTypeBadCallable, param,
			"parameter %q: cannot deliver a %s value to %s", param, kind, target)
	}
	return nil
}

// convertAssign adapts one merged value to the callable's parameter type:
// nil becomes the zero value (nil pointer or slice), optional scalars are
// boxed behind a fresh pointer, slices convert elementwise, and scalars use
// kind-compatible conversion (so enum strings flow into named string types).
func convertAssign(v any, p Param, target reflect.Type) (reflect.Value, error) {
	sh := shapeOf(p.Type)
	if v == nil {
		if !sh.optional && !sh.slice {
			return reflect.Value{}, newDispatchError(p.Name,
				"nil value for non-optional parameter %q", p.Name)
		}
		return reflect.Zero(target), nil
	}

	switch {
	case p.Variadic, sh.slice:
		src := reflect.ValueOf(v)
		if src.Kind() != reflect.Slice {
			return reflect.Value{}, newDispatchError(p.Name,
				"cannot use %T as %s for parameter %q", v, target, p.Name)
		}
		if src.Type() == target {
			return src, nil
		}
		out := reflect.MakeSlice(target, src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			ev, err := scalarValue(src.Index(i).Interface(), target.Elem(), p.Name)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case sh.optional:
		ptr := reflect.New(target.Elem())
		ev, err := scalarValue(v, target.Elem(), p.Name)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr.Elem().Set(ev)
		return ptr, nil
	default:
		return scalarValue(v, target, p.Name)
	}
}

func scalarValue(v any, target reflect.Type, param string) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Value{}, newDispatchError(param, "nil value for parameter %q", param)
	}
	if rv.Type() == target {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(target) && rv.Kind() == target.Kind() ||
		(isIntKind(rv.Kind()) && isIntKind(target.Kind())) ||
		(isFloatKind(rv.Kind()) && isFloatKind(target.Kind())) {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, newDispatchError(param,
		"cannot use %T as %s for parameter %q", v, target, param)
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func checkReturns(t reflect.Type) (returnMode, error) {
	switch t.NumOut() {
	case 0:
		return returnNothing, nil
	case 1:
		if t.Out(0) == errType {
			return returnError, nil
		}
		return returnValue, nil
	case 2:
		if t.Out(1) != errType {
			return 0, newCompileError(ErrorTypeBadCallable, "",
				"second return value must be error, got %s", t.Out(1))
		}
		return returnValueError, nil
	default:
		return 0, newCompileError(ErrorTypeBadCallable, "",
			"callable returns %d values, at most two are supported", t.NumOut())
	}
}
