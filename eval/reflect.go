/*
Copyright 2024 The fieldcodec Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package eval

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/parsec-io/fieldcodec"
)

// toNumberTracked coerces v to float64, also reporting whether v's
// underlying type was an integer (so callers can re-box arithmetic
// results as int64 instead of silently promoting everything to
// float64).
func toNumberTracked(v any) (value float64, isInt bool, err error) {
	switch t := v.(type) {
	case int:
		return float64(t), true, nil
	case int8:
		return float64(t), true, nil
	case int16:
		return float64(t), true, nil
	case int32:
		return float64(t), true, nil
	case int64:
		return float64(t), true, nil
	case uint:
		return float64(t), true, nil
	case uint8:
		return float64(t), true, nil
	case uint16:
		return float64(t), true, nil
	case uint32:
		return float64(t), true, nil
	case uint64:
		return float64(t), true, nil
	case float32:
		return float64(t), false, nil
	case float64:
		return t, false, nil
	default:
		return 0, false, fmt.Errorf("eval: %T is not numeric", v)
	}
}

// toInt converts an evaluation result to a plain int, for SizeExpr
// results.
func toInt(v any) (int, error) {
	f, _, err := toNumberTracked(v)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("eval: size expression evaluated to a negative value %v", f)
	}
	return int(f), nil
}

// fieldOf resolves target.field via reflection: map key lookup for
// map[string]any-like values, exported-field lookup (by exact name,
// falling back to a case-insensitive match) for everything else.
func fieldOf(target any, field string) (any, error) {
	if target == nil {
		return nil, fmt.Errorf("eval: cannot access field %q of nil", field)
	}
	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("eval: cannot access field %q of a nil pointer", field)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(field)
		if rv.Type().Key().Kind() == reflect.String {
			v := rv.MapIndex(key.Convert(rv.Type().Key()))
			if v.IsValid() {
				return v.Interface(), nil
			}
			return nil, fmt.Errorf("eval: map has no key %q", field)
		}
		return nil, fmt.Errorf("eval: cannot index a non-string-keyed map by field name")
	case reflect.Struct:
		fv := rv.FieldByName(field)
		if !fv.IsValid() {
			fv = rv.FieldByNameFunc(func(name string) bool {
				return strings.EqualFold(name, field)
			})
		}
		if !fv.IsValid() {
			return nil, fmt.Errorf("eval: %s has no field %q", rv.Type(), field)
		}
		if !fv.CanInterface() {
			return nil, fmt.Errorf("eval: field %q of %s is unexported", field, rv.Type())
		}
		return fv.Interface(), nil
	default:
		return nil, fmt.Errorf("eval: cannot access field %q of %T", field, target)
	}
}

// evalCall dispatches a callNode either to a built-in (len, min, max,
// abs) or to a host-registered function, invoked by reflection.
func (e *Evaluator) evalCall(n *callNode, ctx *fieldcodec.ParserContext) (any, error) {
	args := make([]any, len(n.args))
	for i, a := range n.args {
		v, err := e.eval(a, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch n.name {
	case "len":
		return builtinLen(args)
	case "min":
		return builtinMinMax(args, true)
	case "max":
		return builtinMinMax(args, false)
	case "abs":
		return builtinAbs(args)
	}

	e.mu.RLock()
	fn, ok := e.functions[n.name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("eval: unknown function %q", n.name)
	}
	return callReflect(n.name, fn, args)
}

func builtinLen(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("eval: len() takes exactly one argument")
	}
	rv := reflect.ValueOf(args[0])
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return int64(rv.Len()), nil
	default:
		return nil, fmt.Errorf("eval: len() not supported for %T", args[0])
	}
}

func builtinMinMax(args []any, wantMin bool) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("eval: min()/max() need at least one argument")
	}
	best, bestIsInt, err := toNumberTracked(args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		f, isInt, err := toNumberTracked(a)
		if err != nil {
			return nil, err
		}
		if (wantMin && f < best) || (!wantMin && f > best) {
			best = f
			bestIsInt = isInt
		}
	}
	if bestIsInt {
		return int64(best), nil
	}
	return best, nil
}

func builtinAbs(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("eval: abs() takes exactly one argument")
	}
	f, isInt, err := toNumberTracked(args[0])
	if err != nil {
		return nil, err
	}
	if f < 0 {
		f = -f
	}
	if isInt {
		return int64(f), nil
	}
	return f, nil
}

// callReflect invokes a host-registered function value with args,
// converting each argument to the function's declared parameter type
// where a direct assignment isn't already possible.
func callReflect(name string, fn any, args []any) (any, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("eval: %q is not a function", name)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return nil, fmt.Errorf("eval: %q expects at least %d arguments, got %d", name, ft.NumIn()-1, len(args))
		}
	} else if len(args) != ft.NumIn() {
		return nil, fmt.Errorf("eval: %q expects %d arguments, got %d", name, ft.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		paramIndex := i
		if ft.IsVariadic() && paramIndex >= ft.NumIn()-1 {
			paramIndex = ft.NumIn() - 1
		}
		var paramType reflect.Type
		if ft.IsVariadic() && paramIndex == ft.NumIn()-1 {
			paramType = ft.In(paramIndex).Elem()
		} else {
			paramType = ft.In(paramIndex)
		}
		av := reflect.ValueOf(a)
		if a == nil {
			in[i] = reflect.Zero(paramType)
			continue
		}
		if av.Type().ConvertibleTo(paramType) {
			in[i] = av.Convert(paramType)
			continue
		}
		in[i] = av
	}

	out := fv.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	case 2:
		if errVal, ok := out[1].Interface().(error); ok {
			if errVal != nil {
				return nil, errVal
			}
			return out[0].Interface(), nil
		}
		return out[0].Interface(), nil
	default:
		return nil, fmt.Errorf("eval: %q returns more than (value, error)", name)
	}
}
