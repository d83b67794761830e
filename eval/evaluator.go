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
	"strconv"
	"strings"
	"sync"

	"github.com/parsec-io/fieldcodec"
)

// compiledExpr caches a parsed expression (or its parse error) so a
// Template reused across millions of messages pays the parse cost once
// per distinct expression string, not once per message (spec.md §4.4).
type compiledExpr struct {
	ast node
	err error
}

// Evaluator is fieldcodec's default, dependency-free implementation of
// the host-pluggable fieldcodec.Evaluator capability: a small
// arithmetic/boolean/field-access expression language with a
// construct-once compilation cache.
type Evaluator struct {
	mu        sync.RWMutex
	cache     map[string]*compiledExpr
	context   map[string]any
	functions map[string]any
}

// New creates an Evaluator with the built-in function set (len, min,
// max, abs) and an empty context.
func New() *Evaluator {
	return &Evaluator{
		cache:     make(map[string]*compiledExpr),
		context:   make(map[string]any),
		functions: make(map[string]any),
	}
}

var _ fieldcodec.Evaluator = (*Evaluator)(nil)

// AddToContext seeds a value reachable from any expression under name.
func (e *Evaluator) AddToContext(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.context[name] = value
}

// RemoveFromContext removes a previously-added context value.
func (e *Evaluator) RemoveFromContext(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.context, name)
}

// AddFunction registers fn (any func value) as callable by name from
// expressions, via reflection at call time.
func (e *Evaluator) AddFunction(name string, fn any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.functions[name] = fn
}

func (e *Evaluator) compile(expr string) (node, error) {
	e.mu.RLock()
	if c, ok := e.cache[expr]; ok {
		e.mu.RUnlock()
		return c.ast, c.err
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.cache[expr]; ok {
		return c.ast, c.err
	}
	ast, err := parse(expr)
	e.cache[expr] = &compiledExpr{ast: ast, err: err}
	return ast, err
}

// Evaluate parses (or recalls) expr and evaluates it against ctx.
// targetType is informational only; this implementation does not
// attempt a conversion to it, leaving that to the caller.
func (e *Evaluator) Evaluate(expr string, ctx *fieldcodec.ParserContext, targetType any) (any, error) {
	if expr == "" {
		return nil, nil
	}
	ast, err := e.compile(expr)
	if err != nil {
		return nil, fmt.Errorf("eval: %q: %w", expr, err)
	}
	return e.eval(ast, ctx)
}

// EvaluateBoolean is Evaluate specialized to a boolean result; an
// empty expr means "always true" (spec.md §4.4).
func (e *Evaluator) EvaluateBoolean(expr string, ctx *fieldcodec.ParserContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	v, err := e.Evaluate(expr, ctx, false)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("eval: %q did not evaluate to a boolean", expr)
	}
	return b, nil
}

// EvaluateSize is Evaluate specialized to a non-negative bit/element
// count. A pure integer literal takes a fast path that never touches
// ctx, since the common case (a fixed-width field) never needs it.
func (e *Evaluator) EvaluateSize(expr string, ctx *fieldcodec.ParserContext) (int, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("eval: size expression %q evaluated to a negative value %d", expr, n)
		}
		return n, nil
	}
	v, err := e.Evaluate(expr, ctx, 0)
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

func (e *Evaluator) eval(n node, ctx *fieldcodec.ParserContext) (any, error) {
	switch t := n.(type) {
	case *numberNode:
		if t.isInt {
			return t.intValue, nil
		}
		return t.floatVal, nil
	case *stringNode:
		return t.value, nil
	case *boolNode:
		return t.value, nil
	case *identNode:
		return e.resolveIdent(t.name, ctx)
	case *fieldAccessNode:
		target, err := e.eval(t.target, ctx)
		if err != nil {
			return nil, err
		}
		return fieldOf(target, t.field)
	case *callNode:
		return e.evalCall(t, ctx)
	case *unaryNode:
		return e.evalUnary(t, ctx)
	case *binaryNode:
		return e.evalBinary(t, ctx)
	default:
		return nil, fmt.Errorf("eval: unknown expression node %T", n)
	}
}

func (e *Evaluator) resolveIdent(name string, ctx *fieldcodec.ParserContext) (any, error) {
	switch name {
	case "#self":
		return ctx.Self, nil
	case "#root":
		return ctx.Root, nil
	case "#parent":
		return ctx.Parent, nil
	case "#prefix":
		if !ctx.HasPrefix() {
			return nil, fmt.Errorf("eval: #prefix referenced outside a prefixed variant selection")
		}
		return ctx.Prefix, nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if v, ok := e.context[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("eval: unresolved identifier %q", name)
}

func (e *Evaluator) evalUnary(n *unaryNode, ctx *fieldcodec.ParserContext) (any, error) {
	v, err := e.eval(n.operand, ctx)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case tokNot:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("eval: '!' applied to non-boolean %T", v)
		}
		return !b, nil
	case tokMinus:
		f, isInt, err := toNumberTracked(v)
		if err != nil {
			return nil, err
		}
		if isInt {
			return -int64(f), nil
		}
		return -f, nil
	default:
		return nil, fmt.Errorf("eval: invalid unary operator")
	}
}

func (e *Evaluator) evalBinary(n *binaryNode, ctx *fieldcodec.ParserContext) (any, error) {
	switch n.op {
	case tokAnd:
		l, err := e.eval(n.left, ctx)
		if err != nil {
			return nil, err
		}
		lb, ok := l.(bool)
		if !ok {
			return nil, fmt.Errorf("eval: '&&' applied to non-boolean %T", l)
		}
		if !lb {
			return false, nil
		}
		r, err := e.eval(n.right, ctx)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(bool)
		if !ok {
			return nil, fmt.Errorf("eval: '&&' applied to non-boolean %T", r)
		}
		return rb, nil
	case tokOr:
		l, err := e.eval(n.left, ctx)
		if err != nil {
			return nil, err
		}
		lb, ok := l.(bool)
		if !ok {
			return nil, fmt.Errorf("eval: '||' applied to non-boolean %T", l)
		}
		if lb {
			return true, nil
		}
		r, err := e.eval(n.right, ctx)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(bool)
		if !ok {
			return nil, fmt.Errorf("eval: '||' applied to non-boolean %T", r)
		}
		return rb, nil
	}

	left, err := e.eval(n.left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.right, ctx)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokEq:
		return equalValues(left, right), nil
	case tokNotEq:
		return !equalValues(left, right), nil
	}

	lf, lInt, lerr := toNumberTracked(left)
	rf, rInt, rerr := toNumberTracked(right)
	if lerr != nil || rerr != nil {
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return compareStrings(n.op, ls, rs)
			}
		}
		return nil, fmt.Errorf("eval: operator applied to non-numeric operands (%T, %T)", left, right)
	}
	bothInt := lInt && rInt

	switch n.op {
	case tokPlus:
		if bothInt {
			return int64(lf) + int64(rf), nil
		}
		return lf + rf, nil
	case tokMinus:
		if bothInt {
			return int64(lf) - int64(rf), nil
		}
		return lf - rf, nil
	case tokStar:
		if bothInt {
			return int64(lf) * int64(rf), nil
		}
		return lf * rf, nil
	case tokSlash:
		if rf == 0 {
			return nil, fmt.Errorf("eval: division by zero")
		}
		if bothInt {
			return int64(lf) / int64(rf), nil
		}
		return lf / rf, nil
	case tokPercent:
		if rf == 0 {
			return nil, fmt.Errorf("eval: modulo by zero")
		}
		return int64(lf) % int64(rf), nil
	case tokLess:
		return lf < rf, nil
	case tokLessEq:
		return lf <= rf, nil
	case tokGreater:
		return lf > rf, nil
	case tokGreaterEq:
		return lf >= rf, nil
	default:
		return nil, fmt.Errorf("eval: invalid binary operator")
	}
}

func compareStrings(op tokenKind, l, r string) (any, error) {
	switch op {
	case tokLess:
		return l < r, nil
	case tokLessEq:
		return l <= r, nil
	case tokGreater:
		return l > r, nil
	case tokGreaterEq:
		return l >= r, nil
	default:
		return nil, fmt.Errorf("eval: operator not valid for strings")
	}
}

func equalValues(l, r any) bool {
	lf, lInt, lerr := toNumberTracked(l)
	rf, rInt, rerr := toNumberTracked(r)
	if lerr == nil && rerr == nil {
		if lInt && rInt {
			return int64(lf) == int64(rf)
		}
		return lf == rf
	}
	return fmt.Sprintf("%v", l) == fmt.Sprintf("%v", r)
}
