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
	"testing"

	"github.com/parsec-io/fieldcodec"
)

type widget struct {
	Name  string
	Count int
	Inner *innerWidget
}

type innerWidget struct {
	Flag bool
}

func TestEvaluateArithmetic(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)

	cases := []struct {
		expr string
		want any
	}{
		{"1 + 2", int64(3)},
		{"10 - 4 * 2", int64(2)},
		{"(10 - 4) * 2", int64(12)},
		{"7 / 2", int64(3)},
		{"7 % 2", int64(1)},
		{"1.5 + 2.5", float64(4)},
		{"-5 + 10", int64(5)},
	}
	for _, tc := range cases {
		got, err := e.Evaluate(tc.expr, ctx, nil)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tc.expr, err)
		}
		if got != tc.want {
			t.Fatalf("Evaluate(%q) = %v (%T), want %v (%T)", tc.expr, got, got, tc.want, tc.want)
		}
	}
}

func TestEvaluateComparisonsAndBooleans(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)

	cases := []struct {
		expr string
		want bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 2 && 1 < 2", true},
		{"3 > 2 && 1 > 2", false},
		{"1 > 2 || 2 == 2", true},
		{"!(1 == 2)", true},
		{`"abc" < "abd"`, true},
		{"1 == 1.0", true},
	}
	for _, tc := range cases {
		got, err := e.EvaluateBoolean(tc.expr, ctx)
		if err != nil {
			t.Fatalf("EvaluateBoolean(%q): %v", tc.expr, err)
		}
		if got != tc.want {
			t.Fatalf("EvaluateBoolean(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateBooleanEmptyIsTrue(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)
	got, err := e.EvaluateBoolean("", ctx)
	if err != nil || !got {
		t.Fatalf("EvaluateBoolean(\"\") = %v, %v, want true, nil", got, err)
	}
}

func TestEvaluateSizeFastPathAndExpression(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)

	n, err := e.EvaluateSize("16", ctx)
	if err != nil || n != 16 {
		t.Fatalf("EvaluateSize(16) = %d, %v, want 16, nil", n, err)
	}

	n, err = e.EvaluateSize("8 * 2", ctx)
	if err != nil || n != 16 {
		t.Fatalf("EvaluateSize(8*2) = %d, %v, want 16, nil", n, err)
	}

	if n, err := e.EvaluateSize("", ctx); err != nil || n != 0 {
		t.Fatalf("EvaluateSize(\"\") = %d, %v, want 0, nil", n, err)
	}

	if _, err := e.EvaluateSize("-1", ctx); err == nil {
		t.Fatalf("EvaluateSize(-1): expected an error (negative size)")
	}
}

func TestEvaluateSpecialForms(t *testing.T) {
	e := New()
	root := &widget{Name: "root", Count: 5}
	parent := &widget{Name: "parent", Count: 2}
	self := &widget{Name: "self", Count: 9, Inner: &innerWidget{Flag: true}}

	ctx := fieldcodec.NewParserContext(e, root)
	ctx = ctx.WithSelf(parent)
	ctx = ctx.WithSelf(self)

	got, err := e.Evaluate("#self.Count", ctx, nil)
	if err != nil || got != int(9) {
		t.Fatalf("#self.Count = %v, %v, want 9, nil", got, err)
	}

	got, err = e.Evaluate("#root.Name", ctx, nil)
	if err != nil || got != "root" {
		t.Fatalf("#root.Name = %v, %v, want root, nil", got, err)
	}

	got, err = e.Evaluate("#parent.Name", ctx, nil)
	if err != nil || got != "parent" {
		t.Fatalf("#parent.Name = %v, %v, want parent, nil", got, err)
	}

	got, err = e.Evaluate("#self.Inner.Flag", ctx, nil)
	if err != nil || got != true {
		t.Fatalf("#self.Inner.Flag = %v, %v, want true, nil", got, err)
	}
}

func TestEvaluatePrefixRequiresScope(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)
	if _, err := e.Evaluate("#prefix", ctx, nil); err == nil {
		t.Fatalf("#prefix outside a prefixed scope: expected an error")
	}

	withPrefix := ctx.WithPrefix(0x42)
	got, err := e.Evaluate("#prefix", withPrefix, nil)
	if err != nil {
		t.Fatalf("#prefix: %v", err)
	}
	if got.(uint64) != 0x42 {
		t.Fatalf("#prefix = %v, want 0x42", got)
	}
}

func TestEvaluateContextValues(t *testing.T) {
	e := New()
	e.AddToContext("magic", int64(7))
	ctx := fieldcodec.NewParserContext(e, nil)

	got, err := e.Evaluate("magic + 1", ctx, nil)
	if err != nil || got != int64(8) {
		t.Fatalf("magic+1 = %v, %v, want 8, nil", got, err)
	}

	e.RemoveFromContext("magic")
	if _, err := e.Evaluate("magic", ctx, nil); err == nil {
		t.Fatalf("magic after removal: expected an unresolved-identifier error")
	}
}

func TestEvaluateBuiltinFunctions(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)

	cases := []struct {
		expr string
		want any
	}{
		{`len("hello")`, int64(5)},
		{"min(3, 1, 2)", int64(1)},
		{"max(3, 1, 2)", int64(3)},
		{"abs(-5)", int64(5)},
	}
	for _, tc := range cases {
		got, err := e.Evaluate(tc.expr, ctx, nil)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tc.expr, err)
		}
		if got != tc.want {
			t.Fatalf("Evaluate(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateHostFunction(t *testing.T) {
	e := New()
	e.AddFunction("double", func(n int64) int64 { return n * 2 })
	ctx := fieldcodec.NewParserContext(e, nil)

	got, err := e.Evaluate("double(21)", ctx, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.(int64) != 42 {
		t.Fatalf("double(21) = %v, want 42", got)
	}
}

func TestEvaluateUnknownFunctionErrors(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)
	if _, err := e.Evaluate("nope(1)", ctx, nil); err == nil {
		t.Fatalf("unknown function: expected an error")
	}
}

func TestEvaluateUnresolvedIdentifierErrors(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)
	if _, err := e.Evaluate("bogus", ctx, nil); err == nil {
		t.Fatalf("unresolved identifier: expected an error")
	}
}

func TestEvaluateShortCircuits(t *testing.T) {
	e := New()
	e.AddFunction("boom", func() bool { panic("should never be called") })
	ctx := fieldcodec.NewParserContext(e, nil)

	got, err := e.EvaluateBoolean("false && boom()", ctx)
	if err != nil || got != false {
		t.Fatalf("false && boom() = %v, %v, want false, nil", got, err)
	}

	got, err = e.EvaluateBoolean("true || boom()", ctx)
	if err != nil || got != true {
		t.Fatalf("true || boom() = %v, %v, want true, nil", got, err)
	}
}

func TestCompileCacheReusesParsedExpression(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)

	expr := "1 + 2 + 3"
	if _, err := e.Evaluate(expr, ctx, nil); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	ast1, err1 := e.compile(expr)
	ast2, err2 := e.compile(expr)
	if err1 != nil || err2 != nil {
		t.Fatalf("compile errors: %v, %v", err1, err2)
	}
	if ast1 != ast2 {
		t.Fatalf("compile(%q) returned distinct ASTs across calls, want the cached instance", expr)
	}
}

func TestCompileCachesParseErrors(t *testing.T) {
	e := New()
	ctx := fieldcodec.NewParserContext(e, nil)
	if _, err := e.Evaluate("1 +", ctx, nil); err == nil {
		t.Fatalf("malformed expression: expected a parse error")
	}
	if _, err := e.Evaluate("1 +", ctx, nil); err == nil {
		t.Fatalf("malformed expression (second call): expected a parse error")
	}
}
