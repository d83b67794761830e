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

package fieldcodec

import "testing"

type objNested struct {
	Value byte
}

func registerNestedTemplate(t *testing.T, engine *Engine, typeName string) {
	t.Helper()
	tmpl, err := NewTemplate(typeName, nil, []BoundField{
		{
			Name:    "Value",
			Binding: Binding{Kind: KindByte},
			Get:     func(o any) (any, bool) { return o.(*objNested).Value, true },
			Set:     func(o any, v any) error { o.(*objNested).Value = v.(byte); return nil },
		},
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewTemplate(%s): %v", typeName, err)
	}
	engine.RegisterType(typeName, tmpl, func() any { return &objNested{} })
}

func TestObjectCodecPlainRoundTrip(t *testing.T) {
	engine := testEngine()
	registerNestedTemplate(t, engine, "plainNested")
	ctx := testContext(engine)
	codec, err := engine.Codecs.Resolve(KindObject, "nested")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	binding := Binding{Kind: KindObject, ObjectType: "plainNested"}

	w := NewBitWriter()
	if err := codec.Encode(w, binding, ctx, engine, &objNested{Value: 0x42}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	r := NewBitReader(w.Bytes())
	got, err := codec.Decode(r, binding, ctx, engine)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(*objNested).Value != 0x42 {
		t.Fatalf("got %#v, want Value=0x42", got)
	}
}

func TestObjectCodecChoicesByPrefix(t *testing.T) {
	engine := testEngine()
	registerNestedTemplate(t, engine, "variantA")
	registerNestedTemplate(t, engine, "variantB")
	ctx := testContext(engine)
	codec, err := engine.Codecs.Resolve(KindObject, "nested")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	binding := Binding{
		Kind: KindObject,
		Choices: &ObjectChoices{
			PrefixSize: 8,
			ByteOrder:  BigEndian,
			Alternatives: []Alternative{
				{Type: "variantA", Prefix: 0x10},
				{Type: "variantB", Prefix: 0x20},
			},
		},
	}

	r := NewBitReader([]byte{0x20, 0x07})
	got, err := codec.Decode(r, binding, ctx, engine)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	nested, ok := got.(*objNested)
	if !ok || nested.Value != 0x07 {
		t.Fatalf("got %#v, want variantB{Value:0x07}", got)
	}
}

func TestObjectCodecChoicesByPrefixSelectDefault(t *testing.T) {
	engine := testEngine()
	registerNestedTemplate(t, engine, "variantA")
	registerNestedTemplate(t, engine, "fallback")
	ctx := testContext(engine)
	codec, err := engine.Codecs.Resolve(KindObject, "nested")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	binding := Binding{
		Kind: KindObject,
		Choices: &ObjectChoices{
			PrefixSize: 8,
			Alternatives: []Alternative{
				{Type: "variantA", Prefix: 0x10},
			},
			SelectDefault: "fallback",
		},
	}

	r := NewBitReader([]byte{0x99, 0x0A})
	got, err := codec.Decode(r, binding, ctx, engine)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(*objNested).Value != 0x0A {
		t.Fatalf("got %#v, want fallback{Value:0x0A}", got)
	}
}

func TestObjectCodecChoicesByConditionNoPrefix(t *testing.T) {
	engine := testEngine()
	registerNestedTemplate(t, engine, "variantA")
	registerNestedTemplate(t, engine, "variantB")
	ctx := testContext(engine)
	codec, err := engine.Codecs.Resolve(KindObject, "nested")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// PrefixSize 0: no prefix byte is read; selection is by Alternative
	// Condition alone, evaluated against the enclosing context.
	binding := Binding{
		Kind: KindObject,
		Choices: &ObjectChoices{
			Alternatives: []Alternative{
				{Condition: "", Type: "variantA"},
			},
		},
	}

	r := NewBitReader([]byte{0x0B})
	got, err := codec.Decode(r, binding, ctx, engine)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(*objNested).Value != 0x0B {
		t.Fatalf("got %#v, want variantA{Value:0x0B}", got)
	}
}

func TestObjectCodecNoVariantMatchErrors(t *testing.T) {
	engine := testEngine()
	registerNestedTemplate(t, engine, "variantA")
	ctx := testContext(engine)
	codec, err := engine.Codecs.Resolve(KindObject, "nested")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	binding := Binding{
		Kind: KindObject,
		Choices: &ObjectChoices{
			PrefixSize: 8,
			Alternatives: []Alternative{
				{Type: "variantA", Prefix: 0x10},
			},
		},
	}

	r := NewBitReader([]byte{0x99, 0x00})
	if _, err := codec.Decode(r, binding, ctx, engine); err == nil {
		t.Fatalf("Decode with no matching alternative and no default: expected an error")
	}
}
