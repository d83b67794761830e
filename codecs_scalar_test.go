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

import (
	"math/big"
	"strconv"
	"testing"
)

// stubEvaluator is a minimal fieldcodec.Evaluator for codec-level unit
// tests: every SizeExpr used below is a plain integer literal, so a
// full expression language is unnecessary.
type stubEvaluator struct{}

func (stubEvaluator) Evaluate(expr string, ctx *ParserContext, targetType any) (any, error) {
	return nil, nil
}
func (stubEvaluator) EvaluateBoolean(expr string, ctx *ParserContext) (bool, error) {
	return expr == "", nil
}
func (stubEvaluator) EvaluateSize(expr string, ctx *ParserContext) (int, error) {
	if expr == "" {
		return 0, nil
	}
	return strconv.Atoi(expr)
}
func (stubEvaluator) AddToContext(name string, value any) {}
func (stubEvaluator) RemoveFromContext(name string)        {}
func (stubEvaluator) AddFunction(name string, fn any)       {}

func testEngine() *Engine {
	return NewEngine(stubEvaluator{})
}

func testContext(engine *Engine) *ParserContext {
	return NewParserContext(engine.Evaluator, nil)
}

func TestScalarCodecRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		binding Binding
		value  any
	}{
		{"byte", Binding{Kind: KindByte}, byte(0xAB)},
		{"shortBE", Binding{Kind: KindShort, ByteOrder: BigEndian}, int16(-1000)},
		{"shortLE", Binding{Kind: KindShort, ByteOrder: LittleEndian}, int16(1000)},
		{"intBE", Binding{Kind: KindInt, ByteOrder: BigEndian}, int32(-123456)},
		{"longBE", Binding{Kind: KindLong, ByteOrder: BigEndian}, int64(-9001)},
	}
	engine := testEngine()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			codec, err := engine.Codecs.Resolve(tc.binding.Kind, "field")
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			ctx := testContext(engine)
			w := NewBitWriter()
			if err := codec.Encode(w, tc.binding, ctx, engine, tc.value); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			r := NewBitReader(w.Bytes())
			got, err := codec.Decode(r, tc.binding, ctx, engine)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tc.value {
				t.Fatalf("got %v (%T), want %v (%T)", got, got, tc.value, tc.value)
			}
		})
	}
}

// TestScalarCodecReducedLength covers spec.md §4 supplement 1: a
// short/int/long binding with a SizeExpr writes and reads fewer bits
// than its native width, not the full 16/32/64-bit wire value.
func TestScalarCodecReducedLength(t *testing.T) {
	engine := testEngine()
	ctx := testContext(engine)

	t.Run("12 of 16 bits", func(t *testing.T) {
		codec, err := engine.Codecs.Resolve(KindShort, "v")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		binding := Binding{Kind: KindShort, ByteOrder: BigEndian, SizeExpr: "12"}
		w := NewBitWriter()
		if err := codec.Encode(w, binding, ctx, engine, int16(1500)); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if len(w.Bytes()) != 2 {
			t.Fatalf("encoded %d bytes, want 2 (12 bits rounded up)", len(w.Bytes()))
		}
		r := NewBitReader(w.Bytes())
		got, err := codec.Decode(r, binding, ctx, engine)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.(int16) != 1500 {
			t.Fatalf("got %v, want 1500", got)
		}
	})

	t.Run("signed negative value round-trips", func(t *testing.T) {
		codec, err := engine.Codecs.Resolve(KindInt, "v")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		binding := Binding{Kind: KindInt, ByteOrder: BigEndian, SizeExpr: "10"}
		w := NewBitWriter()
		if err := codec.Encode(w, binding, ctx, engine, int32(-5)); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		r := NewBitReader(w.Bytes())
		got, err := codec.Decode(r, binding, ctx, engine)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.(int32) != -5 {
			t.Fatalf("got %v, want -5", got)
		}
	})

	t.Run("a reduced field does not consume the full native width", func(t *testing.T) {
		codec, err := engine.Codecs.Resolve(KindByte, "v")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		binding := Binding{Kind: KindByte, SizeExpr: "4"}
		w := NewBitWriter()
		if err := codec.Encode(w, binding, ctx, engine, byte(0x0F)); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if err := codec.Encode(w, binding, ctx, engine, byte(0x0A)); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if len(w.Bytes()) != 1 {
			t.Fatalf("two 4-bit fields used %d bytes, want 1", len(w.Bytes()))
		}
		if w.Bytes()[0] != 0xAF {
			t.Fatalf("packed byte = %#x, want 0xaf (first field in the low nibble)", w.Bytes()[0])
		}
	})
}

func TestFloatDoubleCodecRoundTrip(t *testing.T) {
	engine := testEngine()
	ctx := testContext(engine)

	floatCodec, err := engine.Codecs.Resolve(KindFloat, "f")
	if err != nil {
		t.Fatalf("Resolve(float): %v", err)
	}
	w := NewBitWriter()
	if err := floatCodec.Encode(w, Binding{Kind: KindFloat, ByteOrder: BigEndian}, ctx, engine, float32(3.5)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	r := NewBitReader(w.Bytes())
	got, err := floatCodec.Decode(r, Binding{Kind: KindFloat, ByteOrder: BigEndian}, ctx, engine)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(float32) != 3.5 {
		t.Fatalf("got %v, want 3.5", got)
	}

	doubleCodec, err := engine.Codecs.Resolve(KindDouble, "d")
	if err != nil {
		t.Fatalf("Resolve(double): %v", err)
	}
	w = NewBitWriter()
	if err := doubleCodec.Encode(w, Binding{Kind: KindDouble, ByteOrder: LittleEndian}, ctx, engine, float64(-2.25)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	r = NewBitReader(w.Bytes())
	got, err = doubleCodec.Decode(r, Binding{Kind: KindDouble, ByteOrder: LittleEndian}, ctx, engine)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(float64) != -2.25 {
		t.Fatalf("got %v, want -2.25", got)
	}
}

func TestBigIntegerCodecRoundTrip(t *testing.T) {
	engine := testEngine()
	ctx := testContext(engine)
	codec, err := engine.Codecs.Resolve(KindBigInteger, "v")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	binding := Binding{Kind: KindBigInteger, SizeExpr: "20", ByteOrder: BigEndian, Unsigned: true}
	want := big.NewInt(0xABCDE)

	w := NewBitWriter()
	if err := codec.Encode(w, binding, ctx, engine, want); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	r := NewBitReader(w.Bytes())
	got, err := codec.Decode(r, binding, ctx, engine)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	gotBig, ok := got.(*big.Int)
	if !ok || gotBig.Cmp(want) != 0 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBigDecimalCodecRoundTrip(t *testing.T) {
	engine := testEngine()
	ctx := testContext(engine)
	codec, err := engine.Codecs.Resolve(KindBigDecimal, "v")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	binding := Binding{Kind: KindBigDecimal, DecimalType: PrimitiveDouble, ByteOrder: BigEndian}
	want := new(big.Float).SetFloat64(12.5)

	w := NewBitWriter()
	if err := codec.Encode(w, binding, ctx, engine, want); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	r := NewBitReader(w.Bytes())
	got, err := codec.Decode(r, binding, ctx, engine)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	gotFloat, ok := got.(*big.Float)
	if !ok {
		t.Fatalf("got %T, want *big.Float", got)
	}
	f, _ := gotFloat.Float64()
	if f != 12.5 {
		t.Fatalf("got %v, want 12.5", f)
	}
}

func TestScalarCodecAppliesConverter(t *testing.T) {
	engine := testEngine()
	engine.Converters.Register("doubling", func() Converter { return doublingConverter{} })
	ctx := testContext(engine)

	codec, err := engine.Codecs.Resolve(KindByte, "v")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	binding := Binding{Kind: KindByte, Converter: "doubling"}

	w := NewBitWriter()
	if err := codec.Encode(w, binding, ctx, engine, 21); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if w.Bytes()[0] != 42 {
		t.Fatalf("encoded raw byte = %d, want 42 (21 doubled)", w.Bytes()[0])
	}

	r := NewBitReader(w.Bytes())
	got, err := codec.Decode(r, binding, ctx, engine)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(int) != 21 {
		t.Fatalf("got %v, want 21 (42 halved)", got)
	}
}

// doublingConverter maps a logical int to a raw byte twice its value,
// and back; used to exercise the Converter hook from a codec test
// without reaching for a real protocol-specific conversion.
type doublingConverter struct{}

func (doublingConverter) Decode(raw any) (any, error) {
	return int(raw.(byte)) / 2, nil
}
func (doublingConverter) Encode(logical any) (any, error) {
	return byte(logical.(int) * 2), nil
}

func TestScalarCodecAppliesValidator(t *testing.T) {
	engine := testEngine()
	engine.Validators.Register("positive", func() Validator {
		return ValidatorFunc(func(v any) error {
			if v.(byte) == 0 {
				return NewEncodeError("v", "must be non-zero")
			}
			return nil
		})
	})
	ctx := testContext(engine)
	codec, err := engine.Codecs.Resolve(KindByte, "v")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	binding := Binding{Kind: KindByte, Validator: "positive"}

	w := NewBitWriter()
	if err := codec.Encode(w, binding, ctx, engine, byte(0)); err == nil {
		t.Fatalf("Encode with an invalid value: expected an error")
	}
	if err := codec.Encode(w, binding, ctx, engine, byte(5)); err != nil {
		t.Fatalf("Encode with a valid value: %v", err)
	}
}
