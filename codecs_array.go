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

// primitiveCodecFor returns the scalarCodec parametrization for the
// integer PrimitiveKinds; float/double are handled separately since
// scalarCodec only covers integers.
func primitiveCodecFor(kind PrimitiveKind) scalarCodec {
	switch kind {
	case PrimitiveByte:
		return scalarCodec{bitSize: 8, signed: false}
	case PrimitiveShort:
		return scalarCodec{bitSize: 16, signed: true}
	case PrimitiveInt:
		return scalarCodec{bitSize: 32, signed: true}
	default:
		return scalarCodec{bitSize: 64, signed: true}
	}
}

func readPrimitiveElement(r *BitReader, kind PrimitiveKind, order ByteOrder) (any, error) {
	switch kind {
	case PrimitiveFloat:
		return r.ReadFloat32(order)
	case PrimitiveDouble:
		return r.ReadFloat64(order)
	default:
		return primitiveCodecFor(kind).readRaw(r, order)
	}
}

func writePrimitiveElement(w *BitWriter, kind PrimitiveKind, order ByteOrder, v any) error {
	switch kind {
	case PrimitiveFloat:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		return w.WriteFloat32(float32(f), order)
	case PrimitiveDouble:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		return w.WriteFloat64(f, order)
	default:
		u, err := toUint64(v)
		if err != nil {
			return err
		}
		switch primitiveCodecFor(kind).bitSize {
		case 8:
			return w.WriteByte(byte(u))
		case 16:
			return w.WriteUint16(uint16(u), order)
		case 32:
			return w.WriteUint32(uint32(u), order)
		default:
			return w.WriteUint64(u, order)
		}
	}
}

// arrayPrimitiveCodec implements BindArrayPrimitive: a counted run of
// homogeneous scalar elements (spec.md §3), generalizing the teacher's
// BasicList of a single IANA type to any PrimitiveKind.
type arrayPrimitiveCodec struct{}

func (arrayPrimitiveCodec) Decode(r *BitReader, binding Binding, ctx *ParserContext, engine *Engine) (any, error) {
	count, err := ctx.Evaluator.EvaluateSize(binding.SizeExpr, ctx)
	if err != nil {
		return nil, err
	}
	elements := make([]any, count)
	for i := 0; i < count; i++ {
		v, err := readPrimitiveElement(r, binding.ElementType, binding.ByteOrder)
		if err != nil {
			return nil, err
		}
		elements[i] = v
	}
	return finishDecode(engine, ctx, binding, elements)
}

func (arrayPrimitiveCodec) Encode(w *BitWriter, binding Binding, ctx *ParserContext, engine *Engine, value any) error {
	raw, err := prepareEncode(engine, ctx, binding, value)
	if err != nil {
		return err
	}
	elements, ok := raw.([]any)
	if !ok {
		return NewEncodeError("", "arrayPrimitive converter must produce []any")
	}
	for _, v := range elements {
		if err := writePrimitiveElement(w, binding.ElementType, binding.ByteOrder, v); err != nil {
			return err
		}
	}
	return nil
}

// arrayCodec implements BindArray: a counted run of nested objects,
// each resolved exactly as BindObject resolves a single one (including
// per-element polymorphic selection via ObjectChoices).
type arrayCodec struct{}

func (arrayCodec) Decode(r *BitReader, binding Binding, ctx *ParserContext, engine *Engine) (any, error) {
	count, err := ctx.Evaluator.EvaluateSize(binding.SizeExpr, ctx)
	if err != nil {
		return nil, err
	}
	elements := make([]any, count)
	for i := 0; i < count; i++ {
		v, err := decodeObjectValue(r, binding, ctx, engine)
		if err != nil {
			return nil, err
		}
		elements[i] = v
	}
	return finishDecode(engine, ctx, binding, elements)
}

func (arrayCodec) Encode(w *BitWriter, binding Binding, ctx *ParserContext, engine *Engine, value any) error {
	raw, err := prepareEncode(engine, ctx, binding, value)
	if err != nil {
		return err
	}
	elements, ok := raw.([]any)
	if !ok {
		return NewEncodeError("", "array converter must produce []any")
	}
	for _, v := range elements {
		if err := encodeObjectValue(w, binding, ctx, engine, v); err != nil {
			return err
		}
	}
	return nil
}

// skipCodec implements the degenerate BindSkip binding kind, used when
// a field slot exists purely to consume/emit padding with no logical
// value (spec.md §3 Skip). It never appears in the codec registry
// lookup for an ordinary BoundField's Binding.Kind in practice, since
// padding is modeled via BoundField.Skips; it is registered for
// completeness and for hosts that want a field whose only purpose is
// to advance the cursor.
type skipCodec struct{}

func (skipCodec) Decode(r *BitReader, binding Binding, ctx *ParserContext, engine *Engine) (any, error) {
	n, err := ctx.Evaluator.EvaluateSize(binding.SizeExpr, ctx)
	if err != nil {
		return nil, err
	}
	if err := r.Skip(n); err != nil {
		return nil, err
	}
	return nil, nil
}

func (skipCodec) Encode(w *BitWriter, binding Binding, ctx *ParserContext, engine *Engine, value any) error {
	n, err := ctx.Evaluator.EvaluateSize(binding.SizeExpr, ctx)
	if err != nil {
		return err
	}
	return w.WriteBits(0, n)
}
