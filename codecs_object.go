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

import "reflect"

// objectCodec implements BindObject: a nested, self-contained group of
// fields decoded by a registered Template, optionally chosen
// polymorphically via ObjectChoices (spec.md §3, §4.2). It generalizes
// the teacher's SubTemplateList, which picked a nested template by a
// fixed template ID rather than an arbitrary prefix or condition.
type objectCodec struct{}

func (objectCodec) Decode(r *BitReader, binding Binding, ctx *ParserContext, engine *Engine) (any, error) {
	return decodeObjectValue(r, binding, ctx, engine)
}

func (objectCodec) Encode(w *BitWriter, binding Binding, ctx *ParserContext, engine *Engine, value any) error {
	return encodeObjectValue(w, binding, ctx, engine, value)
}

// resolveVariantType picks the concrete sub-type name for a (possibly
// polymorphic) object binding, given an already-read prefix value (0 if
// binding.Choices.PrefixSize == 0). When havePrefix is true, the first
// alternative whose Prefix equals prefix is chosen and no Condition is
// evaluated; otherwise each alternative's Condition is evaluated in
// order against ctx.
func resolveVariantType(binding Binding, ctx *ParserContext, havePrefix bool, prefix uint64) (string, error) {
	if binding.Choices == nil {
		if binding.Selector != "" {
			result, err := ctx.Evaluator.Evaluate(binding.Selector, ctx, "")
			if err != nil {
				return "", err
			}
			if s, ok := result.(string); ok && s != "" {
				return s, nil
			}
			return "", noVariantMatch("")
		}
		return binding.ObjectType, nil
	}

	choices := binding.Choices
	for _, alt := range choices.Alternatives {
		if havePrefix {
			if alt.Prefix == prefix {
				return alt.Type, nil
			}
			continue
		}
		ok, err := ctx.Evaluator.EvaluateBoolean(alt.Condition, ctx)
		if err != nil {
			return "", err
		}
		if ok {
			return alt.Type, nil
		}
	}
	if choices.SelectDefault != "" {
		return choices.SelectDefault, nil
	}
	return "", noVariantMatch("")
}

// decodeObjectValue reads an optional selection prefix, resolves the
// concrete type, constructs and populates an instance via its
// registered Template, and returns it.
func decodeObjectValue(r *BitReader, binding Binding, ctx *ParserContext, engine *Engine) (any, error) {
	elemCtx := ctx
	havePrefix := false
	var prefix uint64

	if binding.Choices != nil && binding.Choices.PrefixSize > 0 {
		v, err := r.ReadBits(binding.Choices.PrefixSize)
		if err != nil {
			return nil, err
		}
		if binding.Choices.ByteOrder == BigEndian {
			v = reverseByteOrder(v, binding.Choices.PrefixSize)
		}
		prefix = v
		havePrefix = true
		elemCtx = ctx.WithPrefix(prefix)
	}

	typeName, err := resolveVariantType(binding, elemCtx, havePrefix, prefix)
	if err != nil {
		return nil, err
	}
	tmpl, err := engine.templateFor(typeName)
	if err != nil {
		return nil, err
	}
	instance, err := engine.newInstance(typeName)
	if err != nil {
		return nil, err
	}
	selfCtx := elemCtx.WithSelf(instance)
	if err := decodeTemplateBody(r, tmpl, selfCtx, engine); err != nil {
		return nil, err
	}
	return instance, nil
}

// resolveVariantTypeByValue implements spec.md §4.2's encode-side
// selection rule: the concrete runtime type of value is matched against
// each alternative's registered Go type (isAssignableFrom), not against
// its Condition. Conditions only drive decode-side selection, and only
// for choices without a prefix.
func resolveVariantTypeByValue(engine *Engine, choices *ObjectChoices, value any) (Alternative, bool) {
	vt := concreteType(reflect.TypeOf(value))
	for _, alt := range choices.Alternatives {
		ctor, ok := engine.construct[alt.Type]
		if !ok {
			continue
		}
		if concreteType(reflect.TypeOf(ctor())) == vt {
			return alt, true
		}
	}
	return Alternative{}, false
}

func concreteType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// encodeObjectValue writes an optional selection prefix (derived from
// the chosen alternative, not re-evaluated from the host's own
// condition) and then the instance's fields via its registered
// Template.
func encodeObjectValue(w *BitWriter, binding Binding, ctx *ParserContext, engine *Engine, value any) error {
	elemCtx := ctx
	typeName := binding.ObjectType
	var chosenPrefix uint64
	writePrefix := false

	if binding.Choices != nil {
		choices := binding.Choices
		alt, ok := resolveVariantTypeByValue(engine, choices, value)
		if !ok {
			if choices.SelectDefault == "" {
				return noVariantMatch("")
			}
			alt = Alternative{Type: choices.SelectDefault}
		}
		typeName = alt.Type
		if choices.PrefixSize > 0 {
			chosenPrefix = alt.Prefix
			writePrefix = true
			elemCtx = ctx.WithPrefix(chosenPrefix)
		}
	} else if binding.Selector != "" {
		resolved, err := resolveVariantType(binding, ctx, false, 0)
		if err != nil {
			return err
		}
		typeName = resolved
	}

	if writePrefix {
		v := chosenPrefix
		if binding.Choices.ByteOrder == BigEndian {
			v = reverseByteOrder(v, binding.Choices.PrefixSize)
		}
		if err := w.WriteBits(v, binding.Choices.PrefixSize); err != nil {
			return err
		}
	}

	tmpl, err := engine.templateFor(typeName)
	if err != nil {
		return err
	}
	selfCtx := elemCtx.WithSelf(value)
	return encodeTemplateBody(w, tmpl, selfCtx, engine, value)
}
