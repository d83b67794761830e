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

import "time"

// DecodeState names the phase a single message's decode has reached
// (spec.md §4.3), reported to EventListener implementations that want
// finer-grained observability than MessageParsed/MessageParseFailed.
type DecodeState int

const (
	StateIdle DecodeState = iota
	StateHeaderMatching
	StateBodyFields
	StateEvaluatedFields
	StateTerminator
	StateChecksumVerify
	StateCompleted
	StateFailed
)

// DecodeMessage matches tmpl's header (if any) at the reader's current
// position, runs the body and evaluated-field passes, checks the
// terminator, and verifies the checksum field if one is declared. The
// returned instance is whatever engine.newInstance(typeName) produced,
// fully populated.
func (engine *Engine) DecodeMessage(r *BitReader, tmpl *Template, typeName string, ctx *ParserContext) (any, error) {
	start := time.Now()
	instance, err := engine.newInstance(typeName)
	if err != nil {
		return nil, err
	}

	if pattern := tmpl.HeaderPattern(); len(pattern) > 0 {
		got, rerr := r.ReadBytes(len(pattern))
		if rerr != nil {
			engine.Events.MessageParseFailed(rerr, time.Since(start))
			return nil, rerr
		}
		if !bytesEqual(got, pattern) {
			err := noTemplateFor(hexPrefix(got, 0))
			engine.Events.MessageParseFailed(err, time.Since(start))
			return nil, err
		}
	}
	bodyStart := r.Position()

	selfCtx := ctx.WithSelf(instance)
	if err := decodeTemplateBodyFrom(r, tmpl, selfCtx, engine, bodyStart); err != nil {
		engine.Events.MessageParseFailed(err, time.Since(start))
		return nil, err
	}

	if len(tmpl.Terminator) > 0 {
		got, rerr := r.ReadBytes(len(tmpl.Terminator))
		if rerr != nil {
			engine.Events.MessageParseFailed(rerr, time.Since(start))
			return nil, rerr
		}
		if !bytesEqual(got, tmpl.Terminator) {
			err := &TerminatorError{Template: tmpl.Name, Expected: tmpl.Terminator, Actual: got}
			engine.Events.MessageParseFailed(err, time.Since(start))
			return nil, err
		}
	}

	engine.Events.MessageParsed(tmpl.Name, time.Since(start))
	return instance, nil
}

// EncodeMessage writes tmpl's header (if any), body, evaluated fields
// (write-side no-ops unless their Set also participates in encode via
// a prior decode round-trip; evaluated fields are decode-only
// conveniences per spec.md §3) and terminator for instance.
func (engine *Engine) EncodeMessage(w *BitWriter, tmpl *Template, instance any, ctx *ParserContext) error {
	start := time.Now()
	if pattern := tmpl.HeaderPattern(); len(pattern) > 0 {
		if err := w.WriteBytes(pattern); err != nil {
			engine.Events.MessageComposeFailed(err, time.Since(start))
			return err
		}
	}
	bodyStart := w.Len()

	selfCtx := ctx.WithSelf(instance)
	if err := encodeTemplateBodyFrom(w, tmpl, selfCtx, engine, instance, bodyStart); err != nil {
		engine.Events.MessageComposeFailed(err, time.Since(start))
		return err
	}

	if len(tmpl.Terminator) > 0 {
		if err := w.WriteBytes(tmpl.Terminator); err != nil {
			engine.Events.MessageComposeFailed(err, time.Since(start))
			return err
		}
	}

	engine.Events.MessageComposed(tmpl.Name, time.Since(start))
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// decodeTemplateBody runs the skip/condition/dispatch sequence for
// every BoundField followed by the EvaluatedField pass (spec.md §4.3),
// treating the reader's current position as the start of the checksum
// range. Used by BindObject, whose nested templates have no header and
// so compute their checksum range from their own start.
func decodeTemplateBody(r *BitReader, tmpl *Template, ctx *ParserContext, engine *Engine) error {
	return decodeTemplateBodyFrom(r, tmpl, ctx, engine, r.Position())
}

// encodeTemplateBody is encodeTemplateBodyFrom's counterpart to
// decodeTemplateBody, used by BindObject where no outer message offset
// is available; the checksum range (if any) starts at the writer's
// current length.
func encodeTemplateBody(w *BitWriter, tmpl *Template, ctx *ParserContext, engine *Engine, instance any) error {
	return encodeTemplateBodyFrom(w, tmpl, ctx, engine, instance, w.Len())
}

func decodeTemplateBodyFrom(r *BitReader, tmpl *Template, ctx *ParserContext, engine *Engine, rangeStart int) error {
	for i := range tmpl.BoundFields {
		field := &tmpl.BoundFields[i]

		for _, skip := range field.Skips {
			run := true
			if skip.Condition != "" {
				var err error
				run, err = ctx.Evaluator.EvaluateBoolean(skip.Condition, ctx)
				if err != nil {
					return fieldError(tmpl.Name, field.Name, r.Position(), err)
				}
			}
			if !run {
				continue
			}
			n := 0
			if skip.SizeExpr != "" {
				var err error
				n, err = ctx.Evaluator.EvaluateSize(skip.SizeExpr, ctx)
				if err != nil {
					return fieldError(tmpl.Name, field.Name, r.Position(), err)
				}
			}
			if n > 0 {
				if err := r.Skip(n); err != nil {
					return fieldError(tmpl.Name, field.Name, r.Position(), err)
				}
			} else if skip.ConsumeTerminator {
				if err := r.SkipUntilTerminator(skip.Terminator); err != nil {
					return fieldError(tmpl.Name, field.Name, r.Position(), err)
				}
			}
		}

		include := true
		if field.Condition != "" {
			var err error
			include, err = ctx.Evaluator.EvaluateBoolean(field.Condition, ctx)
			if err != nil {
				return fieldError(tmpl.Name, field.Name, r.Position(), err)
			}
		}
		if !include {
			continue
		}

		if field.IsChecksum {
			width, err := ctx.Evaluator.EvaluateSize(field.Binding.SizeExpr, ctx)
			if err != nil {
				return fieldError(tmpl.Name, field.Name, r.Position(), err)
			}
			stored, err := r.readInteger(width, field.Binding.ByteOrder)
			if err != nil {
				return fieldError(tmpl.Name, field.Name, r.Position(), err)
			}
			storedValue := int64(stored)
			if engine.Checksum != nil {
				b := field.Binding
				rangeEnd := r.Position()
				computed := engine.Checksum.Compute(r.Bytes(), rangeStart+b.ChecksumSkipStart, rangeEnd-b.ChecksumSkipEnd, b.ChecksumStartValue)
				if computed != storedValue {
					Log.Info("checksum mismatch", "template", tmpl.Name, "field", field.Name, "expected", computed, "actual", storedValue)
					return &ChecksumError{Template: tmpl.Name, Expected: computed, Actual: storedValue}
				}
			}
			if err := field.Set(ctx.Self, storedValue); err != nil {
				return fieldError(tmpl.Name, field.Name, r.Position(), err)
			}
			engine.Events.FieldDecoded(tmpl.Name, field.Name)
			continue
		}

		if field.Binding.Kind == KindEvaluate {
			value, err := ctx.Evaluator.Evaluate(field.Binding.Selector, ctx, nil)
			if err != nil {
				return fieldError(tmpl.Name, field.Name, r.Position(), err)
			}
			if err := field.Set(ctx.Self, value); err != nil {
				return fieldError(tmpl.Name, field.Name, r.Position(), err)
			}
			engine.Events.FieldDecoded(tmpl.Name, field.Name)
			continue
		}

		codec, err := engine.Codecs.Resolve(field.Binding.Kind, field.Name)
		if err != nil {
			return err
		}
		engine.Events.CodecResolved(string(field.Binding.Kind))
		value, err := codec.Decode(r, field.Binding, ctx, engine)
		if err != nil {
			return fieldError(tmpl.Name, field.Name, r.Position(), err)
		}
		if err := field.Set(ctx.Self, value); err != nil {
			return fieldError(tmpl.Name, field.Name, r.Position(), err)
		}
		engine.Events.FieldDecoded(tmpl.Name, field.Name)
		Log.V(1).Info("field decoded", "template", tmpl.Name, "field", field.Name, "kind", field.Binding.Kind)
	}

	for i := range tmpl.EvaluatedFields {
		ef := &tmpl.EvaluatedFields[i]
		include := true
		if ef.Condition != "" {
			var err error
			include, err = ctx.Evaluator.EvaluateBoolean(ef.Condition, ctx)
			if err != nil {
				return fieldError(tmpl.Name, ef.Name, r.Position(), err)
			}
		}
		if !include {
			continue
		}
		value, err := ctx.Evaluator.Evaluate(ef.ValueExpr, ctx, nil)
		if err != nil {
			return fieldError(tmpl.Name, ef.Name, r.Position(), err)
		}
		if err := ef.Set(ctx.Self, value); err != nil {
			return fieldError(tmpl.Name, ef.Name, r.Position(), err)
		}
	}
	return nil
}

// encodeTemplateBodyFrom mirrors decodeTemplateBodyFrom: it writes
// every BoundField (skips become zero-bit padding), then backpatches
// the checksum field once its range is known. Evaluated fields are not
// written; they exist only to be populated on decode (spec.md §3).
func encodeTemplateBodyFrom(w *BitWriter, tmpl *Template, ctx *ParserContext, engine *Engine, instance any, rangeStart int) error {
	type pendingChecksum struct {
		field  *BoundField
		offset int
		width  int
	}
	var pending *pendingChecksum

	for i := range tmpl.BoundFields {
		field := &tmpl.BoundFields[i]

		for _, skip := range field.Skips {
			run := true
			if skip.Condition != "" {
				var err error
				run, err = ctx.Evaluator.EvaluateBoolean(skip.Condition, ctx)
				if err != nil {
					return fieldError(tmpl.Name, field.Name, w.Len(), err)
				}
			}
			if !run {
				continue
			}
			n := 0
			if skip.SizeExpr != "" {
				var err error
				n, err = ctx.Evaluator.EvaluateSize(skip.SizeExpr, ctx)
				if err != nil {
					return fieldError(tmpl.Name, field.Name, w.Len(), err)
				}
			}
			if n > 0 {
				if err := w.WriteBits(0, n); err != nil {
					return fieldError(tmpl.Name, field.Name, w.Len(), err)
				}
			} else if skip.ConsumeTerminator {
				if err := w.WriteByte(skip.Terminator); err != nil {
					return fieldError(tmpl.Name, field.Name, w.Len(), err)
				}
			}
		}

		include := true
		if field.Condition != "" {
			var err error
			include, err = ctx.Evaluator.EvaluateBoolean(field.Condition, ctx)
			if err != nil {
				return fieldError(tmpl.Name, field.Name, w.Len(), err)
			}
		}
		if !include {
			continue
		}

		if field.IsChecksum {
			width, err := ctx.Evaluator.EvaluateSize(field.Binding.SizeExpr, ctx)
			if err != nil {
				return fieldError(tmpl.Name, field.Name, w.Len(), err)
			}
			offset := w.Len()
			placeholder := make([]byte, (width+7)/8)
			if err := w.WriteBytes(placeholder); err != nil {
				return fieldError(tmpl.Name, field.Name, w.Len(), err)
			}
			pending = &pendingChecksum{field: field, offset: offset, width: width}
			engine.Events.FieldEncoded(tmpl.Name, field.Name)
			continue
		}

		if field.Binding.Kind == KindEvaluate {
			engine.Events.FieldEncoded(tmpl.Name, field.Name)
			continue
		}

		value, ok := field.Get(instance)
		if !ok {
			return NewEncodeError(field.Name, "no value available to encode")
		}
		codec, err := engine.Codecs.Resolve(field.Binding.Kind, field.Name)
		if err != nil {
			return err
		}
		engine.Events.CodecResolved(string(field.Binding.Kind))
		if err := codec.Encode(w, field.Binding, ctx, engine, value); err != nil {
			return fieldError(tmpl.Name, field.Name, w.Len(), err)
		}
		engine.Events.FieldEncoded(tmpl.Name, field.Name)
		Log.V(1).Info("field encoded", "template", tmpl.Name, "field", field.Name, "kind", field.Binding.Kind)
	}

	if pending != nil && engine.Checksum != nil {
		b := pending.field.Binding
		checksumFieldEnd := pending.offset + (pending.width+7)/8
		computed := engine.Checksum.Compute(w.Bytes(), rangeStart+b.ChecksumSkipStart, checksumFieldEnd-b.ChecksumSkipEnd, b.ChecksumStartValue)
		buf := NewBitWriter()
		if err := buf.writeInteger(uint64(computed), pending.width, b.ByteOrder); err != nil {
			return err
		}
		w.PatchAt(pending.offset, buf.Bytes())
	}

	return nil
}
