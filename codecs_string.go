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

// stringCodec implements BindString: a fixed-length byte run decoded
// in binding.Charset (spec.md §3).
type stringCodec struct{}

func (stringCodec) Decode(r *BitReader, binding Binding, ctx *ParserContext, engine *Engine) (any, error) {
	raw, err := r.ReadText(binding.Length, func(b []byte) (string, error) {
		return decodeText(binding.Charset, b)
	})
	if err != nil {
		return nil, err
	}
	return finishDecode(engine, ctx, binding, raw)
}

func (stringCodec) Encode(w *BitWriter, binding Binding, ctx *ParserContext, engine *Engine, value any) error {
	raw, err := prepareEncode(engine, ctx, binding, value)
	if err != nil {
		return err
	}
	s, ok := raw.(string)
	if !ok {
		return NewEncodeError("", "string converter must produce a string")
	}
	encoded, err := encodeText(binding.Charset, s)
	if err != nil {
		return err
	}
	if len(encoded) > binding.Length {
		return NewEncodeError("", "encoded string longer than fixed field length")
	}
	if len(encoded) < binding.Length {
		padded := make([]byte, binding.Length)
		copy(padded, encoded)
		encoded = padded
	}
	return w.WriteBytes(encoded)
}

// stringTerminatedCodec implements BindStringTerminated: bytes read up
// to a terminator byte, using the reader's single fallback mark to
// optionally leave the terminator unconsumed (spec.md §3, §4.1).
type stringTerminatedCodec struct{}

func (stringTerminatedCodec) Decode(r *BitReader, binding Binding, ctx *ParserContext, engine *Engine) (any, error) {
	raw, err := r.ReadTextUntilTerminator(binding.Terminator, binding.ConsumeTerminator, func(b []byte) (string, error) {
		return decodeText(binding.Charset, b)
	})
	if err != nil {
		return nil, err
	}
	return finishDecode(engine, ctx, binding, raw)
}

func (stringTerminatedCodec) Encode(w *BitWriter, binding Binding, ctx *ParserContext, engine *Engine, value any) error {
	raw, err := prepareEncode(engine, ctx, binding, value)
	if err != nil {
		return err
	}
	s, ok := raw.(string)
	if !ok {
		return NewEncodeError("", "string converter must produce a string")
	}
	encoded, err := encodeText(binding.Charset, s)
	if err != nil {
		return err
	}
	if err := w.WriteBytes(encoded); err != nil {
		return err
	}
	if binding.ConsumeTerminator {
		return w.WriteByte(binding.Terminator)
	}
	return nil
}

// finishDecode applies the converter then the validator to a just-read
// raw wire value, the common tail of every Codec.Decode.
func finishDecode(engine *Engine, ctx *ParserContext, binding Binding, raw any) (any, error) {
	converter, err := resolveConverter(engine.Converters, binding, ctx)
	if err != nil {
		return nil, err
	}
	logical, err := converter.Decode(raw)
	if err != nil {
		return nil, err
	}
	validator, err := engine.Validators.Resolve(binding.Validator)
	if err != nil {
		return nil, err
	}
	if validator != nil {
		if err := validator.Validate(logical); err != nil {
			return nil, err
		}
	}
	return logical, nil
}

// prepareEncode validates a logical value and runs it through the
// converter to a raw wire value, the common head of every Codec.Encode.
func prepareEncode(engine *Engine, ctx *ParserContext, binding Binding, value any) (any, error) {
	validator, err := engine.Validators.Resolve(binding.Validator)
	if err != nil {
		return nil, err
	}
	if validator != nil {
		if err := validator.Validate(value); err != nil {
			return nil, err
		}
	}
	converter, err := resolveConverter(engine.Converters, binding, ctx)
	if err != nil {
		return nil, err
	}
	return converter.Encode(value)
}
