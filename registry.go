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

// Codec knows how to read and write one field of a given BindingKind
// (spec.md §4.2). engine is the enclosing Engine, giving codecs access
// to the converter/validator registries and (for BindObject/BindArray)
// recursive access to nested templates.
type Codec interface {
	Decode(r *BitReader, binding Binding, ctx *ParserContext, engine *Engine) (any, error)
	Encode(w *BitWriter, binding Binding, ctx *ParserContext, engine *Engine, value any) error
}

// CodecRegistry maps a BindingKind to the Codec that reads and writes
// it (spec.md §4.2). It is built once at startup and then only read;
// this mirrors the teacher's data_types.go global
// name-to-constructor map, generalized from a fixed IANA type table to
// a small, host-extensible registry.
type CodecRegistry struct {
	codecs map[BindingKind]Codec
}

// NewCodecRegistry returns a registry pre-populated with the engine's
// built-in codecs for every BindingKind in binding.go except
// KindChecksum and KindEvaluate, which the engine handles itself.
func NewCodecRegistry() *CodecRegistry {
	r := &CodecRegistry{codecs: make(map[BindingKind]Codec)}
	r.Register(KindByte, scalarCodec{bitSize: 8, signed: false})
	r.Register(KindShort, scalarCodec{bitSize: 16, signed: true})
	r.Register(KindInt, scalarCodec{bitSize: 32, signed: true})
	r.Register(KindLong, scalarCodec{bitSize: 64, signed: true})
	r.Register(KindBigInteger, bigIntegerCodec{})
	r.Register(KindFloat, floatCodec{double: false})
	r.Register(KindDouble, floatCodec{double: true})
	r.Register(KindBigDecimal, bigDecimalCodec{})
	r.Register(KindString, stringCodec{})
	r.Register(KindStringTerminated, stringTerminatedCodec{})
	r.Register(KindArrayPrimitive, arrayPrimitiveCodec{})
	r.Register(KindArray, arrayCodec{})
	r.Register(KindObject, objectCodec{})
	r.Register(KindSkip, skipCodec{})
	return r
}

// Register installs or overrides the codec used for kind. Hosts call
// this (via ParserBuilder.WithCodec) to add support for new binding
// kinds, mirroring the teacher's extensible DataTypeFromNumber table.
func (r *CodecRegistry) Register(kind BindingKind, codec Codec) {
	r.codecs[kind] = codec
}

// Resolve returns the codec for kind, or a CodecError identifying the
// missing binding kind and field name (spec.md §4.2).
func (r *CodecRegistry) Resolve(kind BindingKind, fieldName string) (Codec, error) {
	c, ok := r.codecs[kind]
	if !ok {
		return nil, codecNotFound(string(kind), fieldName)
	}
	return c, nil
}
