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

// BindingKind tags the variant of Binding in use. The codec registry
// is keyed by this value (spec.md §4.2).
type BindingKind string

const (
	KindByte             BindingKind = "byte"
	KindShort            BindingKind = "short"
	KindInt              BindingKind = "int"
	KindLong             BindingKind = "long"
	KindBigInteger       BindingKind = "bigInteger"
	KindFloat            BindingKind = "float"
	KindDouble           BindingKind = "double"
	KindBigDecimal       BindingKind = "bigDecimal"
	KindString           BindingKind = "string"
	KindStringTerminated BindingKind = "stringTerminated"
	KindArrayPrimitive   BindingKind = "arrayPrimitive"
	KindArray            BindingKind = "array"
	KindObject           BindingKind = "object"
	KindChecksum         BindingKind = "checksum"
	KindEvaluate         BindingKind = "evaluate"
	KindSkip             BindingKind = "skip"
)

// PrimitiveKind identifies the element type of a BindArrayPrimitive
// binding, or the underlying storage of a BindDecimal binding.
type PrimitiveKind string

const (
	PrimitiveByte   PrimitiveKind = "byte"
	PrimitiveShort  PrimitiveKind = "short"
	PrimitiveInt    PrimitiveKind = "int"
	PrimitiveLong   PrimitiveKind = "long"
	PrimitiveFloat  PrimitiveKind = "float"
	PrimitiveDouble PrimitiveKind = "double"
)

// Binding is the tagged-variant descriptor of how one field is laid
// out on the wire (spec.md §3 GLOSSARY). Exactly one binding applies to
// a given BoundField; Kind selects which of the parameter groups below
// is meaningful.
type Binding struct {
	Kind BindingKind

	// ByteOrder applies to byte/short/int/long/bigInteger/float/double
	// and to a checksum field's stored value. The prefix of an
	// ObjectChoices binding uses Choices.ByteOrder instead.
	ByteOrder ByteOrder

	// SizeExpr is the bit-width expression for BindBigInteger and for
	// reduced-length byte/short/int/long encodings, the element-count
	// expression for BindArrayPrimitive/BindArray, and the bit width of
	// a checksum field.
	SizeExpr string

	// Unsigned applies to BindBigInteger.
	Unsigned bool

	// DecimalType selects float or double storage for BindDecimal.
	DecimalType PrimitiveKind

	// Length is the fixed byte length of a BindString field.
	Length int

	// Terminator and ConsumeTerminator apply to BindStringTerminated.
	Terminator       byte
	ConsumeTerminator bool

	// Charset names a charset known to the string codec (see
	// codecs_string.go); empty means UTF-8.
	Charset string

	// ElementType applies to BindArrayPrimitive.
	ElementType PrimitiveKind

	// ObjectType names the concrete sub-type to decode/encode for a
	// plain (non-polymorphic) BindObject/BindArray-of-object binding.
	// When Choices is non-nil, ObjectType is ignored in favor of
	// variant selection.
	ObjectType string

	// Choices configures polymorphic selection for BindObject and
	// BindArray-of-object bindings (spec.md §3 ObjectChoices).
	Choices *ObjectChoices

	// Converter is the default converter type name; Converters lists
	// condition-guarded alternatives tried first.
	Converter  string
	Converters *ConverterChoices

	// Validator is the validator type name applied to the logical
	// value, or empty for none.
	Validator string

	// Selector is an expression evaluating to the concrete sub-type name
	// of an object binding whose Choices is nil, and the value
	// expression of a KindEvaluate binding.
	Selector string

	// ChecksumStartValue, ChecksumSkipStart and ChecksumSkipEnd apply to
	// a checksum binding (spec.md §4.3 step 6): the engine computes
	// Checksummer.Compute(bytes, bodyStart+ChecksumSkipStart,
	// bodyEnd-ChecksumSkipEnd, ChecksumStartValue), where bodyStart is
	// the position right after the template's header and bodyEnd is the
	// position right after the checksum field's own stored bytes.
	ChecksumStartValue int64
	ChecksumSkipStart  int
	ChecksumSkipEnd    int
}

// ObjectChoices is the polymorphic selection descriptor (spec.md §3).
type ObjectChoices struct {
	// PrefixSize is in bits, 0 meaning no prefix is read/written.
	PrefixSize int
	ByteOrder  ByteOrder

	Alternatives []Alternative

	// SelectDefault, if non-empty, names the concrete sub-type used on
	// decode when no alternative matches.
	SelectDefault string
}

// Alternative is one arm of an ObjectChoices selection.
type Alternative struct {
	// Condition selects this alternative on decode when PrefixSize == 0.
	// When a prefix is read, the alternative whose Prefix equals it is
	// chosen and Condition is not evaluated; NewTemplate does not reject
	// an empty Condition.
	Condition string

	// Type names the concrete sub-type this alternative decodes/encodes.
	Type string

	// Prefix is the literal value written on encode when this
	// alternative is selected, and compared against #prefix on decode.
	Prefix uint64
}

// ConverterChoices is an ordered list of (condition, converter) pairs
// plus a default, as specified in spec.md §3.
type ConverterChoices struct {
	Alternatives []ConverterAlternative
	Default      string
}

// ConverterAlternative is one arm of a ConverterChoices selection.
type ConverterAlternative struct {
	Condition string
	Converter string
}

// Skip is a pre-field skip specification (spec.md §3 BoundField).
type Skip struct {
	// Condition gates whether this skip executes; empty means always.
	Condition string

	// SizeExpr evaluates to a bit count; 0 (or empty) means "use
	// Terminator" instead of a fixed size. The terminator path runs only
	// when ConsumeTerminator is set; otherwise such a skip does nothing.
	SizeExpr string

	Terminator        byte
	ConsumeTerminator bool
}

// BoundField is one entry in a Template's ordered field plan: a
// reference to a field of the user type T, its Binding, any pre-field
// Skips, and a pre-field Condition.
type BoundField struct {
	// Name identifies the field for error attribution and for
	// get/set access via the FieldAccessor below.
	Name string

	Binding Binding

	Skips []Skip

	// Condition gates whether this field is read/written at all;
	// empty means "always" (spec.md §4.4 evaluateBoolean: empty ⇒ true).
	Condition string

	// IsChecksum marks this BoundField as the template's checksum slot.
	// At most one BoundField per Template may set this (spec.md §3).
	IsChecksum bool

	Get FieldAccessor
	Set FieldSetter
}

// EvaluatedField is a field of T populated after decode from an
// expression (spec.md §3 GLOSSARY).
type EvaluatedField struct {
	Name      string
	ValueExpr string
	Condition string

	Set FieldSetter
}

// FieldAccessor reads a field's current value off an arbitrary object
// of the template's user type. Returning (nil, false) tells the codec
// there is no value to encode (used for encode-side access failures).
type FieldAccessor func(object any) (value any, ok bool)

// FieldSetter writes a decoded value into a field of an arbitrary
// object of the template's user type.
type FieldSetter func(object any, value any) error
