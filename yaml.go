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
	"encoding/hex"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// SchemaDocument is the bundled on-disk representation of a set of
// templates (spec.md §4.7 supplemented format): a YAML document naming
// an export and listing one TemplateSpec per recognized message type.
// It describes wire layout only; a host still supplies FieldAccessor
// and FieldSetter closures via BuildBoundFields, since the schema
// format has no safe way to name an arbitrary Go struct field.
type SchemaDocument struct {
	Name            string         `yaml:"name"`
	ExportTimestamp time.Time      `yaml:"exportTimestamp"`
	Templates       []TemplateSpec `yaml:"templates"`
}

// TemplateSpec is one template's declarative description.
type TemplateSpec struct {
	Name            string           `yaml:"name"`
	TypeName        string           `yaml:"typeName"`
	HeaderPattern   string           `yaml:"headerPattern,omitempty"`
	Terminator      string           `yaml:"terminator,omitempty"`
	Fields          []FieldSpec      `yaml:"fields"`
	EvaluatedFields []EvaluatedSpec  `yaml:"evaluatedFields,omitempty"`
}

// FieldSpec is one BoundField's declarative description. String enum
// fields (Kind, DecimalType, ElementType) use the same lowercase
// spellings as the BindingKind/PrimitiveKind constants; ByteOrder is
// "little" for little-endian, and any other value means big-endian.
type FieldSpec struct {
	Name              string     `yaml:"name"`
	Kind              string     `yaml:"kind"`
	ByteOrder         string     `yaml:"byteOrder,omitempty"`
	SizeExpr          string     `yaml:"sizeExpr,omitempty"`
	Unsigned          bool       `yaml:"unsigned,omitempty"`
	DecimalType       string     `yaml:"decimalType,omitempty"`
	Length            int        `yaml:"length,omitempty"`
	Terminator        string     `yaml:"terminator,omitempty"`
	ConsumeTerminator bool       `yaml:"consumeTerminator,omitempty"`
	Charset           string     `yaml:"charset,omitempty"`
	ElementType       string     `yaml:"elementType,omitempty"`
	ObjectType        string     `yaml:"objectType,omitempty"`
	Selector          string     `yaml:"selector,omitempty"`
	Converter         string     `yaml:"converter,omitempty"`
	Validator         string     `yaml:"validator,omitempty"`
	Condition         string     `yaml:"condition,omitempty"`
	IsChecksum        bool       `yaml:"isChecksum,omitempty"`
	Skips             []SkipSpec `yaml:"skips,omitempty"`
}

// SkipSpec is one pre-field Skip's declarative description.
type SkipSpec struct {
	Condition         string `yaml:"condition,omitempty"`
	SizeExpr          string `yaml:"sizeExpr,omitempty"`
	Terminator        string `yaml:"terminator,omitempty"`
	ConsumeTerminator bool   `yaml:"consumeTerminator,omitempty"`
}

// EvaluatedSpec is one EvaluatedField's declarative description.
type EvaluatedSpec struct {
	Name      string `yaml:"name"`
	ValueExpr string `yaml:"valueExpr"`
	Condition string `yaml:"condition,omitempty"`
}

// MustReadSchema is ReadSchema, panicking on error.
func MustReadSchema(r io.Reader) *SchemaDocument {
	doc, err := ReadSchema(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// ReadSchema decodes a SchemaDocument, rejecting unknown fields so a
// typo in a hand-edited schema file fails loudly rather than being
// silently ignored.
func ReadSchema(r io.Reader) (*SchemaDocument, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	doc := &SchemaDocument{}
	if err := dec.Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// MustWriteSchema is WriteSchema, panicking on error.
func MustWriteSchema(w io.Writer, doc *SchemaDocument) {
	if err := WriteSchema(w, doc); err != nil {
		panic(err)
	}
}

// WriteSchema encodes doc as YAML.
func WriteSchema(w io.Writer, doc *SchemaDocument) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}

// byteOrderOf maps a FieldSpec's string byteOrder to a ByteOrder,
// defaulting to BigEndian when empty (the network-order convention
// most wire protocols use).
func byteOrderOf(s string) ByteOrder {
	if s == "little" {
		return LittleEndian
	}
	return BigEndian
}

// decodeHexOrEmpty hex-decodes s, returning nil for an empty string
// rather than an error, since HeaderPattern/Terminator are optional.
func decodeHexOrEmpty(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

// decodeHexByte hex-decodes a single-byte field such as a
// FieldSpec.Terminator, returning 0 for an empty string.
func decodeHexByte(s string) (byte, error) {
	b, err := decodeHexOrEmpty(s)
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, nil
	}
	return b[0], nil
}

// CompileBinding converts a FieldSpec's wire-layout description into a
// Binding, independent of any Go struct field it will end up bound to.
func CompileBinding(spec FieldSpec) (Binding, error) {
	terminator, err := decodeHexByte(spec.Terminator)
	if err != nil {
		return Binding{}, newAnnotationError("", spec.Name, "invalid terminator hex: "+err.Error())
	}
	return Binding{
		Kind:              BindingKind(spec.Kind),
		ByteOrder:         byteOrderOf(spec.ByteOrder),
		SizeExpr:          spec.SizeExpr,
		Unsigned:          spec.Unsigned,
		DecimalType:       PrimitiveKind(spec.DecimalType),
		Length:            spec.Length,
		Terminator:        terminator,
		ConsumeTerminator: spec.ConsumeTerminator,
		Charset:           spec.Charset,
		ElementType:       PrimitiveKind(spec.ElementType),
		ObjectType:        spec.ObjectType,
		Selector:          spec.Selector,
		Converter:         spec.Converter,
		Validator:         spec.Validator,
	}, nil
}

// BuildBoundFields pairs each FieldSpec in specs with the accessor and
// setter the host registers under the same field name, producing the
// []BoundField a Template is compiled from. A field present in specs
// but missing from accessors/setters is an annotation error.
func BuildBoundFields(specs []FieldSpec, accessors map[string]FieldAccessor, setters map[string]FieldSetter) ([]BoundField, error) {
	fields := make([]BoundField, 0, len(specs))
	for _, spec := range specs {
		binding, err := CompileBinding(spec)
		if err != nil {
			return nil, err
		}
		get, ok := accessors[spec.Name]
		if !ok {
			return nil, newAnnotationError("", spec.Name, "no accessor registered for field")
		}
		set, ok := setters[spec.Name]
		if !ok {
			return nil, newAnnotationError("", spec.Name, "no setter registered for field")
		}
		skips := make([]Skip, 0, len(spec.Skips))
		for _, sk := range spec.Skips {
			term, err := decodeHexByte(sk.Terminator)
			if err != nil {
				return nil, newAnnotationError("", spec.Name, "invalid skip terminator hex: "+err.Error())
			}
			skips = append(skips, Skip{
				Condition:         sk.Condition,
				SizeExpr:          sk.SizeExpr,
				Terminator:        term,
				ConsumeTerminator: sk.ConsumeTerminator,
			})
		}
		fields = append(fields, BoundField{
			Name:       spec.Name,
			Binding:    binding,
			Skips:      skips,
			Condition:  spec.Condition,
			IsChecksum: spec.IsChecksum,
			Get:        get,
			Set:        set,
		})
	}
	return fields, nil
}

// BuildEvaluatedFields pairs each EvaluatedSpec with its setter.
func BuildEvaluatedFields(specs []EvaluatedSpec, setters map[string]FieldSetter) ([]EvaluatedField, error) {
	fields := make([]EvaluatedField, 0, len(specs))
	for _, spec := range specs {
		set, ok := setters[spec.Name]
		if !ok {
			return nil, newAnnotationError("", spec.Name, "no setter registered for evaluated field")
		}
		fields = append(fields, EvaluatedField{
			Name:      spec.Name,
			ValueExpr: spec.ValueExpr,
			Condition: spec.Condition,
			Set:       set,
		})
	}
	return fields, nil
}

// CompileTemplate compiles a TemplateSpec into a Template, given the
// field accessors/setters the host has registered for its Go type.
func CompileTemplate(spec TemplateSpec, accessors map[string]FieldAccessor, setters map[string]FieldSetter) (*Template, error) {
	boundFields, err := BuildBoundFields(spec.Fields, accessors, setters)
	if err != nil {
		return nil, err
	}
	evaluatedFields, err := BuildEvaluatedFields(spec.EvaluatedFields, setters)
	if err != nil {
		return nil, err
	}
	pattern, err := decodeHexOrEmpty(spec.HeaderPattern)
	if err != nil {
		return nil, newAnnotationError(spec.Name, "", "invalid header pattern hex: "+err.Error())
	}
	var header *Header
	if len(pattern) > 0 {
		header = &Header{Pattern: pattern}
	}
	terminator, err := decodeHexOrEmpty(spec.Terminator)
	if err != nil {
		return nil, newAnnotationError(spec.Name, "", "invalid terminator hex: "+err.Error())
	}
	return NewTemplate(spec.Name, header, boundFields, evaluatedFields, terminator)
}
