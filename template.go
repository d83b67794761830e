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

// Header is a template's fixed starting byte pattern (spec.md §3, §4.5).
// Top-level message templates carry one; nested BindObject templates
// normally don't, since their extent is determined by their enclosing
// field rather than by resynchronizing on a pattern.
type Header struct {
	Pattern []byte
}

// Template is the compiled field plan for one message or nested object
// type (spec.md §3 GLOSSARY): an optional Header, an ordered list of
// BoundFields, a trailing list of EvaluatedFields populated after the
// body, and an optional fixed Terminator. At most one BoundField may
// set IsChecksum; NewTemplate enforces this invariant at compile time
// rather than at decode time, mirroring the teacher's template.go
// compiling a record type once up front rather than per message.
type Template struct {
	Name            string
	Header          *Header
	BoundFields     []BoundField
	EvaluatedFields []EvaluatedField
	Terminator      []byte

	checksumIndex int
}

// NewTemplate compiles and validates a field plan. header may be nil
// for a nested object type; terminator may be nil for a type with no
// fixed trailing bytes.
func NewTemplate(name string, header *Header, boundFields []BoundField, evaluatedFields []EvaluatedField, terminator []byte) (*Template, error) {
	if len(boundFields) == 0 {
		return nil, newAnnotationError(name, "", "template must declare at least one bound field")
	}
	checksumIndex := -1
	for i, f := range boundFields {
		if !f.IsChecksum {
			continue
		}
		if checksumIndex != -1 {
			return nil, newAnnotationError(name, f.Name, "template may declare at most one checksum field")
		}
		if f.Binding.SizeExpr == "" {
			return nil, newAnnotationError(name, f.Name, "checksum field requires a size expression")
		}
		checksumIndex = i
	}
	if header != nil && len(header.Pattern) == 0 {
		return nil, newAnnotationError(name, "", "header, when present, must declare a non-empty pattern")
	}
	return &Template{
		Name:            name,
		Header:          header,
		BoundFields:     boundFields,
		EvaluatedFields: evaluatedFields,
		Terminator:      terminator,
		checksumIndex:   checksumIndex,
	}, nil
}

// HasChecksum reports whether the template declares a checksum field.
func (t *Template) HasChecksum() bool {
	return t.checksumIndex >= 0
}

// ChecksumField returns the template's checksum BoundField, or nil if
// HasChecksum is false.
func (t *Template) ChecksumField() *BoundField {
	if t.checksumIndex < 0 {
		return nil
	}
	return &t.BoundFields[t.checksumIndex]
}

// HeaderPattern returns the template's fixed starting bytes, or nil if
// it has no header.
func (t *Template) HeaderPattern() []byte {
	if t.Header == nil {
		return nil
	}
	return t.Header.Pattern
}
