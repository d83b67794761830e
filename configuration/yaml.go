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

package configuration

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/parsec-io/fieldcodec"
)

// Document is the YAML-facing shape of a Configuration (spec.md §1.3
// equivalent for the configuration subsystem): a named configuration,
// free-form header metadata, and a flat field list where Kind
// distinguishes ConfigurationField/CompositeConfigurationField/
// AlternativeConfigurationField.
type Document struct {
	Name   string            `yaml:"name"`
	Header map[string]string `yaml:"header"`
	Fields []FieldSpec       `yaml:"fields"`
}

// FieldSpec is one YAML-facing field entry. Kind is "field",
// "composite", or "alternative"; Fields holds composite sub-fields or
// alternative alternatives, depending on Kind.
type FieldSpec struct {
	Kind             string      `yaml:"kind"`
	ShortDescription string      `yaml:"shortDescription"`
	Type             string      `yaml:"type"`
	MinProtocol      string      `yaml:"minProtocol"`
	MaxProtocol      string      `yaml:"maxProtocol"`
	Pattern          string      `yaml:"pattern"`
	MinValue         *float64    `yaml:"minValue"`
	MaxValue         *float64    `yaml:"maxValue"`
	Enumeration      []string    `yaml:"enumeration"`
	Default          string      `yaml:"default"`
	Composition      string      `yaml:"composition"`
	Fields           []FieldSpec `yaml:"fields"`
}

// ReadDocument decodes a configuration YAML document, rejecting
// unknown keys the way the root package's schema reader does.
func ReadDocument(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("configuration: decode document: %w", err)
	}
	return &doc, nil
}

// MustReadDocument is ReadDocument, panicking on error; intended for
// the cmd/ tool and tests, not library callers.
func MustReadDocument(r io.Reader) *Document {
	doc, err := ReadDocument(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// WriteDocument encodes doc as YAML with 2-space indentation, matching
// the root package's schema writer.
func WriteDocument(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}

// CompileConfiguration builds a *Configuration from doc, wiring each
// field's FieldSetter by shortDescription from setters. construct is
// required only if the compiled Configuration will be materialised
// (View C / Facade.ComposeConfiguration).
func CompileConfiguration(doc *Document, setters map[string]fieldcodec.FieldSetter, construct func() any) (*Configuration, error) {
	fields := make([]Binding, 0, len(doc.Fields))
	for _, spec := range doc.Fields {
		b, err := compileField(spec, setters)
		if err != nil {
			return nil, fmt.Errorf("configuration %q: %w", doc.Name, err)
		}
		fields = append(fields, b)
	}
	return NewConfiguration(doc.Name, doc.Header, fields, construct)
}

func compileField(spec FieldSpec, setters map[string]fieldcodec.FieldSetter) (Binding, error) {
	switch spec.Kind {
	case "", "field":
		return &ConfigurationField{FieldDescriptor: descriptorFromSpec(spec, setters)}, nil
	case "composite":
		sub := make([]ConfigurationField, 0, len(spec.Fields))
		for _, s := range spec.Fields {
			sub = append(sub, ConfigurationField{FieldDescriptor: descriptorFromSpec(s, setters)})
		}
		return &CompositeConfigurationField{
			FieldDescriptor: descriptorFromSpec(spec, setters),
			Composition:     spec.Composition,
			Fields:          sub,
		}, nil
	case "alternative":
		alts := make([]ConfigurationField, 0, len(spec.Fields))
		for _, s := range spec.Fields {
			alts = append(alts, ConfigurationField{FieldDescriptor: descriptorFromSpec(s, nil)})
		}
		return &AlternativeConfigurationField{
			ShortDescription: spec.ShortDescription,
			MinProtocol:      spec.MinProtocol,
			MaxProtocol:      spec.MaxProtocol,
			Alternatives:     alts,
			Set:              setters[spec.ShortDescription],
		}, nil
	default:
		return nil, fmt.Errorf("field %q: unknown kind %q", spec.ShortDescription, spec.Kind)
	}
}

func descriptorFromSpec(spec FieldSpec, setters map[string]fieldcodec.FieldSetter) FieldDescriptor {
	var set fieldcodec.FieldSetter
	if setters != nil {
		set = setters[spec.ShortDescription]
	}
	return FieldDescriptor{
		ShortDescription: spec.ShortDescription,
		TypeName:         spec.Type,
		MinProtocol:      spec.MinProtocol,
		MaxProtocol:      spec.MaxProtocol,
		Pattern:          spec.Pattern,
		MinValue:         spec.MinValue,
		MaxValue:         spec.MaxValue,
		Enumeration:      spec.Enumeration,
		Default:          spec.Default,
		Set:              set,
	}
}
