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

// Package configuration implements the protocol-versioned configuration
// projection subsystem (spec.md §4.7): configuration templates whose
// bindings are one of ConfigurationField, CompositeConfigurationField,
// or AlternativeConfigurationField, each ranged over a
// [minProtocol, maxProtocol] semantic-version interval, projected to an
// administration view, a protocol-filtered view, or a materialised
// object.
package configuration

import "github.com/parsec-io/fieldcodec"

// FieldDescriptor is the data shared by every configuration binding
// kind: its short description (the key used in {shortDescription →
// value} maps throughout this package), the declared protocol range it
// applies within, and - for scalar fields - the constraints a supplied
// value must satisfy.
type FieldDescriptor struct {
	ShortDescription string
	TypeName         string

	MinProtocol string
	MaxProtocol string

	// At most one of Pattern, {MinValue, MaxValue}, Enumeration may be
	// set (spec.md §3 edge case); NewConfiguration enforces this.
	Pattern     string
	MinValue    *float64
	MaxValue    *float64
	Enumeration []string

	// Default is the field's literal default, parsed to TypeName on
	// materialisation; empty means the field is mandatory (spec.md
	// §4.7 View C). Primitive field types require a default per
	// spec.md's edge case list - NewConfiguration enforces this for
	// any TypeName not "enum"/"enumArray".
	Default string

	Set fieldcodec.FieldSetter
}

// Binding is the tagged union a configuration template's field list
// holds: exactly one of *ConfigurationField, *CompositeConfigurationField,
// or *AlternativeConfigurationField.
type Binding interface {
	shortDescription() string
	protocolRange() protocolRange
	isBinding()
}

// ConfigurationField is a single scalar configuration value.
type ConfigurationField struct {
	FieldDescriptor
}

func (f *ConfigurationField) shortDescription() string { return f.ShortDescription }
func (f *ConfigurationField) protocolRange() protocolRange {
	return protocolRange{min: f.MinProtocol, max: f.MaxProtocol}
}
func (*ConfigurationField) isBinding() {}

// CompositeConfigurationField's value is produced by substituting its
// sub-fields' values into Composition (spec.md §4.7 "Composite field
// encode").
type CompositeConfigurationField struct {
	FieldDescriptor
	Composition string
	Fields      []ConfigurationField
}

func (f *CompositeConfigurationField) shortDescription() string { return f.ShortDescription }
func (f *CompositeConfigurationField) protocolRange() protocolRange {
	return protocolRange{min: f.MinProtocol, max: f.MaxProtocol}
}
func (*CompositeConfigurationField) isBinding() {}

// AlternativeConfigurationField picks one of its Alternatives by
// protocol, contributing nothing if none of them (or the field itself)
// is in range for the requested protocol.
type AlternativeConfigurationField struct {
	ShortDescription string
	MinProtocol      string
	MaxProtocol      string
	Alternatives     []ConfigurationField

	Set fieldcodec.FieldSetter
}

func (f *AlternativeConfigurationField) shortDescription() string { return f.ShortDescription }
func (f *AlternativeConfigurationField) protocolRange() protocolRange {
	return protocolRange{min: f.MinProtocol, max: f.MaxProtocol}
}
func (*AlternativeConfigurationField) isBinding() {}

// Configuration is one configuration template: a name, free-form header
// metadata (spec.md §4.7 View A "header metadata"), its ordered field
// bindings, and a constructor for View C materialisation.
type Configuration struct {
	Name   string
	Header map[string]string
	Fields []Binding

	// Construct builds a zero-value instance of the configuration's Go
	// type for View C; required only when Materialize is called.
	Construct func() any
}
