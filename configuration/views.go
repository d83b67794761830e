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
	"regexp"
	"strconv"
	"strings"

	"github.com/parsec-io/fieldcodec"
)

// NewConfiguration validates fields against spec.md §3's configuration
// invariants (unique short descriptions; at most one of
// {pattern, min/max, enumeration} per scalar field; minProtocol ≤
// maxProtocol; a given default must satisfy its own constraints;
// non-enum primitive fields require a default) and returns a
// *Configuration ready for projection.
func NewConfiguration(name string, header map[string]string, fields []Binding, construct func() any) (*Configuration, error) {
	seen := make(map[string]bool, len(fields))
	for _, b := range fields {
		if err := validateBinding(b, seen); err != nil {
			return nil, fieldcodec.NewConfigurationError(name, err.Error())
		}
	}
	return &Configuration{Name: name, Header: header, Fields: fields, Construct: construct}, nil
}

func validateBinding(b Binding, seen map[string]bool) error {
	desc := b.shortDescription()
	if desc == "" {
		return fmt.Errorf("field has an empty shortDescription")
	}
	if seen[desc] {
		return fmt.Errorf("duplicate shortDescription %q", desc)
	}
	seen[desc] = true
	if err := b.protocolRange().validate(); err != nil {
		return fmt.Errorf("field %q: %w", desc, err)
	}

	switch f := b.(type) {
	case *ConfigurationField:
		return validateScalar(desc, f.FieldDescriptor)
	case *CompositeConfigurationField:
		subSeen := make(map[string]bool, len(f.Fields))
		for _, sub := range f.Fields {
			if subSeen[sub.ShortDescription] {
				return fmt.Errorf("composite field %q: duplicate sub-field shortDescription %q", desc, sub.ShortDescription)
			}
			subSeen[sub.ShortDescription] = true
			if err := validateScalar(sub.ShortDescription, sub.FieldDescriptor); err != nil {
				return fmt.Errorf("composite field %q: %w", desc, err)
			}
		}
		if f.Composition == "" {
			return fmt.Errorf("composite field %q has no composition template", desc)
		}
		return nil
	case *AlternativeConfigurationField:
		altSeen := make(map[string]bool, len(f.Alternatives))
		for _, alt := range f.Alternatives {
			if altSeen[alt.ShortDescription] {
				return fmt.Errorf("alternative field %q: duplicate sub-field shortDescription %q", desc, alt.ShortDescription)
			}
			altSeen[alt.ShortDescription] = true
			if err := (protocolRange{alt.MinProtocol, alt.MaxProtocol}).validate(); err != nil {
				return fmt.Errorf("alternative field %q, alternative %q: %w", desc, alt.ShortDescription, err)
			}
			if err := validateScalar(alt.ShortDescription, alt.FieldDescriptor); err != nil {
				return fmt.Errorf("alternative field %q: %w", desc, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("field %q: unknown binding kind %T", desc, b)
	}
}

func validateScalar(desc string, f FieldDescriptor) error {
	exclusive := 0
	if f.Pattern != "" {
		exclusive++
	}
	if f.MinValue != nil || f.MaxValue != nil {
		exclusive++
	}
	if len(f.Enumeration) > 0 {
		exclusive++
	}
	if exclusive > 1 {
		return fmt.Errorf("field %q sets more than one of {pattern, min/max, enumeration}", desc)
	}
	if f.Default == "" && f.TypeName != "enum" && f.TypeName != "enumArray" {
		return fmt.Errorf("field %q: primitive field types require a default", desc)
	}
	if f.Default != "" {
		if err := validateValue(f, f.Default); err != nil {
			return fmt.Errorf("field %q: default %q: %w", desc, f.Default, err)
		}
	}
	return nil
}

// validateValue checks raw against f's pattern, range, or enumeration
// constraint (whichever, if any, is set); used both for defaults and
// for View C's user-supplied values.
func validateValue(f FieldDescriptor, raw string) error {
	if f.Pattern != "" {
		ok, err := regexp.MatchString(f.Pattern, raw)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", f.Pattern, err)
		}
		if !ok {
			return fmt.Errorf("value %q does not match pattern %q", raw, f.Pattern)
		}
		return nil
	}
	if f.MinValue != nil || f.MaxValue != nil {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("value %q is not numeric: %w", raw, err)
		}
		if f.MinValue != nil && n < *f.MinValue {
			return fmt.Errorf("value %v is below minValue %v", n, *f.MinValue)
		}
		if f.MaxValue != nil && n > *f.MaxValue {
			return fmt.Errorf("value %v is above maxValue %v", n, *f.MaxValue)
		}
		return nil
	}
	if len(f.Enumeration) > 0 {
		for _, part := range strings.Split(raw, "|") {
			if !containsString(f.Enumeration, part) {
				return fmt.Errorf("value %q is not a member of enumeration %v", part, f.Enumeration)
			}
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func descriptorMap(f FieldDescriptor) map[string]any {
	m := map[string]any{
		"type":        f.TypeName,
		"minProtocol": f.MinProtocol,
		"maxProtocol": f.MaxProtocol,
	}
	if f.Pattern != "" {
		m["pattern"] = f.Pattern
	}
	if f.MinValue != nil {
		m["minValue"] = *f.MinValue
	}
	if f.MaxValue != nil {
		m["maxValue"] = *f.MaxValue
	}
	if len(f.Enumeration) > 0 {
		m["enumeration"] = f.Enumeration
	}
	if f.Default != "" {
		m["default"] = f.Default
	}
	return m
}

// ProjectAdmin builds View A (spec.md §4.7): every field regardless of
// protocol, alternative fields exposing every alternative, composite
// fields exposing their sub-fields under "fields".
func ProjectAdmin(cfg *Configuration) map[string]any {
	out := map[string]any{"name": cfg.Name, "header": cfg.Header}
	fields := make(map[string]any, len(cfg.Fields))
	for _, b := range cfg.Fields {
		fields[b.shortDescription()] = projectField(b)
	}
	out["fields"] = fields
	return out
}

func projectField(b Binding) map[string]any {
	switch f := b.(type) {
	case *ConfigurationField:
		return descriptorMap(f.FieldDescriptor)
	case *CompositeConfigurationField:
		m := descriptorMap(f.FieldDescriptor)
		sub := make(map[string]any, len(f.Fields))
		for _, s := range f.Fields {
			sub[s.ShortDescription] = descriptorMap(s.FieldDescriptor)
		}
		m["fields"] = sub
		return m
	case *AlternativeConfigurationField:
		alts := make([]map[string]any, 0, len(f.Alternatives))
		for _, a := range f.Alternatives {
			am := descriptorMap(a.FieldDescriptor)
			am["minProtocol"] = a.MinProtocol
			am["maxProtocol"] = a.MaxProtocol
			alts = append(alts, am)
		}
		return map[string]any{
			"minProtocol":  f.MinProtocol,
			"maxProtocol":  f.MaxProtocol,
			"alternatives": alts,
		}
	default:
		return nil
	}
}

// ProjectProtocol builds View B (spec.md §4.7): the same shape as View
// A, but fields out of range for protocol are omitted, and alternative
// fields expose only the single matching sub-alternative.
func ProjectProtocol(cfg *Configuration, protocol string) map[string]any {
	out := map[string]any{"name": cfg.Name, "header": cfg.Header}
	fields := make(map[string]any, len(cfg.Fields))
	for _, b := range cfg.Fields {
		if !b.protocolRange().contains(protocol) {
			continue
		}
		switch f := b.(type) {
		case *AlternativeConfigurationField:
			for _, a := range f.Alternatives {
				r := protocolRange{a.MinProtocol, a.MaxProtocol}
				if r.contains(protocol) {
					fields[f.ShortDescription] = descriptorMap(a.FieldDescriptor)
					break
				}
			}
		default:
			fields[b.shortDescription()] = projectField(b)
		}
	}
	out["fields"] = fields
	return out
}
