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
	"strconv"
	"strings"

	"github.com/parsec-io/fieldcodec"
)

// Materialize builds View C (spec.md §4.7): an instance of cfg's Go
// type with every in-range field filled from its declared default
// (parsed to the field's type, or expanded from an enumeration using
// "|"), then overridden by values (shortDescription → raw string),
// validating each override against the field's own pattern/range/enum
// constraint. Since a non-enum ConfigurationField is required to carry
// a default (spec.md §3), the only fields that can end up
// mandatory-missing are enum/enumArray fields left without one - those
// are exactly the "this field must be chosen" slots a configuration
// author leaves open on purpose.
func Materialize(cfg *Configuration, protocol string, values map[string]string) (any, error) {
	if cfg.Construct == nil {
		return nil, fieldcodec.NewConfigurationError(cfg.Name, "configuration has no Construct for View C")
	}
	instance := cfg.Construct()
	var missing []string

	for _, b := range cfg.Fields {
		if !b.protocolRange().contains(protocol) {
			continue
		}
		switch f := b.(type) {
		case *ConfigurationField:
			if err := materializeScalar(instance, f.FieldDescriptor, f.Set, values, &missing); err != nil {
				return nil, err
			}
		case *CompositeConfigurationField:
			if err := materializeComposite(instance, f, protocol, values, &missing); err != nil {
				return nil, err
			}
		case *AlternativeConfigurationField:
			for _, alt := range f.Alternatives {
				if (protocolRange{alt.MinProtocol, alt.MaxProtocol}).contains(protocol) {
					if err := materializeScalar(instance, alt.FieldDescriptor, f.Set, values, &missing); err != nil {
						return nil, err
					}
					break
				}
			}
		}
	}

	if len(missing) > 0 {
		return nil, fieldcodec.NewConfigurationError(cfg.Name, fmt.Sprintf("mandatory fields not supplied: %s", strings.Join(missing, ", ")))
	}
	return instance, nil
}

func materializeScalar(instance any, f FieldDescriptor, set fieldcodec.FieldSetter, values map[string]string, missing *[]string) error {
	raw, supplied := values[f.ShortDescription]
	if !supplied {
		raw = f.Default
	} else if err := validateValue(f, raw); err != nil {
		return fieldcodec.NewEncodeError(f.ShortDescription, err.Error())
	}
	if raw == "" {
		*missing = append(*missing, f.ShortDescription)
		return nil
	}
	value, err := parseTyped(f, raw)
	if err != nil {
		return fieldcodec.NewEncodeError(f.ShortDescription, err.Error())
	}
	if set == nil {
		return nil
	}
	if err := set(instance, value); err != nil {
		return fieldcodec.NewEncodeError(f.ShortDescription, err.Error())
	}
	return nil
}

func materializeComposite(instance any, f *CompositeConfigurationField, protocol string, values map[string]string, missing *[]string) error {
	bindings := make(map[string]string, len(f.Fields))
	for _, sub := range f.Fields {
		raw, supplied := values[sub.ShortDescription]
		if !supplied {
			raw = sub.Default
		} else if err := validateValue(sub.FieldDescriptor, raw); err != nil {
			return fieldcodec.NewEncodeError(sub.ShortDescription, err.Error())
		}
		if raw == "" {
			*missing = append(*missing, sub.ShortDescription)
			continue
		}
		bindings[sub.ShortDescription] = raw
	}
	composed, err := Substitute(f.Composition, bindings)
	if err != nil {
		return fieldcodec.NewEncodeError(f.ShortDescription, err.Error())
	}
	if f.Set == nil {
		return nil
	}
	if err := f.Set(instance, composed); err != nil {
		return fieldcodec.NewEncodeError(f.ShortDescription, err.Error())
	}
	return nil
}

// parseTyped converts raw to f.TypeName's Go representation: "enum"
// passes the string through for the host's own lookup, "enumArray"
// splits on "|" into a []string, and the remaining primitive type
// names parse via strconv.
func parseTyped(f FieldDescriptor, raw string) (any, error) {
	switch f.TypeName {
	case "enum":
		return raw, nil
	case "enumArray":
		return strings.Split(raw, "|"), nil
	case "int", "int32":
		return strconv.Atoi(raw)
	case "int64":
		return strconv.ParseInt(raw, 10, 64)
	case "uint", "uint32", "uint64":
		return strconv.ParseUint(raw, 10, 64)
	case "float32":
		v, err := strconv.ParseFloat(raw, 32)
		return float32(v), err
	case "float64", "float":
		return strconv.ParseFloat(raw, 64)
	case "bool":
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}
