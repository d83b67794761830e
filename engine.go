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

// Engine bundles everything a Codec needs beyond the bits of its own
// field: the codec registry (for nested/array elements), the
// converter/validator registries, the type-by-name lookup needed for
// BindObject/BindArray-of-object, a default Checksummer, and the
// Evaluator. Parser owns one Engine; Codec implementations receive it
// by pointer so BindObject can recurse into the template engine
// without importing it back into registry.go.
type Engine struct {
	Codecs     *CodecRegistry
	Converters *ConverterRegistry
	Validators *ValidatorRegistry
	Checksum   Checksummer
	Evaluator  Evaluator
	Events     EventListener

	// templatesByType resolves a concrete Go type name to its compiled
	// Template, used by BindObject/BindArray-of-object and by
	// ObjectChoices variant selection.
	templatesByType map[string]*Template

	// construct builds a fresh zero value instance for a named type so
	// decode can populate it field-by-field.
	construct map[string]func() any
}

// NewEngine wires a fresh Engine with the built-in codec registry and
// empty converter/validator registries. Use ParserBuilder to configure
// one for end-to-end use; NewEngine is exported for tests and for
// hosts building a custom Parser.
func NewEngine(evaluator Evaluator) *Engine {
	return &Engine{
		Codecs:          NewCodecRegistry(),
		Converters:      NewConverterRegistry(),
		Validators:      NewValidatorRegistry(),
		Evaluator:       evaluator,
		Events:          noopEventListener{},
		templatesByType: make(map[string]*Template),
		construct:       make(map[string]func() any),
	}
}

// RegisterType associates a type name with a Template and a
// constructor for new zero-value instances, so nested BindObject and
// ObjectChoices alternatives naming typeName can be resolved.
func (e *Engine) RegisterType(typeName string, template *Template, construct func() any) {
	e.templatesByType[typeName] = template
	e.construct[typeName] = construct
}

func (e *Engine) templateFor(typeName string) (*Template, error) {
	t, ok := e.templatesByType[typeName]
	if !ok {
		return nil, noTemplateFor(typeName)
	}
	return t, nil
}

func (e *Engine) newInstance(typeName string) (any, error) {
	ctor, ok := e.construct[typeName]
	if !ok {
		return nil, newAnnotationError(typeName, "", "no constructor registered for type")
	}
	return ctor(), nil
}
