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

import "reflect"

// templateRegistration is one pending AddTemplate call, applied to the
// Engine and Loader together when the ParserBuilder is built.
type templateRegistration struct {
	typeName  string
	template  *Template
	construct func() any
}

// ParserBuilder assembles a Parser's Engine and Loader from codecs,
// converters, validators, a Checksummer, an EventListener, and the set
// of templates the resulting Parser should recognize (spec.md §4.6).
// It mirrors the teacher's functional-options constructors, generalized
// into a dedicated builder since this domain has many more independent
// knobs (registries, a loader, evaluator context) than a single
// constructor call reads well with.
type ParserBuilder struct {
	evaluator Evaluator
	checksum  Checksummer
	events    EventListener

	codecOverrides map[BindingKind]Codec
	converters     map[string]func() Converter
	validators     map[string]func() Validator

	registrations []templateRegistration

	contextValues    map[string]any
	contextFunctions map[string]any
}

// NewParserBuilder starts a builder using evaluator for every
// expression in every template the resulting Parser will recognize.
func NewParserBuilder(evaluator Evaluator) *ParserBuilder {
	return &ParserBuilder{
		evaluator:        evaluator,
		codecOverrides:   make(map[BindingKind]Codec),
		converters:       make(map[string]func() Converter),
		validators:       make(map[string]func() Validator),
		contextValues:    make(map[string]any),
		contextFunctions: make(map[string]any),
	}
}

// WithCodec overrides or adds the codec used for kind.
func (b *ParserBuilder) WithCodec(kind BindingKind, codec Codec) *ParserBuilder {
	b.codecOverrides[kind] = codec
	return b
}

// WithConverter registers a named converter constructor.
func (b *ParserBuilder) WithConverter(name string, constructor func() Converter) *ParserBuilder {
	b.converters[name] = constructor
	return b
}

// WithValidator registers a named validator constructor.
func (b *ParserBuilder) WithValidator(name string, constructor func() Validator) *ParserBuilder {
	b.validators[name] = constructor
	return b
}

// WithChecksum installs the Checksummer used for every template's
// checksum field.
func (b *ParserBuilder) WithChecksum(c Checksummer) *ParserBuilder {
	b.checksum = c
	return b
}

// WithEventListener installs the EventListener notified of parse and
// compose activity. The default is a no-op listener.
func (b *ParserBuilder) WithEventListener(e EventListener) *ParserBuilder {
	b.events = e
	return b
}

// AddTemplate registers tmpl under typeName with the constructor used
// to allocate a fresh instance on decode. A template with a header is
// also registered with the Loader for top-level message recognition;
// a header-less template is reachable only as a nested BindObject type.
func (b *ParserBuilder) AddTemplate(typeName string, tmpl *Template, construct func() any) *ParserBuilder {
	b.registrations = append(b.registrations, templateRegistration{typeName: typeName, template: tmpl, construct: construct})
	return b
}

// AddToContext seeds the evaluator's context with a named value
// available to every expression (spec.md §4.4), such as a shared
// lookup table or protocol constant.
func (b *ParserBuilder) AddToContext(key string, value any) *ParserBuilder {
	b.contextValues[key] = value
	return b
}

// AddContextFunction registers a named function callable from every
// expression (spec.md §4.4).
func (b *ParserBuilder) AddContextFunction(name string, fn any) *ParserBuilder {
	b.contextFunctions[name] = fn
	return b
}

// Build assembles the Engine and Loader and returns the resulting
// Parser. Template collisions (two templates sharing a header) are
// reported here rather than at first use.
func (b *ParserBuilder) Build() (*Parser, error) {
	engine := NewEngine(b.evaluator)
	if b.checksum != nil {
		engine.Checksum = b.checksum
	}
	if b.events != nil {
		engine.Events = b.events
	}
	for kind, codec := range b.codecOverrides {
		engine.Codecs.Register(kind, codec)
	}
	for name, ctor := range b.converters {
		engine.Converters.Register(name, ctor)
	}
	for name, ctor := range b.validators {
		engine.Validators.Register(name, ctor)
	}
	for key, value := range b.contextValues {
		b.evaluator.AddToContext(key, value)
	}
	for name, fn := range b.contextFunctions {
		b.evaluator.AddFunction(name, fn)
	}

	loader := NewLoader()
	for _, reg := range b.registrations {
		engine.RegisterType(reg.typeName, reg.template, reg.construct)
		if len(reg.template.HeaderPattern()) > 0 {
			if err := loader.Register(reg.typeName, reg.template); err != nil {
				return nil, err
			}
		}
		Log.Info("template registered", "type", reg.typeName, "template", reg.template.Name, "header", len(reg.template.HeaderPattern()) > 0)
	}
	return &Parser{engine: engine, loader: loader}, nil
}

// Parser is the façade described in spec.md §4.6: parse decodes as
// many messages as it can find from a byte slice, and compose encodes
// a sequence of objects, each in isolation.
type Parser struct {
	engine *Engine
	loader *Loader
}

// ParseResponse is the result of a Parse call: zero or more
// successfully decoded messages plus zero or more errors encountered
// along the way. A non-empty Errors slice does not imply Parsed is
// empty; decoding continues past a bad message via resync.
type ParseResponse struct {
	Parsed []any
	Errors []error
}

// ComposeResponse is the result of a Compose call: the concatenated
// encoding of every object that encoded successfully, plus one error
// per object that did not.
type ComposeResponse struct {
	Bytes  []byte
	Errors []error
}

// Parse decodes as many messages as it can find in data (spec.md
// §4.6). On a header match that fails to decode, or on a run of bytes
// matching no known header, Parse uses the loader's BNDM resync scan
// to find the next recognizable header and continues from there,
// recording one error per skipped or failed span.
func (p *Parser) Parse(data []byte) *ParseResponse {
	r := NewBitReader(data)
	resp := &ParseResponse{}
	ctx := NewParserContext(p.engine.Evaluator, nil)

	for r.Position() < len(data) {
		pos := r.Position()
		tmpl, typeName, ok := p.loader.Match(data, pos)
		if !ok {
			if !p.resyncFrom(r, data, pos, resp) {
				break
			}
			resp.Errors = append(resp.Errors, noTemplateFor(hexPrefix(data, pos)))
			continue
		}

		r.CreateFallback()
		instance, err := p.engine.DecodeMessage(r, tmpl, typeName, ctx)
		if err != nil {
			r.RestoreFallback()
			resp.Errors = append(resp.Errors, err)
			if !p.resyncFrom(r, data, pos, resp) {
				break
			}
			continue
		}
		resp.Parsed = append(resp.Parsed, instance)
	}
	return resp
}

func (p *Parser) resyncFrom(r *BitReader, data []byte, from int, resp *ParseResponse) bool {
	next, found := p.loader.Resync(data, from+1)
	if !found {
		resp.Errors = append(resp.Errors, noTemplateFor(hexPrefix(data, from)))
		return false
	}
	p.engine.Events.Resynced(from, next)
	Log.Info("resynced", "from", from, "to", next)
	r.Seek(next)
	return true
}

func hexPrefix(data []byte, from int) string {
	end := from + 4
	if end > len(data) {
		end = len(data)
	}
	if from >= end {
		return ""
	}
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, (end-from)*2)
	for _, b := range data[from:end] {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(out)
}

// Compose encodes each of objects independently (spec.md §4.6): a
// failure to find a matching template, or a failure during encode,
// records one error for that object without interrupting the others.
// The object's registered type name is taken from its own (pointer or
// value) Go type name, matching the typeName used with AddTemplate.
func (p *Parser) Compose(objects ...any) *ComposeResponse {
	w := NewBitWriter()
	resp := &ComposeResponse{}
	ctx := NewParserContext(p.engine.Evaluator, nil)

	for _, obj := range objects {
		typeName := goTypeName(obj)
		tmpl, err := p.engine.templateFor(typeName)
		if err != nil {
			resp.Errors = append(resp.Errors, err)
			continue
		}
		if err := p.engine.EncodeMessage(w, tmpl, obj, ctx); err != nil {
			resp.Errors = append(resp.Errors, err)
			continue
		}
	}
	resp.Bytes = w.Bytes()
	return resp
}

func goTypeName(obj any) string {
	t := reflect.TypeOf(obj)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}
