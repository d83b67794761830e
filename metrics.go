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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EventListener is the observability interface the engine publishes
// through (spec.md §6). The engine records no metrics itself; hosts
// that want them attach a listener via ParserBuilder.WithEventListener.
// Log lines go through the package-level Log. The zero value of
// Parser uses noopEventListener, and MetricsEventListener is provided
// as a ready-made Prometheus-backed implementation.
type EventListener interface {
	// TemplateCompiled fires once per successful Template compilation.
	TemplateCompiled(templateName string)

	// TemplateCompileFailed fires when schema compilation rejects a type.
	TemplateCompileFailed(templateName string, err error)

	// CodecResolved fires each time the registry resolves a Codec for a
	// binding kind while walking a field plan.
	CodecResolved(bindingKind string)

	// FieldDecoded/FieldEncoded fire per bound field processed.
	FieldDecoded(templateName, fieldName string)
	FieldEncoded(templateName, fieldName string)

	// MessageParsed/MessageComposeFailed fire once per top-level message.
	MessageParsed(templateName string, duration time.Duration)
	MessageParseFailed(err error, duration time.Duration)
	MessageComposed(templateName string, duration time.Duration)
	MessageComposeFailed(err error, duration time.Duration)

	// Resynced fires when the loader scans forward after an error.
	Resynced(fromOffset, toOffset int)
}

type noopEventListener struct{}

func (noopEventListener) TemplateCompiled(string)                   {}
func (noopEventListener) TemplateCompileFailed(string, error)       {}
func (noopEventListener) CodecResolved(string)                      {}
func (noopEventListener) FieldDecoded(string, string)               {}
func (noopEventListener) FieldEncoded(string, string)               {}
func (noopEventListener) MessageParsed(string, time.Duration)       {}
func (noopEventListener) MessageParseFailed(error, time.Duration)   {}
func (noopEventListener) MessageComposed(string, time.Duration)     {}
func (noopEventListener) MessageComposeFailed(error, time.Duration) {}
func (noopEventListener) Resynced(int, int)                         {}

var _ EventListener = noopEventListener{}

// MetricsEventListener forwards engine events to Prometheus
// collectors. Register its collectors with a prometheus.Registerer of
// your choosing; the listener itself does not register them so that
// multiple Parsers can share one set of collectors.
type MetricsEventListener struct {
	TemplatesCompiled prometheus.Counter
	CompileFailures   *prometheus.CounterVec
	CodecsResolved    *prometheus.CounterVec
	FieldsDecoded     *prometheus.CounterVec
	FieldsEncoded     *prometheus.CounterVec
	MessagesParsed    *prometheus.CounterVec
	ParseFailures     prometheus.Counter
	MessagesComposed  *prometheus.CounterVec
	ComposeFailures   prometheus.Counter
	ResyncDistance    prometheus.Histogram
	DecodeDuration    prometheus.Histogram
	EncodeDuration    prometheus.Histogram
}

// NewMetricsEventListener constructs a MetricsEventListener with the
// engine's default collector set, mirroring the teacher's flat
// package-level metric variables but scoped to one listener instance
// so tests and multiple Parsers don't collide on global state.
func NewMetricsEventListener() *MetricsEventListener {
	return &MetricsEventListener{
		TemplatesCompiled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldcodec_templates_compiled_total",
			Help: "Total number of templates successfully compiled.",
		}),
		CompileFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldcodec_template_compile_failures_total",
			Help: "Total number of template compilation failures by template name.",
		}, []string{"template"}),
		CodecsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldcodec_codecs_resolved_total",
			Help: "Total number of codec lookups by binding kind.",
		}, []string{"kind"}),
		FieldsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldcodec_fields_decoded_total",
			Help: "Total number of bound fields decoded, by template.",
		}, []string{"template"}),
		FieldsEncoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldcodec_fields_encoded_total",
			Help: "Total number of bound fields encoded, by template.",
		}, []string{"template"}),
		MessagesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldcodec_messages_parsed_total",
			Help: "Total number of messages successfully parsed, by template.",
		}, []string{"template"}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldcodec_parse_failures_total",
			Help: "Total number of messages that failed to parse.",
		}),
		MessagesComposed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldcodec_messages_composed_total",
			Help: "Total number of messages successfully composed, by template.",
		}, []string{"template"}),
		ComposeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldcodec_compose_failures_total",
			Help: "Total number of objects that failed to compose.",
		}),
		ResyncDistance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fieldcodec_resync_distance_bytes",
			Help:    "Distance in bytes between an error offset and the next resync point.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}),
		DecodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fieldcodec_decode_duration_microseconds",
			Help:    "Duration of a single top-level message decode, in microseconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		EncodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fieldcodec_encode_duration_microseconds",
			Help:    "Duration of a single top-level message encode, in microseconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
	}
}

// Collectors returns every collector owned by the listener so callers
// can register them in one call: registry.MustRegister(l.Collectors()...).
func (m *MetricsEventListener) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TemplatesCompiled, m.CompileFailures, m.CodecsResolved,
		m.FieldsDecoded, m.FieldsEncoded, m.MessagesParsed, m.ParseFailures,
		m.MessagesComposed, m.ComposeFailures, m.ResyncDistance,
		m.DecodeDuration, m.EncodeDuration,
	}
}

func (m *MetricsEventListener) TemplateCompiled(templateName string) {
	m.TemplatesCompiled.Inc()
}

func (m *MetricsEventListener) TemplateCompileFailed(templateName string, err error) {
	m.CompileFailures.WithLabelValues(templateName).Inc()
}

func (m *MetricsEventListener) CodecResolved(bindingKind string) {
	m.CodecsResolved.WithLabelValues(bindingKind).Inc()
}

func (m *MetricsEventListener) FieldDecoded(templateName, fieldName string) {
	m.FieldsDecoded.WithLabelValues(templateName).Inc()
}

func (m *MetricsEventListener) FieldEncoded(templateName, fieldName string) {
	m.FieldsEncoded.WithLabelValues(templateName).Inc()
}

func (m *MetricsEventListener) MessageParsed(templateName string, duration time.Duration) {
	m.MessagesParsed.WithLabelValues(templateName).Inc()
	m.DecodeDuration.Observe(float64(duration.Nanoseconds()) / 1000)
}

func (m *MetricsEventListener) MessageParseFailed(err error, duration time.Duration) {
	m.ParseFailures.Inc()
	m.DecodeDuration.Observe(float64(duration.Nanoseconds()) / 1000)
}

func (m *MetricsEventListener) MessageComposed(templateName string, duration time.Duration) {
	m.MessagesComposed.WithLabelValues(templateName).Inc()
	m.EncodeDuration.Observe(float64(duration.Nanoseconds()) / 1000)
}

func (m *MetricsEventListener) MessageComposeFailed(err error, duration time.Duration) {
	m.ComposeFailures.Inc()
	m.EncodeDuration.Observe(float64(duration.Nanoseconds()) / 1000)
}

func (m *MetricsEventListener) Resynced(fromOffset, toOffset int) {
	m.ResyncDistance.Observe(float64(toOffset - fromOffset))
}

var _ EventListener = (*MetricsEventListener)(nil)
