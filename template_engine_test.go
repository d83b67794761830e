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

package fieldcodec_test

import (
	"testing"

	"github.com/parsec-io/fieldcodec"
	"github.com/parsec-io/fieldcodec/checksum"
	"github.com/parsec-io/fieldcodec/eval"
)

// Scenario S1: a primitive round trip - header, an int16, and a byte.
type pingMessage struct {
	Header  []byte
	Seq     int16
	Flags   byte
}

func TestScenarioPrimitiveRoundTrip(t *testing.T) {
	tmpl, err := fieldcodec.NewTemplate("Ping",
		&fieldcodec.Header{Pattern: []byte{0xC0, 0xFF}},
		[]fieldcodec.BoundField{
			{
				Name:    "Seq",
				Binding: fieldcodec.Binding{Kind: fieldcodec.KindShort, ByteOrder: fieldcodec.BigEndian},
				Get:     func(o any) (any, bool) { return o.(*pingMessage).Seq, true },
				Set:     func(o any, v any) error { o.(*pingMessage).Seq = v.(int16); return nil },
			},
			{
				Name:    "Flags",
				Binding: fieldcodec.Binding{Kind: fieldcodec.KindByte},
				Get:     func(o any) (any, bool) { return o.(*pingMessage).Flags, true },
				Set:     func(o any, v any) error { o.(*pingMessage).Flags = v.(byte); return nil },
			},
		}, nil, nil)
	must(t, err)

	parser, err := fieldcodec.NewParserBuilder(eval.New()).
		AddTemplate("pingMessage", tmpl, func() any { return &pingMessage{} }).
		Build()
	must(t, err)

	in := &pingMessage{Seq: 42, Flags: 0x07}
	composed := parser.Compose(in)
	if len(composed.Errors) != 0 {
		t.Fatalf("compose errors: %v", composed.Errors)
	}

	want := []byte{0xC0, 0xFF, 0x00, 0x2A, 0x07}
	if string(composed.Bytes) != string(want) {
		t.Fatalf("composed = % x, want % x", composed.Bytes, want)
	}

	resp := parser.Parse(composed.Bytes)
	if len(resp.Errors) != 0 {
		t.Fatalf("parse errors: %v", resp.Errors)
	}
	if len(resp.Parsed) != 1 {
		t.Fatalf("parsed %d messages, want 1", len(resp.Parsed))
	}
	got := resp.Parsed[0].(*pingMessage)
	if got.Seq != 42 || got.Flags != 0x07 {
		t.Fatalf("got %+v, want Seq=42 Flags=0x07", got)
	}
}

// Scenario S2: a polymorphic object selected by an 8-bit prefix.
type shapeCircle struct{ Radius byte }
type shapeSquare struct{ Side byte }
type shapeHolder struct {
	Header []byte
	Shape  any
}

func TestScenarioVariantWithPrefix(t *testing.T) {
	circleTmpl, err := fieldcodec.NewTemplate("Circle", nil, []fieldcodec.BoundField{
		{
			Name:    "Radius",
			Binding: fieldcodec.Binding{Kind: fieldcodec.KindByte},
			Get:     func(o any) (any, bool) { return o.(*shapeCircle).Radius, true },
			Set:     func(o any, v any) error { o.(*shapeCircle).Radius = v.(byte); return nil },
		},
	}, nil, nil)
	must(t, err)

	squareTmpl, err := fieldcodec.NewTemplate("Square", nil, []fieldcodec.BoundField{
		{
			Name:    "Side",
			Binding: fieldcodec.Binding{Kind: fieldcodec.KindByte},
			Get:     func(o any) (any, bool) { return o.(*shapeSquare).Side, true },
			Set:     func(o any, v any) error { o.(*shapeSquare).Side = v.(byte); return nil },
		},
	}, nil, nil)
	must(t, err)

	holderTmpl, err := fieldcodec.NewTemplate("Holder",
		&fieldcodec.Header{Pattern: []byte{0xAB}},
		[]fieldcodec.BoundField{
			{
				Name: "Shape",
				Binding: fieldcodec.Binding{
					Kind: fieldcodec.KindObject,
					Choices: &fieldcodec.ObjectChoices{
						PrefixSize: 8,
						Alternatives: []fieldcodec.Alternative{
							{Condition: `#self.Kind == "circle"`, Type: "shapeCircle", Prefix: 1},
							{Condition: `#self.Kind == "square"`, Type: "shapeSquare", Prefix: 2},
						},
					},
				},
				Get: func(o any) (any, bool) { return o.(*shapeHolder).Shape, true },
				Set: func(o any, v any) error { o.(*shapeHolder).Shape = v; return nil },
			},
		}, nil, nil)
	must(t, err)

	parser, err := fieldcodec.NewParserBuilder(eval.New()).
		AddTemplate("shapeCircle", circleTmpl, func() any { return &shapeCircle{} }).
		AddTemplate("shapeSquare", squareTmpl, func() any { return &shapeSquare{} }).
		AddTemplate("shapeHolder", holderTmpl, func() any { return &shapeHolder{} }).
		Build()
	must(t, err)

	in := &shapeHolder{Shape: &shapeSquare{Side: 9}}
	composed := parser.Compose(in)
	if len(composed.Errors) != 0 {
		t.Fatalf("compose errors: %v", composed.Errors)
	}
	want := []byte{0xAB, 0x02, 0x09}
	if string(composed.Bytes) != string(want) {
		t.Fatalf("composed = % x, want % x", composed.Bytes, want)
	}

	resp := parser.Parse(composed.Bytes)
	if len(resp.Errors) != 0 {
		t.Fatalf("parse errors: %v", resp.Errors)
	}
	holder, ok := resp.Parsed[0].(*shapeHolder)
	if !ok {
		t.Fatalf("parsed type %T, want *shapeHolder", resp.Parsed[0])
	}
	square, ok := holder.Shape.(*shapeSquare)
	if !ok || square.Side != 9 {
		t.Fatalf("decoded shape = %#v, want shapeSquare{Side:9}", holder.Shape)
	}
}

// Scenario S3: a fixed-size skip ahead of a field.
type paddedMessage struct {
	Header []byte
	Value  byte
}

func TestScenarioSkipThenField(t *testing.T) {
	tmpl, err := fieldcodec.NewTemplate("Padded",
		&fieldcodec.Header{Pattern: []byte{0x01}},
		[]fieldcodec.BoundField{
			{
				Name:    "Value",
				Binding: fieldcodec.Binding{Kind: fieldcodec.KindByte},
				Skips:   []fieldcodec.Skip{{SizeExpr: "16"}},
				Get:     func(o any) (any, bool) { return o.(*paddedMessage).Value, true },
				Set:     func(o any, v any) error { o.(*paddedMessage).Value = v.(byte); return nil },
			},
		}, nil, nil)
	must(t, err)

	parser, err := fieldcodec.NewParserBuilder(eval.New()).
		AddTemplate("paddedMessage", tmpl, func() any { return &paddedMessage{} }).
		Build()
	must(t, err)

	data := []byte{0x01, 0x00, 0x00, 0x55}
	resp := parser.Parse(data)
	if len(resp.Errors) != 0 {
		t.Fatalf("parse errors: %v", resp.Errors)
	}
	got := resp.Parsed[0].(*paddedMessage)
	if got.Value != 0x55 {
		t.Fatalf("Value = %#x, want 0x55", got.Value)
	}

	composed := parser.Compose(&paddedMessage{Value: 0x55})
	if len(composed.Errors) != 0 {
		t.Fatalf("compose errors: %v", composed.Errors)
	}
	if string(composed.Bytes) != string(data) {
		t.Fatalf("composed = % x, want % x", composed.Bytes, data)
	}
}

// Scenario S4: a null-terminated string field.
type greetingMessage struct {
	Header []byte
	Name   string
}

func TestScenarioNullTerminatedString(t *testing.T) {
	tmpl, err := fieldcodec.NewTemplate("Greeting",
		&fieldcodec.Header{Pattern: []byte{0x02}},
		[]fieldcodec.BoundField{
			{
				Name: "Name",
				Binding: fieldcodec.Binding{
					Kind:              fieldcodec.KindStringTerminated,
					Terminator:        0x00,
					ConsumeTerminator: true,
				},
				Get: func(o any) (any, bool) { return o.(*greetingMessage).Name, true },
				Set: func(o any, v any) error { o.(*greetingMessage).Name = v.(string); return nil },
			},
		}, nil, nil)
	must(t, err)

	parser, err := fieldcodec.NewParserBuilder(eval.New()).
		AddTemplate("greetingMessage", tmpl, func() any { return &greetingMessage{} }).
		Build()
	must(t, err)

	in := &greetingMessage{Name: "hi"}
	composed := parser.Compose(in)
	if len(composed.Errors) != 0 {
		t.Fatalf("compose errors: %v", composed.Errors)
	}
	want := []byte{0x02, 'h', 'i', 0x00}
	if string(composed.Bytes) != string(want) {
		t.Fatalf("composed = % x, want % x", composed.Bytes, want)
	}

	resp := parser.Parse(composed.Bytes)
	if len(resp.Errors) != 0 {
		t.Fatalf("parse errors: %v", resp.Errors)
	}
	got := resp.Parsed[0].(*greetingMessage)
	if got.Name != "hi" {
		t.Fatalf("Name = %q, want %q", got.Name, "hi")
	}
}

// Scenario S5: a checksum field covering the preceding body.
type checkedMessage struct {
	Header   []byte
	Payload  byte
	Checksum int64
}

func TestScenarioChecksum(t *testing.T) {
	tmpl, err := fieldcodec.NewTemplate("Checked",
		&fieldcodec.Header{Pattern: []byte{0x03}},
		[]fieldcodec.BoundField{
			{
				Name:    "Payload",
				Binding: fieldcodec.Binding{Kind: fieldcodec.KindByte},
				Get:     func(o any) (any, bool) { return o.(*checkedMessage).Payload, true },
				Set:     func(o any, v any) error { o.(*checkedMessage).Payload = v.(byte); return nil },
			},
			{
				Name:       "Checksum",
				IsChecksum: true,
				Binding: fieldcodec.Binding{
					Kind: fieldcodec.KindChecksum, SizeExpr: "16", ByteOrder: fieldcodec.BigEndian,
					// Exclude the checksum field's own 2 bytes from the
					// range it covers (spec.md §4.3 step 6).
					ChecksumSkipEnd: 2,
				},
				Get: func(o any) (any, bool) { return o.(*checkedMessage).Checksum, true },
				Set: func(o any, v any) error { o.(*checkedMessage).Checksum = v.(int64); return nil },
			},
		}, nil, nil)
	must(t, err)

	parser, err := fieldcodec.NewParserBuilder(eval.New()).
		WithChecksum(checksum.Sum16{}).
		AddTemplate("checkedMessage", tmpl, func() any { return &checkedMessage{} }).
		Build()
	must(t, err)

	composed := parser.Compose(&checkedMessage{Payload: 0x42})
	if len(composed.Errors) != 0 {
		t.Fatalf("compose errors: %v", composed.Errors)
	}
	if len(composed.Bytes) != 4 {
		t.Fatalf("composed length = %d, want 4 (header+payload+2-byte checksum)", len(composed.Bytes))
	}

	resp := parser.Parse(composed.Bytes)
	if len(resp.Errors) != 0 {
		t.Fatalf("parse errors: %v", resp.Errors)
	}
	got := resp.Parsed[0].(*checkedMessage)
	if got.Payload != 0x42 {
		t.Fatalf("Payload = %#x, want 0x42", got.Payload)
	}

	corrupted := append([]byte(nil), composed.Bytes...)
	corrupted[1] ^= 0xFF
	resp = parser.Parse(corrupted)
	if len(resp.Parsed) != 0 {
		t.Fatalf("expected corrupted checksum to fail decode, got %d parsed", len(resp.Parsed))
	}
	if len(resp.Errors) == 0 {
		t.Fatalf("expected a checksum error")
	}
}

// checksummedPacket mirrors spec.md's S5 scenario exactly: a 2-byte
// header, a 4-byte payload array, and a sum16 checksum configured with
// startValue=0, skipStart=0, skipEnd=2 so that neither the header nor
// the checksum field's own bytes participate in the sum.
type checksummedPacket struct {
	Header   []byte
	Payload  []any
	Checksum int64
}

func TestScenarioChecksumSkipStartSkipEnd(t *testing.T) {
	tmpl, err := fieldcodec.NewTemplate("Packet",
		&fieldcodec.Header{Pattern: []byte{0xAA, 0xBB}},
		[]fieldcodec.BoundField{
			{
				Name: "Payload",
				Binding: fieldcodec.Binding{
					Kind: fieldcodec.KindArrayPrimitive, ElementType: fieldcodec.PrimitiveByte, SizeExpr: "4",
				},
				Get: func(o any) (any, bool) { return o.(*checksummedPacket).Payload, true },
				Set: func(o any, v any) error { o.(*checksummedPacket).Payload = v.([]any); return nil },
			},
			{
				Name:       "Checksum",
				IsChecksum: true,
				Binding: fieldcodec.Binding{
					Kind: fieldcodec.KindChecksum, SizeExpr: "16", ByteOrder: fieldcodec.BigEndian,
					ChecksumStartValue: 0,
					ChecksumSkipStart:  0,
					ChecksumSkipEnd:    2,
				},
				Get: func(o any) (any, bool) { return o.(*checksummedPacket).Checksum, true },
				Set: func(o any, v any) error { o.(*checksummedPacket).Checksum = v.(int64); return nil },
			},
		}, nil, nil)
	must(t, err)

	parser, err := fieldcodec.NewParserBuilder(eval.New()).
		WithChecksum(checksum.Sum16{}).
		AddTemplate("checksummedPacket", tmpl, func() any { return &checksummedPacket{} }).
		Build()
	must(t, err)

	data := []byte{0xAA, 0xBB, 0x01, 0x02, 0x03, 0x04, 0x00, 0x0A}
	resp := parser.Parse(data)
	if len(resp.Errors) != 0 {
		t.Fatalf("parse errors: %v", resp.Errors)
	}
	got, ok := resp.Parsed[0].(*checksummedPacket)
	if !ok || got.Checksum != 0x000A {
		t.Fatalf("parsed %#v, want Checksum=0xa", got)
	}

	for i := 2; i < 6; i++ {
		corrupted := append([]byte(nil), data...)
		corrupted[i] ^= 0xFF
		resp := parser.Parse(corrupted)
		if len(resp.Parsed) != 0 {
			t.Fatalf("flipping byte %d: expected checksum failure, got %d parsed", i, len(resp.Parsed))
		}
	}
}

// Scenario S6: resynchronization past an unrecognized run of bytes.
func TestScenarioResync(t *testing.T) {
	tmpl, err := fieldcodec.NewTemplate("Ping",
		&fieldcodec.Header{Pattern: []byte{0xC0, 0xFF}},
		[]fieldcodec.BoundField{
			{
				Name:    "Seq",
				Binding: fieldcodec.Binding{Kind: fieldcodec.KindShort, ByteOrder: fieldcodec.BigEndian},
				Get:     func(o any) (any, bool) { return o.(*pingMessage).Seq, true },
				Set:     func(o any, v any) error { o.(*pingMessage).Seq = v.(int16); return nil },
			},
			{
				Name:    "Flags",
				Binding: fieldcodec.Binding{Kind: fieldcodec.KindByte},
				Get:     func(o any) (any, bool) { return o.(*pingMessage).Flags, true },
				Set:     func(o any, v any) error { o.(*pingMessage).Flags = v.(byte); return nil },
			},
		}, nil, nil)
	must(t, err)

	parser, err := fieldcodec.NewParserBuilder(eval.New()).
		AddTemplate("pingMessage", tmpl, func() any { return &pingMessage{} }).
		Build()
	must(t, err)

	first := parser.Compose(&pingMessage{Seq: 1, Flags: 0xAA}).Bytes
	second := parser.Compose(&pingMessage{Seq: 2, Flags: 0xBB}).Bytes

	garbage := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	data := append(append(append([]byte{}, first...), garbage...), second...)

	resp := parser.Parse(data)
	if len(resp.Parsed) != 2 {
		t.Fatalf("parsed %d messages, want 2 (got errors: %v)", len(resp.Parsed), resp.Errors)
	}
	m1 := resp.Parsed[0].(*pingMessage)
	m2 := resp.Parsed[1].(*pingMessage)
	if m1.Seq != 1 || m2.Seq != 2 {
		t.Fatalf("got Seq=%d, Seq=%d, want 1, 2", m1.Seq, m2.Seq)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
