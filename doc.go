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

/*
Package fieldcodec implements a declarative binary-protocol codec
engine. It decodes a byte stream into structured messages and encodes
structured messages back into bytes, driven by a per-type Template
that the host application supplies. A single Template is reused for
both directions, so the decoder and encoder it produces are guaranteed
symmetric.

# Overview

A Template is the immutable, compiled shape of a user type: a Header
describing how messages of this type begin (and optionally end) on the
wire, an ordered list of BoundFields describing how each field is laid
out, and an ordered list of EvaluatedFields describing fields whose
value is computed from an expression after decoding.

Decoding walks a BitReader under the direction of a Template: each
BoundField may have skips evaluated first, then a condition, then is
dispatched to a Codec registered for its Binding kind. Encoding mirrors
this in reverse onto a BitWriter.

A Loader indexes Templates by the hex of their header start-bytes and
picks the Template matching the next bytes of a stream; on a decode
error, it can scan forward for the next plausible message start. The
Parser façade composes the Loader and the template engine into
multi-message parse/compose operations with per-message error
isolation.

# Historical background

This engine was generalized from a collector library for a specific
tag-length-value network protocol. Where that library hard-coded one
Go file per concrete wire type (one for each integer width, one for
MAC addresses, one for IP addresses, and so on), this package expresses
the same Decode/Encode/Length shape generically, parametrised by a
Binding descriptor built by the host, so that entirely new wire
protocols can be described as data rather than as new Go types.

# Expression evaluation

Conditions, sizes, and computed fields are expressed as small strings
evaluated against a ParserContext (the field's enclosing object, its
parent, the root of the decode, and a process-wide constant table). The
default expression language lives in the eval subpackage; hosts may
supply any implementation of the Evaluator interface instead.

# Configuration templates

A subset of Templates describe protocol-version-gated configuration
messages. The configuration subpackage describes such messages as a
Configuration, projects it into a field set appropriate for a given
semantic protocol version, and can
materialize a Go value from defaults plus user-supplied overrides.
*/
package fieldcodec
