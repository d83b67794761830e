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

// PrimitiveBitSize returns the wire width in bits of a PrimitiveKind,
// used by callers sizing a BindArrayPrimitive element without going
// through a codec.
func PrimitiveBitSize(kind PrimitiveKind) int {
	switch kind {
	case PrimitiveByte:
		return 8
	case PrimitiveShort:
		return 16
	case PrimitiveInt, PrimitiveFloat:
		return 32
	default:
		return 64
	}
}

// IsIntegral reports whether kind is an integer primitive, as opposed
// to PrimitiveFloat/PrimitiveDouble.
func IsIntegral(kind PrimitiveKind) bool {
	switch kind {
	case PrimitiveFloat, PrimitiveDouble:
		return false
	default:
		return true
	}
}

// IsVariableLength reports whether a BindingKind's wire size depends
// on a runtime expression rather than being fixed by the binding
// itself (spec.md §3).
func IsVariableLength(kind BindingKind) bool {
	switch kind {
	case KindBigInteger, KindStringTerminated, KindArrayPrimitive, KindArray, KindSkip:
		return true
	default:
		return false
	}
}
