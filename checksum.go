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

// Checksummer is the checksum-algorithm capability the core consumes
// (spec.md §1, §4.3): an algorithm computing a fixed-size integer over
// a byte range with a starting seed. The core treats the result as an
// opaque comparable integer; a Checksummer's own endianness for the
// stored value is left to the implementation (spec.md §9 Open
// Questions). Reference implementations (sum16, crc32, xxhash) live in
// the checksum subpackage.
type Checksummer interface {
	// Compute returns the checksum of data[start:end], seeded with
	// startValue.
	Compute(data []byte, start, end int, startValue int64) int64
}
