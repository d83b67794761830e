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

package checksum

import "github.com/cespare/xxhash/v2"

// XXHash64 computes xxhash's 64-bit digest over a byte range. It is
// not a traditional protocol checksum, but several modern wire formats
// (including the batch-framing some fieldcodec hosts use on top of a
// parsed message) use it as a cheap, high-quality integrity tag; it's
// offered here so a Template's checksum field can name it directly
// instead of every host reimplementing the wrapper.
type XXHash64 struct{}

// Compute implements fieldcodec.Checksummer. startValue seeds the
// digest via xxhash's seeded constructor; 0 reproduces the unseeded
// digest.
func (XXHash64) Compute(data []byte, start, end int, startValue int64) int64 {
	d := xxhash.NewWithSeed(uint64(startValue))
	_, _ = d.Write(data[start:end])
	return int64(d.Sum64())
}
