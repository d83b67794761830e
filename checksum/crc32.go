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

import "hash/crc32"

// CRC32 computes the IEEE polynomial CRC-32 of a byte range, seeded
// with startValue's low 32 bits (0 for a plain, unseeded checksum).
type CRC32 struct {
	table *crc32.Table
}

// NewCRC32 returns a CRC32 using the IEEE polynomial.
func NewCRC32() CRC32 {
	return CRC32{table: crc32.IEEETable}
}

// NewCRC32WithPolynomial returns a CRC32 using a caller-supplied
// polynomial, e.g. crc32.Castagnoli for the Ethernet/iSCSI variant.
func NewCRC32WithPolynomial(poly uint32) CRC32 {
	return CRC32{table: crc32.MakeTable(poly)}
}

// Compute implements fieldcodec.Checksummer.
func (c CRC32) Compute(data []byte, start, end int, startValue int64) int64 {
	table := c.table
	if table == nil {
		table = crc32.IEEETable
	}
	sum := crc32.Update(uint32(startValue), table, data[start:end])
	return int64(sum)
}
