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
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// charsets maps a Binding.Charset name to the x/text encoding it
// names. The empty string and "UTF-8" both mean "bytes are already
// UTF-8", handled without a transform in decodeText/encodeText below.
var charsets = map[string]encoding.Encoding{
	"ISO-8859-1":  charmap.ISO8859_1,
	"ISO-8859-15": charmap.ISO8859_15,
	"WINDOWS-1252": charmap.Windows1252,
	"UTF-16BE":    unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"UTF-16LE":    unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
}

// decodeText converts raw wire bytes in the named charset to a Go
// string (UTF-8). An unknown non-empty charset name is an annotation
// error, since it can only come from a misconfigured template.
func decodeText(charset string, raw []byte) (string, error) {
	if charset == "" || charset == "UTF-8" {
		return string(raw), nil
	}
	enc, ok := charsets[charset]
	if !ok {
		return "", newAnnotationError("", "", "unknown charset: "+charset)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// encodeText is decodeText's inverse.
func encodeText(charset string, s string) ([]byte, error) {
	if charset == "" || charset == "UTF-8" {
		return []byte(s), nil
	}
	enc, ok := charsets[charset]
	if !ok {
		return nil, newAnnotationError("", "", "unknown charset: "+charset)
	}
	return enc.NewEncoder().Bytes([]byte(s))
}
