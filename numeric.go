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

import "fmt"

// toUint64 accepts any of Go's built-in integer types (as a converter's
// encoded wire value is free to return whichever is most natural) and
// widens it to a uint64 for the bit-writer's fixed-width write methods.
func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case int32:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case int16:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case int8:
		return uint64(n), nil
	case int:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("fieldcodec: cannot convert %T to a fixed-width integer", v)
	}
}

// toFloat64 widens a float32/float64 wire value to float64.
func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("fieldcodec: cannot convert %T to a float", v)
	}
}
