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

package configuration

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// protocolRange is a [min, max] semantic-version interval with empty
// endpoints treated as unbounded (spec.md §4.7, §8 invariant 9).
type protocolRange struct {
	min string
	max string
}

// canonicalize prepends the "v" prefix golang.org/x/mod/semver requires
// if the caller omitted it, so configuration authors can write bare
// "1.2.0" the way the rest of the schema format does.
func canonicalize(v string) string {
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

func validSemver(v string) bool {
	return v == "" || semver.IsValid(canonicalize(v))
}

// validate reports an error if min > max once both are given (spec.md
// §3 edge case: minProtocol ≤ maxProtocol).
func (r protocolRange) validate() error {
	if !validSemver(r.min) {
		return fmt.Errorf("invalid minProtocol %q", r.min)
	}
	if !validSemver(r.max) {
		return fmt.Errorf("invalid maxProtocol %q", r.max)
	}
	if r.min != "" && r.max != "" && semver.Compare(canonicalize(r.min), canonicalize(r.max)) > 0 {
		return fmt.Errorf("minProtocol %q is greater than maxProtocol %q", r.min, r.max)
	}
	return nil
}

// contains reports whether protocol p falls within the range,
// treating an empty endpoint as unbounded on that side (spec.md §8
// invariant 9).
func (r protocolRange) contains(p string) bool {
	cp := canonicalize(p)
	if r.min != "" && semver.Compare(cp, canonicalize(r.min)) < 0 {
		return false
	}
	if r.max != "" && semver.Compare(cp, canonicalize(r.max)) > 0 {
		return false
	}
	return true
}
