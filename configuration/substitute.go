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
	"strings"
	"text/template"
)

// Substitute renders a composite field's composition template against
// its sub-fields' resolved values (spec.md §4.7 "Composite field
// encode"). bindings are exposed to the template under their
// shortDescription, e.g. a composition of "{{.host}}:{{.port}}" with
// bindings {"host": "...", "port": "..."}.
func Substitute(composition string, bindings map[string]string) (string, error) {
	tmpl, err := template.New("composite").Option("missingkey=error").Parse(composition)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, bindings); err != nil {
		return "", err
	}
	return sb.String(), nil
}
