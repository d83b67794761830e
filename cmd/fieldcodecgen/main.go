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

// Command fieldcodecgen inspects a fieldcodec YAML schema document,
// reporting the field plan each template compiles to without requiring
// a host's Go types to be present.
package main

import (
	"fmt"
	"os"

	"github.com/parsec-io/fieldcodec/cmd/fieldcodecgen/internal/inspect"
)

func main() {
	if err := inspect.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
