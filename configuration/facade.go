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
	"sort"
	"sync"

	"github.com/parsec-io/fieldcodec"
)

// Facade is the host-facing entry point for the configuration
// subsystem (spec.md §6 ConfigurationFacade): a registry of
// Configurations plus the two operations a host needs - listing
// projected views and composing a materialised configuration into
// wire bytes via an existing fieldcodec.Parser.
type Facade struct {
	mu     sync.RWMutex
	byName map[string]*Configuration
	parser *fieldcodec.Parser
}

// NewFacade creates a Facade that encodes materialised configurations
// through parser (typically built from the same ParserBuilder the rest
// of the host wires its message templates into, with AddTemplate calls
// for the configuration's own Go types).
func NewFacade(parser *fieldcodec.Parser) *Facade {
	return &Facade{byName: make(map[string]*Configuration), parser: parser}
}

// Register adds cfg to the facade, failing on a duplicate name.
func (f *Facade) Register(cfg *Configuration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byName[cfg.Name]; exists {
		return fieldcodec.NewConfigurationError(cfg.Name, "duplicate configuration name")
	}
	f.byName[cfg.Name] = cfg
	return nil
}

// ListConfigurations projects every registered configuration. An empty
// protocol returns View A (the administration view, unfiltered); a
// non-empty protocol returns View B for each configuration, filtered to
// that protocol.
func (f *Facade) ListConfigurations(protocol string) []map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.byName))
	for name := range f.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	views := make([]map[string]any, 0, len(names))
	for _, name := range names {
		cfg := f.byName[name]
		if protocol == "" {
			views = append(views, ProjectAdmin(cfg))
		} else {
			views = append(views, ProjectProtocol(cfg, protocol))
		}
	}
	return views
}

// ComposeConfiguration materialises (View C) the named configuration
// for protocol with data, then encodes the resulting object through
// the facade's Parser.
func (f *Facade) ComposeConfiguration(configurationKey string, data map[string]string, protocol string) ([]byte, error) {
	f.mu.RLock()
	cfg, ok := f.byName[configurationKey]
	f.mu.RUnlock()
	if !ok {
		return nil, fieldcodec.NewConfigurationError(configurationKey, "no such configuration")
	}

	instance, err := Materialize(cfg, protocol, data)
	if err != nil {
		return nil, err
	}

	resp := f.parser.Compose(instance)
	if len(resp.Errors) > 0 {
		return nil, resp.Errors[0]
	}
	return resp.Bytes, nil
}
