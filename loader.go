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
	"encoding/hex"
	"sort"
	"sync"
)

// registeredTemplate pairs a compiled Template with the Go type name
// it decodes into and a memoised BNDM matcher for its header pattern,
// used both for ordinary matching and for post-error resync (spec.md
// §4.5).
type registeredTemplate struct {
	typeName string
	template *Template
	matcher  *bndmMatcher
}

// Loader is the message dispatcher (spec.md §4.5): a registry of
// templates keyed by the hex of their header's starting bytes,
// searched in length-descending, then lexically-ascending order so a
// longer, more specific header always wins over a shorter prefix of
// it. It mirrors the teacher's TemplateCache, generalized from a
// 16-bit template-ID key to an arbitrary header byte pattern.
type Loader struct {
	mu        sync.RWMutex
	byKey     map[string]*registeredTemplate
	ordered   []*registeredTemplate
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{byKey: make(map[string]*registeredTemplate)}
}

// Register adds tmpl under typeName, keyed by the hex encoding of its
// header pattern. A second template with the same header is a
// collision (spec.md §8 invariant: header patterns are unique).
func (l *Loader) Register(typeName string, tmpl *Template) error {
	pattern := tmpl.HeaderPattern()
	if len(pattern) == 0 {
		return newAnnotationError(tmpl.Name, "", "loader requires a template with a non-empty header")
	}
	key := hex.EncodeToString(pattern)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.byKey[key]; exists {
		return templateCollision(key)
	}
	rt := &registeredTemplate{typeName: typeName, template: tmpl, matcher: newBNDMMatcher(pattern)}
	l.byKey[key] = rt
	l.ordered = append(l.ordered, rt)
	sort.SliceStable(l.ordered, func(i, j int) bool {
		pi, pj := l.ordered[i].template.HeaderPattern(), l.ordered[j].template.HeaderPattern()
		if len(pi) != len(pj) {
			return len(pi) > len(pj)
		}
		return hex.EncodeToString(pi) < hex.EncodeToString(pj)
	})
	return nil
}

// Match returns the first registered template whose header pattern
// occurs at buf[pos:], in the loader's length-desc/lex-asc order, so a
// longer header shadows any shorter one it starts with.
func (l *Loader) Match(buf []byte, pos int) (*Template, string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, rt := range l.ordered {
		pattern := rt.template.HeaderPattern()
		if pos+len(pattern) > len(buf) {
			continue
		}
		if bytesEqual(buf[pos:pos+len(pattern)], pattern) {
			return rt.template, rt.typeName, true
		}
	}
	return nil, "", false
}

// Resync finds the earliest offset at or after from where some
// registered template's header reoccurs, using each template's
// memoised BNDM matcher (spec.md §4.5, §4.6, §8 invariant 8:
// resynchronization never moves backward and always makes progress).
// It returns ok=false if no header occurs again before the end of buf.
func (l *Loader) Resync(buf []byte, from int) (offset int, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	best := -1
	for _, rt := range l.ordered {
		idx := rt.matcher.search(buf, from)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// bndmMatcher is a memoised Backward Nondeterministic DAWG Matching
// automaton for a single fixed pattern of at most 64 bytes, used to
// scan forward for the next occurrence of a template's header without
// re-deriving the shift table on every resync attempt.
type bndmMatcher struct {
	pattern []byte
	mask    [256]uint64
}

func newBNDMMatcher(pattern []byte) *bndmMatcher {
	m := &bndmMatcher{pattern: pattern}
	n := len(pattern)
	if n > 64 {
		n = 64
	}
	for i := 0; i < n; i++ {
		m.mask[pattern[i]] |= uint64(1) << uint(n-1-i)
	}
	return m
}

// search returns the index of the first occurrence of the pattern in
// text at or after start, or -1 if the pattern never recurs.
func (m *bndmMatcher) search(text []byte, start int) int {
	n := len(m.pattern)
	if n == 0 || n > 64 || start < 0 {
		return -1
	}
	j := start
	for j <= len(text)-n {
		i := n - 1
		last := n
		d := uint64(1)<<uint(n) - 1
		for d != 0 && i >= 0 {
			d &= m.mask[text[j+i]]
			if d&(uint64(1)<<uint(n-1)) != 0 {
				if i == 0 {
					return j
				}
				last = i
			}
			i--
			d <<= 1
		}
		j += last
	}
	return -1
}
