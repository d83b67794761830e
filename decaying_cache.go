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
	"time"
)

// decayingEntry is one registration in a DecayingLoader: the
// registeredTemplate plus the deadline past which it is treated as
// gone even though it hasn't been explicitly deleted.
type decayingEntry struct {
	rt       *registeredTemplate
	deadline time.Time
}

// DecayingLoader is a Loader variant whose registrations expire after
// a fixed timeout, for hosts that rotate templates over a long-running
// process instead of compiling a fixed set at startup. It is additive
// to the core spec's static Loader, not a replacement: most parsers
// should use Loader, and reach for DecayingLoader only when templates
// genuinely come and go at runtime.
type DecayingLoader struct {
	mu      sync.RWMutex
	byKey   map[string]*decayingEntry
	timeout time.Duration
}

// NewDecayingLoader creates an empty DecayingLoader. A zero timeout
// means registrations never expire, equivalent to Loader but with the
// per-call ordering cost of DecayingLoader.
func NewDecayingLoader(timeout time.Duration) *DecayingLoader {
	return &DecayingLoader{byKey: make(map[string]*decayingEntry), timeout: timeout}
}

// Register adds tmpl under typeName. A second registration under the
// same header key is a collision only if the existing entry has not
// yet expired; an expired entry is silently replaced.
func (l *DecayingLoader) Register(typeName string, tmpl *Template) error {
	pattern := tmpl.HeaderPattern()
	if len(pattern) == 0 {
		return newAnnotationError(tmpl.Name, "", "loader requires a template with a non-empty header")
	}
	key := hex.EncodeToString(pattern)

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, exists := l.byKey[key]; exists && !l.expiredLocked(e) {
		return templateCollision(key)
	}
	var deadline time.Time
	if l.timeout > 0 {
		deadline = time.Now().Add(l.timeout)
	}
	l.byKey[key] = &decayingEntry{
		rt:       &registeredTemplate{typeName: typeName, template: tmpl, matcher: newBNDMMatcher(pattern)},
		deadline: deadline,
	}
	return nil
}

func (l *DecayingLoader) expiredLocked(e *decayingEntry) bool {
	return l.timeout > 0 && time.Now().After(e.deadline)
}

// Match returns the first non-expired template whose header occurs at
// buf[pos:], in length-desc/lex-asc order, recomputed on every call
// since the live set changes as entries expire.
func (l *DecayingLoader) Match(buf []byte, pos int) (*Template, string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.orderedLocked() {
		if l.expiredLocked(e) {
			continue
		}
		pattern := e.rt.template.HeaderPattern()
		if pos+len(pattern) > len(buf) {
			continue
		}
		if bytesEqual(buf[pos:pos+len(pattern)], pattern) {
			return e.rt.template, e.rt.typeName, true
		}
	}
	return nil, "", false
}

// Resync behaves like Loader.Resync but skips expired entries.
func (l *DecayingLoader) Resync(buf []byte, from int) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	best := -1
	for _, e := range l.byKey {
		if l.expiredLocked(e) {
			continue
		}
		idx := e.rt.matcher.search(buf, from)
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

// Evict removes every expired entry, reclaiming their memory. Callers
// running a long-lived DecayingLoader should call this periodically;
// Match and Resync skip expired entries on their own but never delete
// them.
func (l *DecayingLoader) Evict() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for k, e := range l.byKey {
		if l.expiredLocked(e) {
			delete(l.byKey, k)
			removed++
		}
	}
	return removed
}

func (l *DecayingLoader) orderedLocked() []*decayingEntry {
	entries := make([]*decayingEntry, 0, len(l.byKey))
	for _, e := range l.byKey {
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		pi := entries[i].rt.template.HeaderPattern()
		pj := entries[j].rt.template.HeaderPattern()
		if len(pi) != len(pj) {
			return len(pi) > len(pj)
		}
		return hex.EncodeToString(pi) < hex.EncodeToString(pj)
	})
	return entries
}
