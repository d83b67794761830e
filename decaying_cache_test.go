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
	"testing"
	"time"
)

func TestDecayingLoaderZeroTimeoutNeverExpires(t *testing.T) {
	tmpl := mustLoaderTemplate(t, "Ping", []byte{0xAB})
	l := NewDecayingLoader(0)
	if err := l.Register("Ping", tmpl); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, name, ok := l.Match([]byte{0xAB, 0x01}, 0)
	if !ok || name != "Ping" || got != tmpl {
		t.Fatalf("Match = %v, %q, %v, want tmpl, Ping, true", got, name, ok)
	}
}

func TestDecayingLoaderExpiredEntryIsInvisible(t *testing.T) {
	tmpl := mustLoaderTemplate(t, "Ping", []byte{0xAB})
	l := NewDecayingLoader(time.Nanosecond)
	if err := l.Register("Ping", tmpl); err != nil {
		t.Fatalf("Register: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, _, ok := l.Match([]byte{0xAB, 0x01}, 0); ok {
		t.Fatalf("Match found an expired entry")
	}
}

func TestDecayingLoaderExpiredEntryIsReplaceable(t *testing.T) {
	tmpl := mustLoaderTemplate(t, "Ping", []byte{0xAB})
	l := NewDecayingLoader(time.Nanosecond)
	if err := l.Register("Ping", tmpl); err != nil {
		t.Fatalf("Register: %v", err)
	}
	time.Sleep(time.Millisecond)

	replacement := mustLoaderTemplate(t, "PingV2", []byte{0xAB})
	if err := l.Register("PingV2", replacement); err != nil {
		t.Fatalf("re-registering over an expired entry: %v", err)
	}
}

func TestDecayingLoaderLiveCollisionIsRejected(t *testing.T) {
	tmpl := mustLoaderTemplate(t, "Ping", []byte{0xAB})
	l := NewDecayingLoader(time.Hour)
	if err := l.Register("Ping", tmpl); err != nil {
		t.Fatalf("Register: %v", err)
	}
	other := mustLoaderTemplate(t, "Other", []byte{0xAB})
	if err := l.Register("Other", other); err == nil {
		t.Fatalf("registering a second template under a live header: expected a collision error")
	}
}

func TestDecayingLoaderResyncSkipsExpired(t *testing.T) {
	stale := mustLoaderTemplate(t, "Stale", []byte{0xDE, 0xAD})
	fresh := mustLoaderTemplate(t, "Fresh", []byte{0xBE, 0xEF})
	l := NewDecayingLoader(time.Millisecond)
	if err := l.Register("Stale", stale); err != nil {
		t.Fatalf("Register(Stale): %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	l2 := NewDecayingLoader(time.Hour)
	if err := l2.Register("Fresh", fresh); err != nil {
		t.Fatalf("Register(Fresh): %v", err)
	}

	buf := []byte{0x00, 0xDE, 0xAD, 0x00, 0xBE, 0xEF}
	if idx, ok := l.Resync(buf, 0); ok {
		t.Fatalf("Resync found expired template Stale at %d", idx)
	}
	idx, ok := l2.Resync(buf, 0)
	if !ok || idx != 4 {
		t.Fatalf("Resync(Fresh) = %d, %v, want 4, true", idx, ok)
	}
}

func TestDecayingLoaderEvictRemovesExpiredEntries(t *testing.T) {
	tmpl := mustLoaderTemplate(t, "Ping", []byte{0xAB})
	l := NewDecayingLoader(time.Nanosecond)
	if err := l.Register("Ping", tmpl); err != nil {
		t.Fatalf("Register: %v", err)
	}
	time.Sleep(time.Millisecond)

	removed := l.Evict()
	if removed != 1 {
		t.Fatalf("Evict removed %d entries, want 1", removed)
	}
	if removed := l.Evict(); removed != 0 {
		t.Fatalf("second Evict removed %d entries, want 0 (already clean)", removed)
	}
}
