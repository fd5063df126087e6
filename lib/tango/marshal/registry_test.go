// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

func TestRegistry_Bijective(t *testing.T) {
	mappings := Mappings()
	if len(mappings) != wire.TagCount {
		t.Fatalf("registry has %d entries, want %d", len(mappings), wire.TagCount)
	}
	if len(mappings) != tango.KindCount {
		t.Fatalf("registry has %d entries, but there are %d kinds", len(mappings), tango.KindCount)
	}

	seen := make(map[tango.Kind]wire.Tag)
	for _, mapping := range mappings {
		if previous, ok := seen[mapping.Kind]; ok {
			t.Errorf("kind %s mapped from both %s and %s", mapping.Kind, previous, mapping.Tag)
		}
		seen[mapping.Kind] = mapping.Tag

		kind, err := KindOf(mapping.Tag)
		if err != nil {
			t.Fatalf("KindOf(%s): %v", mapping.Tag, err)
		}
		if kind != mapping.Kind {
			t.Errorf("KindOf(%s) = %s, want %s", mapping.Tag, kind, mapping.Kind)
		}
		if tag := TagOf(kind); tag != mapping.Tag {
			t.Errorf("TagOf(%s) = %s, want %s", kind, tag, mapping.Tag)
		}
	}
}

func TestRegistry_FixedCodes(t *testing.T) {
	// Codes fixed by the C library.
	tests := []struct {
		code uint32
		kind tango.Kind
	}{
		{0, tango.KindVoid},
		{1, tango.KindBoolean},
		{3, tango.KindLong},
		{8, tango.KindString},
		{9, tango.KindCharArray},
		{17, tango.KindLongStringArray},
		{19, tango.KindState},
		{20, tango.KindConstString},
		{22, tango.KindUChar},
		{27, tango.KindInt},
		{28, tango.KindEncoded},
	}
	for _, test := range tests {
		kind, err := KindOf(wire.Tag(test.code))
		if err != nil {
			t.Fatalf("KindOf(%d): %v", test.code, err)
		}
		if kind != test.kind {
			t.Errorf("KindOf(%d) = %s, want %s", test.code, kind, test.kind)
		}
	}
}

func TestKindOf_UnknownCode(t *testing.T) {
	for _, code := range []uint32{29, 100, 9999, 1<<32 - 1} {
		_, err := KindOf(wire.Tag(code))
		if !errors.Is(err, tango.ErrUnknownTag) {
			t.Errorf("KindOf(%d) error = %v, want ErrUnknownTag", code, err)
			continue
		}
		if !strings.Contains(err.Error(), "type code") {
			t.Errorf("KindOf(%d) error %q does not name the code", code, err)
		}
	}
}

func TestTagOf_InvalidKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("TagOf(invalid kind) did not panic")
		}
	}()
	TagOf(tango.Kind(200))
}

func TestEnumerants(t *testing.T) {
	for code := wire.StateOn; code <= wire.StateUnknown; code++ {
		state, err := StateOf(code)
		if err != nil {
			t.Fatalf("StateOf(%d): %v", code, err)
		}
		back, err := StateCode(state)
		if err != nil || back != code {
			t.Errorf("StateCode(%s) = %d, %v; want %d", state, back, err, code)
		}
	}
	if state, _ := StateOf(wire.StateUnknown); state != tango.Unknown {
		t.Errorf("StateOf(UNKNOWN code) = %s, want UNKNOWN", state)
	}
	if _, err := StateOf(14); !errors.Is(err, tango.ErrUnknownEnumerant) {
		t.Errorf("StateOf(14) error = %v, want ErrUnknownEnumerant", err)
	}
	if _, err := StateCode(tango.DevState(14)); !errors.Is(err, tango.ErrUnknownEnumerant) {
		t.Errorf("StateCode(14) error = %v, want ErrUnknownEnumerant", err)
	}
	if _, err := qualityOf(5); !errors.Is(err, tango.ErrUnknownEnumerant) {
		t.Errorf("qualityOf(5) error = %v, want ErrUnknownEnumerant", err)
	}
	if _, err := formatOf(3); !errors.Is(err, tango.ErrUnknownEnumerant) {
		t.Errorf("formatOf(3) error = %v, want ErrUnknownEnumerant", err)
	}
	if source, err := SourceOf(wire.SourceCacheDev); err != nil || source != tango.SourceCacheDev {
		t.Errorf("SourceOf(CACHE_DEV code) = %s, %v", source, err)
	}
	if _, err := SourceCode(tango.DevSource(3)); !errors.Is(err, tango.ErrUnknownEnumerant) {
		t.Errorf("SourceCode(3) error = %v, want ErrUnknownEnumerant", err)
	}
}
