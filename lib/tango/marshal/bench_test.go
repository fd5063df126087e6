// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"testing"

	"github.com/bureau-foundation/tango/lib/tango"
)

func BenchmarkEncodeCommand_DoubleArray(b *testing.B) {
	heap := newTestHeap(b)
	value := make(tango.DoubleArray, 1024)
	for index := range value {
		value[index] = float64(index)
	}

	b.SetBytes(int64(len(value) * 8))
	b.ReportAllocs()
	for b.Loop() {
		local, err := EncodeCommand(heap, value)
		if err != nil {
			b.Fatal(err)
		}
		local.Release()
	}
}

func BenchmarkCommandCycle_StringArray(b *testing.B) {
	heap := newTestHeap(b)
	value := tango.NewStringArray("alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta")

	b.ReportAllocs()
	for b.Loop() {
		local, err := EncodeCommand(heap, value)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := DecodeCommand(asForeign(heap, local)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeAttribute_Spectrum(b *testing.B) {
	heap := newTestHeap(b)
	read := make(tango.LongArray, 512)
	written := make(tango.LongArray, 512)
	data := tango.SimpleAttribute("waveform", read, testTime)
	data.WrittenData = written

	b.SetBytes(int64((len(read) + len(written)) * 4))
	b.ReportAllocs()
	for b.Loop() {
		local, err := EncodeAttributeReading(heap, data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := DecodeAttribute(asForeign(heap, local)); err != nil {
			b.Fatal(err)
		}
	}
}
