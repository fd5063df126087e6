// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tangotest

import (
	"fmt"

	"github.com/bureau-foundation/tango/lib/tango"
)

const (
	// TestDevice is the address of the TangoTest-like device.
	TestDevice = "sys/tg_test/1"

	// EchoDevice is the address of the benchmark echo device.
	EchoDevice = "test/benchmark/echo"
)

// attributeTypes lists the element types that get a <prefix>_scalar
// and a <prefix>_spectrum attribute on the test device, with the
// texts their initial spectrum is parsed from.
var attributeTypes = []struct {
	prefix  string
	element tango.Kind
	samples []string
}{
	{"boolean", tango.KindBoolean, []string{"true", "false", "true", "true"}},
	{"uchar", tango.KindUChar, []string{"1", "2", "3", "4"}},
	{"short", tango.KindShort, []string{"-2", "-1", "1", "2"}},
	{"ushort", tango.KindUShort, []string{"10", "20", "30", "40"}},
	{"long", tango.KindLong, []string{"-100000", "0", "100000", "7"}},
	{"ulong", tango.KindULong, []string{"4000000000", "1", "2", "3"}},
	{"long64", tango.KindLong64, []string{"-1099511627776", "0", "1099511627776", "9"}},
	{"ulong64", tango.KindULong64, []string{"18446744073709551615", "0", "1", "2"}},
	{"float", tango.KindFloat, []string{"0.5", "1.5", "-2.25", "8"}},
	{"double", tango.KindDouble, []string{"3.25", "-1e-9", "6.02e23", "0"}},
	{"string", tango.KindString, []string{"alpha", "beta", "gamma", "delta"}},
}

// readOnlySpectrums are the 64-bit and unsigned spectrums the test
// device exposes read-only, as TangoTest does.
var readOnlySpectrums = []string{"ulong_spectrum_ro", "long64_spectrum_ro", "ulong64_spectrum_ro"}

// newTestDevice builds sys/tg_test/1.
func newTestDevice() *device {
	dev := newDevice(TestDevice, "TangoTest", tango.Running)

	for _, kind := range tango.Kinds() {
		if echoable(kind) {
			dev.addEcho(kind.String(), kind)
		}
	}

	for _, entry := range attributeTypes {
		scalar := mustAttrValue(entry.element, false, entry.samples[:1])
		spectrum := mustAttrValue(entry.element, true, entry.samples)
		dev.addAttribute(attributeInfo(entry.prefix+"_scalar", entry.element, tango.Scalar, tango.ReadWrite), scalar)
		dev.addAttribute(attributeInfo(entry.prefix+"_spectrum", entry.element, tango.Spectrum, tango.ReadWrite), spectrum)
	}
	for _, name := range readOnlySpectrums {
		source := dev.attributes[name[:len(name)-len("_ro")]]
		dev.addAttribute(readOnlyInfo(name, source.info.DataType, tango.Spectrum), source.value)
	}

	dev.addAttribute(attributeInfo("encoded_scalar", tango.KindEncoded, tango.Scalar, tango.ReadWrite),
		tango.Encoded{Format: "text", Data: []byte("tangotest")})
	return dev
}

// newEchoDevice builds test/benchmark/echo.
func newEchoDevice() *device {
	dev := newDevice(EchoDevice, "EchoDevice", tango.On)
	dev.addEcho("Echo", tango.KindString)
	return dev
}

// echoable reports whether the test device has an echo command for
// kind. Aliases are folded into their canonical kinds on decode, a
// state is never a command argument, and DevUChar has no command arm.
func echoable(kind tango.Kind) bool {
	switch kind {
	case tango.KindInt, tango.KindConstString, tango.KindState, tango.KindUChar:
		return false
	}
	return true
}

func mustAttrValue(element tango.Kind, array bool, texts []string) tango.AttrValue {
	value, err := tango.ParseAttrValue(element, array, texts)
	if err != nil {
		panic(fmt.Sprintf("tangotest: built-in %s attribute value: %v", element, err))
	}
	return value
}
