// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client_test

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
	"github.com/bureau-foundation/tango/lib/tango/tangotest"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// newLibrary returns a simulated library and checks, when the test
// ends, that every record it handed out was released exactly once.
func newLibrary(t *testing.T) *tangotest.Library {
	t.Helper()
	library, err := tangotest.New()
	if err != nil {
		t.Fatalf("tangotest.New: %v", err)
	}
	t.Cleanup(func() {
		stats := library.Stats()
		if stats.Outstanding() != 0 {
			t.Errorf("outstanding foreign records: got %d, want 0 (%+v)", stats.Outstanding(), stats)
		}
		if stats.Heap.Live != 0 || stats.Heap.InvalidFrees != 0 {
			t.Errorf("foreign heap: got %+v, want no live blocks and no invalid frees", stats.Heap)
		}
		if err := library.Close(); err != nil {
			t.Errorf("closing library: %v", err)
		}
	})
	return library
}

func dial(t *testing.T, library client.Library, address string, options ...client.Option) *client.DeviceProxy {
	t.Helper()
	proxy, err := client.Dial(context.Background(), library, address, options...)
	if err != nil {
		t.Fatalf("Dial %s: %v", address, err)
	}
	t.Cleanup(func() {
		if err := proxy.Close(); err != nil {
			t.Errorf("closing %s: %v", address, err)
		}
	})
	return proxy
}

func openDatabase(t *testing.T, library client.Library) *client.DatabaseProxy {
	t.Helper()
	database, err := client.OpenDatabase(context.Background(), library)
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("closing database: %v", err)
		}
	})
	return database
}

// requireReason fails the test unless err carries a DevFailed entry
// with reason.
func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	var failure *tango.Error
	if !errors.As(err, &failure) {
		t.Fatalf("got %v, want a DevFailed with %s", err, reason)
	}
	if !failure.HasReason(reason) {
		t.Fatalf("got reasons %v, want %s", failure.Failures, reason)
	}
}

func TestCommandInout_Echo(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()

	tests := []tango.CommandValue{
		tango.Void{},
		tango.Boolean(true),
		tango.Short(-12),
		tango.UShort(65535),
		tango.Long(-2147483648),
		tango.ULong(4294967295),
		tango.Long64(-1 << 40),
		tango.ULong64(1<<64 - 1),
		tango.Float(1.5),
		tango.Double(-6.25e-3),
		tango.NewString("hello"),
		tango.Encoded{Format: "jpeg", Data: []byte{0xff, 0xd8, 0x00}},
		tango.BooleanArray{true, false},
		tango.UCharArray{0, 127, 255},
		tango.ShortArray{-1, 0, 1},
		tango.UShortArray{1, 2},
		tango.LongArray{1, 2, 3},
		tango.ULongArray{7},
		tango.Long64Array{-5, 5},
		tango.ULong64Array{1 << 63},
		tango.FloatArray{0.25, -0.5},
		tango.DoubleArray{3.14159, 2.71828},
		tango.NewStringArray("a", "bc", "def"),
		tango.LongStringArray{Longs: []int32{1, 2}, Strings: [][]byte{[]byte("x")}},
		tango.DoubleStringArray{Doubles: []float64{0.5}, Strings: [][]byte{[]byte("y"), []byte("z")}},
	}
	for _, argin := range tests {
		t.Run(argin.Kind().String(), func(t *testing.T) {
			got, err := proxy.CommandInout(ctx, argin.Kind().String(), argin)
			if err != nil {
				t.Fatalf("CommandInout: %v", err)
			}
			if !reflect.DeepEqual(got, argin) {
				t.Errorf("got %#v, want %#v", got, argin)
			}
		})
	}
}

func TestCommandInout_StateAndStatus(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()

	state, err := proxy.CommandInout(ctx, "State", nil)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != tango.Running {
		t.Errorf("State: got %v, want %v", state, tango.Running)
	}

	status, err := proxy.CommandInout(ctx, "status", tango.Void{})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if want := tango.NewString("The device is in RUNNING state."); !reflect.DeepEqual(status, want) {
		t.Errorf("Status: got %q, want %q", status, want)
	}
}

func TestCommandInout_Failures(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()

	_, err := proxy.CommandInout(ctx, "SelfDestruct", tango.Void{})
	requireReason(t, err, tango.ReasonCommandNotFound)

	_, err = proxy.CommandInout(ctx, "DevDouble", tango.Long(1))
	requireReason(t, err, tango.ReasonIncompatibleCmdArgumentType)
}

func TestCommandQuery(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()

	info, err := proxy.CommandQuery(ctx, "DevVarLongArray")
	if err != nil {
		t.Fatalf("CommandQuery: %v", err)
	}
	if info.InType != tango.KindLongArray || info.OutType != tango.KindLongArray {
		t.Errorf("types: got %s -> %s, want DevVarLongArray both ways", info.InType, info.OutType)
	}

	infos, err := proxy.CommandListQuery(ctx)
	if err != nil {
		t.Fatalf("CommandListQuery: %v", err)
	}
	names := make([]string, len(infos))
	for index, info := range infos {
		names[index] = info.Name
	}
	for _, want := range []string{"State", "Status", "DevVoid", "DevVarDoubleStringArray"} {
		if !slices.Contains(names, want) {
			t.Errorf("command list %v lacks %s", names, want)
		}
	}
	if slices.Contains(names, "DevUChar") {
		t.Error("command list has DevUChar, which no command can carry")
	}

	_, err = proxy.CommandQuery(ctx, "Nothing")
	requireReason(t, err, tango.ReasonCommandNotFound)
}

func TestEchoDevice(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, "tango://localhost:10000/Test/Benchmark/Echo")

	got, err := proxy.CommandInout(context.Background(), "Echo", tango.NewString("ping"))
	if err != nil {
		t.Fatalf("Echo: %v", err)
	}
	if !reflect.DeepEqual(got, tango.NewString("ping")) {
		t.Errorf("got %q, want ping", got)
	}
}

func TestDial_Unknown(t *testing.T) {
	library := newLibrary(t)
	_, err := client.Dial(context.Background(), library, "sys/missing/1")
	requireReason(t, err, tango.ReasonDeviceNotExported)
}

func TestReadAttribute(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()

	scalar, err := proxy.ReadAttribute(ctx, "long_scalar")
	if err != nil {
		t.Fatalf("ReadAttribute long_scalar: %v", err)
	}
	if scalar.Data != tango.Long(-100000) || scalar.WrittenData != tango.Long(-100000) {
		t.Errorf("long_scalar: got read %#v written %#v, want -100000 both", scalar.Data, scalar.WrittenData)
	}
	if scalar.Format != tango.Scalar || scalar.DimX != 1 || scalar.Quality != tango.QualityValid {
		t.Errorf("long_scalar shape: got %s %dx%d %s", scalar.Format, scalar.DimX, scalar.DimY, scalar.Quality)
	}

	spectrum, err := proxy.ReadAttribute(ctx, "double_spectrum")
	if err != nil {
		t.Fatalf("ReadAttribute double_spectrum: %v", err)
	}
	want := tango.DoubleArray{3.25, -1e-9, 6.02e23, 0}
	if !reflect.DeepEqual(spectrum.Data, want) {
		t.Errorf("double_spectrum read: got %v, want %v", spectrum.Data, want)
	}
	if !reflect.DeepEqual(spectrum.WrittenData, want) {
		t.Errorf("double_spectrum set point: got %v, want %v", spectrum.WrittenData, want)
	}
	if spectrum.DimX != 4 {
		t.Errorf("double_spectrum DimX: got %d, want 4", spectrum.DimX)
	}

	state, err := proxy.ReadAttribute(ctx, "State")
	if err != nil {
		t.Fatalf("ReadAttribute State: %v", err)
	}
	if state.Data != tango.Running {
		t.Errorf("State attribute: got %v, want RUNNING", state.Data)
	}

	_, err = proxy.ReadAttribute(ctx, "no_such_attribute")
	requireReason(t, err, tango.ReasonAttrNotFound)
}

func TestReadAttributes_SetPoints(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)

	readings, err := proxy.ReadAttributes(context.Background(), "short_scalar", "string_spectrum", "ulong64_spectrum_ro")
	if err != nil {
		t.Fatalf("ReadAttributes: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("readings: got %d, want 3", len(readings))
	}
	if readings[0].Data != tango.Short(-2) {
		t.Errorf("short_scalar: got %#v, want -2", readings[0].Data)
	}
	if want := tango.NewStringArray("alpha", "beta", "gamma", "delta"); !reflect.DeepEqual(readings[1].Data, want) {
		t.Errorf("string_spectrum: got %q, want %q", readings[1].Data, want)
	}
	if want := (tango.ULong64Array{1<<64 - 1, 0, 1, 2}); !reflect.DeepEqual(readings[2].Data, want) {
		t.Errorf("ulong64_spectrum_ro: got %v, want %v", readings[2].Data, want)
	}
	if readings[0].WrittenData != tango.Short(-2) {
		t.Errorf("short_scalar set point: got %#v, want -2", readings[0].WrittenData)
	}
	if want := tango.NewStringArray("alpha", "beta", "gamma", "delta"); !reflect.DeepEqual(readings[1].WrittenData, want) {
		t.Errorf("string_spectrum set point: got %q, want %q", readings[1].WrittenData, want)
	}
	if written := tango.Len(readings[2].WrittenData); written != 0 {
		t.Errorf("ulong64_spectrum_ro set point: got %d elements, want none", written)
	}
}

func TestWriteAttribute(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()
	now := time.Now()

	if err := proxy.WriteAttribute(ctx, tango.SimpleAttribute("double_scalar", tango.Double(7.5), now)); err != nil {
		t.Fatalf("WriteAttribute: %v", err)
	}
	reading, err := proxy.ReadAttribute(ctx, "double_scalar")
	if err != nil {
		t.Fatalf("ReadAttribute: %v", err)
	}
	if reading.Data != tango.Double(7.5) || reading.WrittenData != tango.Double(7.5) {
		t.Errorf("after write: got read %#v written %#v, want 7.5 both", reading.Data, reading.WrittenData)
	}

	spectrum := tango.UShortArray{9, 8, 7}
	if err := proxy.WriteAttribute(ctx, tango.SimpleAttribute("ushort_spectrum", spectrum, now)); err != nil {
		t.Fatalf("WriteAttribute spectrum: %v", err)
	}
	reading, err = proxy.ReadAttribute(ctx, "ushort_spectrum")
	if err != nil {
		t.Fatalf("ReadAttribute spectrum: %v", err)
	}
	if !reflect.DeepEqual(reading.Data, spectrum) || !reflect.DeepEqual(reading.WrittenData, spectrum) {
		t.Errorf("ushort_spectrum: got read %v written %v, want %v", reading.Data, reading.WrittenData, spectrum)
	}
}

func TestWriteAttribute_Failures(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()
	now := time.Now()

	err := proxy.WriteAttribute(ctx, tango.SimpleAttribute("long64_spectrum_ro", tango.Long64Array{1}, now))
	requireReason(t, err, tango.ReasonAttrNotWritable)

	err = proxy.WriteAttribute(ctx, tango.SimpleAttribute("double_scalar", tango.Long(1), now))
	requireReason(t, err, tango.ReasonIncompatibleAttrDataType)

	err = proxy.WriteAttribute(ctx, tango.AttributeData{Name: "double_scalar"})
	if err == nil {
		t.Error("WriteAttribute without data succeeded")
	}
}

func TestWriteAttributes_AllOrNothing(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()
	now := time.Now()

	err := proxy.WriteAttributes(ctx, []tango.AttributeData{
		tango.SimpleAttribute("short_scalar", tango.Short(99), now),
		tango.SimpleAttribute("ulong_spectrum_ro", tango.ULongArray{1}, now),
	})
	requireReason(t, err, tango.ReasonAttrNotWritable)

	reading, err := proxy.ReadAttribute(ctx, "short_scalar")
	if err != nil {
		t.Fatalf("ReadAttribute: %v", err)
	}
	if reading.Data != tango.Short(-2) {
		t.Errorf("short_scalar after failed batch: got %#v, want -2", reading.Data)
	}

	err = proxy.WriteAttributes(ctx, []tango.AttributeData{
		tango.SimpleAttribute("short_scalar", tango.Short(99), now),
		tango.SimpleAttribute("boolean_scalar", tango.Boolean(false), now),
	})
	if err != nil {
		t.Fatalf("WriteAttributes: %v", err)
	}
	readings, err := proxy.ReadAttributes(ctx, "short_scalar", "boolean_scalar")
	if err != nil {
		t.Fatalf("ReadAttributes: %v", err)
	}
	if readings[0].Data != tango.Short(99) || readings[1].Data != tango.Boolean(false) {
		t.Errorf("after batch: got %#v and %#v", readings[0].Data, readings[1].Data)
	}
}

func TestAttributeConfig(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()

	names, err := proxy.AttributeList(ctx)
	if err != nil {
		t.Fatalf("AttributeList: %v", err)
	}
	for _, want := range []string{"State", "Status", "double_scalar", "encoded_scalar"} {
		if !slices.Contains(names, want) {
			t.Errorf("attribute list %v lacks %s", names, want)
		}
	}

	infos, err := proxy.AttributeConfig(ctx, "double_scalar", "ulong_spectrum_ro")
	if err != nil {
		t.Fatalf("AttributeConfig: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("AttributeConfig: got %d infos, want 2", len(infos))
	}
	if infos[0].DataType != tango.KindDouble || !infos[0].Writable.Writable() || infos[0].DataFormat != tango.Scalar {
		t.Errorf("double_scalar: got %+v", infos[0])
	}
	if infos[1].DataType != tango.KindULong || infos[1].Writable.Writable() || infos[1].DataFormat != tango.Spectrum {
		t.Errorf("ulong_spectrum_ro: got %+v", infos[1])
	}

	all, err := proxy.AttributeListQuery(ctx)
	if err != nil {
		t.Fatalf("AttributeListQuery: %v", err)
	}
	if len(all) != len(names) {
		t.Errorf("AttributeListQuery: got %d infos, want %d", len(all), len(names))
	}
}

func TestDeviceProperties(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()

	err := proxy.PutDeviceProperty(ctx, []tango.DbDatum{
		tango.NewDbDatum("velocity", tango.Double(2.5)),
		tango.NewDbDatum("channels", tango.LongArray{1, 2, 4}),
		tango.NewDbDatum("mode", tango.NewString("fast")),
	})
	if err != nil {
		t.Fatalf("PutDeviceProperty: %v", err)
	}

	got, err := proxy.GetDeviceProperty(ctx, []tango.DbDatum{
		tango.RequestDbDatum("velocity", tango.KindDouble),
		tango.RequestDbDatum("channels", tango.KindLongArray),
		tango.RequestDbDatum("mode", tango.KindLong),
		tango.RequestDbDatum("missing", tango.KindDouble),
		tango.RequestDbDatum("channels", tango.KindVoid),
	})
	if err != nil {
		t.Fatalf("GetDeviceProperty: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("GetDeviceProperty: got %d data, want 5", len(got))
	}
	if got[0].Data != tango.Double(2.5) {
		t.Errorf("velocity: got %#v, want 2.5", got[0].Data)
	}
	if !reflect.DeepEqual(got[1].Data, tango.LongArray{1, 2, 4}) {
		t.Errorf("channels: got %#v, want [1 2 4]", got[1].Data)
	}
	if !got[2].WrongDataType || !got[2].IsEmpty() {
		t.Errorf("mode as DevLong: got %+v, want an empty datum with WrongDataType", got[2])
	}
	if !got[3].IsEmpty() || got[3].WrongDataType || got[3].RequestType != tango.KindDouble {
		t.Errorf("missing: got %+v, want an empty DevDouble datum", got[3])
	}
	if want := tango.NewStringArray("1", "2", "4"); !reflect.DeepEqual(got[4].Data, want) {
		t.Errorf("channels as raw strings: got %q, want %q", got[4].Data, want)
	}

	if err := proxy.DeleteDeviceProperty(ctx, "velocity", "never-set"); err != nil {
		t.Fatalf("DeleteDeviceProperty: %v", err)
	}
	got, err = proxy.GetDeviceProperty(ctx, []tango.DbDatum{tango.RequestDbDatum("velocity", tango.KindDouble)})
	if err != nil {
		t.Fatalf("GetDeviceProperty after delete: %v", err)
	}
	if !got[0].IsEmpty() {
		t.Errorf("velocity after delete: got %+v, want empty", got[0])
	}
}

func TestDatabase(t *testing.T) {
	library := newLibrary(t)
	database := openDatabase(t, library)
	ctx := context.Background()

	exported, err := database.DeviceExported(ctx, "*")
	if err != nil {
		t.Fatalf("DeviceExported: %v", err)
	}
	if want := tango.NewStringArray(tangotest.TestDevice, tangotest.EchoDevice); !reflect.DeepEqual(exported.Data, want) {
		t.Errorf("DeviceExported(*): got %q, want %q", exported.Data, want)
	}

	exported, err = database.DeviceExported(ctx, "SYS/*")
	if err != nil {
		t.Fatalf("DeviceExported: %v", err)
	}
	if want := tango.NewStringArray(tangotest.TestDevice); !reflect.DeepEqual(exported.Data, want) {
		t.Errorf("DeviceExported(SYS/*): got %q, want %q", exported.Data, want)
	}

	byClass, err := database.DeviceExportedForClass(ctx, "EchoDevice")
	if err != nil {
		t.Fatalf("DeviceExportedForClass: %v", err)
	}
	if want := tango.NewStringArray(tangotest.EchoDevice); !reflect.DeepEqual(byClass.Data, want) {
		t.Errorf("DeviceExportedForClass: got %q, want %q", byClass.Data, want)
	}

	err = database.PutProperty(ctx, "Beamline", []tango.DbDatum{
		tango.NewDbDatum("energy", tango.Double(12.4)),
		tango.NewDbDatum("hutches", tango.NewStringArray("A", "B")),
	})
	if err != nil {
		t.Fatalf("PutProperty: %v", err)
	}

	objects, err := database.ObjectList(ctx, "beam*")
	if err != nil {
		t.Fatalf("ObjectList: %v", err)
	}
	if want := tango.NewStringArray("Beamline"); !reflect.DeepEqual(objects.Data, want) {
		t.Errorf("ObjectList: got %q, want %q", objects.Data, want)
	}

	properties, err := database.ObjectPropertyList(ctx, "Beamline", "*")
	if err != nil {
		t.Fatalf("ObjectPropertyList: %v", err)
	}
	if want := tango.NewStringArray("energy", "hutches"); !reflect.DeepEqual(properties.Data, want) {
		t.Errorf("ObjectPropertyList: got %q, want %q", properties.Data, want)
	}

	got, err := database.GetProperty(ctx, "beamline", []tango.DbDatum{
		tango.RequestDbDatum("energy", tango.KindFloat),
		tango.RequestDbDatum("hutches", tango.KindStringArray),
	})
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if got[0].Data != tango.Float(12.4) {
		t.Errorf("energy: got %#v, want 12.4", got[0].Data)
	}
	if want := tango.NewStringArray("A", "B"); !reflect.DeepEqual(got[1].Data, want) {
		t.Errorf("hutches: got %q, want %q", got[1].Data, want)
	}

	if err := database.DeleteProperty(ctx, "Beamline", "energy", "hutches"); err != nil {
		t.Fatalf("DeleteProperty: %v", err)
	}
	objects, err = database.ObjectList(ctx, "*")
	if err != nil {
		t.Fatalf("ObjectList after delete: %v", err)
	}
	if tango.Len(objects.Data) != 0 {
		t.Errorf("ObjectList after delete: got %q, want none", objects.Data)
	}
}

func TestLocking(t *testing.T) {
	library := newLibrary(t)
	ctx := context.Background()
	owner, err := client.Dial(ctx, library, tangotest.TestDevice)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	other := dial(t, library, tangotest.TestDevice)

	if err := owner.Lock(ctx); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if mine, err := owner.IsLockedByMe(ctx); err != nil || !mine {
		t.Errorf("owner IsLockedByMe: got %v, %v", mine, err)
	}
	if locked, err := other.IsLocked(ctx); err != nil || !locked {
		t.Errorf("other IsLocked: got %v, %v", locked, err)
	}
	if mine, err := other.IsLockedByMe(ctx); err != nil || mine {
		t.Errorf("other IsLockedByMe: got %v, %v", mine, err)
	}
	if status, err := other.LockingStatus(ctx); err != nil || status == "" {
		t.Errorf("LockingStatus: got %q, %v", status, err)
	}

	_, err = other.CommandInout(ctx, "DevLong", tango.Long(1))
	requireReason(t, err, tango.ReasonDeviceLocked)
	err = other.WriteAttribute(ctx, tango.SimpleAttribute("long_scalar", tango.Long(1), time.Now()))
	requireReason(t, err, tango.ReasonDeviceLocked)
	err = other.PutDeviceProperty(ctx, []tango.DbDatum{tango.NewDbDatum("x", tango.Long(1))})
	requireReason(t, err, tango.ReasonDeviceLocked)
	requireReason(t, other.Unlock(ctx), tango.ReasonDeviceNotLocked)

	if _, err := other.ReadAttribute(ctx, "long_scalar"); err != nil {
		t.Errorf("read on a device locked by another client: %v", err)
	}
	if _, err := owner.CommandInout(ctx, "DevLong", tango.Long(1)); err != nil {
		t.Errorf("owner command: %v", err)
	}

	if err := owner.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if locked, err := other.IsLocked(ctx); err != nil || locked {
		t.Errorf("IsLocked after owner closed: got %v, %v", locked, err)
	}
}

func TestTimeoutAndSource(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.TestDevice)
	ctx := context.Background()

	timeout, err := proxy.Timeout(ctx)
	if err != nil || timeout != tangotest.DefaultTimeout {
		t.Errorf("Timeout: got %v, %v, want %v", timeout, err, tangotest.DefaultTimeout)
	}
	if err := proxy.SetTimeout(ctx, 10*time.Second); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	if timeout, _ := proxy.Timeout(ctx); timeout != 10*time.Second {
		t.Errorf("Timeout after set: got %v, want 10s", timeout)
	}
	if err := proxy.SetTimeout(ctx, -time.Second); err == nil {
		t.Error("negative timeout accepted")
	}

	source, err := proxy.Source(ctx)
	if err != nil || source != tango.SourceCacheDev {
		t.Errorf("Source: got %v, %v, want %v", source, err, tango.SourceCacheDev)
	}
	if err := proxy.SetSource(ctx, tango.SourceDev); err != nil {
		t.Fatalf("SetSource: %v", err)
	}
	if source, _ := proxy.Source(ctx); source != tango.SourceDev {
		t.Errorf("Source after set: got %v, want %v", source, tango.SourceDev)
	}
}

func TestProxy_ContextAndClose(t *testing.T) {
	library := newLibrary(t)
	proxy, err := client.Dial(context.Background(), library, tangotest.TestDevice)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := proxy.CommandInout(cancelled, "DevLong", tango.Long(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: got %v, want %v", err, context.Canceled)
	}
	if _, err := client.Dial(cancelled, library, tangotest.TestDevice); !errors.Is(err, context.Canceled) {
		t.Errorf("Dial with cancelled context: got %v, want %v", err, context.Canceled)
	}

	if err := proxy.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := proxy.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := proxy.ReadAttribute(context.Background(), "long_scalar"); !errors.Is(err, client.ErrClosed) {
		t.Errorf("after Close: got %v, want %v", err, client.ErrClosed)
	}
}

func TestWithAllocator_ReleasesArguments(t *testing.T) {
	library := newLibrary(t)
	heap, err := wire.NewHeap(0)
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}
	defer heap.Close()
	proxy := dial(t, library, tangotest.TestDevice, client.WithAllocator(heap))
	ctx := context.Background()

	if _, err := proxy.CommandInout(ctx, "DevVarStringArray", tango.NewStringArray("one", "two")); err != nil {
		t.Fatalf("CommandInout: %v", err)
	}
	if _, err := proxy.CommandInout(ctx, "DevDouble", tango.Long(3)); err == nil {
		t.Fatal("mismatched argument accepted")
	}
	if err := proxy.WriteAttribute(ctx, tango.SimpleAttribute("float_spectrum", tango.FloatArray{1, 2}, time.Now())); err != nil {
		t.Fatalf("WriteAttribute: %v", err)
	}

	stats := heap.Stats()
	if stats.Allocs == 0 {
		t.Fatal("caller heap was not used for arguments")
	}
	if stats.Live != 0 || stats.Allocs != stats.Frees {
		t.Errorf("argument heap: got %+v, want every allocation freed", stats)
	}
}

func TestProxy_ConcurrentCalls(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, library, tangotest.EchoDevice)

	const goroutineCount = 8
	var waitGroup sync.WaitGroup
	failures := make(chan error, goroutineCount)
	for index := range goroutineCount {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			message := tango.NewString(string(rune('a' + index)))
			for range 25 {
				got, err := proxy.CommandInout(context.Background(), "Echo", message)
				if err != nil {
					failures <- err
					return
				}
				if !reflect.DeepEqual(got, message) {
					failures <- errors.New("echo returned another goroutine's message")
					return
				}
			}
		}()
	}
	waitGroup.Wait()
	close(failures)
	for err := range failures {
		t.Error(err)
	}
}

// lateReplyLibrary returns the record the wrapped library produced
// together with an error.
type lateReplyLibrary struct {
	*tangotest.Library
}

func (library lateReplyLibrary) CommandInout(handle client.Handle, command string, argin wire.View) (*wire.Foreign, error) {
	result, err := library.Library.CommandInout(handle, command, argin)
	if err != nil {
		return nil, err
	}
	return result, errors.New("reply arrived after the deadline")
}

func TestExchange_ReleasesResultOnError(t *testing.T) {
	library := newLibrary(t)
	proxy := dial(t, lateReplyLibrary{library}, tangotest.EchoDevice)

	_, err := proxy.CommandInout(context.Background(), "Echo", tango.NewString("lost"))
	if err == nil {
		t.Fatal("CommandInout succeeded, want the library's error")
	}
	if outstanding := library.Stats().Outstanding(); outstanding != 0 {
		t.Errorf("outstanding foreign records: got %d, want 0", outstanding)
	}
}
