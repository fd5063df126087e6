// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/tango/lib/tango"
)

type sampleReading struct {
	Device    string            `cbor:"device"`
	Values    map[string]int32  `cbor:"values"`
	Labels    map[string]string `cbor:"labels,omitempty"`
	TimeStamp time.Time         `cbor:"time"`
}

func TestMarshal_Deterministic(t *testing.T) {
	reading := sampleReading{
		Device:    "sys/tg_test/1",
		Values:    map[string]int32{"zeta": 1, "alpha": 2, "mid": 3, "beta": 4},
		TimeStamp: time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC),
	}
	first, err := Marshal(reading)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 20 {
		again, err := Marshal(reading)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("two encodings of the same value differ")
		}
	}

	var decoded sampleReading
	if err := Unmarshal(first, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.TimeStamp.Equal(reading.TimeStamp) {
		t.Errorf("timestamp: got %v, want %v", decoded.TimeStamp, reading.TimeStamp)
	}
	if !reflect.DeepEqual(decoded.Values, reading.Values) {
		t.Errorf("values: got %v, want %v", decoded.Values, reading.Values)
	}
}

func TestEncoderDecoder_Sequence(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for index := range 3 {
		if err := encoder.Encode(sampleReading{Device: "a/b/c", Values: map[string]int32{"n": int32(index)}}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	decoder := NewDecoder(&buffer)
	for index := range 3 {
		var reading sampleReading
		if err := decoder.Decode(&reading); err != nil {
			t.Fatalf("Decode %d: %v", index, err)
		}
		if reading.Values["n"] != int32(index) {
			t.Errorf("item %d: got %d", index, reading.Values["n"])
		}
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]int{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, rest, err := Diagnose(append(data, data...))
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if notation != `{"a": 1, "b": 2}` {
		t.Errorf("notation: got %s", notation)
	}
	if !bytes.Equal(rest, data) {
		t.Errorf("rest: got %x, want %x", rest, data)
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	values := []tango.Value{
		tango.Void{},
		tango.Empty{},
		tango.Boolean(true),
		tango.UChar(200),
		tango.Short(-3),
		tango.UShort(3),
		tango.Long(-70000),
		tango.ULong(70000),
		tango.Long64(-1 << 50),
		tango.ULong64(1<<64 - 1),
		tango.Float(0.25),
		tango.Double(6.02e23),
		tango.NewString("status text"),
		tango.Alarm,
		tango.Encoded{Format: "png", Data: []byte{0x89, 'P', 'N', 'G'}},
		tango.BooleanArray{false, true},
		tango.UCharArray{1, 2, 255},
		tango.ShortArray{-1, 1},
		tango.UShortArray{65535},
		tango.LongArray{1, 2, 3},
		tango.ULongArray{4},
		tango.Long64Array{-9},
		tango.ULong64Array{9},
		tango.FloatArray{1.5},
		tango.DoubleArray{-0.5, 0.5},
		tango.NewStringArray("x", "y"),
		tango.StateArray{tango.On, tango.Fault},
		tango.EncodedArray{{Format: "raw", Data: []byte{0}}},
		tango.LongStringArray{Longs: []int32{7}, Strings: [][]byte{[]byte("seven")}},
		tango.DoubleStringArray{Doubles: []float64{7.5}, Strings: [][]byte{[]byte("a"), []byte("b")}},
	}
	for _, value := range values {
		t.Run(reflect.TypeOf(value).Name(), func(t *testing.T) {
			data, err := MarshalValue(value)
			if err != nil {
				t.Fatalf("MarshalValue: %v", err)
			}
			got, err := UnmarshalValue(data)
			if err != nil {
				t.Fatalf("UnmarshalValue: %v", err)
			}
			if !reflect.DeepEqual(got, value) {
				t.Errorf("got %#v, want %#v", got, value)
			}
		})
	}
}

func TestEnvelope_Rejects(t *testing.T) {
	if _, err := Wrap(nil); err == nil {
		t.Error("Wrap(nil) succeeded")
	}
	tests := []struct {
		name     string
		envelope Envelope
	}{
		{"unknown name", Envelope{Type: "DevQuaternion"}},
		{"alias", Envelope{Type: "DevInt"}},
		{"scalar spectrum", Envelope{Type: "DevLong", Spectrum: true}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.envelope.Unwrap()
			if !errors.Is(err, ErrUnknownType) {
				t.Errorf("got %v, want %v", err, ErrUnknownType)
			}
		})
	}

	_, err := Envelope{Type: "DevLong", Value: RawMessage{0x63, 'a', 'b', 'c'}}.Unwrap()
	if err == nil || !strings.Contains(err.Error(), "DevLong") {
		t.Errorf("mistyped payload: got %v, want a DevLong decode error", err)
	}
}
