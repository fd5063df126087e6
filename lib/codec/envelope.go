// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/tango/lib/tango"
)

// emptyType is the envelope type of tango.Empty, which shares
// KindVoid with tango.Void.
const emptyType = "Empty"

// Envelope is a Tango value tagged with its type name, e.g.
// {"type": "DevVarDoubleArray", "value": [1.5, 2]}. Spectrum is set for
// StateArray and EncodedArray, whose kind is their element kind.
type Envelope struct {
	Type     string     `cbor:"type"`
	Spectrum bool       `cbor:"spectrum,omitempty"`
	Value    RawMessage `cbor:"value,omitempty"`
}

// ErrUnknownType is returned by Unwrap for a type name with no
// variant.
var ErrUnknownType = errors.New("codec: unknown envelope type")

// Wrap encodes value into an envelope. A nil value is rejected.
func Wrap(value tango.Value) (Envelope, error) {
	if value == nil {
		return Envelope{}, errors.New("codec: cannot wrap a nil value")
	}
	envelope := Envelope{Type: value.Kind().String()}
	switch value.(type) {
	case tango.Void:
		return envelope, nil
	case tango.Empty:
		envelope.Type = emptyType
		return envelope, nil
	case tango.StateArray, tango.EncodedArray:
		envelope.Spectrum = true
	}
	raw, err := Marshal(value)
	if err != nil {
		return Envelope{}, fmt.Errorf("codec: encoding %s: %w", envelope.Type, err)
	}
	envelope.Value = raw
	return envelope, nil
}

// Unwrap decodes the envelope back into its variant.
func (envelope Envelope) Unwrap() (tango.Value, error) {
	if envelope.Type == emptyType {
		return tango.Empty{}, nil
	}
	kind, err := tango.ParseKind(envelope.Type)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, envelope.Type)
	}
	if kind == tango.KindVoid {
		return tango.Void{}, nil
	}
	decode := variantDecoders[kind]
	if envelope.Spectrum {
		decode = spectrumDecoders[kind]
	}
	if decode == nil {
		return nil, fmt.Errorf("%w %q (spectrum=%v)", ErrUnknownType, envelope.Type, envelope.Spectrum)
	}
	value, err := decode(envelope.Value)
	if err != nil {
		return nil, fmt.Errorf("codec: decoding %s: %w", envelope.Type, err)
	}
	return value, nil
}

// MarshalValue encodes a Tango value as an enveloped CBOR item.
func MarshalValue(value tango.Value) ([]byte, error) {
	envelope, err := Wrap(value)
	if err != nil {
		return nil, err
	}
	return Marshal(envelope)
}

// UnmarshalValue decodes an item written by MarshalValue.
func UnmarshalValue(data []byte) (tango.Value, error) {
	var envelope Envelope
	if err := Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return envelope.Unwrap()
}

func decodeAs[T tango.Value](raw RawMessage) (tango.Value, error) {
	var value T
	if err := Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// variantDecoders covers every kind whose type name identifies a
// single variant. The aliases DevInt and ConstDevString have none.
var variantDecoders = map[tango.Kind]func(RawMessage) (tango.Value, error){
	tango.KindBoolean:           decodeAs[tango.Boolean],
	tango.KindUChar:             decodeAs[tango.UChar],
	tango.KindShort:             decodeAs[tango.Short],
	tango.KindUShort:            decodeAs[tango.UShort],
	tango.KindLong:              decodeAs[tango.Long],
	tango.KindULong:             decodeAs[tango.ULong],
	tango.KindLong64:            decodeAs[tango.Long64],
	tango.KindULong64:           decodeAs[tango.ULong64],
	tango.KindFloat:             decodeAs[tango.Float],
	tango.KindDouble:            decodeAs[tango.Double],
	tango.KindString:            decodeAs[tango.String],
	tango.KindState:             decodeAs[tango.DevState],
	tango.KindEncoded:           decodeAs[tango.Encoded],
	tango.KindBooleanArray:      decodeAs[tango.BooleanArray],
	tango.KindCharArray:         decodeAs[tango.UCharArray],
	tango.KindShortArray:        decodeAs[tango.ShortArray],
	tango.KindUShortArray:       decodeAs[tango.UShortArray],
	tango.KindLongArray:         decodeAs[tango.LongArray],
	tango.KindULongArray:        decodeAs[tango.ULongArray],
	tango.KindLong64Array:       decodeAs[tango.Long64Array],
	tango.KindULong64Array:      decodeAs[tango.ULong64Array],
	tango.KindFloatArray:        decodeAs[tango.FloatArray],
	tango.KindDoubleArray:       decodeAs[tango.DoubleArray],
	tango.KindStringArray:       decodeAs[tango.StringArray],
	tango.KindLongStringArray:   decodeAs[tango.LongStringArray],
	tango.KindDoubleStringArray: decodeAs[tango.DoubleStringArray],
}

var spectrumDecoders = map[tango.Kind]func(RawMessage) (tango.Value, error){
	tango.KindState:   decodeAs[tango.StateArray],
	tango.KindEncoded: decodeAs[tango.EncodedArray],
}
