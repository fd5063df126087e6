// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR configuration shared by the property store
// and the snapshot format.
//
// The encoder uses Core Deterministic Encoding: sorted map keys,
// smallest integer encoding, no indefinite-length items. The same value
// always encodes to the same bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Tango values are sealed interfaces, so they cannot be decoded
// directly. [Envelope] records a value together with its type name:
//
//	envelope, err := codec.Wrap(tango.DoubleArray{1, 2})
//	value, err := envelope.Unwrap()
//
// Types serialized only as CBOR carry `cbor` struct tags. Types also
// printed as JSON by the CLI carry `json` tags, which the CBOR library
// reads when no `cbor` tag is present. A field never carries both.
package codec
