// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot records attribute readings to a compact file and
// reads them back.
//
// A snapshot file is a header, a run of blocks and a trailer:
//
//	header:  "TGSNAP" version(1) compression(1)
//	block:   compression(1) uvarint(raw length) uvarint(stored length) stored bytes
//	trailer: 0xFF digest(32)
//
// Each block decompresses to a CBOR sequence of records, one per
// reading. Variant values are stored as codec envelopes, so a reading
// decodes back to the exact variant it was recorded from. A block
// whose compressed form is no smaller than its raw bytes is stored
// uncompressed, and says so in its own compression byte.
//
// The digest is a BLAKE3 keyed hash, in the snapshot domain, of every
// block's raw bytes in order. Reader checks it when it reaches the
// trailer and reports [ErrDigestMismatch] for a file altered after it
// was written, or [ErrTruncated] for a file with no trailer.
//
// [Recorder] polls a device on a clock tick and feeds a Writer.
package snapshot
