// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tangotest is an in-process control library for tests and
// for running the CLI without a Tango installation. It implements
// client.Library with its own [wire.Heap] as foreign memory, so every
// record it returns crosses the same ownership boundary a native
// library's would: the caller decodes it and hands it back through the
// release routine the simulator attached.
//
// Two devices are always present:
//
//   - sys/tg_test/1, modelled on the TangoTest device server. It has
//     an echo command per command kind (DevBoolean, DevVarLongArray,
//     DevEncoded, ...), State and Status commands, and attributes
//     named <type>_scalar and <type>_spectrum for every numeric and
//     string element type, read-only 64-bit spectrums, State, Status
//     and encoded_scalar.
//   - test/benchmark/echo, whose Echo command returns its DevString
//     argument.
//
// More devices, and free-object properties, can be loaded from a JSONC
// fixtures file with [LoadFixtures] and [Library.Load].
//
// Properties live in a [PropertyStore] as string lists, converted to
// the requested kind on every get. [MemoryStore] is the default;
// [SQLiteStore] persists them.
//
// [Library.Stats] counts returned records and their releases so tests
// can assert that every record handed out came back exactly once.
package tangotest
