// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is the BLAKE3 digest in a snapshot trailer.
type Digest [32]byte

func (digest Digest) String() string {
	return hex.EncodeToString(digest[:])
}

// recordsDomainKey separates snapshot digests from any other keyed
// BLAKE3 use of the same bytes. It is the ASCII domain name,
// zero-padded to 32 bytes, and must not change.
var recordsDomainKey = [32]byte{
	't', 'a', 'n', 'g', 'o', '.', 's', 'n', 'a', 'p', 's', 'h', 'o', 't', '.',
	'r', 'e', 'c', 'o', 'r', 'd', 's', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// newDigester returns a keyed hasher in the snapshot domain.
func newDigester() *blake3.Hasher {
	hasher, err := blake3.NewKeyed(recordsDomainKey[:])
	if err != nil {
		panic("snapshot: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sum(hasher *blake3.Hasher) Digest {
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
