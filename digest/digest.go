// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package digest computes the stable sha256 digest used to identify
// circuit proposals (spec §4.1, C1).
//
// The source this service was distilled from renders each digest byte
// with Rust's `{:0x}` format specifier, which drops the leading nibble
// for any byte below 0x10 — a latent bug spec §9 calls out by name.
// HexEncode below is zero-padded and pinned by a regression test whose
// digest is known to contain a byte < 0x10.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/latticemesh/circuitadmin/internal/adminerrors"
)

// Sum returns the 32-byte sha256 digest of payload. A nil payload is
// rejected with ErrDigestError; any non-nil slice, including an empty
// one, hashes without error. The error return keeps the shape of the
// source's fallible digest (serialization failures there surface as
// DigestError).
func Sum(payload []byte) ([32]byte, error) {
	if payload == nil {
		return [32]byte{}, fmt.Errorf("%w: nil payload", adminerrors.ErrDigestError)
	}
	return sha256.Sum256(payload), nil
}

// HexEncode renders a digest as a fixed two-character-per-byte lowercase
// hex string, zero-padded. Never drop this padding: pending-table keys
// and wire ids depend on a canonical, fixed-width rendering.
func HexEncode(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

// SumHex is the common-case helper: digest payload and render as hex in
// one call.
func SumHex(payload []byte) (string, error) {
	sum, err := Sum(payload)
	if err != nil {
		return "", err
	}
	return HexEncode(sum), nil
}
