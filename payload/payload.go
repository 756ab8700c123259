// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package payload - locating the protocol payload inside a host
// transaction
//
// two encodings exist on the chain: a single data carrier output
// holding the two byte marker and the raw payload (class C, preferred)
// and a sequence of bare multisig outputs whose extra public keys
// carry obfuscated payload chunks (class B, legacy)
package payload

import (
	"github.com/btcsuite/btcd/wire"
)

// Class - which encoding carried the payload
type Class int

// payload classes
const (
	ClassNone Class = iota
	ClassB
	ClassC
)

// the two byte marker prepended to every class C payload
var Marker = []byte{0x6f, 0x6d}

// MaxDataCarrierSize - host standardness bound on a data carrier
// output script; marker plus payload must stay within the pushed data
const MaxDataCarrierSize = 80

// Extract - find and reassemble the payload of a transaction
//
// class C wins when both encodings are present; the sender address is
// only needed to strip the class B obfuscation
func Extract(tx *wire.MsgTx, senderAddress string) ([]byte, Class) {
	if data, ok := extractClassC(tx); ok {
		return data, ClassC
	}
	if data, ok := extractClassB(tx, senderAddress); ok {
		return data, ClassB
	}
	return nil, ClassNone
}

// HasMarker - quick test used by the mempool marker cache
//
// detects a class C marker output or the bare multisig shape of a
// class B carrier without reassembling anything
func HasMarker(tx *wire.MsgTx) bool {
	if _, ok := extractClassC(tx); ok {
		return true
	}
	return hasMultisigOutput(tx)
}
