// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payload

import (
	"bytes"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/metalayerd/fault"
)

// extractClassC - the payload of the first data carrier output that
// starts with the marker
func extractClassC(tx *wire.MsgTx) ([]byte, bool) {
	for _, out := range tx.TxOut {
		if txscript.NullDataTy != txscript.GetScriptClass(out.PkScript) {
			continue
		}
		pushes, err := txscript.PushedData(out.PkScript)
		if nil != err || 0 == len(pushes) {
			continue
		}
		data := pushes[0]
		if len(data) < len(Marker) || !bytes.Equal(data[:len(Marker)], Marker) {
			continue
		}
		payload := make([]byte, len(data)-len(Marker))
		copy(payload, data[len(Marker):])
		return payload, true
	}
	return nil, false
}

// EncodeClassC - build the data carrier output script for a payload
//
// the exact inverse of extraction: marker then payload in a single
// push
func EncodeClassC(data []byte) ([]byte, error) {
	if len(Marker)+len(data) > MaxDataCarrierSize {
		return nil, fault.PayloadTooLong
	}
	carrier := make([]byte, 0, len(Marker)+len(data))
	carrier = append(carrier, Marker...)
	carrier = append(carrier, data...)
	return txscript.NullDataScript(carrier)
}
