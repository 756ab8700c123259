// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package parser - turn a host transaction into a typed protocol
// transaction
//
// determines the sender from the spent inputs, locates the payload,
// decodes it and picks the reference recipient from the outputs; all
// of it gated by the script types the protocol permits at the height
package parser

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/metalayerd/chain"
	"github.com/bitmark-inc/metalayerd/host"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/payload"
)

// MetaTransaction - a fully parsed protocol transaction ready for the
// interpreter
type MetaTransaction struct {
	Sender    string
	Reference string // reference recipient, empty when none exists
	Record    metatx.Record
	Class     payload.Class

	Block    uint32
	Index    uint32 // position in block
	Time     int64  // block time
	TxId     chainhash.Hash
	OutputAddresses []string // per-output decoded address, "" where none
}

// Parse - extract, classify and decode one host transaction
//
// a nil result with a nil error means the transaction carries no
// payload and is of no interest to the protocol
func Parse(tx *wire.MsgTx, block uint32, index uint32, blockTime int64, coins host.CoinView, params *chain.Parameters, testnet bool) (*MetaTransaction, error) {

	sender, err := senderOf(tx, block, coins, params, testnet)
	if nil != err {
		// a transaction without the marker is of no interest, one
		// with it but no resolvable sender is a parse error
		if !payload.HasMarker(tx) {
			return nil, nil
		}
		return nil, err
	}

	data, class := payload.Extract(tx, sender)
	if payload.ClassNone == class {
		return nil, nil
	}

	record, err := metatx.Packed(data).Unpack()
	if nil != err {
		return nil, err
	}

	outputs := outputAddresses(tx, block, params, testnet)

	meta := &MetaTransaction{
		Sender:          sender,
		Record:          record,
		Class:           class,
		Block:           block,
		Index:           index,
		Time:            blockTime,
		TxId:            tx.TxHash(),
		OutputAddresses: outputs,
	}

	meta.Reference = referenceOf(tx, outputs, sender, class)

	return meta, nil
}
