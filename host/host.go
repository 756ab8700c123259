// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package host - the narrow surface of the host chain node that the
// core consumes
//
// the host delivers ordered confirmed blocks, disconnect
// notifications for reorganisations, mempool notifications and a
// queryable view of unspent outputs; nothing else of the host is
// visible to the core
package host

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Block - one confirmed host block with its chain position
type Block struct {
	Height uint32
	Time   int64
	Hash   chainhash.Hash
	Txs    []*wire.MsgTx
}

// Output - a spendable output resolved through the coin view
type Output struct {
	PkScript []byte
	Value    int64
	Coinbase bool
	Height   uint32
}

// CoinView - resolve spent outputs while parsing inputs
type CoinView interface {
	GetOutput(outpoint wire.OutPoint) (Output, bool)
}

// ChainView - the host chain state the pipeline needs
type ChainView interface {
	TipHeight() uint32
	TipTime() int64
	BlockAt(height uint32) (*Block, bool)
	IsInitialSync() bool
}

// Event - one host notification, consumed in order by a single task
type Event interface {
	isEvent()
}

// BlockConnected - a block joined the best chain
type BlockConnected struct {
	Block *Block
}

// BlockDisconnected - a block left the best chain
type BlockDisconnected struct {
	Block *Block
}

// TxAdded - mempool acceptance
type TxAdded struct {
	Tx *wire.MsgTx
}

// TxRemoved - mempool eviction
type TxRemoved struct {
	Tx     *wire.MsgTx
	Reason string
}

func (BlockConnected) isEvent()    {}
func (BlockDisconnected) isEvent() {}
func (TxAdded) isEvent()           {}
func (TxRemoved) isEvent()         {}

// Hooks - process level callbacks supplied by the embedding node
type Hooks struct {
	// polled at transaction boundaries; true stops processing at the
	// next safe point
	ShutdownRequested func() bool

	// terminate on unrecoverable inconsistency
	AbortNode func(message string)
}
