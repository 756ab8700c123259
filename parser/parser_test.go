// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package parser_test

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/metalayerd/chain"
	"github.com/bitmark-inc/metalayerd/host"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/payload"
	"github.com/bitmark-inc/metalayerd/protocol"
)

var params = chain.Params(chain.Local)

// fixed test addresses derived from simple hash fillers
func testAddress(t *testing.T, filler byte) (string, []byte) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = filler
	}
	address, err := btcutil.NewAddressPubKeyHash(hash, params.Net)
	assert.Nil(t, err)
	script, err := txscript.PayToAddrScript(address)
	assert.Nil(t, err)
	return address.EncodeAddress(), script
}

// coin view over a fixed output map
type fakeCoins map[wire.OutPoint]host.Output

func (f fakeCoins) GetOutput(outpoint wire.OutPoint) (host.Output, bool) {
	out, ok := f[outpoint]
	return out, ok
}

func outpoint(n byte, index uint32) wire.OutPoint {
	hash := chainhash.Hash{}
	hash[0] = n
	return wire.OutPoint{Hash: hash, Index: index}
}

func TestParseSimpleSend(t *testing.T) {
	aliceAddress, aliceScript := testAddress(t, 0x01)
	bobAddress, bobScript := testAddress(t, 0x02)

	coins := fakeCoins{
		outpoint(1, 0): {PkScript: aliceScript, Value: 100000},
	}

	record := &metatx.SimpleSend{PropertyId: 31, Amount: 20_0000_0000}
	script, err := payload.EncodeClassC(metatx.Pack(record))
	assert.Nil(t, err)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.Hash{1: 0}, Index: 0}, nil, nil))
	tx.TxIn[0].PreviousOutPoint = outpoint(1, 0)
	tx.AddTxOut(wire.NewTxOut(0, script))          // payload output
	tx.AddTxOut(wire.NewTxOut(546, bobScript))     // reference output

	meta, err := parser.Parse(tx, 500, 3, 1234567, coins, params, true)
	assert.Nil(t, err)
	assert.NotNil(t, meta)

	assert.Equal(t, aliceAddress, meta.Sender)
	assert.Equal(t, bobAddress, meta.Reference)
	assert.Equal(t, payload.ClassC, meta.Class)
	assert.Equal(t, uint32(500), meta.Block)
	assert.Equal(t, uint32(3), meta.Index)

	decoded, ok := meta.Record.(*metatx.SimpleSend)
	assert.True(t, ok)
	assert.Equal(t, protocol.Amount(20_0000_0000), decoded.Amount)
}

func TestSenderHighestValueWins(t *testing.T) {
	aliceAddress, aliceScript := testAddress(t, 0x01)
	_, bobScript := testAddress(t, 0x02)

	coins := fakeCoins{
		outpoint(1, 0): {PkScript: bobScript, Value: 1000},
		outpoint(2, 0): {PkScript: aliceScript, Value: 5000},
		outpoint(3, 0): {PkScript: bobScript, Value: 2000},
	}

	record := &metatx.SimpleSend{PropertyId: 31, Amount: 1}
	script, err := payload.EncodeClassC(metatx.Pack(record))
	assert.Nil(t, err)

	tx := wire.NewMsgTx(wire.TxVersion)
	for n := byte(1); n <= 3; n += 1 {
		in := wire.NewTxIn(&wire.OutPoint{}, nil, nil)
		in.PreviousOutPoint = outpoint(n, 0)
		tx.AddTxIn(in)
	}
	tx.AddTxOut(wire.NewTxOut(0, script))

	meta, err := parser.Parse(tx, 500, 0, 0, coins, params, true)
	assert.Nil(t, err)
	// alice: 5000  bob: 3000
	assert.Equal(t, aliceAddress, meta.Sender)
	assert.Equal(t, "", meta.Reference)
}

func TestReferenceSkipsSender(t *testing.T) {
	aliceAddress, aliceScript := testAddress(t, 0x01)
	bobAddress, bobScript := testAddress(t, 0x02)

	coins := fakeCoins{
		outpoint(1, 0): {PkScript: aliceScript, Value: 100000},
	}

	record := &metatx.SimpleSend{PropertyId: 31, Amount: 1}
	script, err := payload.EncodeClassC(metatx.Pack(record))
	assert.Nil(t, err)

	tx := wire.NewMsgTx(wire.TxVersion)
	in := wire.NewTxIn(&wire.OutPoint{}, nil, nil)
	in.PreviousOutPoint = outpoint(1, 0)
	tx.AddTxIn(in)
	tx.AddTxOut(wire.NewTxOut(0, script))
	tx.AddTxOut(wire.NewTxOut(546, aliceScript)) // change back to sender
	tx.AddTxOut(wire.NewTxOut(546, bobScript))

	meta, err := parser.Parse(tx, 500, 0, 0, coins, params, true)
	assert.Nil(t, err)
	assert.Equal(t, aliceAddress, meta.Sender)
	assert.Equal(t, bobAddress, meta.Reference)
}

func TestNonProtocolTxIgnored(t *testing.T) {
	_, aliceScript := testAddress(t, 0x01)
	_, bobScript := testAddress(t, 0x02)

	coins := fakeCoins{
		outpoint(1, 0): {PkScript: aliceScript, Value: 100000},
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	in := wire.NewTxIn(&wire.OutPoint{}, nil, nil)
	in.PreviousOutPoint = outpoint(1, 0)
	tx.AddTxIn(in)
	tx.AddTxOut(wire.NewTxOut(546, bobScript))

	meta, err := parser.Parse(tx, 500, 0, 0, coins, params, true)
	assert.Nil(t, err)
	assert.Nil(t, meta)
}

func TestMarkerWithoutSenderIsParseError(t *testing.T) {
	record := &metatx.SimpleSend{PropertyId: 31, Amount: 1}
	script, err := payload.EncodeClassC(metatx.Pack(record))
	assert.Nil(t, err)

	tx := wire.NewMsgTx(wire.TxVersion)
	in := wire.NewTxIn(&wire.OutPoint{}, nil, nil)
	in.PreviousOutPoint = outpoint(9, 9) // unresolvable
	tx.AddTxIn(in)
	tx.AddTxOut(wire.NewTxOut(0, script))

	meta, err := parser.Parse(tx, 500, 0, 0, fakeCoins{}, params, true)
	assert.NotNil(t, err)
	assert.Nil(t, meta)
}
