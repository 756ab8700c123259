// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/blockchain"
	"github.com/bitmark-inc/metalayerd/chain"
	"github.com/bitmark-inc/metalayerd/crowdsale"
	"github.com/bitmark-inc/metalayerd/dex"
	"github.com/bitmark-inc/metalayerd/freeze"
	"github.com/bitmark-inc/metalayerd/host"
	"github.com/bitmark-inc/metalayerd/interpreter"
	"github.com/bitmark-inc/metalayerd/metadex"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/nft"
	"github.com/bitmark-inc/metalayerd/payload"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/storage"
	"github.com/bitmark-inc/metalayerd/tally"
)

const (
	databaseFileName  = "blockchain-test.leveldb"
	snapshotDirectory = "blockchain-test-snapshots"
)

var testParams = chain.Params(chain.Local)

func TestMain(m *testing.M) {
	curPath := os.Getenv("PWD")
	var logConfig = logger.Configuration{
		Directory: curPath,
		File:      "blockchain-test.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	if err := logger.Initialise(logConfig); err != nil {
		panic(fmt.Sprintf("logger initialization failed: %s", err))
	}
	rc := m.Run()
	logger.Finalise()
	os.RemoveAll("blockchain-test.log")
	os.Exit(rc)
}

// fixed test identities
type identity struct {
	address string
	script  []byte
	funding wire.OutPoint
}

func newIdentity(t *testing.T, filler byte) *identity {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = filler
	}
	address, err := btcutil.NewAddressPubKeyHash(hash, testParams.Net)
	if nil != err {
		t.Fatalf("address error: %s", err)
	}
	script, err := txscript.PayToAddrScript(address)
	if nil != err {
		t.Fatalf("script error: %s", err)
	}
	outHash := chainhash.Hash{}
	outHash[0] = filler
	return &identity{
		address: address.EncodeAddress(),
		script:  script,
		funding: wire.OutPoint{Hash: outHash, Index: 0},
	}
}

// fakeHost - in-memory chain and coin view
type fakeHost struct {
	blocks map[uint32]*host.Block
	coins  map[wire.OutPoint]host.Output
	tip    uint32
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		blocks: make(map[uint32]*host.Block),
		coins:  make(map[wire.OutPoint]host.Output),
	}
}

func (f *fakeHost) TipHeight() uint32   { return f.tip }
func (f *fakeHost) TipTime() int64      { return 1400000000 + int64(f.tip)*600 }
func (f *fakeHost) IsInitialSync() bool { return false }

func (f *fakeHost) BlockAt(height uint32) (*host.Block, bool) {
	if block, ok := f.blocks[height]; ok {
		return block, true
	}
	// heights without protocol content are empty blocks
	if height <= f.tip {
		return &host.Block{
			Height: height,
			Time:   1400000000 + int64(height)*600,
		}, true
	}
	return nil, false
}

func (f *fakeHost) GetOutput(outpoint wire.OutPoint) (host.Output, bool) {
	out, ok := f.coins[outpoint]
	return out, ok
}

func (f *fakeHost) fund(who *identity) {
	f.coins[who.funding] = host.Output{PkScript: who.script, Value: 100000}
}

// addTx - wrap a record in a host transaction inside a block
func (f *fakeHost) addTx(t *testing.T, height uint32, from *identity, to *identity, record metatx.Record) {
	script, err := payload.EncodeClassC(metatx.Pack(record))
	if nil != err {
		t.Fatalf("payload encode error: %s", err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	in := wire.NewTxIn(&wire.OutPoint{}, nil, nil)
	in.PreviousOutPoint = from.funding
	tx.AddTxIn(in)
	tx.AddTxOut(wire.NewTxOut(0, script))
	if nil != to {
		tx.AddTxOut(wire.NewTxOut(546, to.script))
	}
	// vary the lock time so every transaction id is unique
	tx.LockTime = uint32(len(f.blocks)<<16) + height

	block, ok := f.blocks[height]
	if !ok {
		block = &host.Block{
			Height: height,
			Time:   1400000000 + int64(height)*600,
		}
		f.blocks[height] = block
	}
	tx.LockTime += uint32(len(block.Txs)) << 8
	block.Txs = append(block.Txs, tx)
	if height > f.tip {
		f.tip = height
	}
}

func setup(t *testing.T, fake *fakeHost) {
	os.RemoveAll(databaseFileName)
	os.RemoveAll(snapshotDirectory)

	_, err := storage.Initialise(databaseFileName, false)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
	if err := tally.Initialise(); nil != err {
		tally.Clear()
	}
	_ = property.Initialise(testParams.ExodusAddress)
	_ = nft.Initialise()
	_ = interpreter.Initialise(testParams, interpreter.Options{})
	crowdsale.Clear()
	freeze.Clear()
	dex.Clear()
	metadex.Clear()

	err = blockchain.Initialise(testParams, fake, fake, host.Hooks{}, snapshotDirectory, true, blockchain.Options{})
	if nil != err {
		t.Fatalf("blockchain initialise error: %s", err)
	}
}

func teardown(t *testing.T) {
	_ = blockchain.Finalise()
	_ = interpreter.Finalise()
	_ = nft.Finalise()
	_ = property.Finalise()
	storage.Finalise()
	os.RemoveAll(databaseFileName)
	os.RemoveAll(snapshotDirectory)
}

func connect(t *testing.T, fake *fakeHost, height uint32) {
	block, ok := fake.BlockAt(height)
	if !ok {
		t.Fatalf("no block at %d", height)
	}
	if err := blockchain.HandleEvent(host.BlockConnected{Block: block}); nil != err {
		t.Fatalf("connect %d failed: %s", height, err)
	}
}

func disconnect(t *testing.T, fake *fakeHost, height uint32) {
	block, ok := fake.BlockAt(height)
	if !ok {
		t.Fatalf("no block at %d", height)
	}
	if err := blockchain.HandleEvent(host.BlockDisconnected{Block: block}); nil != err {
		t.Fatalf("disconnect %d failed: %s", height, err)
	}
}
