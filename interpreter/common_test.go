// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpreter_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/chain"
	"github.com/bitmark-inc/metalayerd/crowdsale"
	"github.com/bitmark-inc/metalayerd/dex"
	"github.com/bitmark-inc/metalayerd/freeze"
	"github.com/bitmark-inc/metalayerd/interpreter"
	"github.com/bitmark-inc/metalayerd/metadex"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/nft"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/storage"
	"github.com/bitmark-inc/metalayerd/tally"
)

const databaseFileName = "interpreter-test.leveldb"

const (
	alice  = "1AliceAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	bob    = "1BobBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
	carol  = "1CarolCCCCCCCCCCCCCCCCCCCCCCCCCCCC"
	dave   = "1DaveDDDDDDDDDDDDDDDDDDDDDDDDDDDDD"
	issuer = "1IssuerXXXXXXXXXXXXXXXXXXXXXXXXXXX"
)

func TestMain(m *testing.M) {
	curPath := os.Getenv("PWD")
	var logConfig = logger.Configuration{
		Directory: curPath,
		File:      "interpreter-test.log",
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
	os.RemoveAll("interpreter-test.log")
	os.Exit(rc)
}

var testParams = chain.Params(chain.Local)

func setup(t *testing.T) {
	os.RemoveAll(databaseFileName)
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
	nft.StartBlock(100)
}

func teardown(t *testing.T) {
	_ = interpreter.Finalise()
	_ = nft.Finalise()
	_ = property.Finalise()
	storage.Finalise()
	os.RemoveAll(databaseFileName)
}

var txCounter byte

// build a parsed transaction directly, the parser has its own tests
func meta(sender string, reference string, record metatx.Record, block uint32, index uint32) *parser.MetaTransaction {
	txCounter += 1
	txId := chainhash.Hash{}
	txId[0] = txCounter
	txId[1] = byte(index)
	return &parser.MetaTransaction{
		Sender:    sender,
		Reference: reference,
		Record:    record,
		Block:     block,
		Index:     index,
		Time:      1500000000 + int64(block)*600,
		TxId:      txId,
	}
}

// seed a fixed divisible property and credit the issuer
func seedProperty(t *testing.T, supply protocol.Amount) protocol.PropertyId {
	entry := &property.Entry{
		Issuer:        issuer,
		Kind:          protocol.KindDivisible,
		Name:          "Tether-ish",
		Fixed:         true,
		NumTokens:     supply,
		CreationTx:    "aa",
		CreationBlock: 90,
		UpdateBlock:   90,
	}
	id, err := property.Create(protocol.EcosystemMain, entry)
	if nil != err {
		t.Fatalf("seed property failed: %s", err)
	}
	if err := tally.Credit(issuer, id, supply, tally.Available); nil != err {
		t.Fatalf("seed credit failed: %s", err)
	}
	return id
}
