// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpreter

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	jsoniter "github.com/json-iterator/go"

	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TxRecord - the stored outcome of one processed transaction
type TxRecord struct {
	TxId    string              `json:"txId"`
	Block   uint32              `json:"block"`
	Index   uint32              `json:"index"`
	Type    protocol.TxType     `json:"type"`
	Version uint16              `json:"version"`
	Reason  protocol.Reason     `json:"reason"`
	Sender  string              `json:"sender"`
}

// TradeRecord - one executed exchange
type TradeRecord struct {
	Block        uint32              `json:"block"`
	Index        uint32              `json:"index"`
	TxId         string              `json:"txId"`
	Maker        string              `json:"maker"`
	Taker        string              `json:"taker"`
	PropertyGave protocol.PropertyId `json:"propertyGave"`
	AmountGave   protocol.Amount     `json:"amountGave"`
	PropertyGot  protocol.PropertyId `json:"propertyGot"`
	AmountGot    protocol.Amount     `json:"amountGot"`
}

// StoRecord - one distribution receipt
type StoRecord struct {
	Block      uint32              `json:"block"`
	Index      uint32              `json:"index"`
	TxId       string              `json:"txId"`
	From       string              `json:"from"`
	To         string              `json:"to"`
	PropertyId protocol.PropertyId `json:"propertyId"`
	Amount     protocol.Amount     `json:"amount"`
}

// tx list key: complemented block then transaction id, so that the
// newest block enumerates first and one block is a prefix scan
func txKey(block uint32, txId chainhash.Hash) []byte {
	key := storage.AppendUint32Desc(nil, block)
	return append(key, txId[:]...)
}

// sequenced key inside one block for trade and distribution rows
func seqKey(block uint32, index uint32, seq uint32) []byte {
	key := storage.AppendUint32Desc(nil, block)
	key = storage.AppendUint32(key, index)
	return storage.AppendUint32(key, seq)
}

func recordTx(record *TxRecord) {
	txId, err := chainhash.NewHashFromStr(record.TxId)
	if nil != err {
		globalData.log.Criticalf("tx record with bad id: %q", record.TxId)
		return
	}
	data, _ := json.Marshal(record)
	storage.Pool.TxList.Put(txKey(record.Block, *txId), data)
}

func recordTrade(record *TradeRecord, seq uint32) {
	data, _ := json.Marshal(record)
	storage.Pool.TradeList.Put(seqKey(record.Block, record.Index, seq), data)
}

func recordSto(record *StoRecord, seq uint32) {
	data, _ := json.Marshal(record)
	storage.Pool.StoList.Put(seqKey(record.Block, record.Index, seq), data)
}

// GetTxRecord - look up one processed transaction
func GetTxRecord(block uint32, txId chainhash.Hash) (*TxRecord, bool) {
	data := storage.Pool.TxList.Get(txKey(block, txId))
	if nil == data {
		return nil, false
	}
	record := &TxRecord{}
	if err := json.Unmarshal(data, record); nil != err {
		return nil, false
	}
	return record, true
}

// BlockTxRecords - every processed transaction of one block
func BlockTxRecords(block uint32) []TxRecord {
	result := []TxRecord(nil)
	_ = storage.Pool.TxList.ScanPartial(storage.AppendUint32Desc(nil, block), func(key []byte, value []byte) error {
		record := TxRecord{}
		if err := json.Unmarshal(value, &record); nil == err {
			result = append(result, record)
		}
		return nil
	})
	return result
}

// RollbackListsAbove - drop every tx, trade and distribution row at or
// above a block
//
// the complemented block key means those rows sort first: scan from
// the top and stop at the boundary
func RollbackListsAbove(block uint32) error {
	batch := storage.NewBatch()

	for _, pool := range []*storage.PoolHandle{
		storage.Pool.TxList,
		storage.Pool.TradeList,
		storage.Pool.StoList,
	} {
		err := pool.NewFetchCursor().Map(func(key []byte, value []byte) error {
			if len(key) < 4 || storage.Uint32Desc(key[:4]) < block {
				return errStopScan
			}
			batch.Delete(pool, key)
			return nil
		})
		if nil != err && errStopScan != err {
			return err
		}
	}

	return batch.Commit()
}
