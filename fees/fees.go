// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fees - the trading fee cache
//
// every property accumulates its trading fees as a cumulative log
// keyed most recent block first; crossing the distribution threshold
// pays the cache out to the holders of the ecosystem's reserved token
// and zeroes the log by appending a zero row, which keeps the log
// replayable over a reorganisation
package fees

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Distribution - one completed payout, appended to the history
type Distribution struct {
	PropertyId protocol.PropertyId `json:"propertyId"`
	Block      uint32              `json:"block"`
	Total      protocol.Amount     `json:"total"`
	Recipients int                 `json:"recipients"`
}

// cache key: property ‖ complemented block, newest row first
func cacheKey(propertyId protocol.PropertyId, block uint32) []byte {
	key := storage.AppendUint32(nil, uint32(propertyId))
	return storage.AppendUint32Desc(key, block)
}

func propertyPartial(propertyId protocol.PropertyId) []byte {
	return storage.AppendUint32(nil, uint32(propertyId))
}

// CachedAmount - the current fee total of a property
func CachedAmount(propertyId protocol.PropertyId) protocol.Amount {
	element, ok := storage.Pool.FeeCache.FirstElement(propertyPartial(propertyId))
	if !ok || 8 != len(element.Value) {
		return 0
	}
	return protocol.Amount(storage.Uint64(element.Value))
}

// AddFee - accumulate a fee at a block
//
// overflow of the 63 bit bound is unrecoverable: the caller must
// abort the node
func AddFee(propertyId protocol.PropertyId, block uint32, amount protocol.Amount) (protocol.Amount, error) {
	if amount <= 0 {
		return 0, fault.InvalidAmount
	}

	current := CachedAmount(propertyId)
	if current > protocol.MaxAmount-amount {
		return 0, fault.FeeCacheOverflow
	}
	total := current + amount

	storage.Pool.FeeCache.Put(cacheKey(propertyId, block), storage.AppendUint64(nil, uint64(total)))
	return total, nil
}

// Threshold - the payout trigger for a property
//
// the property's total tokens divided by the network divisor, never
// below one
func Threshold(totalTokens protocol.Amount, divisor int64) protocol.Amount {
	if divisor <= 0 {
		return 1
	}
	threshold := totalTokens / divisor
	if threshold < 1 {
		threshold = 1
	}
	return threshold
}

// Zero - reset the cache of a property by appending a zero row
//
// rows below stay in place so a rollback above this block restores
// the previous cumulative value
func Zero(propertyId protocol.PropertyId, block uint32) {
	storage.Pool.FeeCache.Put(cacheKey(propertyId, block), storage.AppendUint64(nil, 0))
}

// RecordDistribution - append one payout record to the history
func RecordDistribution(d *Distribution) error {
	data, err := json.Marshal(d)
	if nil != err {
		return err
	}
	key := storage.AppendUint32Desc(nil, d.Block)
	key = storage.AppendUint32(key, uint32(d.PropertyId))
	storage.Pool.FeeHistory.Put(key, data)
	return nil
}

// Distributions - payout history, newest first
func Distributions() ([]Distribution, error) {
	result := []Distribution(nil)
	err := storage.Pool.FeeHistory.NewFetchCursor().Map(func(key []byte, value []byte) error {
		d := Distribution{}
		if err := json.Unmarshal(value, &d); nil != err {
			return err
		}
		result = append(result, d)
		return nil
	})
	return result, err
}

// RollbackAbove - delete every cache and history row at or above a
// block
func RollbackAbove(block uint32) error {
	batch := storage.NewBatch()

	err := storage.Pool.FeeCache.NewFetchCursor().Map(func(key []byte, value []byte) error {
		if 8 == len(key) && storage.Uint32Desc(key[4:8]) >= block {
			batch.Delete(storage.Pool.FeeCache, key)
		}
		return nil
	})
	if nil != err {
		return err
	}

	err = storage.Pool.FeeHistory.NewFetchCursor().Map(func(key []byte, value []byte) error {
		if len(key) >= 4 && storage.Uint32Desc(key[:4]) >= block {
			batch.Delete(storage.Pool.FeeHistory, key)
		}
		return nil
	})
	if nil != err {
		return err
	}

	return batch.Commit()
}
