// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payload

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// MarkerCache - pending transactions carrying the payload marker
//
// fed by mempool notifications; a block connect clears the entries of
// the transactions it confirmed
type MarkerCache struct {
	sync.Mutex
	pending map[chainhash.Hash]struct{}
}

// NewMarkerCache - create an empty cache
func NewMarkerCache() *MarkerCache {
	return &MarkerCache{
		pending: make(map[chainhash.Hash]struct{}),
	}
}

// TxAdded - mempool acceptance: remember the transaction if it
// carries the marker
func (cache *MarkerCache) TxAdded(tx *wire.MsgTx) {
	if !HasMarker(tx) {
		return
	}
	hash := tx.TxHash()
	cache.Lock()
	cache.pending[hash] = struct{}{}
	cache.Unlock()
}

// TxRemoved - mempool eviction for any reason
func (cache *MarkerCache) TxRemoved(tx *wire.MsgTx) {
	hash := tx.TxHash()
	cache.Lock()
	delete(cache.pending, hash)
	cache.Unlock()
}

// BlockConfirmed - drop entries for transactions now in a block
func (cache *MarkerCache) BlockConfirmed(txIds []chainhash.Hash) {
	cache.Lock()
	for _, hash := range txIds {
		delete(cache.pending, hash)
	}
	cache.Unlock()
}

// IsPending - is a transaction waiting in the mempool with a marker
func (cache *MarkerCache) IsPending(txId chainhash.Hash) bool {
	cache.Lock()
	defer cache.Unlock()
	_, ok := cache.pending[txId]
	return ok
}

// Count - number of pending marker transactions
func (cache *MarkerCache) Count() int {
	cache.Lock()
	defer cache.Unlock()
	return len(cache.pending)
}
