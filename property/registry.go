// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package property - the smart property registry
//
// current entries, historical versions keyed most-recent-first by the
// block that superseded them, a creation-transaction index and the
// unique flag cache; all stored in the database pools so that a
// reorganisation can roll the registry back without replaying the
// whole chain
package property

import (
	"encoding/hex"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/storage"
)

var globalData struct {
	sync.RWMutex
	log *logger.L

	exodusAddress string

	initialised bool
}

// keys for the two allocation counters, short enough that they can
// never collide with a four byte property id key
var (
	counterMainKey = []byte{0x00, 'M'}
	counterTestKey = []byte{0x00, 'T'}
)

// Initialise - set up the registry
//
// the exodus address becomes the fabricated issuer of the two
// reserved properties
func Initialise(exodusAddress string) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("property")
	globalData.log.Info("starting…")

	globalData.exodusAddress = exodusAddress
	globalData.initialised = true
	return nil
}

// Finalise - shut down the registry
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("finished")
	globalData.log.Flush()

	globalData.initialised = false
	return nil
}

// the two reserved entries are never stored, they are fabricated on
// every read so that no database rebuild can damage them
func reservedEntry(propertyId protocol.PropertyId) *Entry {
	globalData.RLock()
	issuer := globalData.exodusAddress
	globalData.RUnlock()

	entry := &Entry{
		Issuer:        issuer,
		Kind:          protocol.KindDivisible,
		Category:      "N/A",
		Subcategory:   "N/A",
		URL:           "http://www.omnilayer.org",
		Data:          "***data***",
		Fixed:         false,
		Manual:        true,
		NumTokens:     0,
		CreationBlock: 0,
		UpdateBlock:   0,
	}
	if protocol.PropertyMain == propertyId {
		entry.Name = "Omni tokens"
	} else {
		entry.Name = "Test Omni tokens"
	}
	return entry
}

func idKey(propertyId protocol.PropertyId) []byte {
	return storage.AppendUint32(nil, uint32(propertyId))
}

// Create - assign the next id in the requested ecosystem and store the
// entry
//
// writes the current record, the creation transaction index and, for
// unique properties, the unique flag cache in one atomic batch
func Create(ecosystem protocol.Ecosystem, entry *Entry) (protocol.PropertyId, error) {
	if !ecosystem.Valid() {
		return 0, fault.InvalidEcosystem
	}

	globalData.Lock()
	defer globalData.Unlock()

	counterKey := counterMainKey
	next := protocol.FirstMainAssigned
	if protocol.EcosystemTest == ecosystem {
		counterKey = counterTestKey
		next = protocol.FirstTestAssigned
	}

	if n, ok := storage.Pool.Properties.GetN(counterKey); ok {
		next = protocol.PropertyId(n) + 1
	}

	batch := storage.NewBatch()
	batch.Put(storage.Pool.Properties, counterKey, storage.AppendUint64(nil, uint64(next)))
	batch.Put(storage.Pool.Properties, idKey(next), entry.Pack())

	if txId, err := hex.DecodeString(entry.CreationTx); nil == err && 0 != len(txId) {
		batch.Put(storage.Pool.PropertyTxIndex, txId, storage.AppendUint32(nil, uint32(next)))
	}
	if entry.Unique {
		batch.Put(storage.Pool.UniqueFlags, idKey(next), []byte{1})
	}

	if err := batch.Commit(); nil != err {
		return 0, err
	}

	globalData.log.Infof("created property: %d  name: %q  kind: %s", next, entry.Name, entry.Kind)
	return next, nil
}

// Update - replace the current entry, preserving the superseded one in
// the history
//
// the history key orders most recent first so that a rollback reads
// forward from the front
func Update(propertyId protocol.PropertyId, entry *Entry) error {
	if propertyId <= protocol.PropertyTest {
		// reserved properties have no stored record to update
		return fault.PropertyNotFound
	}

	globalData.Lock()
	defer globalData.Unlock()

	previous := storage.Pool.Properties.Get(idKey(propertyId))
	if nil == previous {
		return fault.PropertyNotFound
	}

	// sequence number separates multiple updates of one property in
	// one block
	seq := uint64(0)
	prefix := storage.AppendUint32Desc(idKey(propertyId), entry.UpdateBlock)
	_ = storage.Pool.PropertyHistory.ScanPartial(prefix, func(key []byte, value []byte) error {
		seq += 1
		return nil
	})

	historyKey := storage.AppendUint64(prefix, seq)

	batch := storage.NewBatch()
	batch.Put(storage.Pool.PropertyHistory, historyKey, previous)
	batch.Put(storage.Pool.Properties, idKey(propertyId), entry.Pack())
	return batch.Commit()
}

// Get - fetch the current entry; ids 1 and 2 are fabricated
func Get(propertyId protocol.PropertyId) (*Entry, error) {
	if protocol.PropertyMain == propertyId || protocol.PropertyTest == propertyId {
		return reservedEntry(propertyId), nil
	}

	data := storage.Pool.Properties.Get(idKey(propertyId))
	if nil == data {
		return nil, fault.PropertyNotFound
	}
	return Unpack(data)
}

// Exists - is this a known property
func Exists(propertyId protocol.PropertyId) bool {
	if protocol.PropertyMain == propertyId || protocol.PropertyTest == propertyId {
		return true
	}
	return storage.Pool.Properties.Has(idKey(propertyId))
}

// IsUnique - cached unique flag
func IsUnique(propertyId protocol.PropertyId) bool {
	return storage.Pool.UniqueFlags.Has(idKey(propertyId))
}

// FindByTx - resolve a creation transaction id to its property
func FindByTx(txId []byte) (protocol.PropertyId, bool) {
	data := storage.Pool.PropertyTxIndex.Get(txId)
	if nil == data || 4 != len(data) {
		return 0, false
	}
	return protocol.PropertyId(storage.Uint32(data)), true
}

// Each - run a function over every stored property in ascending id
// order; the reserved entries are not included
func Each(f func(propertyId protocol.PropertyId, entry *Entry) error) error {
	return storage.Pool.Properties.NewFetchCursor().Map(func(key []byte, value []byte) error {
		if 4 != len(key) {
			return nil // skip the allocation counters
		}
		entry, err := Unpack(value)
		if nil != err {
			return err
		}
		return f(protocol.PropertyId(storage.Uint32(key)), entry)
	})
}

// NextIds - current allocation counters, for the consensus hash
func NextIds() (protocol.PropertyId, protocol.PropertyId) {
	nextMain := protocol.FirstMainAssigned
	nextTest := protocol.FirstTestAssigned
	if n, ok := storage.Pool.Properties.GetN(counterMainKey); ok {
		nextMain = protocol.PropertyId(n) + 1
	}
	if n, ok := storage.Pool.Properties.GetN(counterTestKey); ok {
		nextTest = protocol.PropertyId(n) + 1
	}
	return nextMain, nextTest
}

// RollbackAbove - drop every registry change made at or above a block
//
// a property whose current entry was written at or above the block is
// restored from the most recent surviving historical record; with no
// such record the property was created above the block and is removed
// together with its index entries
func RollbackAbove(block uint32) error {
	globalData.Lock()
	defer globalData.Unlock()

	type action struct {
		propertyId protocol.PropertyId
		entry      *Entry
	}
	restores := []action(nil)
	removals := []action(nil)

	err := storage.Pool.Properties.NewFetchCursor().Map(func(key []byte, value []byte) error {
		if 4 != len(key) {
			return nil
		}
		entry, err := Unpack(value)
		if nil != err {
			return err
		}
		if entry.UpdateBlock < block {
			return nil
		}
		propertyId := protocol.PropertyId(storage.Uint32(key))

		// history is most recent first: the first record below the
		// rollback point is the one to restore
		var restored *Entry
		err = storage.Pool.PropertyHistory.ScanPartial(key, func(hKey []byte, hValue []byte) error {
			old, err := Unpack(hValue)
			if nil != err {
				return err
			}
			if old.UpdateBlock < block {
				restored = old
				return fault.InvalidCursor // stop marker, not an error
			}
			return nil
		})
		if nil != err && fault.InvalidCursor != err {
			return err
		}

		if nil == restored {
			removals = append(removals, action{propertyId: propertyId, entry: entry})
		} else {
			restores = append(restores, action{propertyId: propertyId, entry: restored})
		}
		return nil
	})
	if nil != err {
		return err
	}

	batch := storage.NewBatch()

	maxMain := protocol.PropertyId(0)
	maxTest := protocol.PropertyId(0)

	for _, a := range restores {
		batch.Put(storage.Pool.Properties, idKey(a.propertyId), a.entry.Pack())
	}
	for _, a := range removals {
		batch.Delete(storage.Pool.Properties, idKey(a.propertyId))
		batch.Delete(storage.Pool.UniqueFlags, idKey(a.propertyId))
		if txId, err := hex.DecodeString(a.entry.CreationTx); nil == err && 0 != len(txId) {
			batch.Delete(storage.Pool.PropertyTxIndex, txId)
		}
		globalData.log.Infof("rollback removes property: %d", a.propertyId)
	}

	// drop the dead history rows: everything recorded at or above the
	// block, i.e. descending keys that sort before the block boundary
	err = storage.Pool.PropertyHistory.NewFetchCursor().Map(func(key []byte, value []byte) error {
		if len(key) < 8 {
			return nil
		}
		if storage.Uint32Desc(key[4:8]) >= block {
			batch.Delete(storage.Pool.PropertyHistory, key)
		}
		return nil
	})
	if nil != err {
		return err
	}

	// rewind the allocation counters to the surviving maxima
	err = storage.Pool.Properties.NewFetchCursor().Map(func(key []byte, value []byte) error {
		if 4 != len(key) {
			return nil
		}
		propertyId := protocol.PropertyId(storage.Uint32(key))
		removed := false
		for _, a := range removals {
			if a.propertyId == propertyId {
				removed = true
				break
			}
		}
		if removed {
			return nil
		}
		if propertyId >= protocol.FirstTestAssigned {
			if propertyId > maxTest {
				maxTest = propertyId
			}
		} else if propertyId > maxMain {
			maxMain = propertyId
		}
		return nil
	})
	if nil != err {
		return err
	}

	if 0 == maxMain {
		batch.Delete(storage.Pool.Properties, counterMainKey)
	} else {
		batch.Put(storage.Pool.Properties, counterMainKey, storage.AppendUint64(nil, uint64(maxMain)))
	}
	if 0 == maxTest {
		batch.Delete(storage.Pool.Properties, counterTestKey)
	} else {
		batch.Put(storage.Pool.Properties, counterTestKey, storage.AppendUint64(nil, uint64(maxTest)))
	}

	return batch.Commit()
}
