// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/metalayerd/storage"
)

// main pool test
func TestPool(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	p.Put([]byte("key-one"), []byte("data-one"))
	p.Put([]byte("key-two"), []byte("data-two"))
	p.Put([]byte("key-remove-me"), []byte("to be deleted"))
	p.Delete([]byte("key-remove-me"))
	p.Put([]byte("key-three"), []byte("data-three"))
	p.Put([]byte("key-one"), []byte("data-one(NEW)")) // duplicate

	assert.Equal(t, []byte("data-one(NEW)"), p.Get([]byte("key-one")))
	assert.Nil(t, p.Get([]byte("key-remove-me")))
	assert.True(t, p.Has([]byte("key-two")))
	assert.False(t, p.Has([]byte("/nonexistant")))

	// enumeration order must be byte-wise over the stripped keys
	expected := []string{"key-one", "key-three", "key-two"}
	actual := []string{}
	err := p.NewFetchCursor().Map(func(key []byte, value []byte) error {
		actual = append(actual, string(key))
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, expected, actual)

	last, ok := p.LastElement()
	assert.True(t, ok)
	assert.Equal(t, []byte("key-two"), last.Key)
}

func TestPoolSeparation(t *testing.T) {
	setup(t)
	defer teardown(t)

	storage.Pool.TestData.Put([]byte("alpha"), []byte("1"))
	storage.Pool.TxList.Put([]byte("alpha"), []byte("2"))

	assert.Equal(t, []byte("1"), storage.Pool.TestData.Get([]byte("alpha")))
	assert.Equal(t, []byte("2"), storage.Pool.TxList.Get([]byte("alpha")))

	storage.Pool.TxList.Delete([]byte("alpha"))
	assert.Nil(t, storage.Pool.TxList.Get([]byte("alpha")))
	assert.Equal(t, []byte("1"), storage.Pool.TestData.Get([]byte("alpha")))
}

func TestDescendingKeys(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	for _, block := range []uint32{100, 50, 300, 200} {
		key := storage.AppendUint32Desc(nil, block)
		p.Put(key, []byte{})
	}

	// most recent block must enumerate first
	expected := []uint32{300, 200, 100, 50}
	actual := []uint32{}
	err := p.NewFetchCursor().Map(func(key []byte, value []byte) error {
		actual = append(actual, storage.Uint32Desc(key))
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, expected, actual)

	// the newest record is simply the first element
	first, ok := p.FirstElement(nil)
	assert.True(t, ok)
	assert.Equal(t, uint32(300), storage.Uint32Desc(first.Key))
}

func TestScanPartial(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	put := func(property uint32, block uint32) {
		key := storage.AppendUint32(nil, property)
		key = storage.AppendUint32(key, block)
		p.Put(key, []byte{})
	}
	put(7, 10)
	put(7, 20)
	put(8, 10)
	put(9, 30)

	count := 0
	err := p.ScanPartial(storage.AppendUint32(nil, 7), func(key []byte, value []byte) error {
		assert.Equal(t, uint32(7), storage.Uint32(key))
		count += 1
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, 2, count)

	// drop one sub-range and check the others survive
	err = p.DeletePartial(storage.AppendUint32(nil, 7))
	assert.Nil(t, err)
	assert.False(t, p.Has(storage.AppendUint32(storage.AppendUint32(nil, 7), 10)))
	assert.True(t, p.Has(storage.AppendUint32(storage.AppendUint32(nil, 8), 10)))
}

func TestBatchAtomicity(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	batch := storage.NewBatch()
	batch.Put(p, []byte("one"), []byte("1"))
	batch.Put(p, []byte("two"), []byte("2"))
	batch.Delete(p, []byte("one"))

	// nothing visible before commit
	assert.False(t, p.Has([]byte("two")))

	err := batch.Commit()
	assert.Nil(t, err)
	assert.False(t, p.Has([]byte("one")))
	assert.True(t, p.Has([]byte("two")))
}

func TestClear(t *testing.T) {
	setup(t)
	defer teardown(t)

	storage.Pool.TestData.Put([]byte("key"), []byte("value"))
	storage.Pool.Properties.Put([]byte("key"), []byte("value"))

	err := storage.Clear()
	assert.Nil(t, err)
	assert.False(t, storage.Pool.TestData.Has([]byte("key")))
	assert.False(t, storage.Pool.Properties.Has([]byte("key")))

	// the version record must survive a clear: restart must not
	// interpret the empty database as a rebuild
	storage.Finalise()
	erased, err := storage.Initialise(databaseFileName, false)
	assert.Nil(t, err)
	assert.False(t, erased)
}
