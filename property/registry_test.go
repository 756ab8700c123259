// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package property_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/storage"
)

const databaseFileName = "property-test.leveldb"

const exodus = "1EXoDusjGwvnjZUyKkxZ4UHEf77z6A5S4P"

func TestMain(m *testing.M) {
	curPath := os.Getenv("PWD")
	var logConfig = logger.Configuration{
		Directory: curPath,
		File:      "property-test.log",
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
	os.RemoveAll("property-test.log")
	os.Exit(rc)
}

func setup(t *testing.T) {
	os.RemoveAll(databaseFileName)
	_, err := storage.Initialise(databaseFileName, false)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
	_ = property.Initialise(exodus)
}

func teardown(t *testing.T) {
	_ = property.Finalise()
	storage.Finalise()
	os.RemoveAll(databaseFileName)
}

func newEntry(name string, block uint32, txId string) *property.Entry {
	return &property.Entry{
		Issuer:        "1IssuerXXXXXXXXXXXXXXXXXXXXXXXXXXX",
		Kind:          protocol.KindIndivisible,
		Name:          name,
		Fixed:         true,
		NumTokens:     1000,
		CreationTx:    txId,
		CreationBlock: block,
		UpdateBlock:   block,
	}
}

func TestReservedProperties(t *testing.T) {
	setup(t)
	defer teardown(t)

	for _, propertyId := range []protocol.PropertyId{protocol.PropertyMain, protocol.PropertyTest} {
		entry, err := property.Get(propertyId)
		assert.Nil(t, err)
		assert.Equal(t, exodus, entry.Issuer)
		assert.True(t, entry.Kind.IsDivisible())
		assert.True(t, property.Exists(propertyId))
	}

	// the two reserved entries are fabricated, never stored
	count := 0
	_ = property.Each(func(propertyId protocol.PropertyId, entry *property.Entry) error {
		count += 1
		return nil
	})
	assert.Equal(t, 0, count)
}

func TestCreateAssignsPerEcosystem(t *testing.T) {
	setup(t)
	defer teardown(t)

	idA, err := property.Create(protocol.EcosystemMain, newEntry("Quantum Miner", 100, "aa"))
	assert.Nil(t, err)
	assert.Equal(t, protocol.FirstMainAssigned, idA)

	idB, err := property.Create(protocol.EcosystemTest, newEntry("Test Token", 100, "bb"))
	assert.Nil(t, err)
	assert.Equal(t, protocol.FirstTestAssigned, idB)

	// the two counters advance independently
	idC, err := property.Create(protocol.EcosystemMain, newEntry("Second", 101, "cc"))
	assert.Nil(t, err)
	assert.Equal(t, protocol.FirstMainAssigned+1, idC)

	found, ok := property.FindByTx([]byte{0xaa})
	assert.True(t, ok)
	assert.Equal(t, idA, found)
}

func TestUpdateAndIssuerHistory(t *testing.T) {
	setup(t)
	defer teardown(t)

	propertyId, err := property.Create(protocol.EcosystemMain, newEntry("Mutable", 100, "aa"))
	assert.Nil(t, err)

	entry, err := property.Get(propertyId)
	assert.Nil(t, err)

	entry.RecordIssuerChange(150, 2, "1NewIssuerXXXXXXXXXXXXXXXXXXXXXXXX")
	entry.UpdateBlock = 150
	assert.Nil(t, property.Update(propertyId, entry))

	entry, err = property.Get(propertyId)
	assert.Nil(t, err)
	assert.Equal(t, "1NewIssuerXXXXXXXXXXXXXXXXXXXXXXXX", entry.Issuer)

	// issuer as of a block: the greatest change at or below wins,
	// earlier blocks fall back to the current issuer field
	assert.Equal(t, "1NewIssuerXXXXXXXXXXXXXXXXXXXXXXXX", entry.IssuerAt(150))
	assert.Equal(t, "1NewIssuerXXXXXXXXXXXXXXXXXXXXXXXX", entry.IssuerAt(999))
}

func TestRollbackAbove(t *testing.T) {
	setup(t)
	defer teardown(t)

	propertyId, err := property.Create(protocol.EcosystemMain, newEntry("Keeper", 100, "aa"))
	assert.Nil(t, err)

	entry, err := property.Get(propertyId)
	assert.Nil(t, err)
	entry.NumTokens = 2000
	entry.UpdateBlock = 150
	assert.Nil(t, property.Update(propertyId, entry))

	// created above the rollback point: must vanish entirely
	gone, err := property.Create(protocol.EcosystemMain, newEntry("Goner", 160, "bb"))
	assert.Nil(t, err)

	assert.Nil(t, property.RollbackAbove(150))

	// the update is unwound
	entry, err = property.Get(propertyId)
	assert.Nil(t, err)
	assert.Equal(t, protocol.Amount(1000), entry.NumTokens)
	assert.Equal(t, uint32(100), entry.UpdateBlock)

	// the late creation is gone, with its index entries
	assert.False(t, property.Exists(gone))
	_, ok := property.FindByTx([]byte{0xbb})
	assert.False(t, ok)

	// the allocation counter rewound: the next create reuses the id
	again, err := property.Create(protocol.EcosystemMain, newEntry("Replacement", 170, "cc"))
	assert.Nil(t, err)
	assert.Equal(t, gone, again)
}
