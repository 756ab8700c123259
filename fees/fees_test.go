// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fees_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/metalayerd/fees"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/storage"
)

const databaseFileName = "fees-test.leveldb"

const token = protocol.PropertyId(8)

func setup(t *testing.T) {
	os.RemoveAll(databaseFileName)
	_, err := storage.Initialise(databaseFileName, false)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
}

func teardown(t *testing.T) {
	storage.Finalise()
	os.RemoveAll(databaseFileName)
}

func TestAccumulate(t *testing.T) {
	setup(t)
	defer teardown(t)

	assert.Equal(t, protocol.Amount(0), fees.CachedAmount(token))

	total, err := fees.AddFee(token, 100, 50)
	assert.Nil(t, err)
	assert.Equal(t, protocol.Amount(50), total)

	total, err = fees.AddFee(token, 105, 25)
	assert.Nil(t, err)
	assert.Equal(t, protocol.Amount(75), total)
	assert.Equal(t, protocol.Amount(75), fees.CachedAmount(token))
}

func TestOverflowIsFatal(t *testing.T) {
	setup(t)
	defer teardown(t)

	_, err := fees.AddFee(token, 100, protocol.MaxAmount)
	assert.Nil(t, err)

	_, err = fees.AddFee(token, 101, 1)
	assert.NotNil(t, err)
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, protocol.Amount(10), fees.Threshold(1000000, 100000))
	// floor of one
	assert.Equal(t, protocol.Amount(1), fees.Threshold(5, 100000))
}

func TestZeroKeepsHistory(t *testing.T) {
	setup(t)
	defer teardown(t)

	_, err := fees.AddFee(token, 100, 40)
	assert.Nil(t, err)
	fees.Zero(token, 110)
	assert.Equal(t, protocol.Amount(0), fees.CachedAmount(token))

	// rolling the zero row back resurrects the old cumulative value
	assert.Nil(t, fees.RollbackAbove(110))
	assert.Equal(t, protocol.Amount(40), fees.CachedAmount(token))

	assert.Nil(t, fees.RollbackAbove(0))
	assert.Equal(t, protocol.Amount(0), fees.CachedAmount(token))
}

func TestDistributionHistory(t *testing.T) {
	setup(t)
	defer teardown(t)

	assert.Nil(t, fees.RecordDistribution(&fees.Distribution{
		PropertyId: token,
		Block:      120,
		Total:      500,
		Recipients: 3,
	}))

	history, err := fees.Distributions()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(history))
	assert.Equal(t, protocol.Amount(500), history[0].Total)

	assert.Nil(t, fees.RollbackAbove(120))
	history, err = fees.Distributions()
	assert.Nil(t, err)
	assert.Equal(t, 0, len(history))
}
