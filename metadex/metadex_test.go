// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metadex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/metalayerd/metadex"
	"github.com/bitmark-inc/metalayerd/protocol"
)

const (
	alice = "1AliceAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	bob   = "1BobBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
	carol = "1CarolCCCCCCCCCCCCCCCCCCCCCCCCCCCC"
)

const (
	tokenA = protocol.PropertyId(3)
	tokenB = protocol.PropertyId(4)
)

func order(address string, forSale protocol.PropertyId, amountForSale protocol.Amount, desired protocol.PropertyId, amountDesired protocol.Amount, block uint32, index uint32) *metadex.Order {
	return &metadex.Order{
		Address:         address,
		PropertyForSale: forSale,
		AmountForSale:   amountForSale,
		PropertyDesired: desired,
		AmountDesired:   amountDesired,
		OriginalForSale: amountForSale,
		OriginalDesired: amountDesired,
		Block:           block,
		Index:           index,
	}
}

func TestTradeRestsWhenNoMatch(t *testing.T) {
	metadex.Clear()

	fills, rest := metadex.Trade(order(alice, tokenA, 100, tokenB, 200, 10, 0))
	assert.Equal(t, 0, len(fills))
	assert.NotNil(t, rest)
	assert.Equal(t, 1, len(metadex.Orders()))
}

func TestTradeCompleteFill(t *testing.T) {
	metadex.Clear()

	// alice sells 100 A for 200 B (price 2 B per A)
	_, rest := metadex.Trade(order(alice, tokenA, 100, tokenB, 200, 10, 0))
	assert.NotNil(t, rest)

	// bob sells 200 B for 100 A: exact opposite, full crossing
	fills, rest := metadex.Trade(order(bob, tokenB, 200, tokenA, 100, 11, 0))
	assert.Nil(t, rest)
	assert.Equal(t, 1, len(fills))
	assert.Equal(t, protocol.Amount(200), fills[0].TakerGave)
	assert.Equal(t, protocol.Amount(100), fills[0].TakerGot)

	assert.Equal(t, 0, len(metadex.Orders()))
	assert.False(t, metadex.HasCross(tokenA, tokenB))
}

func TestTradePartialFillMakerPriceWins(t *testing.T) {
	metadex.Clear()

	// alice offers 100 A, wants 100 B (1:1)
	metadex.Trade(order(alice, tokenA, 100, tokenB, 100, 10, 0))

	// bob offers 30 B, wants at most-price 20 A (1.5 B per A limit);
	// the resting 1:1 rate wins so bob receives 30 A
	fills, rest := metadex.Trade(order(bob, tokenB, 30, tokenA, 20, 11, 0))
	assert.Nil(t, rest)
	assert.Equal(t, 1, len(fills))
	assert.Equal(t, protocol.Amount(30), fills[0].TakerGave)
	assert.Equal(t, protocol.Amount(30), fills[0].TakerGot)

	// alice's order shrank
	orders := metadex.Orders()
	assert.Equal(t, 1, len(orders))
	assert.Equal(t, protocol.Amount(70), orders[0].AmountForSale)
	assert.Equal(t, protocol.Amount(70), orders[0].AmountDesired)

	assert.False(t, metadex.HasCross(tokenA, tokenB))
}

func TestBestPriceFirstAndTimePriority(t *testing.T) {
	metadex.Clear()

	// two sellers of A: carol cheaper (1 B per A), alice dearer (2 B per A)
	metadex.Trade(order(alice, tokenA, 100, tokenB, 200, 10, 0))
	metadex.Trade(order(carol, tokenA, 100, tokenB, 100, 10, 1))

	// bob pays 150 B at limit 2 B per A: lifts carol fully first
	fills, rest := metadex.Trade(order(bob, tokenB, 150, tokenA, 75, 11, 0))
	assert.Nil(t, rest)
	assert.Equal(t, 2, len(fills))
	assert.Equal(t, carol, fills[0].Maker.Address)
	assert.Equal(t, protocol.Amount(100), fills[0].TakerGave)
	assert.Equal(t, protocol.Amount(100), fills[0].TakerGot)
	assert.Equal(t, alice, fills[1].Maker.Address)
	assert.Equal(t, protocol.Amount(50), fills[1].TakerGave)
	assert.Equal(t, protocol.Amount(25), fills[1].TakerGot)

	assert.False(t, metadex.HasCross(tokenA, tokenB))
}

func TestNoCrossAfterTrade(t *testing.T) {
	metadex.Clear()

	metadex.Trade(order(alice, tokenA, 100, tokenB, 300, 10, 0)) // 3 B per A
	metadex.Trade(order(bob, tokenB, 100, tokenA, 100, 11, 0))   // offers 1 B per A

	// no match possible, both rest, and that is not a cross
	assert.Equal(t, 2, len(metadex.Orders()))
	assert.False(t, metadex.HasCross(tokenA, tokenB))
}

func TestCancels(t *testing.T) {
	metadex.Clear()

	metadex.Trade(order(alice, tokenA, 100, tokenB, 200, 10, 0))
	metadex.Trade(order(alice, tokenA, 50, tokenB, 200, 10, 1))
	metadex.Trade(order(alice, tokenB, 60, tokenA, 100, 10, 2))
	metadex.Trade(order(bob, tokenA, 10, tokenB, 90, 10, 3))

	// price cancel hits only the exact rate
	cancelled := metadex.CancelAtPrice(alice, tokenA, tokenB, 100, 200)
	assert.Equal(t, 1, len(cancelled))
	assert.Equal(t, protocol.Amount(100), cancelled[0].OriginalForSale)

	// pair cancel removes the rest of alice's A→B orders only
	cancelled = metadex.CancelPair(alice, tokenA, tokenB)
	assert.Equal(t, 1, len(cancelled))

	// ecosystem cancel sweeps the remaining B→A order
	cancelled = metadex.CancelEcosystem(alice, protocol.EcosystemMain)
	assert.Equal(t, 1, len(cancelled))

	// bob untouched
	assert.Equal(t, 1, len(metadex.OrdersOf(bob)))
}

func TestExportRestore(t *testing.T) {
	metadex.Clear()

	metadex.Trade(order(alice, tokenA, 100, tokenB, 200, 10, 0))
	metadex.Trade(order(bob, tokenB, 10, tokenA, 10, 11, 0))

	snapshot := metadex.Export()
	metadex.Clear()
	assert.Equal(t, 0, len(metadex.Orders()))

	metadex.Restore(snapshot)
	orders := metadex.Orders()
	assert.Equal(t, 2, len(orders))
}
