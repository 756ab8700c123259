// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpreter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/metalayerd/freeze"
	"github.com/bitmark-inc/metalayerd/interpreter"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/tally"
)

// scenario: simple divisible send
func TestSimpleSend(t *testing.T) {
	setup(t)
	defer teardown(t)

	usdt := seedProperty(t, 100_0000_0000)
	assert.Nil(t, tally.Debit(issuer, usdt, 100_0000_0000, tally.Available))
	assert.Nil(t, tally.Credit(alice, usdt, 100_0000_0000, tally.Available))

	m := meta(alice, bob, &metatx.SimpleSend{PropertyId: usdt, Amount: 20_0000_0000}, 100, 0)
	reason := interpreter.Process(m)
	assert.True(t, reason.Valid())

	assert.Equal(t, protocol.Amount(80_0000_0000), tally.Balance(alice, usdt, tally.Available))
	assert.Equal(t, protocol.Amount(20_0000_0000), tally.Balance(bob, usdt, tally.Available))

	// the transaction list holds one valid record of type 0
	record, ok := interpreter.GetTxRecord(100, m.TxId)
	assert.True(t, ok)
	assert.Equal(t, protocol.TxSimpleSend, record.Type)
	assert.True(t, record.Reason.Valid())
}

// scenario: insufficient balance leaves everything unchanged
func TestSimpleSendInsufficient(t *testing.T) {
	setup(t)
	defer teardown(t)

	usdt := seedProperty(t, 1_0000_0000)
	assert.Nil(t, tally.Debit(issuer, usdt, 1_0000_0000, tally.Available))
	assert.Nil(t, tally.Credit(alice, usdt, 1_0000_0000, tally.Available))

	m := meta(alice, bob, &metatx.SimpleSend{PropertyId: usdt, Amount: 2_0000_0000}, 100, 0)
	reason := interpreter.Process(m)
	assert.Equal(t, protocol.ReasonSendBalance, reason)

	assert.Equal(t, protocol.Amount(1_0000_0000), tally.Balance(alice, usdt, tally.Available))
	assert.Equal(t, protocol.Amount(0), tally.Balance(bob, usdt, tally.Available))

	record, ok := interpreter.GetTxRecord(100, m.TxId)
	assert.True(t, ok)
	assert.False(t, record.Reason.Valid())
}

// scenario: send to many with a leftover
func TestSendToMany(t *testing.T) {
	setup(t)
	defer teardown(t)

	usdt := seedProperty(t, 100_0000_0000)
	assert.Nil(t, tally.Debit(issuer, usdt, 100_0000_0000, tally.Available))
	assert.Nil(t, tally.Credit(alice, usdt, 100_0000_0000, tally.Available))

	m := meta(alice, "", &metatx.SendToMany{
		PropertyId: usdt,
		Outputs: []metatx.SendToManyOutput{
			{OutputIndex: 1, Amount: 20_0000_0000},
			{OutputIndex: 2, Amount: 15_0000_0000},
			{OutputIndex: 4, Amount: 30_0000_0000},
		},
	}, 100, 0)
	m.OutputAddresses = []string{"", bob, carol, "", dave}

	reason := interpreter.Process(m)
	assert.True(t, reason.Valid())

	assert.Equal(t, protocol.Amount(35_0000_0000), tally.Balance(alice, usdt, tally.Available))
	assert.Equal(t, protocol.Amount(20_0000_0000), tally.Balance(bob, usdt, tally.Available))
	assert.Equal(t, protocol.Amount(15_0000_0000), tally.Balance(carol, usdt, tally.Available))
	assert.Equal(t, protocol.Amount(30_0000_0000), tally.Balance(dave, usdt, tally.Available))
}

// a bad output slot fails the whole transaction
func TestSendToManyAtomic(t *testing.T) {
	setup(t)
	defer teardown(t)

	usdt := seedProperty(t, 100_0000_0000)
	assert.Nil(t, tally.Debit(issuer, usdt, 100_0000_0000, tally.Available))
	assert.Nil(t, tally.Credit(alice, usdt, 100_0000_0000, tally.Available))

	m := meta(alice, "", &metatx.SendToMany{
		PropertyId: usdt,
		Outputs: []metatx.SendToManyOutput{
			{OutputIndex: 1, Amount: 20_0000_0000},
			{OutputIndex: 9, Amount: 1},
		},
	}, 100, 0)
	m.OutputAddresses = []string{"", bob}

	reason := interpreter.Process(m)
	assert.Equal(t, protocol.ReasonSendManyOutputs, reason)
	assert.Equal(t, protocol.Amount(100_0000_0000), tally.Balance(alice, usdt, tally.Available))
	assert.Equal(t, protocol.Amount(0), tally.Balance(bob, usdt, tally.Available))
}

// scenario: a frozen sender cannot transfer
func TestFreezeBlocksTransfer(t *testing.T) {
	setup(t)
	defer teardown(t)

	// managed property with freezing enabled at block 100
	entry := &property.Entry{
		Issuer:        issuer,
		Kind:          protocol.KindIndivisible,
		Name:          "Controlled",
		Manual:        true,
		CreationTx:    "bb",
		CreationBlock: 90,
		UpdateBlock:   90,
	}
	managed, err := property.Create(protocol.EcosystemMain, entry)
	assert.Nil(t, err)

	grant := meta(issuer, alice, &metatx.GrantTokens{PropertyId: managed, Amount: 10}, 95, 0)
	assert.True(t, interpreter.Process(grant).Valid())

	freeze.Enable(managed, 100)
	freeze.Freeze(managed, alice)

	m := meta(alice, bob, &metatx.SimpleSend{PropertyId: managed, Amount: 5}, 160, 0)
	reason := interpreter.Process(m)
	assert.Equal(t, protocol.ReasonSendFrozen, reason)

	assert.Equal(t, protocol.Amount(10), tally.Balance(alice, managed, tally.Available))
	assert.Equal(t, protocol.Amount(0), tally.Balance(bob, managed, tally.Available))
}

// grant and revoke change supply, conservation holds otherwise
func TestGrantRevokeSupply(t *testing.T) {
	setup(t)
	defer teardown(t)

	entry := &property.Entry{
		Issuer:        issuer,
		Kind:          protocol.KindIndivisible,
		Name:          "Managed",
		Manual:        true,
		CreationTx:    "cc",
		CreationBlock: 90,
		UpdateBlock:   90,
	}
	managed, err := property.Create(protocol.EcosystemMain, entry)
	assert.Nil(t, err)

	assert.True(t, interpreter.Process(meta(issuer, alice, &metatx.GrantTokens{PropertyId: managed, Amount: 1000}, 100, 0)).Valid())

	stored, err := property.Get(managed)
	assert.Nil(t, err)
	assert.Equal(t, protocol.Amount(1000), stored.NumTokens)
	assert.Equal(t, stored.NumTokens, tally.Total(managed))

	// a non-issuer cannot grant
	assert.Equal(t, protocol.ReasonPropertyNotIssuer,
		interpreter.Process(meta(alice, "", &metatx.GrantTokens{PropertyId: managed, Amount: 5}, 101, 0)))

	// revoke burns from the sender's own balance
	assert.True(t, interpreter.Process(meta(alice, "", &metatx.RevokeTokens{PropertyId: managed, Amount: 300}, 102, 0)).Valid())
	stored, _ = property.Get(managed)
	assert.Equal(t, protocol.Amount(700), stored.NumTokens)
	assert.Equal(t, stored.NumTokens, tally.Total(managed))
}

// balance conservation across a mixed set of sends
func TestConservation(t *testing.T) {
	setup(t)
	defer teardown(t)

	usdt := seedProperty(t, 1000)
	assert.Nil(t, tally.Debit(issuer, usdt, 1000, tally.Available))
	assert.Nil(t, tally.Credit(alice, usdt, 600, tally.Available))
	assert.Nil(t, tally.Credit(bob, usdt, 400, tally.Available))

	interpreter.Process(meta(alice, bob, &metatx.SimpleSend{PropertyId: usdt, Amount: 100}, 100, 0))
	interpreter.Process(meta(bob, carol, &metatx.SimpleSend{PropertyId: usdt, Amount: 250}, 100, 1))
	interpreter.Process(meta(carol, alice, &metatx.SimpleSend{PropertyId: usdt, Amount: 999}, 100, 2)) // fails

	assert.Equal(t, protocol.Amount(1000), tally.Total(usdt))
}

// send all sweeps every property of the ecosystem
func TestSendAll(t *testing.T) {
	setup(t)
	defer teardown(t)

	first := seedProperty(t, 100)
	second := seedProperty(t, 50)

	m := meta(issuer, bob, &metatx.SendAll{Ecosystem: protocol.EcosystemMain}, 100, 0)
	assert.True(t, interpreter.Process(m).Valid())

	assert.Equal(t, protocol.Amount(0), tally.Balance(issuer, first, tally.Available))
	assert.Equal(t, protocol.Amount(0), tally.Balance(issuer, second, tally.Available))
	assert.Equal(t, protocol.Amount(100), tally.Balance(bob, first, tally.Available))
	assert.Equal(t, protocol.Amount(50), tally.Balance(bob, second, tally.Available))
}

// send to owners distributes proportionally, residue to the sender
func TestSendToOwners(t *testing.T) {
	setup(t)
	defer teardown(t)

	usdt := seedProperty(t, 1000)
	assert.Nil(t, tally.Debit(issuer, usdt, 1000, tally.Available))
	assert.Nil(t, tally.Credit(alice, usdt, 700, tally.Available))
	assert.Nil(t, tally.Credit(bob, usdt, 200, tally.Available))
	assert.Nil(t, tally.Credit(carol, usdt, 100, tally.Available))

	// the fee is one base unit of the reserved token per recipient
	assert.Nil(t, tally.Credit(alice, protocol.PropertyMain, 10, tally.Available))

	m := meta(alice, "", &metatx.SendToOwners{PropertyId: usdt, Amount: 90, DistributionProperty: usdt}, 100, 0)
	assert.True(t, interpreter.Process(m).Valid())

	// bob holds 200 of 300 eligible, carol 100 of 300
	assert.Equal(t, protocol.Amount(200+60), tally.Balance(bob, usdt, tally.Available))
	assert.Equal(t, protocol.Amount(100+30), tally.Balance(carol, usdt, tally.Available))
	assert.Equal(t, protocol.Amount(700-90), tally.Balance(alice, usdt, tally.Available))

	// two recipients cost two fee units
	assert.Equal(t, protocol.Amount(8), tally.Balance(alice, protocol.PropertyMain, tally.Available))

	assert.Equal(t, protocol.Amount(1000), tally.Total(usdt))
}
