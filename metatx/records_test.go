// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metatx_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/protocol"
)

func TestUnpackSendToMany(t *testing.T) {
	// version 0, type 7, property 31, three outputs
	data, err := hex.DecodeString(
		"00000007" +
			"0000001f" +
			"03" +
			"010000000077359400" +
			"020000000059682f00" +
			"0400000000b2d05e00")
	assert.Nil(t, err)

	record, err := metatx.Packed(data).Unpack()
	assert.Nil(t, err)

	tx, ok := record.(*metatx.SendToMany)
	assert.True(t, ok)
	assert.Equal(t, protocol.PropertyId(31), tx.PropertyId)
	assert.Equal(t, 3, len(tx.Outputs))
	assert.Equal(t, uint8(1), tx.Outputs[0].OutputIndex)
	assert.Equal(t, protocol.Amount(20_0000_0000), tx.Outputs[0].Amount)
	assert.Equal(t, uint8(2), tx.Outputs[1].OutputIndex)
	assert.Equal(t, protocol.Amount(15_0000_0000), tx.Outputs[1].Amount)
	assert.Equal(t, uint8(4), tx.Outputs[2].OutputIndex)
	assert.Equal(t, protocol.Amount(30_0000_0000), tx.Outputs[2].Amount)
}

func TestUnpackSimpleSend(t *testing.T) {
	data, err := hex.DecodeString("00000000" + "0000001f" + "0000000077359400")
	assert.Nil(t, err)

	record, err := metatx.Packed(data).Unpack()
	assert.Nil(t, err)

	tx, ok := record.(*metatx.SimpleSend)
	assert.True(t, ok)
	assert.Equal(t, protocol.TxSimpleSend, tx.TxType())
	assert.Equal(t, uint16(0), tx.TxVersion())
	assert.Equal(t, protocol.PropertyId(31), tx.PropertyId)
	assert.Equal(t, protocol.Amount(20_0000_0000), tx.Amount)
}

func TestUnpackErrors(t *testing.T) {
	// unknown type
	_, err := metatx.Packed([]byte{0x00, 0x00, 0x00, 0x63}).Unpack()
	assert.NotNil(t, err)

	// truncated header
	_, err = metatx.Packed([]byte{0x00, 0x00, 0x00}).Unpack()
	assert.NotNil(t, err)

	// truncated body
	_, err = metatx.Packed([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1f}).Unpack()
	assert.NotNil(t, err)

	// amount above the 63 bit bound
	data, _ := hex.DecodeString("00000000" + "0000001f" + "ffffffffffffffff")
	_, err = metatx.Packed(data).Unpack()
	assert.NotNil(t, err)
}

func TestRoundTrips(t *testing.T) {
	records := []metatx.Record{
		&metatx.SimpleSend{PropertyId: 31, Amount: 12345},
		&metatx.SendAll{Ecosystem: protocol.EcosystemMain},
		&metatx.SendNonFungible{PropertyId: 42, TokenStart: 40, TokenEnd: 60},
		&metatx.MetaDExTrade{PropertyForSale: 3, AmountForSale: 100, PropertyDesired: 1, AmountDesired: 20},
		&metatx.MetaDExCancelPair{PropertyForSale: 3, PropertyDesired: 1},
		&metatx.CreatePropertyFixed{
			PropertyInfo: metatx.PropertyInfo{
				Ecosystem: protocol.EcosystemMain,
				Kind:      protocol.KindIndivisible,
				Category:  "Companies",
				Name:      "Quantum Miner",
				URL:       "http://example.com",
			},
			Amount: 1000000,
		},
		&metatx.GrantTokens{PropertyId: 5, Amount: 77, GrantData: "serial-1"},
		&metatx.FreezeTokens{PropertyId: 5, Amount: 0, Address: "1AliceAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		&metatx.SetNonFungibleData{PropertyId: 42, TokenStart: 1, TokenEnd: 5, IssuerData: true, Data: "authenticated"},
		&metatx.Activation{FeatureId: 14, ActivationBlock: 400000, MinClientVersion: 1100},
		&metatx.Alert{AlertType: 2, ExpiryValue: 500000, Text: "upgrade required"},
	}

	for _, original := range records {
		packed := metatx.Pack(original)
		decoded, err := packed.Unpack()
		assert.Nil(t, err, "type %v", original.TxType())
		assert.Equal(t, original, decoded, "type %v", original.TxType())
	}
}
