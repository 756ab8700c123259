// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"crypto/sha256"
	"fmt"

	"github.com/bitmark-inc/metalayerd/dex"
	"github.com/bitmark-inc/metalayerd/freeze"
	"github.com/bitmark-inc/metalayerd/metadex"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/tally"
)

// ConsensusHash - double SHA-256 over the canonical rendering of the
// whole state
//
// every contributing line is emitted in a strictly specified order so
// that independent nodes on the same chain agree bit for bit:
// balances ordered by (property, address), properties by id, orders
// by (pair, price, arrival), accepts by (seller, buyer) and frozen
// flags by (property, address)
func ConsensusHash() [32]byte {
	hasher := sha256.New()

	// every non-zero balance bucket
	for _, propertyId := range allProperties() {
		for _, holder := range tally.Holders(propertyId) {
			b := holder.Balances
			fmt.Fprintf(hasher, "%s|%d|%d|%d|%d|%d\n",
				holder.Address, propertyId,
				b[tally.Available], b[tally.SellOffer],
				b[tally.AcceptReserve], b[tally.MetaDExReserve])
		}
	}

	// every stored property record
	_ = property.Each(func(propertyId protocol.PropertyId, entry *property.Entry) error {
		fmt.Fprintf(hasher, "P|%d|%s|%d|%s|%d|%d|%d|%s\n",
			propertyId, entry.Issuer, entry.Kind, entry.Name,
			entry.NumTokens, entry.CreationBlock, entry.UpdateBlock,
			entry.CreationTx)
		return nil
	})

	// every resting order
	for _, order := range metadex.Orders() {
		fmt.Fprintf(hasher, "O|%s|%d|%d|%d|%d|%d|%d|%d|%d\n",
			order.Address,
			order.PropertyForSale, order.AmountForSale,
			order.PropertyDesired, order.AmountDesired,
			order.OriginalForSale, order.OriginalDesired,
			order.Block, order.Index)
	}

	// every standing sell offer and pending accept
	for _, offer := range dex.Offers() {
		fmt.Fprintf(hasher, "S|%s|%d|%d|%d|%d|%d\n",
			offer.Seller, offer.PropertyId, offer.Amount,
			offer.AmountDesired, offer.PaymentWindow, offer.MinAcceptFee)
	}
	for _, accept := range dex.Accepts() {
		fmt.Fprintf(hasher, "A|%s|%s|%d|%d|%d\n",
			accept.Seller, accept.Buyer, accept.PropertyId,
			accept.Amount, accept.ExpiryBlock)
	}

	// every frozen flag
	for _, flag := range freeze.FrozenList() {
		fmt.Fprintf(hasher, "F|%d|%s\n", flag.PropertyId, flag.Address)
	}

	first := hasher.Sum(nil)
	return sha256.Sum256(first)
}

// allProperties - the reserved ids followed by every stored id in
// ascending order
func allProperties() []protocol.PropertyId {
	result := []protocol.PropertyId{protocol.PropertyMain, protocol.PropertyTest}
	_ = property.Each(func(propertyId protocol.PropertyId, entry *property.Entry) error {
		result = append(result, propertyId)
		return nil
	})
	return result
}
