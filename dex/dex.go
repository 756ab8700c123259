// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dex - the legacy token for native coin exchange
//
// a seller publishes one offer per address; buyers accept a part of
// it which reserves the seller's tokens for a payment window measured
// in blocks; the payment itself happens on the host chain and is out
// of scope here, expiry returns the reservation
package dex

import (
	"sort"
	"sync"

	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/protocol"
)

// Offer - one standing sell offer
type Offer struct {
	Seller        string              `json:"seller"`
	PropertyId    protocol.PropertyId `json:"propertyId"`
	Amount        protocol.Amount     `json:"amount"`        // remaining offered
	AmountDesired protocol.Amount     `json:"amountDesired"` // native coin for the original amount
	PaymentWindow uint8               `json:"paymentWindow"`
	MinAcceptFee  protocol.Amount     `json:"minAcceptFee"`
	Block         uint32              `json:"block"`
	TxIdHex       string              `json:"txId"`
}

// Accept - one pending acceptance reserving seller tokens
type Accept struct {
	Seller      string              `json:"seller"`
	Buyer       string              `json:"buyer"`
	PropertyId  protocol.PropertyId `json:"propertyId"`
	Amount      protocol.Amount     `json:"amount"`
	ExpiryBlock uint32              `json:"expiryBlock"`
}

type acceptKey struct {
	seller string
	buyer  string
}

var globalData struct {
	sync.RWMutex
	offers  map[string]*Offer // seller address → offer
	accepts map[acceptKey]*Accept
}

func init() {
	reset()
}

func reset() {
	globalData.offers = make(map[string]*Offer)
	globalData.accepts = make(map[acceptKey]*Accept)
}

// Clear - drop all offers and accepts
func Clear() {
	globalData.Lock()
	reset()
	globalData.Unlock()
}

// HasOffer - one offer per seller address at a time
func HasOffer(seller string) bool {
	globalData.RLock()
	defer globalData.RUnlock()
	_, ok := globalData.offers[seller]
	return ok
}

// GetOffer - the standing offer of a seller
func GetOffer(seller string) (Offer, bool) {
	globalData.RLock()
	defer globalData.RUnlock()
	offer, ok := globalData.offers[seller]
	if !ok {
		return Offer{}, false
	}
	return *offer, true
}

// NewOffer - publish an offer
func NewOffer(offer *Offer) error {
	globalData.Lock()
	defer globalData.Unlock()
	if _, ok := globalData.offers[offer.Seller]; ok {
		return fault.PropertyExists
	}
	copied := *offer
	globalData.offers[offer.Seller] = &copied
	return nil
}

// UpdateOffer - replace the standing offer of a seller
func UpdateOffer(offer *Offer) error {
	globalData.Lock()
	defer globalData.Unlock()
	if _, ok := globalData.offers[offer.Seller]; !ok {
		return fault.PropertyNotFound
	}
	copied := *offer
	globalData.offers[offer.Seller] = &copied
	return nil
}

// CancelOffer - withdraw an offer, returning the unreserved remainder
func CancelOffer(seller string) (Offer, bool) {
	globalData.Lock()
	defer globalData.Unlock()
	offer, ok := globalData.offers[seller]
	if !ok {
		return Offer{}, false
	}
	delete(globalData.offers, seller)
	return *offer, true
}

// ReserveAccept - a buyer takes part of an offer
//
// shrinks the offer and records the acceptance; the caller moves the
// seller's tokens between buckets
func ReserveAccept(seller string, buyer string, amount protocol.Amount, expiryBlock uint32) error {
	globalData.Lock()
	defer globalData.Unlock()

	offer, ok := globalData.offers[seller]
	if !ok {
		return fault.PropertyNotFound
	}
	if amount > offer.Amount {
		return fault.InsufficientBalance
	}

	key := acceptKey{seller: seller, buyer: buyer}
	if _, ok := globalData.accepts[key]; ok {
		return fault.PropertyExists
	}

	offer.Amount -= amount
	globalData.accepts[key] = &Accept{
		Seller:      seller,
		Buyer:       buyer,
		PropertyId:  offer.PropertyId,
		Amount:      amount,
		ExpiryBlock: expiryBlock,
	}
	return nil
}

// ExpireAccepts - every acceptance whose window closed before a block
//
// the entries are removed and returned so that the pipeline can move
// the reservations back; ordered deterministically
func ExpireAccepts(block uint32) []Accept {
	globalData.Lock()
	defer globalData.Unlock()

	expired := []Accept(nil)
	for key, accept := range globalData.accepts {
		if accept.ExpiryBlock < block {
			expired = append(expired, *accept)
			delete(globalData.accepts, key)

			// the unsold amount returns to the standing offer
			if offer, ok := globalData.offers[accept.Seller]; ok && offer.PropertyId == accept.PropertyId {
				offer.Amount += accept.Amount
			}
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		if expired[i].Seller != expired[j].Seller {
			return expired[i].Seller < expired[j].Seller
		}
		return expired[i].Buyer < expired[j].Buyer
	})
	return expired
}

// Accepts - every pending acceptance ordered by (seller, buyer), for
// the consensus hash
func Accepts() []Accept {
	globalData.RLock()
	defer globalData.RUnlock()

	result := []Accept(nil)
	for _, accept := range globalData.accepts {
		result = append(result, *accept)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Seller != result[j].Seller {
			return result[i].Seller < result[j].Seller
		}
		return result[i].Buyer < result[j].Buyer
	})
	return result
}

// Offers - every standing offer ordered by seller
func Offers() []Offer {
	globalData.RLock()
	defer globalData.RUnlock()

	result := []Offer(nil)
	for _, offer := range globalData.offers {
		result = append(result, *offer)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Seller < result[j].Seller
	})
	return result
}

// State - snapshot form
type State struct {
	Offers  []Offer  `json:"offers"`
	Accepts []Accept `json:"accepts"`
}

// Export - copy for snapshot writing
func Export() State {
	return State{
		Offers:  Offers(),
		Accepts: Accepts(),
	}
}

// Restore - replace from a snapshot
func Restore(state State) {
	globalData.Lock()
	defer globalData.Unlock()

	reset()
	for i := range state.Offers {
		copied := state.Offers[i]
		globalData.offers[copied.Seller] = &copied
	}
	for i := range state.Accepts {
		copied := state.Accepts[i]
		globalData.accepts[acceptKey{seller: copied.Seller, buyer: copied.Buyer}] = &copied
	}
}
