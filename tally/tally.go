// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tally - the in-memory balance ledger
//
// maps address → property → the four balance buckets; mutated only by
// the block pipeline, read under a shared lock by everything else;
// written to disk as part of the periodic state snapshot
package tally

import (
	"sort"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/protocol"
)

// Bucket - one of the four balance compartments
type Bucket int

// all buckets
const (
	Available      Bucket = iota // spendable
	SellOffer                    // committed to a DEx sell offer
	AcceptReserve                // accepted by a buyer, awaiting payment
	MetaDExReserve               // committed to the token/token book
	bucketCount
)

// String - printable bucket name
func (b Bucket) String() string {
	switch b {
	case Available:
		return "available"
	case SellOffer:
		return "sell offer reserve"
	case AcceptReserve:
		return "accept reserve"
	case MetaDExReserve:
		return "metadex reserve"
	default:
		return "* unknown bucket *"
	}
}

// Balances - the four buckets of one (address, property)
type Balances [bucketCount]protocol.Amount

// IsZero - all buckets empty
func (b *Balances) IsZero() bool {
	for _, v := range b {
		if 0 != v {
			return false
		}
	}
	return true
}

// Total - sum over all buckets
//
// cannot overflow: each bucket is bounded by the 63 bit supply bound
// and a property's supply is itself bounded
func (b *Balances) Total() protocol.Amount {
	t := protocol.Amount(0)
	for _, v := range b {
		t += v
	}
	return t
}

var globalData struct {
	sync.RWMutex
	log *logger.L

	ledger map[string]map[protocol.PropertyId]*Balances

	initialised bool
}

// Initialise - create the empty ledger
func Initialise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("tally")
	globalData.log.Info("starting…")

	globalData.ledger = make(map[string]map[protocol.PropertyId]*Balances)
	globalData.initialised = true
	return nil
}

// Finalise - drop the ledger
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("finished")
	globalData.log.Flush()

	globalData.ledger = nil
	globalData.initialised = false
	return nil
}

// Clear - drop every balance, ledger stays usable
func Clear() {
	globalData.Lock()
	globalData.ledger = make(map[string]map[protocol.PropertyId]*Balances)
	globalData.Unlock()
}

// fetch or create the bucket set, caller holds write lock
func balances(address string, propertyId protocol.PropertyId) *Balances {
	byProperty, ok := globalData.ledger[address]
	if !ok {
		byProperty = make(map[protocol.PropertyId]*Balances)
		globalData.ledger[address] = byProperty
	}
	b, ok := byProperty[propertyId]
	if !ok {
		b = &Balances{}
		byProperty[propertyId] = b
	}
	return b
}

// Credit - add tokens to one bucket
//
// the amount must be positive; fails if the bucket would exceed the
// 63 bit bound
func Credit(address string, propertyId protocol.PropertyId, amount protocol.Amount, bucket Bucket) error {
	if amount <= 0 {
		return fault.InvalidAmount
	}
	if bucket < Available || bucket >= bucketCount {
		return fault.InvalidBucket
	}

	globalData.Lock()
	defer globalData.Unlock()

	b := balances(address, propertyId)
	if b[bucket] > protocol.MaxAmount-amount {
		return fault.OverflowTally
	}
	b[bucket] += amount
	return nil
}

// Debit - remove tokens from one bucket
//
// the amount must be positive; fails if the bucket would go negative,
// a bucket never holds a negative value
func Debit(address string, propertyId protocol.PropertyId, amount protocol.Amount, bucket Bucket) error {
	if amount <= 0 {
		return fault.InvalidAmount
	}
	if bucket < Available || bucket >= bucketCount {
		return fault.InvalidBucket
	}

	globalData.Lock()
	defer globalData.Unlock()

	byProperty, ok := globalData.ledger[address]
	if !ok {
		return fault.InsufficientBalance
	}
	b, ok := byProperty[propertyId]
	if !ok || b[bucket] < amount {
		return fault.InsufficientBalance
	}
	b[bucket] -= amount
	return nil
}

// Move - atomic debit and credit between two buckets of the same
// (address, property)
func Move(address string, propertyId protocol.PropertyId, amount protocol.Amount, from Bucket, to Bucket) error {
	if amount <= 0 {
		return fault.InvalidAmount
	}
	if from < Available || from >= bucketCount || to < Available || to >= bucketCount {
		return fault.InvalidBucket
	}

	globalData.Lock()
	defer globalData.Unlock()

	byProperty, ok := globalData.ledger[address]
	if !ok {
		return fault.InsufficientBalance
	}
	b, ok := byProperty[propertyId]
	if !ok || b[from] < amount {
		return fault.InsufficientBalance
	}
	b[from] -= amount
	b[to] += amount
	return nil
}

// Balance - read one bucket
func Balance(address string, propertyId protocol.PropertyId, bucket Bucket) protocol.Amount {
	globalData.RLock()
	defer globalData.RUnlock()

	byProperty, ok := globalData.ledger[address]
	if !ok {
		return 0
	}
	b, ok := byProperty[propertyId]
	if !ok {
		return 0
	}
	return b[bucket]
}

// Get - read all four buckets
func Get(address string, propertyId protocol.PropertyId) Balances {
	globalData.RLock()
	defer globalData.RUnlock()

	byProperty, ok := globalData.ledger[address]
	if !ok {
		return Balances{}
	}
	b, ok := byProperty[propertyId]
	if !ok {
		return Balances{}
	}
	return *b
}

// Total - every token of a property across all addresses and buckets
func Total(propertyId protocol.PropertyId) protocol.Amount {
	globalData.RLock()
	defer globalData.RUnlock()

	total := protocol.Amount(0)
	for _, byProperty := range globalData.ledger {
		if b, ok := byProperty[propertyId]; ok {
			total += b.Total()
		}
	}
	return total
}

// Holder - one address and its buckets for an enumeration
type Holder struct {
	Address  string
	Balances Balances
}

// Holders - every address with a non-zero holding of a property, in
// ascending address order
//
// the deterministic order matters: send-to-owners and fee
// distributions walk this list and round in list order
func Holders(propertyId protocol.PropertyId) []Holder {
	globalData.RLock()
	defer globalData.RUnlock()

	result := []Holder(nil)
	for address, byProperty := range globalData.ledger {
		if b, ok := byProperty[propertyId]; ok && !b.IsZero() {
			result = append(result, Holder{Address: address, Balances: *b})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})
	return result
}

// Properties - ascending list of property ids held by an address,
// including entries where only reserves remain
func Properties(address string) []protocol.PropertyId {
	globalData.RLock()
	defer globalData.RUnlock()

	byProperty, ok := globalData.ledger[address]
	if !ok {
		return nil
	}
	result := make([]protocol.PropertyId, 0, len(byProperty))
	for propertyId, b := range byProperty {
		if !b.IsZero() {
			result = append(result, propertyId)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})
	return result
}

// Export - copy the whole ledger for snapshot writing
func Export() map[string]map[protocol.PropertyId]Balances {
	globalData.RLock()
	defer globalData.RUnlock()

	out := make(map[string]map[protocol.PropertyId]Balances, len(globalData.ledger))
	for address, byProperty := range globalData.ledger {
		m := make(map[protocol.PropertyId]Balances, len(byProperty))
		for propertyId, b := range byProperty {
			if !b.IsZero() {
				m[propertyId] = *b
			}
		}
		if 0 != len(m) {
			out[address] = m
		}
	}
	return out
}

// Restore - replace the whole ledger from a snapshot
func Restore(snapshot map[string]map[protocol.PropertyId]Balances) {
	globalData.Lock()
	defer globalData.Unlock()

	globalData.ledger = make(map[string]map[protocol.PropertyId]*Balances, len(snapshot))
	for address, byProperty := range snapshot {
		m := make(map[protocol.PropertyId]*Balances, len(byProperty))
		for propertyId, b := range byProperty {
			copied := b
			m[propertyId] = &copied
		}
		globalData.ledger[address] = m
	}
}
