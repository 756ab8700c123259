// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crowdsale - active crowdsale tracking
//
// one active crowdsale per issuer address; a send of the desired
// currency to the issuer participates and mints at a time sensitive
// rate; closed either explicitly, at the deadline, or when the token
// cap is reached
package crowdsale

import (
	"sync"

	"github.com/bitmark-inc/metalayerd/protocol"
)

// Sale - one open crowdsale
type Sale struct {
	Issuer           string              `json:"issuer"`
	PropertyId       protocol.PropertyId `json:"propertyId"`
	PropertyDesired  protocol.PropertyId `json:"propertyDesired"`
	TokensPerUnit    protocol.Amount     `json:"tokensPerUnit"`
	Deadline         int64               `json:"deadline"`
	EarlyBirdBonus   uint8               `json:"earlyBirdBonus"`
	IssuerPercentage uint8               `json:"issuerPercentage"`
}

var globalData struct {
	sync.RWMutex
	active map[string]*Sale // issuer address → sale
}

func init() {
	globalData.active = make(map[string]*Sale)
}

// Clear - drop every active crowdsale
func Clear() {
	globalData.Lock()
	globalData.active = make(map[string]*Sale)
	globalData.Unlock()
}

// Open - record a newly started crowdsale
func Open(sale *Sale) {
	globalData.Lock()
	copied := *sale
	globalData.active[sale.Issuer] = &copied
	globalData.Unlock()
}

// Close - remove an active crowdsale
func Close(issuer string) {
	globalData.Lock()
	delete(globalData.active, issuer)
	globalData.Unlock()
}

// ByIssuer - the active crowdsale of an issuer address, if any
func ByIssuer(issuer string) (Sale, bool) {
	globalData.RLock()
	defer globalData.RUnlock()
	sale, ok := globalData.active[issuer]
	if !ok {
		return Sale{}, false
	}
	return *sale, true
}

// ByProperty - the active crowdsale minting a property, if any
func ByProperty(propertyId protocol.PropertyId) (Sale, bool) {
	globalData.RLock()
	defer globalData.RUnlock()
	for _, sale := range globalData.active {
		if sale.PropertyId == propertyId {
			return *sale, true
		}
	}
	return Sale{}, false
}

// Expired - every crowdsale whose deadline has passed at a block time
func Expired(blockTime int64) []Sale {
	globalData.RLock()
	defer globalData.RUnlock()
	result := []Sale(nil)
	for _, sale := range globalData.active {
		if sale.Deadline <= blockTime {
			result = append(result, *sale)
		}
	}
	return result
}

// Bonus - percentage applied to a participation at a timestamp
//
// the early bird bonus adds its percentage for every whole week the
// participation precedes the deadline
func (sale *Sale) Bonus(timestamp int64) int64 {
	if sale.Deadline <= timestamp || 0 == sale.EarlyBirdBonus {
		return 100
	}
	const week = 7 * 24 * 60 * 60
	weeks := (sale.Deadline - timestamp) / week
	return 100 + int64(sale.EarlyBirdBonus)*weeks
}

// Export - copy all active crowdsales for snapshot writing
func Export() map[string]Sale {
	globalData.RLock()
	defer globalData.RUnlock()
	out := make(map[string]Sale, len(globalData.active))
	for issuer, sale := range globalData.active {
		out[issuer] = *sale
	}
	return out
}

// Restore - replace all active crowdsales from a snapshot
func Restore(snapshot map[string]Sale) {
	globalData.Lock()
	defer globalData.Unlock()
	globalData.active = make(map[string]*Sale, len(snapshot))
	for issuer, sale := range snapshot {
		copied := sale
		globalData.active[issuer] = &copied
	}
}
