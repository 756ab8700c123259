// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package freeze - frozen address tracking
//
// a property may enable freezing from a block onward; while an
// address is frozen for a property every transfer out of it fails
//
// the state is small and kept in memory; it is part of the periodic
// snapshot, and any freezing transaction inside a disconnected block
// poisons the rewind path and forces a full rescan
package freeze

import (
	"sort"
	"sync"

	"github.com/bitmark-inc/metalayerd/protocol"
)

// State - the whole freezing state, snapshot serialisable
type State struct {
	EnabledSince map[protocol.PropertyId]uint32 `json:"enabledSince"`
	Frozen       map[protocol.PropertyId][]string `json:"frozen"`
}

var globalData struct {
	sync.RWMutex
	enabledSince map[protocol.PropertyId]uint32
	frozen       map[protocol.PropertyId]map[string]struct{}
}

func init() {
	reset()
}

func reset() {
	globalData.enabledSince = make(map[protocol.PropertyId]uint32)
	globalData.frozen = make(map[protocol.PropertyId]map[string]struct{})
}

// Clear - drop all freezing state
func Clear() {
	globalData.Lock()
	reset()
	globalData.Unlock()
}

// Enable - freezing becomes available for a property from a block
func Enable(propertyId protocol.PropertyId, block uint32) {
	globalData.Lock()
	globalData.enabledSince[propertyId] = block
	globalData.Unlock()
}

// Disable - freezing switched off, existing flags become meaningless
func Disable(propertyId protocol.PropertyId) {
	globalData.Lock()
	delete(globalData.enabledSince, propertyId)
	delete(globalData.frozen, propertyId)
	globalData.Unlock()
}

// IsEnabled - can addresses currently be frozen for this property
func IsEnabled(propertyId protocol.PropertyId, block uint32) bool {
	globalData.RLock()
	defer globalData.RUnlock()
	since, ok := globalData.enabledSince[propertyId]
	return ok && block >= since
}

// Freeze - flag one address
func Freeze(propertyId protocol.PropertyId, address string) {
	globalData.Lock()
	m, ok := globalData.frozen[propertyId]
	if !ok {
		m = make(map[string]struct{})
		globalData.frozen[propertyId] = m
	}
	m[address] = struct{}{}
	globalData.Unlock()
}

// Unfreeze - clear one address
func Unfreeze(propertyId protocol.PropertyId, address string) {
	globalData.Lock()
	if m, ok := globalData.frozen[propertyId]; ok {
		delete(m, address)
		if 0 == len(m) {
			delete(globalData.frozen, propertyId)
		}
	}
	globalData.Unlock()
}

// IsFrozen - is an address currently frozen for a property
func IsFrozen(propertyId protocol.PropertyId, address string) bool {
	globalData.RLock()
	defer globalData.RUnlock()
	if m, ok := globalData.frozen[propertyId]; ok {
		_, frozen := m[address]
		return frozen
	}
	return false
}

// Export - snapshot copy; the frozen addresses of each property are
// listed in map iteration order, unsorted
func Export() State {
	globalData.RLock()
	defer globalData.RUnlock()

	state := State{
		EnabledSince: make(map[protocol.PropertyId]uint32, len(globalData.enabledSince)),
		Frozen:       make(map[protocol.PropertyId][]string, len(globalData.frozen)),
	}
	for propertyId, block := range globalData.enabledSince {
		state.EnabledSince[propertyId] = block
	}
	for propertyId, addresses := range globalData.frozen {
		list := make([]string, 0, len(addresses))
		for address := range addresses {
			list = append(list, address)
		}
		state.Frozen[propertyId] = list
	}
	return state
}

// Restore - replace all freezing state from a snapshot
func Restore(state State) {
	globalData.Lock()
	defer globalData.Unlock()

	reset()
	for propertyId, block := range state.EnabledSince {
		globalData.enabledSince[propertyId] = block
	}
	for propertyId, addresses := range state.Frozen {
		m := make(map[string]struct{}, len(addresses))
		for _, address := range addresses {
			m[address] = struct{}{}
		}
		globalData.frozen[propertyId] = m
	}
}

// Flag - one frozen (property, address) pair
type Flag struct {
	PropertyId protocol.PropertyId
	Address    string
}

// FrozenList - every frozen pair ordered by (property, address), for
// the consensus hash
func FrozenList() []Flag {
	globalData.RLock()
	defer globalData.RUnlock()

	result := []Flag(nil)
	for propertyId, addresses := range globalData.frozen {
		for address := range addresses {
			result = append(result, Flag{PropertyId: propertyId, Address: address})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PropertyId != result[j].PropertyId {
			return result[i].PropertyId < result[j].PropertyId
		}
		return result[i].Address < result[j].Address
	})
	return result
}
