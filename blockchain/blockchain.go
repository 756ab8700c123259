// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain - the block processing pipeline
//
// consumes the host's ordered events on a single task: connect
// applies a block to the state, disconnect arms the reorganisation
// path which rewinds to the best usable snapshot and replays; all
// state mutation in the process happens here
package blockchain

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/chain"
	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/host"
	"github.com/bitmark-inc/metalayerd/payload"
)

// Options - operator settings for the pipeline
type Options struct {
	// skip block ranges known to carry no protocol transactions
	SeedBlockFilter bool

	// store periodic snapshots even below the configured height
	SkipStoringGate bool

	// keep the snapshot directory on a fatal inconsistency instead
	// of forcing the next start to rescan
	OverrideForcedShutdown bool

	// minimum seconds between progress lines during the initial scan
	ProgressFrequency int
}

var globalData struct {
	sync.RWMutex
	log *logger.L

	params  *chain.Parameters
	chains  host.ChainView
	coins   host.CoinView
	hooks   host.Hooks
	options Options
	testnet bool

	snapshotDirectory string

	// current processed tip, zero before the first block
	currentHeight uint32

	// developer reward already credited to the exodus address
	devCredited int64

	// armed by a disconnect, consumed by the next connect
	pendingDisconnect  bool
	disconnectHeight   uint32
	disconnectPoisoned bool // a freezing transaction was inside

	markers *payload.MarkerCache

	background *backgroundHandle

	initialised bool
}

// Initialise - set up the pipeline
func Initialise(params *chain.Parameters, chains host.ChainView, coins host.CoinView, hooks host.Hooks, snapshotDirectory string, testnet bool, options Options) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("blockchain")
	globalData.log.Info("starting…")

	if options.ProgressFrequency <= 0 {
		options.ProgressFrequency = 30
	}

	globalData.params = params
	globalData.chains = chains
	globalData.coins = coins
	globalData.hooks = hooks
	globalData.options = options
	globalData.testnet = testnet
	globalData.snapshotDirectory = snapshotDirectory
	globalData.currentHeight = 0
	globalData.devCredited = 0
	globalData.pendingDisconnect = false
	globalData.markers = payload.NewMarkerCache()

	globalData.initialised = true
	return nil
}

// Finalise - stop the pipeline, persisting a final snapshot
func Finalise() error {
	globalData.Lock()

	if !globalData.initialised {
		globalData.Unlock()
		return fault.NotInitialised
	}

	height := globalData.currentHeight
	globalData.Unlock()

	if height > 0 {
		if err := writeSnapshot(height); nil != err {
			globalData.log.Errorf("final snapshot failed: %s", err)
		}
	}

	globalData.Lock()
	globalData.log.Info("finished")
	globalData.log.Flush()
	globalData.initialised = false
	globalData.Unlock()
	return nil
}

// CurrentHeight - the processed tip
func CurrentHeight() uint32 {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.currentHeight
}

// Markers - the mempool marker cache
func Markers() *payload.MarkerCache {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.markers
}

// HandleEvent - apply one host notification
//
// called from the single event consumer task only
func HandleEvent(event host.Event) error {
	switch e := event.(type) {

	case host.BlockConnected:
		return connectBlock(e.Block)

	case host.BlockDisconnected:
		disconnectBlock(e.Block)
		return nil

	case host.TxAdded:
		globalData.markers.TxAdded(e.Tx)
		return nil

	case host.TxRemoved:
		globalData.markers.TxRemoved(e.Tx)
		return nil

	default:
		return nil
	}
}

func abortNode(message string) {
	globalData.log.Criticalf("abort: %s", message)

	// remove the persisted snapshots so the next start is forced to
	// rescan from a clean slate
	if !globalData.options.OverrideForcedShutdown {
		removeAllSnapshots()
	}

	if nil != globalData.hooks.AbortNode {
		globalData.hooks.AbortNode(message)
	} else {
		logger.Panicf("blockchain: %s", message)
	}
}
