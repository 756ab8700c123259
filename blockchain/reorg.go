// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/bitmark-inc/metalayerd/crowdsale"
	"github.com/bitmark-inc/metalayerd/dex"
	"github.com/bitmark-inc/metalayerd/fees"
	"github.com/bitmark-inc/metalayerd/freeze"
	"github.com/bitmark-inc/metalayerd/host"
	"github.com/bitmark-inc/metalayerd/interpreter"
	"github.com/bitmark-inc/metalayerd/metadex"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/nft"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/payload"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/storage"
	"github.com/bitmark-inc/metalayerd/tally"
)

// disconnectBlock - the host dropped a block off its best chain
//
// processing is deferred: the disconnect is armed and resolved when
// the replacement branch starts connecting, so that a deep
// reorganisation rewinds once rather than per block
func disconnectBlock(block *host.Block) {
	log := globalData.log

	log.Warnf("block disconnected: %d", block.Height)

	if !globalData.pendingDisconnect || block.Height < globalData.disconnectHeight {
		globalData.disconnectHeight = block.Height
	}
	globalData.pendingDisconnect = true

	// any freezing transaction inside the dropped block poisons the
	// rewind: frozen state cannot be reconstructed from snapshots
	// alone, only a full rescan is safe
	for _, tx := range block.Txs {
		if !payload.HasMarker(tx) {
			continue
		}
		data, class := payload.Extract(tx, "")
		if payload.ClassC != class {
			// class B needs the sender for the obfuscation stream;
			// treat it conservatively as poisoning
			globalData.disconnectPoisoned = true
			return
		}
		record, err := metatx.Packed(data).Unpack()
		if nil != err {
			continue
		}
		switch record.TxType() {
		case protocol.TxEnableFreezing, protocol.TxDisableFreezing,
			protocol.TxFreezeTokens, protocol.TxUnfreezeTokens:
			globalData.disconnectPoisoned = true
			return
		}
	}
}

// resolveReorg - rewind and replay up to just below the new block
//
// deterministic given the disconnect sequence and the stored
// snapshots: poisoned or snapshotless reorganisations rescan from the
// first protocol block, anything else restores the newest snapshot
// below the fork and replays forward
func resolveReorg(newBlockHeight uint32) error {
	log := globalData.log

	forkPoint := globalData.disconnectHeight // lowest disconnected height
	poisoned := globalData.disconnectPoisoned

	globalData.pendingDisconnect = false
	globalData.disconnectPoisoned = false

	replayFrom := uint32(0)

	if poisoned {
		log.Warn("reorganisation touches freezing state: full rescan forced")
		clearAllState()
		replayFrom = globalData.params.FirstBlock
	} else {
		snapshotHeight, found := findSnapshotBelow(forkPoint)
		if !found {
			log.Warnf("no snapshot below fork at %d: full rescan forced", forkPoint)
			clearAllState()
			replayFrom = globalData.params.FirstBlock
		} else {
			log.Warnf("rewinding to snapshot at %d", snapshotHeight)
			if err := restoreSnapshot(snapshotHeight); nil != err {
				return err
			}
			if err := rollbackStoresAbove(snapshotHeight + 1); nil != err {
				return err
			}
			globalData.currentHeight = snapshotHeight
			replayFrom = snapshotHeight + 1
		}
	}

	// replay the surviving branch below the incoming block
	for height := replayFrom; height < newBlockHeight; height += 1 {
		block, ok := globalData.chains.BlockAt(height)
		if !ok {
			return fmt.Errorf("replay: host cannot provide block %d", height)
		}
		if err := replayBlock(block); nil != err {
			return err
		}
	}

	log.Warnf("reorganisation complete: tip restored to %d", newBlockHeight-1)
	return nil
}

// replayBlock - a connect during replay, never re-entering the reorg
// path
func replayBlock(block *host.Block) error {
	if block.Height < globalData.params.FirstBlock {
		globalData.currentHeight = block.Height
		return nil
	}

	beginBlock(block)
	for index, tx := range block.Txs {
		meta, err := parser.Parse(tx, block.Height, uint32(index), block.Time, globalData.coins, globalData.params, globalData.testnet)
		if nil != err || nil == meta {
			continue
		}
		interpreter.Process(meta)
	}
	return endBlock(block)
}

// rollbackStoresAbove - every database row recorded at or above a
// block is unwound
func rollbackStoresAbove(block uint32) error {
	if err := interpreter.RollbackListsAbove(block); nil != err {
		return err
	}
	if err := property.RollbackAbove(block); nil != err {
		return err
	}
	if err := nft.RollbackAbove(block); nil != err {
		return err
	}
	if err := fees.RollbackAbove(block); nil != err {
		return err
	}
	interpreter.RollbackAdminAbove(block)
	return nil
}

// clearAllState - drop everything, the next replay starts from
// nothing
func clearAllState() {
	if err := storage.Clear(); nil != err {
		abortNode(fmt.Sprintf("state clear failed: %s", err))
	}
	tally.Clear()
	crowdsale.Clear()
	freeze.Clear()
	dex.Clear()
	metadex.Clear()
	removeAllSnapshots()
	globalData.currentHeight = 0
	globalData.devCredited = 0
}
