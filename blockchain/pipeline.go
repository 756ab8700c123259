// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/host"
	"github.com/bitmark-inc/metalayerd/interpreter"
	"github.com/bitmark-inc/metalayerd/nft"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/tally"
)

// snapshot cadence: dense after sync, sparse during the initial scan
const (
	snapshotIntervalLive = 100
	snapshotIntervalSync = 10000
)

// the developer reward: one reserved token every vesting interval
// from the reward epoch, credited to the exodus address and capped
const (
	devRewardEpoch    = 1377993874 // close of the exodus period
	devRewardInterval = 600        // seconds per whole token
	devRewardCap      = 56316235762311
)

// connectBlock - apply one block to the state
//
// a pending disconnect is resolved first: the state rewinds to a
// snapshot below the fork and the branch replays before this block
// joins
func connectBlock(block *host.Block) error {
	if globalData.pendingDisconnect {
		if err := resolveReorg(block.Height); nil != err {
			return err
		}
	}

	if block.Height < globalData.params.FirstBlock {
		globalData.currentHeight = block.Height
		return nil
	}

	beginBlock(block)

	confirmed := make([]chainhash.Hash, 0, len(block.Txs))
	for index, tx := range block.Txs {
		if nil != globalData.hooks.ShutdownRequested && globalData.hooks.ShutdownRequested() {
			globalData.log.Warn("shutdown requested: stopping at a transaction boundary")
			return nil
		}

		confirmed = append(confirmed, tx.TxHash())

		meta, err := parser.Parse(tx, block.Height, uint32(index), block.Time, globalData.coins, globalData.params, globalData.testnet)
		if nil != err {
			// a marker without a decodable protocol transaction
			interpreter.RecordParseError(&interpreter.TxRecord{
				TxId:   tx.TxHash().String(),
				Block:  block.Height,
				Index:  uint32(index),
				Reason: protocol.ReasonDeserialize,
			})
			continue
		}
		if nil == meta {
			continue
		}

		interpreter.Process(meta)
	}

	globalData.markers.BlockConfirmed(confirmed)

	return endBlock(block)
}

// beginBlock - per block housekeeping before any transaction
func beginBlock(block *host.Block) {
	interpreter.ApplyPendingActivations(block.Height)
	interpreter.ExpireCrowdsales(block.Height, block.Time)
	nft.StartBlock(block.Height)
}

// endBlock - per block bookkeeping after the last transaction
func endBlock(block *host.Block) error {
	log := globalData.log

	interpreter.ExpireAccepts(block.Height)
	advanceDevReward(block.Time)
	interpreter.ExpireAlerts(block.Height)

	if err := nft.CommitBlock(); nil != err {
		abortNode(fmt.Sprintf("nft rollback log write failed: %s", err))
		return err
	}

	// unique token supply must equal the allocated id space
	if err := nftSanityCheck(); nil != err {
		abortNode(err.Error())
		return err
	}

	digest := ConsensusHash()
	log.Infof("block: %d  consensus hash: %x", block.Height, digest)

	// hard coded checkpoint verification
	for _, checkpoint := range globalData.params.Checkpoints {
		if checkpoint.Height == block.Height {
			if fmt.Sprintf("%x", digest) != checkpoint.Hash {
				abortNode(fmt.Sprintf(
					"consensus hash mismatch at checkpoint %d: have: %x  want: %s — restart with -startclean",
					block.Height, digest, checkpoint.Hash))
				return fault.ChainCheckpointMismatch
			}
			log.Infof("checkpoint %d verified", block.Height)
		}
	}

	globalData.currentHeight = block.Height

	if shouldSnapshot(block.Height) {
		if err := writeSnapshot(block.Height); nil != err {
			abortNode(fmt.Sprintf("snapshot write failed: %s", err))
			return err
		}
	}

	return nil
}

// shouldSnapshot - periodic persistence policy
func shouldSnapshot(height uint32) bool {
	if height < globalData.params.StoreStateFromBlock && !globalData.options.SkipStoringGate {
		return false
	}
	interval := uint32(snapshotIntervalLive)
	if nil != globalData.chains && globalData.chains.IsInitialSync() {
		interval = snapshotIntervalSync
	}
	return 0 == height%interval
}

// nftSanityCheck - the range store and the ledger must agree on the
// supply of every unique property
func nftSanityCheck() error {
	mismatch := error(nil)
	err := property.Each(func(propertyId protocol.PropertyId, entry *property.Entry) error {
		if !entry.Kind.IsNonFungible() {
			return nil
		}
		highest := nft.HighestEnd(propertyId)
		total := tally.Total(propertyId)
		if highest != total {
			mismatch = fmt.Errorf("unique token total mismatch: property: %d  ranges: %d  ledger: %d", propertyId, highest, total)
			return mismatch
		}
		return nil
	})
	if nil == err {
		err = mismatch
	}
	return err
}

// advanceDevReward - deterministic vesting of the developer tokens
//
// integer arithmetic only: the all-time entitlement at a block time
// is a pure function of that time, the delta since the last block is
// credited
func advanceDevReward(blockTime int64) {
	if blockTime <= devRewardEpoch {
		return
	}
	entitled := (blockTime - devRewardEpoch) / devRewardInterval * 100000000
	if entitled > devRewardCap {
		entitled = devRewardCap
	}
	delta := entitled - globalData.devCredited
	if delta <= 0 {
		return
	}
	if err := tally.Credit(globalData.params.ExodusAddress, protocol.PropertyMain, delta, tally.Available); nil != err {
		globalData.log.Criticalf("developer reward credit failed: %s", err)
		return
	}
	globalData.devCredited = entitled
	globalData.log.Debugf("developer reward: +%d  total: %d", delta, entitled)
}
