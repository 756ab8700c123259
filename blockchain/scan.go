// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"time"
)

// InitialScan - walk the host chain from just above the processed tip
// to the host tip
//
// honours the shutdown poll at block boundaries, skips seed filtered
// ranges and emits a progress line at the configured cadence
func InitialScan() error {
	log := globalData.log

	from := globalData.currentHeight + 1
	if from < globalData.params.FirstBlock {
		from = globalData.params.FirstBlock
	}
	tip := globalData.chains.TipHeight()
	if from > tip {
		return nil
	}

	log.Infof("initial scan: blocks %d…%d", from, tip)

	lastProgress := time.Now()
	frequency := time.Duration(globalData.options.ProgressFrequency) * time.Second

scanning:
	for height := from; height <= tip; height += 1 {
		if nil != globalData.hooks.ShutdownRequested && globalData.hooks.ShutdownRequested() {
			log.Warn("shutdown requested: scan interrupted")
			break scanning
		}

		if globalData.options.SeedBlockFilter && seedFiltered(height) {
			globalData.currentHeight = height
			continue scanning
		}

		block, ok := globalData.chains.BlockAt(height)
		if !ok {
			return fmt.Errorf("scan: host cannot provide block %d", height)
		}
		if err := connectBlock(block); nil != err {
			return err
		}

		if time.Since(lastProgress) >= frequency {
			lastProgress = time.Now()
			percent := float64(height-from+1) * 100.0 / float64(tip-from+1)
			log.Infof("scan progress: block %d of %d (%.2f%%)", height, tip, percent)
		}

		// the host may have advanced while scanning
		if height == tip {
			newTip := globalData.chains.TipHeight()
			if newTip > tip {
				tip = newTip
			}
		}
	}

	log.Infof("initial scan complete: height %d", globalData.currentHeight)
	return nil
}

// seedFiltered - known empty block ranges on this chain
func seedFiltered(height uint32) bool {
	for _, r := range globalData.params.SeedSkipRanges {
		if height >= r[0] && height <= r[1] {
			return true
		}
	}
	return false
}
