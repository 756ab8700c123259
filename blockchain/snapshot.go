// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/bitmark-inc/metalayerd/crowdsale"
	"github.com/bitmark-inc/metalayerd/dex"
	"github.com/bitmark-inc/metalayerd/freeze"
	"github.com/bitmark-inc/metalayerd/metadex"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/tally"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// snapshot - the in-memory state persisted at checkpoint blocks
//
// database backed state is not duplicated here: it rolls back through
// its own per block logs
type snapshot struct {
	Height      uint32                                          `json:"height"`
	DevCredited int64                                           `json:"devCredited"`
	Tally       map[string]map[protocol.PropertyId]tally.Balances `json:"tally"`
	Crowdsales  map[string]crowdsale.Sale                       `json:"crowdsales"`
	Freeze      freeze.State                                    `json:"freeze"`
	Dex         dex.State                                       `json:"dex"`
	Orders      []metadex.Order                                 `json:"orders"`
}

func snapshotPath(height uint32) string {
	return filepath.Join(globalData.snapshotDirectory, fmt.Sprintf("state-%010d.json", height))
}

// writeSnapshot - atomically persist the in-memory state
//
// written to a temporary file first and renamed into place so that a
// crash never leaves a half written snapshot behind
func writeSnapshot(height uint32) error {
	s := &snapshot{
		Height:      height,
		DevCredited: globalData.devCredited,
		Tally:       tally.Export(),
		Crowdsales:  crowdsale.Export(),
		Freeze:      freeze.Export(),
		Dex:         dex.Export(),
		Orders:      metadex.Export(),
	}

	data, err := json.Marshal(s)
	if nil != err {
		return errors.Wrap(err, "snapshot marshal")
	}

	if err := os.MkdirAll(globalData.snapshotDirectory, 0700); nil != err {
		return errors.Wrap(err, "snapshot directory")
	}

	final := snapshotPath(height)
	temporary := final + ".tmp"
	if err := ioutil.WriteFile(temporary, data, 0600); nil != err {
		return errors.Wrap(err, "snapshot write")
	}
	if err := os.Rename(temporary, final); nil != err {
		return errors.Wrap(err, "snapshot rename")
	}

	globalData.log.Infof("snapshot stored: height: %d", height)
	return nil
}

// snapshotHeights - every stored snapshot, ascending
func snapshotHeights() []uint32 {
	entries, err := ioutil.ReadDir(globalData.snapshotDirectory)
	if nil != err {
		return nil
	}
	heights := []uint32(nil)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "state-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, "state-"), ".json"), 10, 32)
		if nil != err {
			continue
		}
		heights = append(heights, uint32(n))
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights
}

// findSnapshotBelow - the newest snapshot strictly below a height
func findSnapshotBelow(height uint32) (uint32, bool) {
	best := uint32(0)
	found := false
	for _, h := range snapshotHeights() {
		if h < height {
			best = h
			found = true
		}
	}
	return best, found
}

// LatestSnapshot - the newest stored snapshot, for startup
func LatestSnapshot() (uint32, bool) {
	heights := snapshotHeights()
	if 0 == len(heights) {
		return 0, false
	}
	return heights[len(heights)-1], true
}

// restoreSnapshot - replace the whole in-memory state from disk
func restoreSnapshot(height uint32) error {
	data, err := ioutil.ReadFile(snapshotPath(height))
	if nil != err {
		return errors.Wrap(err, "snapshot read")
	}

	s := &snapshot{}
	if err := json.Unmarshal(data, s); nil != err {
		return errors.Wrap(err, "snapshot unmarshal")
	}

	tally.Restore(s.Tally)
	crowdsale.Restore(s.Crowdsales)
	freeze.Restore(s.Freeze)
	dex.Restore(s.Dex)
	metadex.Restore(s.Orders)
	globalData.devCredited = s.DevCredited

	globalData.log.Infof("snapshot restored: height: %d", height)
	return nil
}

// RestoreLatest - startup path: load the newest snapshot and report
// its height, zero when none exists
func RestoreLatest() (uint32, error) {
	height, found := LatestSnapshot()
	if !found {
		return 0, nil
	}
	if err := restoreSnapshot(height); nil != err {
		return 0, err
	}
	if err := rollbackStoresAbove(height + 1); nil != err {
		return 0, err
	}
	globalData.Lock()
	globalData.currentHeight = height
	globalData.Unlock()
	return height, nil
}

// removeAllSnapshots - force the next start to rescan
func removeAllSnapshots() {
	for _, height := range snapshotHeights() {
		os.Remove(snapshotPath(height))
	}
}
