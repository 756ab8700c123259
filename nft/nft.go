// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package nft - the unique token range store
//
// contiguous token id ranges grouped by (property, storage kind);
// ranges of one kind never overlap and adjacent ranges carrying the
// same value are always coalesced
//
// every mutation records its pre-image into a per-block rollback log
// so that a reorganisation replays the log in reverse instead of
// rescanning the chain
package nft

import (
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/storage"
)

// Kind - which of the per-range value tables a record belongs to
type Kind byte

// all range kinds
const (
	RangeIndex Kind = 1 // value is the owning address
	GrantData  Kind = 2 // value set at token creation
	IssuerData Kind = 3 // value settable by the issuer or delegate
	HolderData Kind = 4 // value settable by the owner
)

// Range - one stored range
type Range struct {
	Start protocol.Amount
	End   protocol.Amount
	Value string
}

// one recorded pre-image: Had == false means the key did not exist
type undo struct {
	Key []byte `json:"k"`
	Old []byte `json:"o,omitempty"`
	Had bool   `json:"h"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var globalData struct {
	sync.Mutex
	log *logger.L

	// pre-images of this block's mutations, first touch per key only
	block   uint32
	touched map[string]int
	undos   []undo

	initialised bool
}

// Initialise - set up the range store
func Initialise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("nft")
	globalData.log.Info("starting…")

	globalData.touched = make(map[string]int)
	globalData.initialised = true
	return nil
}

// Finalise - shut down the range store
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("finished")
	globalData.log.Flush()

	globalData.initialised = false
	return nil
}

// key: property ‖ kind ‖ start ‖ end, ordering ranges by start within
// one (property, kind) group
func rangeKey(propertyId protocol.PropertyId, kind Kind, start protocol.Amount, end protocol.Amount) []byte {
	key := storage.AppendUint32(nil, uint32(propertyId))
	key = append(key, byte(kind))
	key = storage.AppendUint64(key, uint64(start))
	key = storage.AppendUint64(key, uint64(end))
	return key
}

func groupKey(propertyId protocol.PropertyId, kind Kind) []byte {
	key := storage.AppendUint32(nil, uint32(propertyId))
	return append(key, byte(kind))
}

func parseRangeKey(key []byte) (start protocol.Amount, end protocol.Amount, ok bool) {
	if 21 != len(key) {
		return 0, 0, false
	}
	return protocol.Amount(storage.Uint64(key[5:13])), protocol.Amount(storage.Uint64(key[13:21])), true
}

// record the pre-image of a key about to change, first touch only
func recordUndo(key []byte) {
	if _, seen := globalData.touched[string(key)]; seen {
		return
	}
	globalData.touched[string(key)] = len(globalData.undos)

	old := storage.Pool.NFTRanges.Get(key)
	copied := []byte(nil)
	if nil != old {
		copied = make([]byte, len(old))
		copy(copied, old)
	}
	globalData.undos = append(globalData.undos, undo{
		Key: append([]byte(nil), key...),
		Old: copied,
		Had: nil != old,
	})
}

func addRange(propertyId protocol.PropertyId, kind Kind, start protocol.Amount, end protocol.Amount, value string) {
	key := rangeKey(propertyId, kind, start, end)
	recordUndo(key)
	storage.Pool.NFTRanges.Put(key, []byte(value))
}

func deleteRange(propertyId protocol.PropertyId, kind Kind, start protocol.Amount, end protocol.Amount) {
	key := rangeKey(propertyId, kind, start, end)
	recordUndo(key)
	storage.Pool.NFTRanges.Delete(key)
}

// stop sentinel for partial scans
var errStopScan = fault.ProcessError("stop scan")

// GetRange - the stored range of a kind containing a token id
func GetRange(propertyId protocol.PropertyId, tokenId protocol.Amount, kind Kind) (Range, bool) {
	result := Range{}
	found := false
	_ = storage.Pool.NFTRanges.ScanPartial(groupKey(propertyId, kind), func(key []byte, value []byte) error {
		start, end, ok := parseRangeKey(key)
		if !ok {
			return nil
		}
		if start > tokenId {
			return errStopScan
		}
		if tokenId >= start && tokenId <= end {
			result = Range{Start: start, End: end, Value: string(value)}
			found = true
			return errStopScan
		}
		return nil
	})
	return result, found
}

// ValueAt - the value of a kind at one token id, empty if none
func ValueAt(propertyId protocol.PropertyId, tokenId protocol.Amount, kind Kind) string {
	if tokenId <= 0 {
		return ""
	}
	r, ok := GetRange(propertyId, tokenId, kind)
	if !ok {
		return ""
	}
	return r.Value
}

// OwnerOfRange - the single owner of a whole contiguous range, if the
// range lies inside one stored owning range
func OwnerOfRange(propertyId protocol.PropertyId, start protocol.Amount, end protocol.Amount) (string, bool) {
	r, ok := GetRange(propertyId, start, RangeIndex)
	if !ok || r.End < end {
		return "", false
	}
	return r.Value, true
}

// Ranges - every stored range of a kind, ascending by start
func Ranges(propertyId protocol.PropertyId, kind Kind) []Range {
	result := []Range(nil)
	_ = storage.Pool.NFTRanges.ScanPartial(groupKey(propertyId, kind), func(key []byte, value []byte) error {
		start, end, ok := parseRangeKey(key)
		if !ok {
			return nil
		}
		result = append(result, Range{Start: start, End: end, Value: string(value)})
		return nil
	})
	return result
}

// HighestEnd - the top of the allocated token id space
func HighestEnd(propertyId protocol.PropertyId) protocol.Amount {
	highest := protocol.Amount(0)
	_ = storage.Pool.NFTRanges.ScanPartial(groupKey(propertyId, RangeIndex), func(key []byte, value []byte) error {
		_, end, ok := parseRangeKey(key)
		if ok && end > highest {
			highest = end
		}
		return nil
	})
	return highest
}

// Move - transfer ownership of [start..end]
//
// requires a single owning range of "from" covering the whole span;
// residuals outside the span stay with "from" and the moved span
// coalesces with any adjacent range already owned by "to"
func Move(propertyId protocol.PropertyId, start protocol.Amount, end protocol.Amount, from string, to string) error {
	if start <= 0 || end < start {
		return fault.InvalidTokenRange
	}

	globalData.Lock()
	defer globalData.Unlock()

	senderRange, ok := GetRange(propertyId, start, RangeIndex)
	if !ok || senderRange.Value != from || senderRange.End < end {
		return fault.MissingOwnerOfRange
	}

	movingCompleteRange := senderRange.Start == start && senderRange.End == end

	// does "to" have adjacent ranges that need to be merged
	mergeBefore := to == ValueAt(propertyId, start-1, RangeIndex)
	mergeAfter := to == ValueAt(propertyId, end+1, RangeIndex)

	// adjust the "from" side
	deleteRange(propertyId, RangeIndex, senderRange.Start, senderRange.End)
	if !movingCompleteRange {
		if senderRange.Start < start {
			addRange(propertyId, RangeIndex, senderRange.Start, start-1, from)
		}
		if senderRange.End > end {
			addRange(propertyId, RangeIndex, end+1, senderRange.End, from)
		}
	}

	// adjust the "to" side
	newStart := start
	newEnd := end
	if mergeBefore {
		oldRange, ok := GetRange(propertyId, start-1, RangeIndex)
		if ok {
			newStart = oldRange.Start
			deleteRange(propertyId, RangeIndex, oldRange.Start, oldRange.End)
		}
	}
	if mergeAfter {
		oldRange, ok := GetRange(propertyId, end+1, RangeIndex)
		if ok {
			newEnd = oldRange.End
			deleteRange(propertyId, RangeIndex, oldRange.Start, oldRange.End)
		}
	}
	addRange(propertyId, RangeIndex, newStart, newEnd, to)

	return nil
}

// SetData - write a data kind over [start..end]
//
// data outside the span belonging to the left-most and right-most
// intersecting ranges is preserved by re-insertion
func SetData(propertyId protocol.PropertyId, start protocol.Amount, end protocol.Amount, data string, kind Kind) error {
	if start <= 0 || end < start {
		return fault.InvalidTokenRange
	}
	if RangeIndex == kind {
		return fault.InvalidTokenRange
	}

	globalData.Lock()
	defer globalData.Unlock()

	// every stored range intersecting the span
	intersecting := []Range(nil)
	for i := start; i <= end; {
		r, ok := GetRange(propertyId, i, kind)
		if !ok {
			break
		}
		intersecting = append(intersecting, r)
		if r.End >= protocol.MaxAmount {
			break
		}
		i = r.End + 1
	}

	if 0 != len(intersecting) {
		first := intersecting[0]
		last := intersecting[len(intersecting)-1]

		for _, r := range intersecting {
			deleteRange(propertyId, kind, r.Start, r.End)
		}

		if first.Start < start {
			addRange(propertyId, kind, first.Start, start-1, first.Value)
		}
		if last.End > end {
			addRange(propertyId, kind, end+1, last.End, last.Value)
		}
	}

	addRange(propertyId, kind, start, end, data)
	return nil
}

// Create - extend the token id space of a property by amount
//
// new ids start just above the current highest; the end saturates at
// the 63 bit bound; grant data is written for the new ids and the
// owning range coalesces with an adjacent range of the same owner
func Create(propertyId protocol.PropertyId, amount protocol.Amount, owner string, grantData string) (Range, error) {
	if amount <= 0 {
		return Range{}, fault.InvalidAmount
	}

	globalData.Lock()
	defer globalData.Unlock()

	highest := HighestEnd(propertyId)
	newStart := highest + 1
	newEnd := protocol.MaxAmount
	if highest <= protocol.MaxAmount-amount {
		newEnd = highest + amount
	}

	addRange(propertyId, GrantData, newStart, newEnd, grantData)

	created := Range{Start: newStart, End: newEnd, Value: owner}

	ownStart := newStart
	if 0 != highest && owner == ValueAt(propertyId, highest, RangeIndex) {
		oldRange, ok := GetRange(propertyId, highest, RangeIndex)
		if ok {
			deleteRange(propertyId, RangeIndex, oldRange.Start, oldRange.End)
			ownStart = oldRange.Start
		}
	}
	addRange(propertyId, RangeIndex, ownStart, newEnd, owner)

	return created, nil
}

// StartBlock - begin collecting pre-images for a block
func StartBlock(block uint32) {
	globalData.Lock()
	globalData.block = block
	globalData.touched = make(map[string]int)
	globalData.undos = nil
	globalData.Unlock()
}

// CommitBlock - persist this block's rollback log
//
// no record is written for a block that touched nothing
func CommitBlock() error {
	globalData.Lock()
	defer globalData.Unlock()

	if 0 == len(globalData.undos) {
		return nil
	}

	data, err := json.Marshal(globalData.undos)
	if nil != err {
		return err
	}
	storage.Pool.NFTRollback.Put(storage.AppendUint32(nil, globalData.block), data)

	globalData.touched = make(map[string]int)
	globalData.undos = nil
	return nil
}

// RollbackAbove - undo every mutation made at or above a block
//
// log entries replay newest block first, each block's pre-images in
// reverse record order
func RollbackAbove(block uint32) error {
	globalData.Lock()
	defer globalData.Unlock()

	type blockLog struct {
		key   []byte
		undos []undo
	}
	logs := []blockLog(nil)

	err := storage.Pool.NFTRollback.NewFetchCursor().Seek(storage.AppendUint32(nil, block)).Map(func(key []byte, value []byte) error {
		undos := []undo(nil)
		if err := json.Unmarshal(value, &undos); nil != err {
			return err
		}
		logs = append(logs, blockLog{key: append([]byte(nil), key...), undos: undos})
		return nil
	})
	if nil != err {
		return err
	}

	for i := len(logs) - 1; i >= 0; i -= 1 {
		entry := logs[i]
		for j := len(entry.undos) - 1; j >= 0; j -= 1 {
			u := entry.undos[j]
			if u.Had {
				storage.Pool.NFTRanges.Put(u.Key, u.Old)
			} else {
				storage.Pool.NFTRanges.Delete(u.Key)
			}
		}
		storage.Pool.NFTRollback.Delete(entry.key)
	}

	// discard any uncommitted pre-images from the abandoned block
	globalData.touched = make(map[string]int)
	globalData.undos = nil
	return nil
}
