// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"github.com/btcsuite/btcd/chaincfg"
)

// Checkpoint - a hard coded consensus hash for a block height
//
// a computed hash that differs from the expected value at one of these
// heights is an unrecoverable consistency failure
type Checkpoint struct {
	Height uint32
	Hash   string // hex of the double SHA-256 consensus hash
}

// Parameters - per chain protocol parameters
type Parameters struct {
	// host network parameters for address round trips
	Net *chaincfg.Params

	// the protocol reserved address: collects the developer
	// allocation of property 1 and is the fabricated issuer of the
	// two reserved properties
	ExodusAddress string

	// first block that can carry a protocol transaction
	FirstBlock uint32

	// script type gates
	ScriptHashBlock uint32 // pay-to-script-hash allowed from here
	NullDataBlock   uint32 // data carrier outputs allowed from here

	// suppress storing periodic state snapshots below this height
	StoreStateFromBlock uint32

	// divisor applied to a property's total tokens to obtain its fee
	// distribution threshold
	FeeThresholdDivisor int64

	// block ranges known to carry no protocol transactions,
	// skipped during the initial scan when the filter is enabled
	SeedSkipRanges [][2]uint32

	// consensus hash checkpoints
	Checkpoints []Checkpoint
}

var bitcoinParameters = Parameters{
	Net:                 &chaincfg.MainNetParams,
	ExodusAddress:       "1EXoDusjGwvnjZUyKkxZ4UHEf77z6A5S4P",
	FirstBlock:          249498,
	ScriptHashBlock:     322000,
	NullDataBlock:       395000,
	StoreStateFromBlock: 770000,
	FeeThresholdDivisor: 100000,
	SeedSkipRanges: [][2]uint32{
		{0, 249497},
		{249499, 250000},
	},
	Checkpoints: []Checkpoint{
		{250000, "c2e1e0f3cf3c49d8ee08bd45ad39be27eb400041cf90b2b6e133abc6f8079e76"},
		{260000, "b9af4e8cf3acd8c2c1d0b56c82107500b5c7b4b58d119b2a043855e7c9f4e1b1"},
	},
}

var testingParameters = Parameters{
	Net:                 &chaincfg.TestNet3Params,
	ExodusAddress:       "mpexoDuSkGGqvqrkrjiFng38QPkJQVFyqv",
	FirstBlock:          263000,
	ScriptHashBlock:     0,
	NullDataBlock:       0,
	StoreStateFromBlock: 0,
	FeeThresholdDivisor: 1000,
	SeedSkipRanges:      nil,
	Checkpoints:         nil,
}

var localParameters = Parameters{
	Net:                 &chaincfg.RegressionNetParams,
	ExodusAddress:       "mpexoDuSkGGqvqrkrjiFng38QPkJQVFyqv",
	FirstBlock:          0,
	ScriptHashBlock:     0,
	NullDataBlock:       0,
	StoreStateFromBlock: 0,
	FeeThresholdDivisor: 1000,
	SeedSkipRanges:      nil,
	Checkpoints:         nil,
}

// Params - fetch the parameter block for a chain
func Params(name string) *Parameters {
	switch name {
	case Bitcoin:
		return &bitcoinParameters
	case Testing:
		return &testingParameters
	default:
		return &localParameters
	}
}

// IsTestnet - script gates are relaxed away from mainnet
func IsTestnet(name string) bool {
	return name != Bitcoin
}
