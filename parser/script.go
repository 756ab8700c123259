// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package parser

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/metalayerd/chain"
	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/host"
	"github.com/bitmark-inc/metalayerd/payload"
)

// permittedClass - the script types a sender or recipient may use at
// a height; gates are relaxed away from mainnet
func permittedClass(class txscript.ScriptClass, block uint32, params *chain.Parameters, testnet bool) bool {
	switch class {
	case txscript.PubKeyHashTy:
		return true
	case txscript.ScriptHashTy:
		return testnet || block >= params.ScriptHashBlock
	default:
		return false
	}
}

// addressOf - decode the single address of an output script, empty
// when the script has none or carries more than one
func addressOf(pkScript []byte, params *chain.Parameters) (string, txscript.ScriptClass) {
	class, addresses, required, err := txscript.ExtractPkScriptAddrs(pkScript, params.Net)
	if nil != err || 1 != len(addresses) || 1 != required {
		return "", class
	}
	return addresses[0].EncodeAddress(), class
}

// senderOf - determine the protocol sender from the spent inputs
//
// when every qualifying input belongs to one address that address is
// the sender; otherwise the address contributing the highest total
// value wins, ties resolved by the earliest input index
func senderOf(tx *wire.MsgTx, block uint32, coins host.CoinView, params *chain.Parameters, testnet bool) (string, error) {

	totals := make(map[string]int64)
	firstIndex := make(map[string]int)

	for i, in := range tx.TxIn {
		out, ok := coins.GetOutput(in.PreviousOutPoint)
		if !ok {
			continue
		}
		address, class := addressOf(out.PkScript, params)
		if "" == address || !permittedClass(class, block, params, testnet) {
			continue
		}
		if _, seen := totals[address]; !seen {
			firstIndex[address] = i
		}
		totals[address] += out.Value
	}

	if 0 == len(totals) {
		return "", fault.MissingSender
	}

	sender := ""
	bestValue := int64(-1)
	bestIndex := 0
	for address, value := range totals {
		if value > bestValue || (value == bestValue && firstIndex[address] < bestIndex) {
			sender = address
			bestValue = value
			bestIndex = firstIndex[address]
		}
	}
	return sender, nil
}

// outputAddresses - decoded address of every output, empty string
// where an output has no single permitted address
func outputAddresses(tx *wire.MsgTx, block uint32, params *chain.Parameters, testnet bool) []string {
	result := make([]string, len(tx.TxOut))
	for i, out := range tx.TxOut {
		address, class := addressOf(out.PkScript, params)
		if "" != address && permittedClass(class, block, params, testnet) {
			result[i] = address
		}
	}
	return result
}

// payloadOutputIndex - position of the output carrying the payload
//
// for class C the data carrier output, for class B the last multisig
// output of the sequence
func payloadOutputIndex(tx *wire.MsgTx, class payload.Class) int {
	index := -1
	for i, out := range tx.TxOut {
		scriptClass := txscript.GetScriptClass(out.PkScript)
		switch class {
		case payload.ClassC:
			if txscript.NullDataTy == scriptClass {
				return i
			}
		case payload.ClassB:
			if txscript.MultiSigTy == scriptClass {
				index = i
			}
		}
	}
	return index
}

// referenceOf - the reference recipient of a transaction
//
// the first output after the payload output that decodes to a
// permitted address other than the sender; when no such output
// follows the payload the scan wraps to the whole transaction
func referenceOf(tx *wire.MsgTx, outputs []string, sender string, class payload.Class) string {
	start := payloadOutputIndex(tx, class) + 1

	for i := start; i < len(outputs); i += 1 {
		if "" != outputs[i] && sender != outputs[i] {
			return outputs[i]
		}
	}
	for i := 0; i < start && i < len(outputs); i += 1 {
		if "" != outputs[i] && sender != outputs[i] {
			return outputs[i]
		}
	}
	return ""
}
