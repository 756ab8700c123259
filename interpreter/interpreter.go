// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package interpreter - the per transaction state machine
//
// each handler validates every precondition before touching any
// state, so a transaction either applies completely or records an
// invalidation reason and changes nothing
package interpreter

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/metalayerd/chain"
	"github.com/bitmark-inc/metalayerd/fault"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/protocol"
)

// Options - operator overrides recognised by the admin transaction
// handlers
type Options struct {
	// accept activations from any sender
	ActivationAllowAnySender bool

	// ignore activations entirely
	ActivationIgnoreSenders bool
}

var globalData struct {
	sync.RWMutex
	log     *logger.L
	params  *chain.Parameters
	options Options

	initialised bool
}

// Initialise - set up the interpreter
func Initialise(params *chain.Parameters, options Options) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("interpreter")
	globalData.log.Info("starting…")

	globalData.params = params
	globalData.options = options
	globalData.initialised = true
	return nil
}

// Finalise - shut down the interpreter
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

// stop sentinel for partial scans
var errStopScan = fault.ProcessError("stop scan")

// Process - interpret one parsed transaction and record its outcome
//
// returns the recorded reason, zero for a valid transaction
func Process(meta *parser.MetaTransaction) protocol.Reason {
	log := globalData.log

	reason := dispatch(meta)

	record := &TxRecord{
		TxId:    meta.TxId.String(),
		Block:   meta.Block,
		Index:   meta.Index,
		Type:    meta.Record.TxType(),
		Version: meta.Record.TxVersion(),
		Reason:  reason,
		Sender:  meta.Sender,
	}
	recordTx(record)

	if reason.Valid() {
		log.Infof("valid tx: %s  type: %s  block: %d idx: %d  sender: %s",
			meta.TxId, meta.Record.TxType(), meta.Block, meta.Index, meta.Sender)
	} else {
		log.Debugf("invalid tx: %s  type: %s  reason: %d",
			meta.TxId, meta.Record.TxType(), reason)
	}
	return reason
}

// RecordParseError - a transaction whose payload failed to decode
func RecordParseError(meta *TxRecord) {
	recordTx(meta)
}

func dispatch(meta *parser.MetaTransaction) protocol.Reason {

	switch tx := meta.Record.(type) {

	case *metatx.SimpleSend:
		return doSimpleSend(meta, tx)
	case *metatx.SendToOwners:
		return doSendToOwners(meta, tx)
	case *metatx.SendAll:
		return doSendAll(meta, tx)
	case *metatx.SendNonFungible:
		return doSendNonFungible(meta, tx)
	case *metatx.SendToMany:
		return doSendToMany(meta, tx)
	case *metatx.TradeOffer:
		return doTradeOffer(meta, tx)
	case *metatx.AcceptOffer:
		return doAcceptOffer(meta, tx)
	case *metatx.MetaDExTrade:
		return doMetaDExTrade(meta, tx)
	case *metatx.MetaDExCancelPrice:
		return doMetaDExCancelPrice(meta, tx)
	case *metatx.MetaDExCancelPair:
		return doMetaDExCancelPair(meta, tx)
	case *metatx.MetaDExCancelEcosystem:
		return doMetaDExCancelEcosystem(meta, tx)
	case *metatx.CreatePropertyFixed:
		return doCreateFixed(meta, tx)
	case *metatx.CreatePropertyVariable:
		return doCreateCrowdsale(meta, tx)
	case *metatx.CloseCrowdsale:
		return doCloseCrowdsale(meta, tx)
	case *metatx.CreatePropertyManaged:
		return doCreateManaged(meta, tx)
	case *metatx.GrantTokens:
		return doGrant(meta, tx)
	case *metatx.RevokeTokens:
		return doRevoke(meta, tx)
	case *metatx.ChangeIssuer:
		return doChangeIssuer(meta, tx)
	case *metatx.EnableFreezing:
		return doEnableFreezing(meta, tx)
	case *metatx.DisableFreezing:
		return doDisableFreezing(meta, tx)
	case *metatx.AddDelegate:
		return doAddDelegate(meta, tx)
	case *metatx.RemoveDelegate:
		return doRemoveDelegate(meta, tx)
	case *metatx.FreezeTokens:
		return doFreeze(meta, tx)
	case *metatx.UnfreezeTokens:
		return doUnfreeze(meta, tx)
	case *metatx.AnyData:
		return doAnyData(meta, tx)
	case *metatx.SetNonFungibleData:
		return doSetNonFungibleData(meta, tx)
	case *metatx.Activation:
		return doActivation(meta, tx)
	case *metatx.Deactivation:
		return doDeactivation(meta, tx)
	case *metatx.Alert:
		return doAlert(meta, tx)
	default:
		return protocol.ReasonUnknownType
	}
}
