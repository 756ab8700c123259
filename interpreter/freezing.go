// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpreter

import (
	"github.com/bitmark-inc/metalayerd/freeze"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
)

// doEnableFreezing - type 71
func doEnableFreezing(meta *parser.MetaTransaction, tx *metatx.EnableFreezing) protocol.Reason {
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if !entry.Manual {
		return protocol.ReasonTokensNotManaged
	}
	if entry.IssuerAt(meta.Block) != meta.Sender {
		return protocol.ReasonPropertyNotIssuer
	}
	if freeze.IsEnabled(tx.PropertyId, meta.Block) {
		return protocol.ReasonTokensFreezing
	}

	freeze.Enable(tx.PropertyId, meta.Block)
	globalData.log.Infof("freezing enabled: property: %d from block: %d", tx.PropertyId, meta.Block)
	return protocol.ReasonValid
}

// doDisableFreezing - type 72
//
// dropping the capability also thaws every frozen address
func doDisableFreezing(meta *parser.MetaTransaction, tx *metatx.DisableFreezing) protocol.Reason {
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if entry.IssuerAt(meta.Block) != meta.Sender {
		return protocol.ReasonPropertyNotIssuer
	}
	if !freeze.IsEnabled(tx.PropertyId, meta.Block) {
		return protocol.ReasonTokensFreezing
	}

	freeze.Disable(tx.PropertyId)
	globalData.log.Infof("freezing disabled: property: %d", tx.PropertyId)
	return protocol.ReasonValid
}

// doFreeze - type 185
func doFreeze(meta *parser.MetaTransaction, tx *metatx.FreezeTokens) protocol.Reason {
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if !canManage(entry, meta.Sender, meta.Block) {
		return protocol.ReasonPropertyNotIssuer
	}
	if !freeze.IsEnabled(tx.PropertyId, meta.Block) {
		return protocol.ReasonTokensFreezing
	}
	if "" == tx.Address {
		return protocol.ReasonNoRecipient
	}

	freeze.Freeze(tx.PropertyId, tx.Address)
	globalData.log.Infof("frozen: %s  property: %d", tx.Address, tx.PropertyId)
	return protocol.ReasonValid
}

// doUnfreeze - type 186
func doUnfreeze(meta *parser.MetaTransaction, tx *metatx.UnfreezeTokens) protocol.Reason {
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if !canManage(entry, meta.Sender, meta.Block) {
		return protocol.ReasonPropertyNotIssuer
	}
	if !freeze.IsEnabled(tx.PropertyId, meta.Block) {
		return protocol.ReasonTokensFreezing
	}
	if !freeze.IsFrozen(tx.PropertyId, tx.Address) {
		return protocol.ReasonTokensFrozen
	}

	freeze.Unfreeze(tx.PropertyId, tx.Address)
	globalData.log.Infof("unfrozen: %s  property: %d", tx.Address, tx.PropertyId)
	return protocol.ReasonValid
}
