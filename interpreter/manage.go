// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpreter

import (
	"github.com/bitmark-inc/metalayerd/crowdsale"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/nft"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/tally"
)

// shared validation of the property metadata block
func checkPropertyInfo(info *metatx.PropertyInfo) protocol.Reason {
	if !info.Ecosystem.Valid() {
		return protocol.ReasonPropertyBadEco
	}
	if !info.Kind.Valid() {
		return protocol.ReasonPropertyBadKind
	}
	if "" == info.Name {
		return protocol.ReasonPropertyEmptyName
	}
	return protocol.ReasonValid
}

func entryFromInfo(meta *parser.MetaTransaction, info *metatx.PropertyInfo) *property.Entry {
	return &property.Entry{
		Issuer:        meta.Sender,
		Kind:          info.Kind,
		Name:          info.Name,
		Category:      info.Category,
		Subcategory:   info.Subcategory,
		URL:           info.URL,
		Data:          info.Data,
		CreationTx:    meta.TxId.String(),
		CreationBlock: meta.Block,
		UpdateBlock:   meta.Block,
	}
}

// doCreateFixed - type 50
func doCreateFixed(meta *parser.MetaTransaction, tx *metatx.CreatePropertyFixed) protocol.Reason {
	if reason := checkPropertyInfo(&tx.PropertyInfo); !reason.Valid() {
		return reason
	}
	if tx.Amount <= 0 {
		return protocol.ReasonInvalidAmount
	}
	if tx.Kind.IsNonFungible() {
		// unique tokens only exist under managed issuance
		return protocol.ReasonPropertyBadKind
	}

	entry := entryFromInfo(meta, &tx.PropertyInfo)
	entry.Fixed = true
	entry.NumTokens = tx.Amount

	propertyId, err := property.Create(tx.Ecosystem, entry)
	if nil != err {
		return protocol.ReasonPropertyBadEco
	}

	mustCredit(meta.Sender, propertyId, tx.Amount, tally.Available)
	return protocol.ReasonValid
}

// doCreateCrowdsale - type 51
func doCreateCrowdsale(meta *parser.MetaTransaction, tx *metatx.CreatePropertyVariable) protocol.Reason {
	if reason := checkPropertyInfo(&tx.PropertyInfo); !reason.Valid() {
		return reason
	}
	if tx.Kind.IsNonFungible() {
		return protocol.ReasonPropertyBadKind
	}
	if tx.TokensPerUnit <= 0 {
		return protocol.ReasonInvalidAmount
	}
	if !property.Exists(tx.PropertyDesired) {
		return protocol.ReasonPropertyNotFound
	}
	if protocol.EcosystemOf(tx.PropertyDesired) != protocol.Ecosystem(tx.Ecosystem) {
		return protocol.ReasonPropertyBadEco
	}
	if tx.Deadline <= meta.Time {
		return protocol.ReasonCrowdsaleClosed
	}
	if _, active := crowdsale.ByIssuer(meta.Sender); active {
		// one active crowdsale per issuer address
		return protocol.ReasonCrowdsaleActive
	}

	entry := entryFromInfo(meta, &tx.PropertyInfo)
	entry.PropertyDesired = tx.PropertyDesired
	entry.TokensPerUnit = tx.TokensPerUnit
	entry.Deadline = tx.Deadline
	entry.EarlyBirdBonus = tx.EarlyBirdBonus
	entry.IssuerPercentage = tx.IssuerPercentage

	propertyId, err := property.Create(tx.Ecosystem, entry)
	if nil != err {
		return protocol.ReasonPropertyBadEco
	}

	crowdsale.Open(&crowdsale.Sale{
		Issuer:           meta.Sender,
		PropertyId:       propertyId,
		PropertyDesired:  tx.PropertyDesired,
		TokensPerUnit:    tx.TokensPerUnit,
		Deadline:         tx.Deadline,
		EarlyBirdBonus:   tx.EarlyBirdBonus,
		IssuerPercentage: tx.IssuerPercentage,
	})
	return protocol.ReasonValid
}

// doCloseCrowdsale - type 53
func doCloseCrowdsale(meta *parser.MetaTransaction, tx *metatx.CloseCrowdsale) protocol.Reason {
	sale, ok := crowdsale.ByProperty(tx.PropertyId)
	if !ok {
		return protocol.ReasonCrowdsaleClosed
	}
	if sale.Issuer != meta.Sender {
		return protocol.ReasonPropertyNotIssuer
	}
	closeCrowdsale(&sale, meta.Block)
	return protocol.ReasonValid
}

// closeCrowdsale - shared by the explicit close and the deadline
// expiry at block begin
func closeCrowdsale(sale *crowdsale.Sale, block uint32) {
	crowdsale.Close(sale.Issuer)

	entry, err := property.Get(sale.PropertyId)
	if nil != err {
		globalData.log.Criticalf("closing crowdsale of missing property: %d", sale.PropertyId)
		return
	}

	entry.Deadline = 0
	entry.UpdateBlock = block
	if err := property.Update(sale.PropertyId, entry); nil != err {
		globalData.log.Criticalf("crowdsale close update failed: %s", err)
	}

	globalData.log.Infof("crowdsale closed: property: %d  sold: %d", sale.PropertyId, entry.NumTokens)
}

// ExpireCrowdsales - block begin: close every sale past its deadline
func ExpireCrowdsales(block uint32, blockTime int64) {
	for _, sale := range crowdsale.Expired(blockTime) {
		copied := sale
		closeCrowdsale(&copied, block)
	}
}

// doCreateManaged - type 54
func doCreateManaged(meta *parser.MetaTransaction, tx *metatx.CreatePropertyManaged) protocol.Reason {
	if reason := checkPropertyInfo(&tx.PropertyInfo); !reason.Valid() {
		return reason
	}

	entry := entryFromInfo(meta, &tx.PropertyInfo)
	entry.Manual = true
	entry.Unique = tx.Kind.IsNonFungible()

	_, err := property.Create(tx.Ecosystem, entry)
	if nil != err {
		return protocol.ReasonPropertyBadEco
	}
	return protocol.ReasonValid
}

// issuer or delegate as of the current block may manage
func canManage(entry *property.Entry, sender string, block uint32) bool {
	if entry.IssuerAt(block) == sender {
		return true
	}
	delegate := entry.DelegateAt(block)
	return "" != delegate && delegate == sender
}

// doGrant - type 55
func doGrant(meta *parser.MetaTransaction, tx *metatx.GrantTokens) protocol.Reason {
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if !entry.Manual {
		return protocol.ReasonTokensNotManaged
	}
	if !canManage(entry, meta.Sender, meta.Block) {
		return protocol.ReasonPropertyNotIssuer
	}
	if tx.Amount <= 0 {
		return protocol.ReasonInvalidAmount
	}
	if entry.NumTokens > protocol.MaxAmount-tx.Amount {
		return protocol.ReasonTokensOverflow
	}

	// grants default to the issuer, a reference output redirects
	recipient := meta.Sender
	if "" != meta.Reference {
		recipient = meta.Reference
	}

	if entry.Kind.IsNonFungible() {
		if _, err := nft.Create(tx.PropertyId, tx.Amount, recipient, tx.GrantData); nil != err {
			return protocol.ReasonNFTRange
		}
	}

	mustCredit(recipient, tx.PropertyId, tx.Amount, tally.Available)

	entry.NumTokens += tx.Amount
	entry.UpdateBlock = meta.Block
	if err := property.Update(tx.PropertyId, entry); nil != err {
		globalData.log.Criticalf("grant update failed: %s", err)
	}
	return protocol.ReasonValid
}

// doRevoke - type 56
func doRevoke(meta *parser.MetaTransaction, tx *metatx.RevokeTokens) protocol.Reason {
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if !entry.Manual {
		return protocol.ReasonTokensNotManaged
	}
	if entry.Kind.IsNonFungible() {
		// unique tokens cannot be burned once created
		return protocol.ReasonPropertyBadKind
	}
	if tx.Amount <= 0 {
		return protocol.ReasonInvalidAmount
	}
	if tally.Balance(meta.Sender, tx.PropertyId, tally.Available) < tx.Amount {
		return protocol.ReasonSendBalance
	}

	mustDebit(meta.Sender, tx.PropertyId, tx.Amount, tally.Available)

	entry.NumTokens -= tx.Amount
	entry.UpdateBlock = meta.Block
	if err := property.Update(tx.PropertyId, entry); nil != err {
		globalData.log.Criticalf("revoke update failed: %s", err)
	}
	return protocol.ReasonValid
}

// doChangeIssuer - type 70
func doChangeIssuer(meta *parser.MetaTransaction, tx *metatx.ChangeIssuer) protocol.Reason {
	if "" == meta.Reference {
		return protocol.ReasonNoRecipient
	}
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if entry.IssuerAt(meta.Block) != meta.Sender {
		return protocol.ReasonPropertyNotIssuer
	}

	entry.RecordIssuerChange(meta.Block, meta.Index, meta.Reference)
	entry.UpdateBlock = meta.Block
	if err := property.Update(tx.PropertyId, entry); nil != err {
		globalData.log.Criticalf("issuer change update failed: %s", err)
	}
	return protocol.ReasonValid
}

// doAddDelegate - type 73
func doAddDelegate(meta *parser.MetaTransaction, tx *metatx.AddDelegate) protocol.Reason {
	if "" == meta.Reference {
		return protocol.ReasonNoRecipient
	}
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if entry.IssuerAt(meta.Block) != meta.Sender {
		return protocol.ReasonPropertyNotIssuer
	}

	entry.RecordDelegateChange(meta.Block, meta.Index, meta.Reference)
	entry.UpdateBlock = meta.Block
	if err := property.Update(tx.PropertyId, entry); nil != err {
		globalData.log.Criticalf("delegate update failed: %s", err)
	}
	return protocol.ReasonValid
}

// doRemoveDelegate - type 74
func doRemoveDelegate(meta *parser.MetaTransaction, tx *metatx.RemoveDelegate) protocol.Reason {
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	// the issuer or the delegate itself may resign
	if !canManage(entry, meta.Sender, meta.Block) {
		return protocol.ReasonPropertyNotIssuer
	}

	entry.RecordDelegateChange(meta.Block, meta.Index, "")
	entry.UpdateBlock = meta.Block
	if err := property.Update(tx.PropertyId, entry); nil != err {
		globalData.log.Criticalf("delegate update failed: %s", err)
	}
	return protocol.ReasonValid
}

// doAnyData - type 200
//
// carries arbitrary data; valid as long as it decoded, no state
// change beyond the transaction record
func doAnyData(meta *parser.MetaTransaction, tx *metatx.AnyData) protocol.Reason {
	if len(tx.Data) > protocol.MaxStringFieldLength {
		return protocol.ReasonAnyDataLength
	}
	return protocol.ReasonValid
}

// doSetNonFungibleData - type 201
func doSetNonFungibleData(meta *parser.MetaTransaction, tx *metatx.SetNonFungibleData) protocol.Reason {
	entry, err := property.Get(tx.PropertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if !entry.Kind.IsNonFungible() {
		return protocol.ReasonPropertyBadKind
	}
	if tx.TokenStart <= 0 || tx.TokenEnd < tx.TokenStart {
		return protocol.ReasonNFTRange
	}

	kind := nft.HolderData
	if tx.IssuerData {
		if !canManage(entry, meta.Sender, meta.Block) {
			return protocol.ReasonPropertyNotIssuer
		}
		kind = nft.IssuerData
	} else {
		owner, ok := nft.OwnerOfRange(tx.PropertyId, tx.TokenStart, tx.TokenEnd)
		if !ok || owner != meta.Sender {
			return protocol.ReasonNFTRange
		}
	}

	if err := nft.SetData(tx.PropertyId, tx.TokenStart, tx.TokenEnd, tx.Data, kind); nil != err {
		return protocol.ReasonNFTRange
	}
	return protocol.ReasonValid
}
