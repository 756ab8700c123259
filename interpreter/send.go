// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpreter

import (
	"github.com/bitmark-inc/metalayerd/crowdsale"
	"github.com/bitmark-inc/metalayerd/freeze"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/nft"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/tally"
)

// common transfer preconditions: the property exists, is fungible,
// the sender is not frozen and holds enough
func checkTransfer(sender string, propertyId protocol.PropertyId, amount protocol.Amount, block uint32) protocol.Reason {
	if amount <= 0 {
		return protocol.ReasonInvalidAmount
	}
	entry, err := property.Get(propertyId)
	if nil != err {
		return protocol.ReasonPropertyNotFound
	}
	if entry.Kind.IsNonFungible() {
		return protocol.ReasonSendNonFungible
	}
	if freeze.IsEnabled(propertyId, block) && freeze.IsFrozen(propertyId, sender) {
		return protocol.ReasonSendFrozen
	}
	if tally.Balance(sender, propertyId, tally.Available) < amount {
		return protocol.ReasonSendBalance
	}
	return protocol.ReasonValid
}

// doSimpleSend - type 0
//
// a send of the desired currency to the issuer of an open crowdsale
// participates in that crowdsale and mints on top of the transfer
func doSimpleSend(meta *parser.MetaTransaction, tx *metatx.SimpleSend) protocol.Reason {
	if "" == meta.Reference {
		return protocol.ReasonNoRecipient
	}
	if reason := checkTransfer(meta.Sender, tx.PropertyId, tx.Amount, meta.Block); !reason.Valid() {
		return reason
	}
	if freeze.IsEnabled(tx.PropertyId, meta.Block) && freeze.IsFrozen(tx.PropertyId, meta.Reference) {
		return protocol.ReasonTokensFrozen
	}

	mustDebit(meta.Sender, tx.PropertyId, tx.Amount, tally.Available)
	mustCredit(meta.Reference, tx.PropertyId, tx.Amount, tally.Available)

	// crowdsale participation
	if sale, ok := crowdsale.ByIssuer(meta.Reference); ok && sale.PropertyDesired == tx.PropertyId {
		participateCrowdsale(meta, &sale, tx.Amount)
	}

	return protocol.ReasonValid
}

// participateCrowdsale - mint the purchased and issuer tokens
func participateCrowdsale(meta *parser.MetaTransaction, sale *crowdsale.Sale, paid protocol.Amount) {
	entry, err := property.Get(sale.PropertyId)
	if nil != err {
		globalData.log.Criticalf("crowdsale for missing property: %d", sale.PropertyId)
		return
	}

	bonus := sale.Bonus(meta.Time)

	// tokens = paid × rate × bonus%, saturating at the supply bound
	minted := saturatingScale(paid, sale.TokensPerUnit, bonus)
	if minted <= 0 {
		return
	}
	issuerShare := protocol.Amount(0)
	if sale.IssuerPercentage > 0 {
		per := minted / 100
		if per > protocol.MaxAmount/protocol.Amount(sale.IssuerPercentage) {
			issuerShare = protocol.MaxAmount
		} else {
			issuerShare = per * protocol.Amount(sale.IssuerPercentage)
		}
	}

	room := protocol.MaxAmount - entry.NumTokens
	if minted > room || issuerShare > room-minted {
		// the cap closes the crowdsale early; tokens beyond it were
		// paid for but never mint
		wantedMinted := minted
		wantedShare := issuerShare
		if minted > room {
			minted = room
		}
		if issuerShare > room-minted {
			issuerShare = room - minted
		}
		entry.MissedTokens += wantedMinted - minted
		entry.MissedTokens += wantedShare - issuerShare
		crowdsale.Close(sale.Issuer)
	}

	if minted > 0 {
		mustCredit(meta.Sender, sale.PropertyId, minted, tally.Available)
	}
	if issuerShare > 0 {
		mustCredit(sale.Issuer, sale.PropertyId, issuerShare, tally.Available)
	}

	entry.NumTokens += minted + issuerShare
	entry.UpdateBlock = meta.Block
	if err := property.Update(sale.PropertyId, entry); nil != err {
		globalData.log.Criticalf("crowdsale update failed: %s", err)
	}

	globalData.log.Infof("crowdsale participation: %s bought %d of property %d", meta.Sender, minted, sale.PropertyId)
}

// saturatingScale - amount × rate × percent / 100 clamped to the
// supply bound
func saturatingScale(amount protocol.Amount, rate protocol.Amount, percent int64) protocol.Amount {
	if amount <= 0 || rate <= 0 {
		return 0
	}
	result := amount
	if result > protocol.MaxAmount/rate {
		return protocol.MaxAmount
	}
	result *= rate
	if percent != 100 {
		if result > protocol.MaxAmount/protocol.Amount(percent) {
			return protocol.MaxAmount
		}
		result = result * protocol.Amount(percent) / 100
	}
	return result
}

// doSendToOwners - type 3
//
// distributes proportionally to every other holder, floor division,
// the residue stays with the sender
func doSendToOwners(meta *parser.MetaTransaction, tx *metatx.SendToOwners) protocol.Reason {
	if reason := checkTransfer(meta.Sender, tx.PropertyId, tx.Amount, meta.Block); !reason.Valid() {
		return reason
	}
	if !property.Exists(tx.DistributionProperty) {
		return protocol.ReasonPropertyNotFound
	}

	// holders other than the sender, with their available plus
	// reserved totals at the start of this transaction
	holders := tally.Holders(tx.DistributionProperty)
	totalHeld := protocol.Amount(0)
	eligible := holders[:0]
	for _, holder := range holders {
		if holder.Address == meta.Sender {
			continue
		}
		eligible = append(eligible, holder)
		totalHeld += holder.Balances.Total()
	}
	if 0 == len(eligible) || 0 == totalHeld {
		return protocol.ReasonSTONoHolders
	}

	// the distribution fee: one base unit of the ecosystem token per
	// recipient, paid on top by the sender
	feeProperty := protocol.MainTokenOf(tx.PropertyId)
	fee := protocol.Amount(len(eligible))
	if meta.Sender != globalData.params.ExodusAddress {
		if tally.Balance(meta.Sender, feeProperty, tally.Available) < fee {
			return protocol.ReasonSTOFee
		}
	}

	// plan the whole distribution before moving anything
	type payout struct {
		to     string
		amount protocol.Amount
	}
	payouts := []payout(nil)
	distributed := protocol.Amount(0)
	for _, holder := range eligible {
		share := scaledShare(tx.Amount, holder.Balances.Total(), totalHeld)
		if share > 0 {
			payouts = append(payouts, payout{to: holder.Address, amount: share})
			distributed += share
		}
	}
	if 0 == len(payouts) {
		return protocol.ReasonSTONoHolders
	}

	if meta.Sender != globalData.params.ExodusAddress {
		mustDebit(meta.Sender, feeProperty, fee, tally.Available)
		mustCredit(globalData.params.ExodusAddress, feeProperty, fee, tally.Available)
	}

	mustDebit(meta.Sender, tx.PropertyId, distributed, tally.Available)
	for seq, p := range payouts {
		mustCredit(p.to, tx.PropertyId, p.amount, tally.Available)
		recordSto(&StoRecord{
			Block:      meta.Block,
			Index:      meta.Index,
			TxId:       meta.TxId.String(),
			From:       meta.Sender,
			To:         p.to,
			PropertyId: tx.PropertyId,
			Amount:     p.amount,
		}, uint32(seq))
	}

	return protocol.ReasonValid
}

// scaledShare - amount × held / total with floor division, safe from
// overflow through the 128 bit helpers in math.go
func scaledShare(amount protocol.Amount, held protocol.Amount, total protocol.Amount) protocol.Amount {
	// amount and held both fit 63 bits; the product may not, divide
	// through a 128 bit intermediate
	hi, lo := mul64(uint64(amount), uint64(held))
	return protocol.Amount(div128(hi, lo, uint64(total)))
}

// doSendAll - type 4
//
// moves every available balance of the ecosystem in ascending
// property order, each movement recorded as a sub record
func doSendAll(meta *parser.MetaTransaction, tx *metatx.SendAll) protocol.Reason {
	if "" == meta.Reference {
		return protocol.ReasonNoRecipient
	}
	if !tx.Ecosystem.Valid() {
		return protocol.ReasonPropertyBadEco
	}
	if meta.Reference == meta.Sender {
		return protocol.ReasonSendSelf
	}

	moved := 0
	for _, propertyId := range tally.Properties(meta.Sender) {
		if protocol.EcosystemOf(propertyId) != tx.Ecosystem {
			continue
		}
		if property.IsUnique(propertyId) {
			continue
		}
		if freeze.IsEnabled(propertyId, meta.Block) && freeze.IsFrozen(propertyId, meta.Sender) {
			continue
		}
		amount := tally.Balance(meta.Sender, propertyId, tally.Available)
		if amount <= 0 {
			continue
		}
		mustDebit(meta.Sender, propertyId, amount, tally.Available)
		mustCredit(meta.Reference, propertyId, amount, tally.Available)
		recordSto(&StoRecord{
			Block:      meta.Block,
			Index:      meta.Index,
			TxId:       meta.TxId.String(),
			From:       meta.Sender,
			To:         meta.Reference,
			PropertyId: propertyId,
			Amount:     amount,
		}, uint32(moved))
		moved += 1
	}

	if 0 == moved {
		return protocol.ReasonSendAllNone
	}
	return protocol.ReasonValid
}

// doSendToMany - type 7
//
// all output slots resolve and the total covers, or nothing moves
func doSendToMany(meta *parser.MetaTransaction, tx *metatx.SendToMany) protocol.Reason {
	if 0 == len(tx.Outputs) {
		return protocol.ReasonInvalidAmount
	}

	total := protocol.Amount(0)
	recipients := make([]string, len(tx.Outputs))
	for i, out := range tx.Outputs {
		if out.Amount <= 0 {
			return protocol.ReasonInvalidAmount
		}
		if int(out.OutputIndex) >= len(meta.OutputAddresses) {
			return protocol.ReasonSendManyOutputs
		}
		to := meta.OutputAddresses[out.OutputIndex]
		if "" == to || to == meta.Sender {
			return protocol.ReasonSendManyOutputs
		}
		recipients[i] = to
		if total > protocol.MaxAmount-out.Amount {
			return protocol.ReasonInvalidAmount
		}
		total += out.Amount
	}

	if reason := checkTransfer(meta.Sender, tx.PropertyId, total, meta.Block); !reason.Valid() {
		if protocol.ReasonSendBalance == reason {
			return protocol.ReasonSendManyBalance
		}
		return reason
	}

	mustDebit(meta.Sender, tx.PropertyId, total, tally.Available)
	for i, out := range tx.Outputs {
		mustCredit(recipients[i], tx.PropertyId, out.Amount, tally.Available)
	}
	return protocol.ReasonValid
}

// doSendNonFungible - type 5
func doSendNonFungible(meta *parser.MetaTransaction, tx *metatx.SendNonFungible) protocol.Reason {
	if "" == meta.Reference {
		return protocol.ReasonNoRecipient
	}
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
	if freeze.IsEnabled(tx.PropertyId, meta.Block) && freeze.IsFrozen(tx.PropertyId, meta.Sender) {
		return protocol.ReasonSendFrozen
	}

	owner, ok := nft.OwnerOfRange(tx.PropertyId, tx.TokenStart, tx.TokenEnd)
	if !ok || owner != meta.Sender {
		return protocol.ReasonNFTRange
	}

	amount := tx.TokenEnd - tx.TokenStart + 1
	if tally.Balance(meta.Sender, tx.PropertyId, tally.Available) < amount {
		return protocol.ReasonSendBalance
	}

	if err := nft.Move(tx.PropertyId, tx.TokenStart, tx.TokenEnd, meta.Sender, meta.Reference); nil != err {
		return protocol.ReasonNFTRange
	}
	mustDebit(meta.Sender, tx.PropertyId, amount, tally.Available)
	mustCredit(meta.Reference, tx.PropertyId, amount, tally.Available)

	return protocol.ReasonValid
}

// mustDebit / mustCredit - used after preconditions held: a failure
// here is a logic fault, not a transaction error
func mustDebit(address string, propertyId protocol.PropertyId, amount protocol.Amount, bucket tally.Bucket) {
	if err := tally.Debit(address, propertyId, amount, bucket); nil != err {
		globalData.log.Criticalf("debit failed after precondition: %s %d %d: %s", address, propertyId, amount, err)
		panic("interpreter: debit failed after precondition")
	}
}

func mustCredit(address string, propertyId protocol.PropertyId, amount protocol.Amount, bucket tally.Bucket) {
	if err := tally.Credit(address, propertyId, amount, bucket); nil != err {
		globalData.log.Criticalf("credit failed after precondition: %s %d %d: %s", address, propertyId, amount, err)
		panic("interpreter: credit failed after precondition")
	}
}

func mustMove(address string, propertyId protocol.PropertyId, amount protocol.Amount, from tally.Bucket, to tally.Bucket) {
	if err := tally.Move(address, propertyId, amount, from, to); nil != err {
		globalData.log.Criticalf("move failed after precondition: %s %d %d: %s", address, propertyId, amount, err)
		panic("interpreter: move failed after precondition")
	}
}
