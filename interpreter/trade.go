// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interpreter

import (
	"github.com/bitmark-inc/metalayerd/dex"
	"github.com/bitmark-inc/metalayerd/fees"
	"github.com/bitmark-inc/metalayerd/freeze"
	"github.com/bitmark-inc/metalayerd/metadex"
	"github.com/bitmark-inc/metalayerd/metatx"
	"github.com/bitmark-inc/metalayerd/parser"
	"github.com/bitmark-inc/metalayerd/property"
	"github.com/bitmark-inc/metalayerd/protocol"
	"github.com/bitmark-inc/metalayerd/tally"
)

// the taker side pays this fraction of the received amount as a
// trading fee, accumulated per received property
const tradingFeeDivisor = 2000 // 0.05%

// doTradeOffer - type 20, DEx-1 sell offer lifecycle
func doTradeOffer(meta *parser.MetaTransaction, tx *metatx.TradeOffer) protocol.Reason {
	switch tx.SubAction {

	case 1: // new
		if dex.HasOffer(meta.Sender) {
			return protocol.ReasonSellOfferActive
		}
		if reason := checkTransfer(meta.Sender, tx.PropertyId, tx.Amount, meta.Block); !reason.Valid() {
			return reason
		}
		mustMove(meta.Sender, tx.PropertyId, tx.Amount, tally.Available, tally.SellOffer)
		err := dex.NewOffer(&dex.Offer{
			Seller:        meta.Sender,
			PropertyId:    tx.PropertyId,
			Amount:        tx.Amount,
			AmountDesired: tx.AmountDesired,
			PaymentWindow: tx.PaymentWindow,
			MinAcceptFee:  tx.MinAcceptFee,
			Block:         meta.Block,
			TxIdHex:       meta.TxId.String(),
		})
		if nil != err {
			globalData.log.Criticalf("offer insert failed: %s", err)
			return protocol.ReasonSellOfferActive
		}
		return protocol.ReasonValid

	case 2: // update: cancel then re-publish
		if reason := cancelOffer(meta.Sender); !reason.Valid() {
			return reason
		}
		if reason := checkTransfer(meta.Sender, tx.PropertyId, tx.Amount, meta.Block); !reason.Valid() {
			return reason
		}
		mustMove(meta.Sender, tx.PropertyId, tx.Amount, tally.Available, tally.SellOffer)
		_ = dex.NewOffer(&dex.Offer{
			Seller:        meta.Sender,
			PropertyId:    tx.PropertyId,
			Amount:        tx.Amount,
			AmountDesired: tx.AmountDesired,
			PaymentWindow: tx.PaymentWindow,
			MinAcceptFee:  tx.MinAcceptFee,
			Block:         meta.Block,
			TxIdHex:       meta.TxId.String(),
		})
		return protocol.ReasonValid

	case 3: // cancel
		return cancelOffer(meta.Sender)

	default:
		return protocol.ReasonInvalidAmount
	}
}

func cancelOffer(seller string) protocol.Reason {
	offer, ok := dex.CancelOffer(seller)
	if !ok {
		return protocol.ReasonSellOfferGone
	}
	if offer.Amount > 0 {
		mustMove(seller, offer.PropertyId, offer.Amount, tally.SellOffer, tally.Available)
	}
	return protocol.ReasonValid
}

// doAcceptOffer - type 22
//
// reserves part of the seller's offer for the buyer's payment window
func doAcceptOffer(meta *parser.MetaTransaction, tx *metatx.AcceptOffer) protocol.Reason {
	if "" == meta.Reference {
		return protocol.ReasonNoRecipient
	}
	seller := meta.Reference

	offer, ok := dex.GetOffer(seller)
	if !ok || offer.PropertyId != tx.PropertyId {
		return protocol.ReasonAcceptNoOffer
	}
	if tx.Amount <= 0 {
		return protocol.ReasonInvalidAmount
	}

	// an oversized accept is clamped to what remains
	amount := tx.Amount
	if amount > offer.Amount {
		amount = offer.Amount
	}
	if 0 == amount {
		return protocol.ReasonAcceptOverreach
	}

	expiry := meta.Block + uint32(offer.PaymentWindow)
	if err := dex.ReserveAccept(seller, meta.Sender, amount, expiry); nil != err {
		return protocol.ReasonAcceptOverreach
	}
	mustMove(seller, tx.PropertyId, amount, tally.SellOffer, tally.AcceptReserve)
	return protocol.ReasonValid
}

// doMetaDExTrade - type 25
func doMetaDExTrade(meta *parser.MetaTransaction, tx *metatx.MetaDExTrade) protocol.Reason {
	if reason := checkTradeOrder(meta, tx.PropertyForSale, tx.AmountForSale, tx.PropertyDesired, tx.AmountDesired); !reason.Valid() {
		return reason
	}

	mustMove(meta.Sender, tx.PropertyForSale, tx.AmountForSale, tally.Available, tally.MetaDExReserve)

	order := &metadex.Order{
		Address:         meta.Sender,
		PropertyForSale: tx.PropertyForSale,
		AmountForSale:   tx.AmountForSale,
		PropertyDesired: tx.PropertyDesired,
		AmountDesired:   tx.AmountDesired,
		OriginalForSale: tx.AmountForSale,
		OriginalDesired: tx.AmountDesired,
		Block:           meta.Block,
		Index:           meta.Index,
		TxId:            meta.TxId,
	}

	fills, _ := metadex.Trade(order)

	for seq, fill := range fills {
		settleFill(meta, &fill, uint32(seq))
	}

	return protocol.ReasonValid
}

func checkTradeOrder(meta *parser.MetaTransaction, forSale protocol.PropertyId, amountForSale protocol.Amount, desired protocol.PropertyId, amountDesired protocol.Amount) protocol.Reason {
	if amountForSale <= 0 || amountDesired <= 0 {
		return protocol.ReasonInvalidAmount
	}
	if forSale == desired {
		return protocol.ReasonMetaDExSameProp
	}
	if !property.Exists(forSale) || !property.Exists(desired) {
		return protocol.ReasonPropertyNotFound
	}
	if protocol.EcosystemOf(forSale) != protocol.EcosystemOf(desired) {
		return protocol.ReasonMetaDExCrossEco
	}
	if property.IsUnique(forSale) || property.IsUnique(desired) {
		return protocol.ReasonPropertyBadKind
	}
	if freeze.IsEnabled(forSale, meta.Block) && freeze.IsFrozen(forSale, meta.Sender) {
		return protocol.ReasonSendFrozen
	}
	if tally.Balance(meta.Sender, forSale, tally.Available) < amountForSale {
		return protocol.ReasonMetaDExBalance
	}
	return protocol.ReasonValid
}

// settleFill - apply one exchange to the two reserves
//
// the taker's received amount carries the trading fee, accumulated
// for the received property; crossing the distribution threshold
// pays the fee cache out immediately
func settleFill(meta *parser.MetaTransaction, fill *metadex.Fill, seq uint32) {
	maker := fill.Maker
	taker := fill.Taker

	fee := fill.TakerGot / tradingFeeDivisor
	takerCredit := fill.TakerGot - fee

	// the taker's payment leaves the taker's reserve for the maker
	mustDebit(taker.Address, taker.PropertyForSale, fill.TakerGave, tally.MetaDExReserve)
	mustCredit(maker.Address, taker.PropertyForSale, fill.TakerGave, tally.Available)

	// the maker's tokens leave the maker's reserve for the taker
	mustDebit(maker.Address, taker.PropertyDesired, fill.TakerGot, tally.MetaDExReserve)
	if takerCredit > 0 {
		mustCredit(taker.Address, taker.PropertyDesired, takerCredit, tally.Available)
	}

	recordTrade(&TradeRecord{
		Block:        meta.Block,
		Index:        meta.Index,
		TxId:         meta.TxId.String(),
		Maker:        maker.Address,
		Taker:        taker.Address,
		PropertyGave: taker.PropertyForSale,
		AmountGave:   fill.TakerGave,
		PropertyGot:  taker.PropertyDesired,
		AmountGot:    fill.TakerGot,
	}, seq)

	if fee > 0 {
		accrueTradingFee(meta, taker.PropertyDesired, fee)
	}
}

// accrueTradingFee - add to the cache and distribute on threshold
func accrueTradingFee(meta *parser.MetaTransaction, propertyId protocol.PropertyId, fee protocol.Amount) {
	// the fee tokens sit with nobody until distribution: park them on
	// the exodus address so the property total stays intact
	mustCredit(globalData.params.ExodusAddress, propertyId, fee, tally.Available)

	total, err := fees.AddFee(propertyId, meta.Block, fee)
	if nil != err {
		globalData.log.Criticalf("fee cache overflow: property: %d", propertyId)
		panic("interpreter: fee cache overflow")
	}

	entry, err := property.Get(propertyId)
	if nil != err {
		return
	}
	threshold := fees.Threshold(entry.NumTokens, globalData.params.FeeThresholdDivisor)
	if total >= threshold {
		distributeFees(meta, propertyId, total)
	}
}

// distributeFees - pay the cache out to the holders of the reserved
// token of the same ecosystem
func distributeFees(meta *parser.MetaTransaction, propertyId protocol.PropertyId, total protocol.Amount) {
	exodus := globalData.params.ExodusAddress
	mainToken := protocol.MainTokenOf(propertyId)

	holders := tally.Holders(mainToken)
	totalHeld := protocol.Amount(0)
	eligible := holders[:0]
	for _, holder := range holders {
		if holder.Address == exodus {
			continue
		}
		eligible = append(eligible, holder)
		totalHeld += holder.Balances.Total()
	}

	distributed := protocol.Amount(0)
	recipients := 0
	if totalHeld > 0 {
		for _, holder := range eligible {
			share := scaledShare(total, holder.Balances.Total(), totalHeld)
			if share > 0 {
				mustDebit(exodus, propertyId, share, tally.Available)
				mustCredit(holder.Address, propertyId, share, tally.Available)
				distributed += share
				recipients += 1
			}
		}
	}
	// the residue stays with the distributor

	fees.Zero(propertyId, meta.Block)
	if err := fees.RecordDistribution(&fees.Distribution{
		PropertyId: propertyId,
		Block:      meta.Block,
		Total:      distributed,
		Recipients: recipients,
	}); nil != err {
		globalData.log.Criticalf("fee history write failed: %s", err)
	}

	globalData.log.Infof("fee distribution: property: %d  total: %d  recipients: %d", propertyId, distributed, recipients)
}

// doMetaDExCancelPrice - type 26
func doMetaDExCancelPrice(meta *parser.MetaTransaction, tx *metatx.MetaDExCancelPrice) protocol.Reason {
	cancelled := metadex.CancelAtPrice(meta.Sender, tx.PropertyForSale, tx.PropertyDesired, tx.AmountForSale, tx.AmountDesired)
	return refundCancelled(cancelled)
}

// doMetaDExCancelPair - type 27
func doMetaDExCancelPair(meta *parser.MetaTransaction, tx *metatx.MetaDExCancelPair) protocol.Reason {
	cancelled := metadex.CancelPair(meta.Sender, tx.PropertyForSale, tx.PropertyDesired)
	return refundCancelled(cancelled)
}

// doMetaDExCancelEcosystem - type 28
func doMetaDExCancelEcosystem(meta *parser.MetaTransaction, tx *metatx.MetaDExCancelEcosystem) protocol.Reason {
	if !tx.Ecosystem.Valid() {
		return protocol.ReasonPropertyBadEco
	}
	cancelled := metadex.CancelEcosystem(meta.Sender, tx.Ecosystem)
	return refundCancelled(cancelled)
}

func refundCancelled(cancelled []*metadex.Order) protocol.Reason {
	if 0 == len(cancelled) {
		return protocol.ReasonMetaDExNoOrder
	}
	for _, order := range cancelled {
		if order.AmountForSale > 0 {
			mustMove(order.Address, order.PropertyForSale, order.AmountForSale, tally.MetaDExReserve, tally.Available)
		}
	}
	return protocol.ReasonValid
}

// ExpireAccepts - end of block: return expired reservations
func ExpireAccepts(block uint32) {
	for _, accept := range dex.ExpireAccepts(block) {
		mustMove(accept.Seller, accept.PropertyId, accept.Amount, tally.AcceptReserve, tally.SellOffer)
	}
}
