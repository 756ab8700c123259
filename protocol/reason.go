// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

// Reason - why a transaction was recorded as invalid
//
// zero means valid; negative codes group into families so that a code
// can be attributed to a subsystem without a table lookup
type Reason int32

// family bases
const (
	ReasonValid Reason = 0

	reasonGeneral   Reason = -9000
	reasonSellOffer Reason = -10000
	reasonAccept    Reason = -20000
	reasonProperty  Reason = -40000
	reasonCrowdsale Reason = -45000
	reasonSTO       Reason = -50000
	reasonSend      Reason = -60000
	reasonMetaDEx   Reason = -80000
	reasonTokens    Reason = -82000
	reasonSendAll   Reason = -83000
	reasonAnyData   Reason = -84000
	reasonNFT       Reason = -85000
	reasonSendMany  Reason = -86000
)

// individual reason codes
const (
	ReasonDeserialize     = reasonGeneral - 1  // payload did not decode
	ReasonUnknownType     = reasonGeneral - 2  // type code not recognised
	ReasonUnknownVersion  = reasonGeneral - 3  // version not valid for type
	ReasonNoSender        = reasonGeneral - 4  // sender could not be determined
	ReasonNotYetActive    = reasonGeneral - 5  // feature not activated at this height
	ReasonUnauthorised    = reasonGeneral - 6  // sender not permitted this type
	ReasonInvalidAmount   = reasonGeneral - 7  // zero or out of range amount
	ReasonNoRecipient     = reasonGeneral - 8  // reference output missing

	ReasonSellOfferActive = reasonSellOffer - 1 // an offer is already open
	ReasonSellOfferGone   = reasonSellOffer - 2 // no offer to update or cancel

	ReasonAcceptExpired   = reasonAccept - 1 // payment window passed
	ReasonAcceptNoOffer   = reasonAccept - 2 // nothing to accept
	ReasonAcceptOverreach = reasonAccept - 3 // accept exceeds offered amount

	ReasonPropertyNotFound  = reasonProperty - 1 // no such property
	ReasonPropertyExists    = reasonProperty - 2 // duplicate creation
	ReasonPropertyBadKind   = reasonProperty - 3 // kind not valid here
	ReasonPropertyBadEco    = reasonProperty - 4 // ecosystem field invalid
	ReasonPropertyNotIssuer = reasonProperty - 5 // sender is not the issuer
	ReasonPropertyEmptyName = reasonProperty - 6 // name field empty

	ReasonCrowdsaleClosed = reasonCrowdsale - 1 // deadline or close passed
	ReasonCrowdsaleActive = reasonCrowdsale - 2 // issuer already has one open

	ReasonSTONoHolders = reasonSTO - 1 // nobody to distribute to
	ReasonSTOFee       = reasonSTO - 2 // cannot cover distribution fee

	ReasonSendBalance     = reasonSend - 1 // insufficient available balance
	ReasonSendFrozen      = reasonSend - 2 // sender frozen for this property
	ReasonSendNonFungible = reasonSend - 3 // fungible send of an NFT property
	ReasonSendSelf        = reasonSend - 4 // recipient is the sender

	ReasonMetaDExBalance    = reasonMetaDEx - 1 // insufficient for the order
	ReasonMetaDExSameProp   = reasonMetaDEx - 2 // for-sale equals desired
	ReasonMetaDExCrossEco   = reasonMetaDEx - 3 // pair spans ecosystems
	ReasonMetaDExNoOrder    = reasonMetaDEx - 4 // nothing matched the cancel

	ReasonTokensNotManaged = reasonTokens - 1 // grant or revoke on fixed supply
	ReasonTokensOverflow   = reasonTokens - 2 // supply would exceed bound
	ReasonTokensFrozen     = reasonTokens - 3 // recipient frozen
	ReasonTokensFreezing   = reasonTokens - 4 // freezing not enabled

	ReasonSendAllNone = reasonSendAll - 1 // sender holds nothing to move

	ReasonAnyDataLength = reasonAnyData - 1 // data exceeds field limit

	ReasonNFTRange = reasonNFT - 1 // range not owned or malformed

	ReasonSendManyOutputs = reasonSendMany - 1 // an output index did not resolve
	ReasonSendManyBalance = reasonSendMany - 2 // total exceeds balance
)

// Valid - was the transaction accepted
func (r Reason) Valid() bool {
	return ReasonValid == r
}
