// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

// TxType - transaction type code, second 16 bit field of every payload
type TxType uint16

// all transaction types
const (
	TxSimpleSend         TxType = 0
	TxSendToOwners       TxType = 3
	TxSendAll            TxType = 4
	TxSendNonFungible    TxType = 5
	TxSendToMany         TxType = 7
	TxTradeOffer         TxType = 20
	TxAcceptOffer        TxType = 22
	TxMetaDExTrade       TxType = 25
	TxMetaDExCancelPrice TxType = 26
	TxMetaDExCancelPair  TxType = 27
	TxMetaDExCancelEco   TxType = 28
	TxCreateFixed        TxType = 50
	TxCreateCrowdsale    TxType = 51
	TxCloseCrowdsale     TxType = 53
	TxCreateManaged      TxType = 54
	TxGrantTokens        TxType = 55
	TxRevokeTokens       TxType = 56
	TxChangeIssuer       TxType = 70
	TxEnableFreezing     TxType = 71
	TxDisableFreezing    TxType = 72
	TxAddDelegate        TxType = 73
	TxRemoveDelegate     TxType = 74
	TxFreezeTokens       TxType = 185
	TxUnfreezeTokens     TxType = 186
	TxAnyData            TxType = 200
	TxNonFungibleData    TxType = 201
	TxDeactivation       TxType = 65533
	TxActivation         TxType = 65534
	TxAlert              TxType = 65535
)

// payload version codes
const (
	VersionZero uint16 = 0
	VersionOne  uint16 = 1
)

// String - printable transaction type
func (t TxType) String() string {
	switch t {
	case TxSimpleSend:
		return "Simple Send"
	case TxSendToOwners:
		return "Send To Owners"
	case TxSendAll:
		return "Send All"
	case TxSendNonFungible:
		return "Unique Send"
	case TxSendToMany:
		return "Send To Many"
	case TxTradeOffer:
		return "DEx Sell Offer"
	case TxAcceptOffer:
		return "DEx Accept Offer"
	case TxMetaDExTrade:
		return "MetaDEx Trade"
	case TxMetaDExCancelPrice:
		return "MetaDEx Cancel Price"
	case TxMetaDExCancelPair:
		return "MetaDEx Cancel Pair"
	case TxMetaDExCancelEco:
		return "MetaDEx Cancel Ecosystem"
	case TxCreateFixed:
		return "Create Property - Fixed"
	case TxCreateCrowdsale:
		return "Create Property - Variable"
	case TxCloseCrowdsale:
		return "Close Crowdsale"
	case TxCreateManaged:
		return "Create Property - Manual"
	case TxGrantTokens:
		return "Grant Property Tokens"
	case TxRevokeTokens:
		return "Revoke Property Tokens"
	case TxChangeIssuer:
		return "Change Issuer Address"
	case TxEnableFreezing:
		return "Enable Freezing"
	case TxDisableFreezing:
		return "Disable Freezing"
	case TxAddDelegate:
		return "Add Delegate"
	case TxRemoveDelegate:
		return "Remove Delegate"
	case TxFreezeTokens:
		return "Freeze Property Tokens"
	case TxUnfreezeTokens:
		return "Unfreeze Property Tokens"
	case TxAnyData:
		return "Embed Any Data"
	case TxNonFungibleData:
		return "Set Non-Fungible Token Data"
	case TxDeactivation:
		return "Feature Deactivation"
	case TxActivation:
		return "Feature Activation"
	case TxAlert:
		return "Alert"
	default:
		return "* unknown type *"
	}
}
