// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metatx - typed protocol transaction records
//
// a payload always starts with a sixteen bit version and a sixteen
// bit type; the remaining fields are type specific, big-endian fixed
// width integers and zero terminated strings
package metatx

import (
	"github.com/bitmark-inc/metalayerd/protocol"
)

// Packed - a raw payload
type Packed []byte

// Record - any decoded payload
type Record interface {
	TxType() protocol.TxType
	TxVersion() uint16
}

// header fields common to every record
type header struct {
	Version uint16
}

func (h header) TxVersion() uint16 {
	return h.Version
}

// SimpleSend - move tokens of one property to the reference recipient
type SimpleSend struct {
	header
	PropertyId protocol.PropertyId
	Amount     protocol.Amount
}

// SendToOwners - distribute to every holder of a property
type SendToOwners struct {
	header
	PropertyId protocol.PropertyId
	Amount     protocol.Amount
	// version one distributes to holders of a different property
	DistributionProperty protocol.PropertyId
}

// SendAll - move every token of one ecosystem to the recipient
type SendAll struct {
	header
	Ecosystem protocol.Ecosystem
}

// SendNonFungible - move a unique token range to the recipient
type SendNonFungible struct {
	header
	PropertyId protocol.PropertyId
	TokenStart protocol.Amount
	TokenEnd   protocol.Amount
}

// SendToMany - several outputs of one property in a single payload
type SendToMany struct {
	header
	PropertyId protocol.PropertyId
	Outputs    []SendToManyOutput
}

// SendToManyOutput - one receiver slot: an output index of the host
// transaction and the amount for that output's address
type SendToManyOutput struct {
	OutputIndex uint8
	Amount      protocol.Amount
}

// TradeOffer - DEx-1: offer tokens for the host native coin
type TradeOffer struct {
	header
	PropertyId      protocol.PropertyId
	Amount          protocol.Amount
	AmountDesired   protocol.Amount // native coin
	PaymentWindow   uint8
	MinAcceptFee    protocol.Amount
	SubAction       uint8 // 1 new, 2 update, 3 cancel
}

// AcceptOffer - DEx-1: accept part of a standing sell offer
type AcceptOffer struct {
	header
	PropertyId protocol.PropertyId
	Amount     protocol.Amount
}

// MetaDExTrade - place a token for token order
type MetaDExTrade struct {
	header
	PropertyForSale protocol.PropertyId
	AmountForSale   protocol.Amount
	PropertyDesired protocol.PropertyId
	AmountDesired   protocol.Amount
}

// MetaDExCancelPrice - cancel orders of a pair at an exact price
type MetaDExCancelPrice struct {
	header
	PropertyForSale protocol.PropertyId
	AmountForSale   protocol.Amount
	PropertyDesired protocol.PropertyId
	AmountDesired   protocol.Amount
}

// MetaDExCancelPair - cancel every order of the sender on a pair
type MetaDExCancelPair struct {
	header
	PropertyForSale protocol.PropertyId
	PropertyDesired protocol.PropertyId
}

// MetaDExCancelEcosystem - cancel every order of the sender in an
// ecosystem
type MetaDExCancelEcosystem struct {
	header
	Ecosystem protocol.Ecosystem
}

// property metadata fields shared by the three creation types
type PropertyInfo struct {
	Ecosystem   protocol.Ecosystem
	Kind        protocol.PropertyKind
	PreviousId  protocol.PropertyId
	Category    string
	Subcategory string
	Name        string
	URL         string
	Data        string
}

// CreatePropertyFixed - fixed supply, minted to the issuer
type CreatePropertyFixed struct {
	header
	PropertyInfo
	Amount protocol.Amount
}

// CreatePropertyVariable - open a crowdsale
type CreatePropertyVariable struct {
	header
	PropertyInfo
	PropertyDesired  protocol.PropertyId
	TokensPerUnit    protocol.Amount
	Deadline         int64
	EarlyBirdBonus   uint8
	IssuerPercentage uint8
}

// CloseCrowdsale - end the sender's crowdsale early
type CloseCrowdsale struct {
	header
	PropertyId protocol.PropertyId
}

// CreatePropertyManaged - supply controlled by grant and revoke
type CreatePropertyManaged struct {
	header
	PropertyInfo
}

// GrantTokens - mint managed property tokens
type GrantTokens struct {
	header
	PropertyId protocol.PropertyId
	Amount     protocol.Amount
	GrantData  string // recorded on unique tokens
}

// RevokeTokens - burn managed property tokens from the sender
type RevokeTokens struct {
	header
	PropertyId protocol.PropertyId
	Amount     protocol.Amount
	Memo       string
}

// ChangeIssuer - hand a property to the reference recipient
type ChangeIssuer struct {
	header
	PropertyId protocol.PropertyId
}

// EnableFreezing - allow the issuer to freeze holders
type EnableFreezing struct {
	header
	PropertyId protocol.PropertyId
}

// DisableFreezing - drop the freezing capability and all flags
type DisableFreezing struct {
	header
	PropertyId protocol.PropertyId
}

// AddDelegate - the reference recipient may act for the issuer
type AddDelegate struct {
	header
	PropertyId protocol.PropertyId
}

// RemoveDelegate - clear the delegate
type RemoveDelegate struct {
	header
	PropertyId protocol.PropertyId
}

// FreezeTokens - freeze an address, named inside the payload
type FreezeTokens struct {
	header
	PropertyId protocol.PropertyId
	Amount     protocol.Amount // informational only
	Address    string
}

// UnfreezeTokens - unfreeze an address
type UnfreezeTokens struct {
	header
	PropertyId protocol.PropertyId
	Amount     protocol.Amount
	Address    string
}

// AnyData - free form data, optionally with a reference recipient
type AnyData struct {
	header
	Data []byte
}

// SetNonFungibleData - write issuer or holder data on a token range
type SetNonFungibleData struct {
	header
	PropertyId protocol.PropertyId
	TokenStart protocol.Amount
	TokenEnd   protocol.Amount
	IssuerData bool
	Data       string
}

// Deactivation - switch a live feature off, authorised senders only
type Deactivation struct {
	header
	FeatureId uint16
}

// Activation - schedule a feature to go live at a block
type Activation struct {
	header
	FeatureId        uint16
	ActivationBlock  uint32
	MinClientVersion uint32
}

// Alert - broadcast a message to every node, authorised senders only
type Alert struct {
	header
	AlertType   uint16
	ExpiryValue uint32
	Text        string
}

// TxType implementations
func (*SimpleSend) TxType() protocol.TxType             { return protocol.TxSimpleSend }
func (*SendToOwners) TxType() protocol.TxType           { return protocol.TxSendToOwners }
func (*SendAll) TxType() protocol.TxType                { return protocol.TxSendAll }
func (*SendNonFungible) TxType() protocol.TxType        { return protocol.TxSendNonFungible }
func (*SendToMany) TxType() protocol.TxType             { return protocol.TxSendToMany }
func (*TradeOffer) TxType() protocol.TxType             { return protocol.TxTradeOffer }
func (*AcceptOffer) TxType() protocol.TxType            { return protocol.TxAcceptOffer }
func (*MetaDExTrade) TxType() protocol.TxType           { return protocol.TxMetaDExTrade }
func (*MetaDExCancelPrice) TxType() protocol.TxType     { return protocol.TxMetaDExCancelPrice }
func (*MetaDExCancelPair) TxType() protocol.TxType      { return protocol.TxMetaDExCancelPair }
func (*MetaDExCancelEcosystem) TxType() protocol.TxType { return protocol.TxMetaDExCancelEco }
func (*CreatePropertyFixed) TxType() protocol.TxType    { return protocol.TxCreateFixed }
func (*CreatePropertyVariable) TxType() protocol.TxType { return protocol.TxCreateCrowdsale }
func (*CloseCrowdsale) TxType() protocol.TxType         { return protocol.TxCloseCrowdsale }
func (*CreatePropertyManaged) TxType() protocol.TxType  { return protocol.TxCreateManaged }
func (*GrantTokens) TxType() protocol.TxType            { return protocol.TxGrantTokens }
func (*RevokeTokens) TxType() protocol.TxType           { return protocol.TxRevokeTokens }
func (*ChangeIssuer) TxType() protocol.TxType           { return protocol.TxChangeIssuer }
func (*EnableFreezing) TxType() protocol.TxType         { return protocol.TxEnableFreezing }
func (*DisableFreezing) TxType() protocol.TxType        { return protocol.TxDisableFreezing }
func (*AddDelegate) TxType() protocol.TxType            { return protocol.TxAddDelegate }
func (*RemoveDelegate) TxType() protocol.TxType         { return protocol.TxRemoveDelegate }
func (*FreezeTokens) TxType() protocol.TxType           { return protocol.TxFreezeTokens }
func (*UnfreezeTokens) TxType() protocol.TxType         { return protocol.TxUnfreezeTokens }
func (*AnyData) TxType() protocol.TxType                { return protocol.TxAnyData }
func (*SetNonFungibleData) TxType() protocol.TxType     { return protocol.TxNonFungibleData }
func (*Deactivation) TxType() protocol.TxType           { return protocol.TxDeactivation }
func (*Activation) TxType() protocol.TxType             { return protocol.TxActivation }
func (*Alert) TxType() protocol.TxType                  { return protocol.TxAlert }
